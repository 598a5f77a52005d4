package back

import (
	"context"
	"strings"

	"foosball/internal/metrics"
	"foosball/internal/util"
	"foosball/pkg/trueskill"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// Back owns the database and every rule of the ladder, the web and CLI
// front ends only talk to it.
type Back struct {
	db      *sqlx.DB
	clock   clockwork.Clock
	env     trueskill.Env
	metrics metrics.Metrics
}

type Option func(*Back)

// WithClock replaces the wall clock used to timestamp rows.
func WithClock(c clockwork.Clock) Option {
	return func(b *Back) { b.clock = c }
}

// WithTrueSkill sets the rating environment used for player ratings.
func WithTrueSkill(env trueskill.Env) Option {
	return func(b *Back) { b.env = env }
}

func WithMetrics(m metrics.Metrics) Option {
	return func(b *Back) { b.metrics = m }
}

// New connects to the database, it does not touch the schema, see Migrate.
func New(sqlDriver string, sqlDSN string, options ...Option) (*Back, error) {
	// Why even bother converting names? A single greppable string across all
	// your source code is better than any odd conversion scheme you could ever
	// come up with.
	// HACK: This is global but putting this in init() makes test ugly.
	// As only the Back relies on the DB, this seems like an okay-ish place.
	sqlx.NameMapper = func(v string) string { return v }

	if sqlDriver == "sqlite3" {
		sqlDSN = withForeignKeys(sqlDSN)
	}

	db, err := sqlx.Connect(sqlDriver, sqlDSN)
	if err != nil {
		return nil, wrapDBError(err)
	}

	if sqlDriver == "libsql" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			db.Close()
			return nil, wrapDBError(err)
		}
	}

	// SQLite only allows one writer, serialize everything.
	db.SetMaxOpenConns(1)

	b := &Back{
		db:      db,
		clock:   clockwork.NewRealClock(),
		env:     trueskill.New(),
		metrics: metrics.Nop{},
	}
	for _, opt := range options {
		opt(b)
	}

	if err := b.env.Validate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("connected to %s database", sqlDriver)

	return b, nil
}

// withForeignKeys enables foreign keys on every connection the sqlite3 driver
// opens unless the DSN already says otherwise, cascades depend on it.
func withForeignKeys(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}

	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}

	return dsn + "?_foreign_keys=on"
}

func (b *Back) Close() error {
	return b.db.Close()
}

// Ping checks the database is still reachable.
func (b *Back) Ping(ctx context.Context) error {
	return wrapDBError(b.db.PingContext(ctx))
}

func (b *Back) transaction(ctx context.Context, cb util.TransactionCallback) error {
	return wrapDBError(util.Transaction(ctx, b.db, cb))
}

// reject counts a validation failure before returning it.
func (b *Back) reject(err error) error {
	if kind := errorKind(err); kind != "" {
		b.metrics.IncRejected(kind)
	}

	return err
}
