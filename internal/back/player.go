package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"foosball/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// KeySeparator joins the parts of a serialized PlayerKey.
const KeySeparator = "|"

// PlayerKey is the natural key of a Player, unique across the ladder.
// An empty Nickname is a valid, distinct, value.
type PlayerKey struct {
	FirstName, LastName, Nickname string
}

// NewPlayerKey builds a key from exactly three parts: first name, last name
// and nickname.
func NewPlayerKey(parts ...string) (PlayerKey, error) {
	if len(parts) != 3 {
		return PlayerKey{}, invalidf(
			"a player must be given as first name, last name and nickname, got %d part(s)",
			len(parts),
		)
	}

	k := PlayerKey{
		FirstName: strings.TrimSpace(parts[0]),
		LastName:  strings.TrimSpace(parts[1]),
		Nickname:  strings.TrimSpace(parts[2]),
	}

	return k, k.validate()
}

// ParsePlayerKey parses the output of PlayerKey.String.
func ParsePlayerKey(str string) (PlayerKey, error) {
	if strings.TrimSpace(str) == "" {
		return PlayerKey{}, invalidf("player must be complete")
	}

	return NewPlayerKey(strings.Split(str, KeySeparator)...)
}

func (k PlayerKey) String() string {
	return strings.Join([]string{k.FirstName, k.LastName, k.Nickname}, KeySeparator)
}

// DisplayName is the name to show to users.
func (k PlayerKey) DisplayName() string {
	if k.Nickname == "" {
		return k.FirstName + " " + k.LastName
	}

	return fmt.Sprintf("%s “%s” %s", k.FirstName, k.Nickname, k.LastName)
}

func (k PlayerKey) validate() error {
	if k.FirstName == "" {
		return invalidf("first name must be at least one character")
	}

	if k.LastName == "" {
		return invalidf("last name must be at least one character")
	}

	for _, v := range []string{k.FirstName, k.LastName, k.Nickname} {
		if strings.Contains(v, KeySeparator) {
			return invalidf("names cannot contain %q", KeySeparator)
		}
		if utf8.RuneCountInString(v) > 45 {
			return invalidf("names must be at most 45 characters")
		}
	}

	return nil
}

// A Player is a competitor, rated separately as offense and defense.
type Player struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	FirstName string
	LastName  string
	Nickname  string

	OffenseRatingID util.UUIDAsBlob
	DefenseRatingID util.UUIDAsBlob
}

func newPlayer(k PlayerKey, at time.Time) Player {
	return Player{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(at),
		FirstName: k.FirstName,
		LastName:  k.LastName,
		Nickname:  k.Nickname,
	}
}

func (p Player) Key() PlayerKey {
	return PlayerKey{p.FirstName, p.LastName, p.Nickname}
}

func (p Player) Name() string {
	return p.Key().DisplayName()
}

func (p *Player) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Player").SetMap(squirrel.Eq{
		"ID":              p.ID,
		"CreatedAt":       p.CreatedAt,
		"FirstName":       p.FirstName,
		"LastName":        p.LastName,
		"Nickname":        p.Nickname,
		"OffenseRatingID": p.OffenseRatingID,
		"DefenseRatingID": p.DefenseRatingID,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// createPlayer inserts a player along with a default rating for each role.
func (b *Back) createPlayer(tx *sqlx.Tx, k PlayerKey, at time.Time) (Player, error) {
	player := newPlayer(k, at)
	offense := newRating(player.ID, RoleOffense, b.env.NewRating(), at)
	defense := newRating(player.ID, RoleDefense, b.env.NewRating(), at)
	player.OffenseRatingID = offense.ID
	player.DefenseRatingID = defense.ID

	for _, r := range []*Rating{&offense, &defense} {
		if err := r.insert(tx); err != nil {
			return Player{}, fmt.Errorf("unable to insert initial rating: %w", err)
		}
	}

	if err := player.insert(tx); err != nil {
		return Player{}, err
	}

	return player, nil
}

func getPlayerByKey(tx *sqlx.Tx, k PlayerKey) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE FirstName = ? AND LastName = ? AND Nickname = ? LIMIT 1`
	if err := tx.Get(&ret, query, k.FirstName, k.LastName, k.Nickname); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, notFoundf("player %s doesn't exist", k.DisplayName())
		}
		return Player{}, err
	}

	return ret, nil
}

func getPlayerByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Player, error) {
	var ret Player
	query := `SELECT * FROM Player WHERE Player.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Player{}, notFoundf("player %s doesn't exist", id)
		}
		return Player{}, err
	}

	return ret, nil
}

func playerExists(tx *sqlx.Tx, k PlayerKey) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM Player WHERE FirstName = ? AND LastName = ? AND Nickname = ?`
	if err := tx.Get(&count, query, k.FirstName, k.LastName, k.Nickname); err != nil {
		return false, err
	}

	return count > 0, nil
}

func getPlayersByIDs(tx *sqlx.Tx, ids []util.UUIDAsBlob) (map[util.UUIDAsBlob]Player, error) {
	if len(ids) == 0 {
		return map[util.UUIDAsBlob]Player{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM Player WHERE ID IN(?)`, ids)
	if err != nil {
		return nil, err
	}
	query = tx.Rebind(query)

	players := make([]Player, 0, len(ids))
	if err := tx.Select(&players, query, args...); err != nil {
		return nil, err
	}

	ret := make(map[util.UUIDAsBlob]Player, len(players))
	for k := range players {
		ret[players[k].ID] = players[k]
	}

	return ret, nil
}

// AddPlayer registers a new player with default ratings.
func (b *Back) AddPlayer(ctx context.Context, k PlayerKey) (player Player, _ error) {
	if err := k.validate(); err != nil {
		return Player{}, b.reject(err)
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		exists, err := playerExists(tx, k)
		if err != nil {
			return err
		}
		if exists {
			return existsf("player %s already exists", k.DisplayName())
		}

		player, err = b.createPlayer(tx, k, b.clock.Now())
		return err
	}); err != nil {
		return Player{}, b.reject(err)
	}

	log.Infof("added player %s", player.Name())
	b.metrics.IncCreated("player")

	return player, nil
}

// PlayerExists tells if a player with this natural key is registered.
func (b *Back) PlayerExists(ctx context.Context, k PlayerKey) (exists bool, _ error) {
	if err := k.validate(); err != nil {
		return false, b.reject(err)
	}

	return exists, b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		exists, err = playerExists(tx, k)
		return err
	})
}

// GetPlayers returns every player, last registered first.
func (b *Back) GetPlayers(ctx context.Context) (ret []Player, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `SELECT * FROM Player ORDER BY CreatedAt DESC, rowid DESC`)
	})
}

func (b *Back) GetPlayer(ctx context.Context, id util.UUIDAsBlob) (ret Player, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerByID(tx, id)
		return err
	})
}

func (b *Back) GetPlayerByKey(ctx context.Context, k PlayerKey) (ret Player, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		ret, err = getPlayerByKey(tx, k)
		return err
	})
}

func (b *Back) CountPlayers(ctx context.Context) (count int, _ error) {
	return count, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Get(&count, `SELECT COUNT(*) FROM Player`)
	})
}

// DeletePlayer removes a player that never played, along with its rating
// history and the teams it was part of.
func (b *Back) DeletePlayer(ctx context.Context, k PlayerKey) error {
	if err := k.validate(); err != nil {
		return b.reject(err)
	}

	var deletedTeams int64
	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		var count int
		if err := tx.Get(&count, `SELECT COUNT(*) FROM Player`); err != nil {
			return err
		}
		if count == 0 {
			return notFoundf("no players in database to delete")
		}

		player, err := getPlayerByKey(tx, k)
		if err != nil {
			return err
		}

		if err := tx.Get(&count, `
            SELECT COUNT(*) FROM Result
            WHERE ? IN (OffenseWinnerID, DefenseWinnerID, OffenseLoserID, DefenseLoserID)`,
			player.ID,
		); err != nil {
			return err
		}
		if count > 0 {
			return conflictf("player %s has %d recorded result(s) and cannot be deleted", k.DisplayName(), count)
		}

		res, err := tx.Exec(
			`DELETE FROM Team WHERE ID IN (SELECT TeamID FROM PlayerTeamXRef WHERE PlayerID = ?)`,
			player.ID,
		)
		if err != nil {
			return fmt.Errorf("unable to delete teams: %w", err)
		}
		deletedTeams, _ = res.RowsAffected()

		if _, err := tx.Exec(`DELETE FROM Player WHERE ID = ?`, player.ID); err != nil {
			return fmt.Errorf("unable to delete player: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM Rating WHERE PlayerID = ?`, player.ID); err != nil {
			return fmt.Errorf("unable to delete ratings: %w", err)
		}

		return nil
	}); err != nil {
		return b.reject(err)
	}

	log.Infof("deleted player %s and %d team(s)", k.DisplayName(), deletedTeams)
	b.metrics.IncDeleted("player")
	for i := int64(0); i < deletedTeams; i++ {
		b.metrics.IncDeleted("team")
	}

	return nil
}
