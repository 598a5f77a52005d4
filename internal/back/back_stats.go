package back

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"foosball/internal/util"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// StatsMisc holds the counters shown on the dashboard.
type StatsMisc struct {
	Players, Teams, Results int
	RatingsRecorded         int
	// NULL when no result was ever recorded.
	FirstResult, LastResult null.Int
}

func (s StatsMisc) FirstResultAt() time.Time {
	return time.Unix(s.FirstResult.Int64, 0)
}

func (s StatsMisc) LastResultAt() time.Time {
	return time.Unix(s.LastResult.Int64, 0)
}

func (b *Back) GetMiscStats(ctx context.Context) (misc StatsMisc, _ error) {
	start := time.Now()
	defer func() { log.Debugf("computed misc stats in %s", time.Since(start)) }()

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		queries := []struct {
			Dst   interface{}
			Query string
		}{
			{&misc.Players, `SELECT COUNT(*) FROM Player`},
			{&misc.Teams, `SELECT COUNT(*) FROM Team`},
			{&misc.Results, `SELECT COUNT(*) FROM Result`},
			{&misc.RatingsRecorded, `SELECT COUNT(*) FROM Rating`},
			{&misc.FirstResult, `SELECT MIN(CreatedAt) FROM Result`},
			{&misc.LastResult, `SELECT MAX(CreatedAt) FROM Result`},
		}

		for _, v := range queries {
			if err := tx.Get(v.Dst, v.Query); err != nil {
				// Ignore empty results, that's just an empty ladder.
				if !errors.Is(err, sql.ErrNoRows) {
					return err
				}
			}
		}

		return nil
	}); err != nil {
		return StatsMisc{}, err
	}

	return misc, nil
}

// GetConservativeRatings returns the current mu-3σ of every player for role.
func (b *Back) GetConservativeRatings(ctx context.Context, role Role) (ret []float64, _ error) {
	if !role.Valid() {
		return nil, b.reject(invalidf("unknown role %q", role))
	}

	column := "OffenseRatingID"
	if role == RoleDefense {
		column = "DefenseRatingID"
	}

	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `
            SELECT (Rating.Mu - 3*Rating.Sigma) FROM Player
            INNER JOIN Rating ON (Rating.ID = Player.`+column+`)`,
		)
	})
}

// GetRatingsDigest identifies the current ratings of every player. Rating IDs
// are never reused so the digest changes whenever a rating is added, replaced
// or removed.
func (b *Back) GetRatingsDigest(ctx context.Context) (digest uint64, _ error) {
	return digest, b.transaction(ctx, func(tx *sqlx.Tx) error {
		var ids []util.UUIDAsBlob
		if err := tx.Select(&ids, `
            SELECT OffenseRatingID FROM Player
            UNION ALL SELECT DefenseRatingID FROM Player
            ORDER BY 1`,
		); err != nil {
			return err
		}

		h := xxhash.New()
		for _, id := range ids {
			_, _ = h.Write(id[:])
		}
		digest = h.Sum64()

		return nil
	})
}
