package back

import (
	"context"
	"fmt"
	"time"

	"foosball/internal/util"
	"foosball/pkg/trueskill"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// Role is the position a player holds at the table, each one has its own
// rating.
type Role string

const (
	RoleOffense Role = "offense"
	RoleDefense Role = "defense"
)

func (r Role) Valid() bool {
	return r == RoleOffense || r == RoleDefense
}

// A Rating is one immutable (Mu, Sigma) estimate of a player's skill in a
// role. Every update creates a new Rating, the Player points to its current
// ones, the older rows are the history.
type Rating struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	PlayerID  util.UUIDAsBlob
	Role      Role
	Mu        float64
	Sigma     float64
}

func newRating(playerID util.UUIDAsBlob, role Role, r trueskill.Rating, at time.Time) Rating {
	return Rating{
		ID:        util.NewUUIDAsBlob(),
		CreatedAt: util.TimeAsTimestamp(at),
		PlayerID:  playerID,
		Role:      role,
		Mu:        r.Mu,
		Sigma:     r.Sigma,
	}
}

// TrueSkill returns the rating as understood by the rating package.
func (r Rating) TrueSkill() trueskill.Rating {
	return trueskill.Rating{Mu: r.Mu, Sigma: r.Sigma}
}

// Rank is the conservative skill estimate used for leaderboards.
func (r Rating) Rank() float64 {
	return util.Round4(r.TrueSkill().Conservative())
}

func (r *Rating) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Rating").SetMap(squirrel.Eq{
		"ID":        r.ID,
		"CreatedAt": r.CreatedAt,
		"PlayerID":  r.PlayerID,
		"Role":      r.Role,
		"Mu":        r.Mu,
		"Sigma":     r.Sigma,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

func getRatingByID(tx *sqlx.Tx, id util.UUIDAsBlob) (Rating, error) {
	var ret Rating
	query := `SELECT * FROM Rating WHERE Rating.ID = ? LIMIT 1`
	if err := tx.Get(&ret, query, id); err != nil {
		return Rating{}, err
	}

	return ret, nil
}

// getCurrentRating returns the rating a player currently points to for role.
func getCurrentRating(tx *sqlx.Tx, player Player, role Role) (Rating, error) {
	var id util.UUIDAsBlob
	switch role {
	case RoleOffense:
		id = player.OffenseRatingID
	case RoleDefense:
		id = player.DefenseRatingID
	default:
		return Rating{}, fmt.Errorf("unknown role %q", role)
	}

	r, err := getRatingByID(tx, id)
	if err != nil {
		return Rating{}, fmt.Errorf("no %s rating for player %s: %w", role, player.ID, err)
	}

	return r, nil
}

// setCurrentRating stores r and repoints the player's role rating to it.
func setCurrentRating(tx *sqlx.Tx, player *Player, r Rating) error {
	if err := r.insert(tx); err != nil {
		return fmt.Errorf("unable to insert rating: %w", err)
	}

	column := "OffenseRatingID"
	if r.Role == RoleDefense {
		column = "DefenseRatingID"
	}

	query, args, err := squirrel.Update("Player").
		Set(column, r.ID).
		Where("Player.ID = ?", player.ID).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return fmt.Errorf("unable to repoint %s rating: %w", r.Role, err)
	}

	if r.Role == RoleDefense {
		player.DefenseRatingID = r.ID
	} else {
		player.OffenseRatingID = r.ID
	}

	return nil
}

// GetRatingHistory returns every rating a player ever had, oldest first.
func (b *Back) GetRatingHistory(ctx context.Context, playerID util.UUIDAsBlob) (ret []Rating, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getPlayerByID(tx, playerID); err != nil {
			return err
		}

		return tx.Select(
			&ret,
			`SELECT * FROM Rating WHERE PlayerID = ? ORDER BY CreatedAt ASC, rowid ASC`,
			playerID,
		)
	})
}
