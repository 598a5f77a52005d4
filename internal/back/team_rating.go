package back

import (
	"database/sql"
	"errors"

	"foosball/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	glicko "github.com/zelenin/go-glicko2"
)

func (t Team) GlickoRating() *glicko.Rating {
	return glicko.NewRating(t.Rating, t.Deviation, t.Volatility)
}

func (t *Team) SetRating(r *glicko.Rating) {
	t.Rating = r.R()
	t.Deviation = r.Rd()
	t.Volatility = r.Sigma()
}

func (t *Team) updateRating(tx *sqlx.Tx) error {
	query, args, err := squirrel.Update("Team").SetMap(squirrel.Eq{
		"Rating":     t.Rating,
		"Deviation":  t.Deviation,
		"Volatility": t.Volatility,
	}).Where("Team.ID = ?", t.ID).ToSql()
	if err != nil {
		return err
	}

	_, err = tx.Exec(query, args...)
	return err
}

func (t *Team) resetRating() {
	t.Rating = glicko.RATING_BASE_R
	t.Deviation = glicko.RATING_BASE_RD
	t.Volatility = glicko.RATING_BASE_SIGMA
}

// findTeamForPair returns the registered team of a winning or losing pair, if
// any.
func findTeamForPair(tx *sqlx.Tx, offense, defense util.UUIDAsBlob) (*Team, error) {
	team, err := getTeamByPair(tx, offense, defense)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &team, nil
}

// rateTeams runs a one-match Glicko-2 rating period between two teams and
// stores the outcome.
func rateTeams(tx *sqlx.Tx, winner, loser *Team) error {
	w := glicko.NewPlayer(winner.GlickoRating())
	l := glicko.NewPlayer(loser.GlickoRating())

	period := glicko.NewRatingPeriod()
	period.AddPlayer(w)
	period.AddPlayer(l)
	period.AddMatch(w, l, glicko.MATCH_RESULT_WIN)
	period.Calculate()

	winner.SetRating(w.Rating())
	loser.SetRating(l.Rating())

	if err := winner.updateRating(tx); err != nil {
		return err
	}

	return loser.updateRating(tx)
}
