package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"foosball/internal/util"
	"foosball/pkg/trueskill"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
)

// Match names the four players of a game: a winning pair and a losing pair,
// each with one offense and one defense player.
type Match struct {
	OffenseWinner, DefenseWinner PlayerKey
	OffenseLoser, DefenseLoser   PlayerKey
}

func (m Match) validate() error {
	keys := []struct {
		name string
		key  PlayerKey
	}{
		{"offense winner", m.OffenseWinner},
		{"defense winner", m.DefenseWinner},
		{"offense loser", m.OffenseLoser},
		{"defense loser", m.DefenseLoser},
	}

	seen := make(map[PlayerKey]string, len(keys))
	for _, v := range keys {
		if err := v.key.validate(); err != nil {
			return invalidf("%s must be complete: %s", v.name, err)
		}

		if other, ok := seen[v.key]; ok {
			return invalidf("%s cannot also be %s", v.key.DisplayName(), other)
		}
		seen[v.key] = v.name
	}

	return nil
}

// A Result is the immutable record of a played Match.
type Result struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp

	OffenseWinnerID util.UUIDAsBlob
	DefenseWinnerID util.UUIDAsBlob
	OffenseLoserID  util.UUIDAsBlob
	DefenseLoserID  util.UUIDAsBlob

	// Set when the pair is a registered Team.
	WinnerTeamID util.NullUUIDAsBlob
	LoserTeamID  util.NullUUIDAsBlob
}

func (r *Result) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Result").SetMap(squirrel.Eq{
		"ID":              r.ID,
		"CreatedAt":       r.CreatedAt,
		"OffenseWinnerID": r.OffenseWinnerID,
		"DefenseWinnerID": r.DefenseWinnerID,
		"OffenseLoserID":  r.OffenseLoserID,
		"DefenseLoserID":  r.DefenseLoserID,
		"WinnerTeamID":    r.WinnerTeamID,
		"LoserTeamID":     r.LoserTeamID,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	return nil
}

// PlayerIDs returns the four participants, winners first, offense first.
func (r Result) PlayerIDs() []util.UUIDAsBlob {
	return []util.UUIDAsBlob{r.OffenseWinnerID, r.DefenseWinnerID, r.OffenseLoserID, r.DefenseLoserID}
}

// RecordResult stores the outcome of a match and updates the ratings of the
// four players, and of the two teams if both pairs are registered teams.
// Nothing is stored if any of the players does not exist.
func (b *Back) RecordResult(ctx context.Context, m Match) (result Result, _ error) {
	if err := m.validate(); err != nil {
		return Result{}, b.reject(err)
	}

	start := time.Now()
	if err := b.transaction(ctx, func(tx *sqlx.Tx) (err error) {
		var players [4]Player
		for k, key := range []PlayerKey{m.OffenseWinner, m.DefenseWinner, m.OffenseLoser, m.DefenseLoser} {
			p, err := getPlayerByKey(tx, key)
			if err != nil {
				return err
			}
			players[k] = p
		}

		result, err = b.recordMatch(tx, &players, b.clock.Now())
		return err
	}); err != nil {
		return Result{}, b.reject(err)
	}

	b.metrics.ObserveRatingUpdate(time.Since(start))
	b.metrics.IncCreated("result")
	log.Infof(
		"recorded result %s: %s/%s beat %s/%s",
		result.ID,
		m.OffenseWinner.DisplayName(), m.DefenseWinner.DisplayName(),
		m.OffenseLoser.DisplayName(), m.DefenseLoser.DisplayName(),
	)

	return result, nil
}

// MatchQuality returns the draw probability of m from the current ratings,
// higher means a more balanced match. Nothing is recorded, the winner and
// loser sides only name the two pairs.
func (b *Back) MatchQuality(ctx context.Context, m Match) (quality float64, _ error) {
	if err := m.validate(); err != nil {
		return 0, err
	}

	return quality, b.transaction(ctx, func(tx *sqlx.Tx) error {
		seats := []struct {
			key  PlayerKey
			role Role
		}{
			{m.OffenseWinner, RoleOffense},
			{m.DefenseWinner, RoleDefense},
			{m.OffenseLoser, RoleOffense},
			{m.DefenseLoser, RoleDefense},
		}

		ratings := make([]trueskill.Rating, len(seats))
		for k, v := range seats {
			p, err := getPlayerByKey(tx, v.key)
			if err != nil {
				return err
			}

			r, err := getCurrentRating(tx, p, v.role)
			if err != nil {
				return err
			}
			ratings[k] = r.TrueSkill()
		}

		quality = b.env.Quality(ratings[0:2], ratings[2:4])
		return nil
	})
}

// recordMatch rates the four players (winners first, offense first) and
// their teams, then stores the result.
func (b *Back) recordMatch(tx *sqlx.Tx, players *[4]Player, at time.Time) (Result, error) {
	result := Result{
		ID:              util.NewUUIDAsBlob(),
		CreatedAt:       util.TimeAsTimestamp(at),
		OffenseWinnerID: players[0].ID,
		DefenseWinnerID: players[1].ID,
		OffenseLoserID:  players[2].ID,
		DefenseLoserID:  players[3].ID,
	}

	if err := b.ratePlayers(tx, at, &players[0], &players[1], &players[2], &players[3]); err != nil {
		return Result{}, err
	}

	winner, err := findTeamForPair(tx, players[0].ID, players[1].ID)
	if err != nil {
		return Result{}, err
	}
	loser, err := findTeamForPair(tx, players[2].ID, players[3].ID)
	if err != nil {
		return Result{}, err
	}
	if winner != nil {
		result.WinnerTeamID = util.NewNullUUIDAsBlob(winner.ID)
	}
	if loser != nil {
		result.LoserTeamID = util.NewNullUUIDAsBlob(loser.ID)
	}
	if winner != nil && loser != nil {
		if err := rateTeams(tx, winner, loser); err != nil {
			return Result{}, fmt.Errorf("unable to rate teams: %w", err)
		}
	}

	if err := result.insert(tx); err != nil {
		return Result{}, err
	}

	return result, nil
}

// ratePlayers feeds the current role ratings of both pairs to TrueSkill and
// stores the four new ratings, dated at.
func (b *Back) ratePlayers(tx *sqlx.Tx, at time.Time, offenseWinner, defenseWinner, offenseLoser, defenseLoser *Player) error {
	seats := []struct {
		player *Player
		role   Role
	}{
		{offenseWinner, RoleOffense},
		{defenseWinner, RoleDefense},
		{offenseLoser, RoleOffense},
		{defenseLoser, RoleDefense},
	}

	before := make([]trueskill.Rating, len(seats))
	for k, v := range seats {
		r, err := getCurrentRating(tx, *v.player, v.role)
		if err != nil {
			return err
		}
		before[k] = r.TrueSkill()
	}

	after, err := b.env.Rate([][]trueskill.Rating{before[0:2], before[2:4]}, []int{0, 1})
	if err != nil {
		return err
	}

	for k, v := range seats {
		r := newRating(v.player.ID, v.role, after[k/2][k%2], at)
		if err := setCurrentRating(tx, v.player, r); err != nil {
			return err
		}
		log.Debugf("%s %s: %s -> %s", v.player.Name(), v.role, before[k], r.TrueSkill())
	}

	return nil
}

// ResultDetails is a Result with its players and teams resolved.
type ResultDetails struct {
	Result

	OffenseWinner, DefenseWinner Player
	OffenseLoser, DefenseLoser   Player
	WinnerTeam, LoserTeam        string
}

// GetResults returns the last results, latest first. A limit ≤ 0 returns
// every result.
func (b *Back) GetResults(ctx context.Context, limit int) (ret []ResultDetails, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		q := squirrel.Select("*").From("Result").OrderBy("CreatedAt DESC", "rowid DESC")
		if limit > 0 {
			q = q.Limit(uint64(limit))
		}
		query, args, err := q.ToSql()
		if err != nil {
			return err
		}

		var results []Result
		if err := tx.Select(&results, query, args...); err != nil {
			return err
		}

		ret, err = getResultsDetails(tx, results)
		return err
	})
}

func getResultsDetails(tx *sqlx.Tx, results []Result) ([]ResultDetails, error) {
	ids := make([]util.UUIDAsBlob, 0, 4*len(results))
	for k := range results {
		ids = append(ids, results[k].PlayerIDs()...)
	}

	players, err := getPlayersByIDs(tx, ids)
	if err != nil {
		return nil, err
	}

	var teams []Team
	if err := tx.Select(&teams, `SELECT * FROM Team`); err != nil {
		return nil, err
	}
	teamNames := make(map[util.UUIDAsBlob]string, len(teams))
	for _, v := range teams {
		teamNames[v.ID] = v.Name
	}

	ret := make([]ResultDetails, 0, len(results))
	for _, v := range results {
		d := ResultDetails{
			Result:        v,
			OffenseWinner: players[v.OffenseWinnerID],
			DefenseWinner: players[v.DefenseWinnerID],
			OffenseLoser:  players[v.OffenseLoserID],
			DefenseLoser:  players[v.DefenseLoserID],
		}
		if v.WinnerTeamID.Valid {
			d.WinnerTeam = teamNames[v.WinnerTeamID.UUID]
		}
		if v.LoserTeamID.Valid {
			d.LoserTeam = teamNames[v.LoserTeamID.UUID]
		}
		ret = append(ret, d)
	}

	return ret, nil
}

// GetPlayerResults returns the results a player took part in, latest first.
func (b *Back) GetPlayerResults(ctx context.Context, playerID util.UUIDAsBlob) (ret []ResultDetails, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		var results []Result
		if err := tx.Select(&results, `
            SELECT * FROM Result
            WHERE ? IN (OffenseWinnerID, DefenseWinnerID, OffenseLoserID, DefenseLoserID)
            ORDER BY CreatedAt DESC, rowid DESC`,
			playerID,
		); err != nil {
			return err
		}

		var err error
		ret, err = getResultsDetails(tx, results)
		return err
	})
}

func (b *Back) CountResults(ctx context.Context) (count int, _ error) {
	return count, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Get(&count, `SELECT COUNT(*) FROM Result`)
	})
}

// DeleteResult removes a result and recomputes every rating as if it had
// never been recorded.
func (b *Back) DeleteResult(ctx context.Context, id util.UUIDAsBlob) error {
	if id.IsZero() {
		return b.reject(invalidf("a result must be given"))
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		var result Result
		if err := tx.Get(&result, `SELECT * FROM Result WHERE ID = ? LIMIT 1`, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return notFoundf("result %s doesn't exist", id)
			}
			return err
		}

		if _, err := tx.Exec(`DELETE FROM Result WHERE ID = ?`, id); err != nil {
			return err
		}

		return b.rerank(tx)
	}); err != nil {
		return b.reject(err)
	}

	log.Infof("deleted result %s", id)
	b.metrics.IncDeleted("result")

	return nil
}
