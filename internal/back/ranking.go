package back

import (
	"context"
	"fmt"
	"sort"
	"time"

	"foosball/internal/util"

	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	"gopkg.in/guregu/null.v4"
)

// RankingEntry is the standing of one player in one role.
type RankingEntry struct {
	PlayerID   util.UUIDAsBlob
	PlayerName string
	Role       Role
	Mu         float64
	Sigma      float64
	// Rank is mu-3σ rounded to 4 decimals.
	Rank   float64
	Wins   int
	Losses int
}

type byRank []RankingEntry

func (a byRank) Len() int {
	return len(a)
}

func (a byRank) Less(i, j int) bool {
	if a[i].Rank != a[j].Rank {
		return a[i].Rank > a[j].Rank
	}

	return a[i].PlayerName < a[j].PlayerName
}

func (a byRank) Swap(i, j int) {
	a[i], a[j] = a[j], a[i]
}

// SortRankings orders entries best first.
func SortRankings(entries []RankingEntry) {
	sort.Stable(byRank(entries))
}

// FilterRankings returns the entries of a single role, in the same order.
func FilterRankings(entries []RankingEntry, role Role) []RankingEntry {
	ret := make([]RankingEntry, 0, len(entries)/2)
	for _, v := range entries {
		if v.Role == role {
			ret = append(ret, v)
		}
	}

	return ret
}

// GetRankings returns two entries per player, one per role, in no particular
// order. See SortRankings.
func (b *Back) GetRankings(ctx context.Context) ([]RankingEntry, error) {
	var rows []struct {
		Player
		OffenseMu, OffenseSigma    float64
		DefenseMu, DefenseSigma    float64
		OffenseWins, OffenseLosses int
		DefenseWins, DefenseLosses int
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&rows, `
            SELECT
                Player.*,
                O.Mu AS OffenseMu, O.Sigma AS OffenseSigma,
                D.Mu AS DefenseMu, D.Sigma AS DefenseSigma,
                (SELECT COUNT(*) FROM Result WHERE OffenseWinnerID = Player.ID) AS OffenseWins,
                (SELECT COUNT(*) FROM Result WHERE OffenseLoserID = Player.ID) AS OffenseLosses,
                (SELECT COUNT(*) FROM Result WHERE DefenseWinnerID = Player.ID) AS DefenseWins,
                (SELECT COUNT(*) FROM Result WHERE DefenseLoserID = Player.ID) AS DefenseLosses
            FROM Player
            INNER JOIN Rating AS O ON (O.ID = Player.OffenseRatingID)
            INNER JOIN Rating AS D ON (D.ID = Player.DefenseRatingID)
        `)
	}); err != nil {
		return nil, err
	}

	ret := make([]RankingEntry, 0, 2*len(rows))
	for _, v := range rows {
		offense := Rating{Mu: v.OffenseMu, Sigma: v.OffenseSigma}
		defense := Rating{Mu: v.DefenseMu, Sigma: v.DefenseSigma}

		ret = append(ret,
			RankingEntry{
				PlayerID:   v.ID,
				PlayerName: v.Name(),
				Role:       RoleOffense,
				Mu:         offense.Mu,
				Sigma:      offense.Sigma,
				Rank:       offense.Rank(),
				Wins:       v.OffenseWins,
				Losses:     v.OffenseLosses,
			},
			RankingEntry{
				PlayerID:   v.ID,
				PlayerName: v.Name(),
				Role:       RoleDefense,
				Mu:         defense.Mu,
				Sigma:      defense.Sigma,
				Rank:       defense.Rank(),
				Wins:       v.DefenseWins,
				Losses:     v.DefenseLosses,
			},
		)
	}

	return ret, nil
}

// TeamLeaderboardEntry is the standing of a team.
type TeamLeaderboardEntry struct {
	TeamID    util.UUIDAsBlob
	Name      string
	Rating    float64
	Deviation float64
	Wins      int
	Losses    int
	// NULL when the team never played another team.
	LastPlayed null.Int
}

func (e TeamLeaderboardEntry) LastPlayedAt() time.Time {
	return time.Unix(e.LastPlayed.Int64, 0)
}

// GetTeamLeaderboard returns every team ordered by conservative Glicko-2
// rating.
func (b *Back) GetTeamLeaderboard(ctx context.Context) (ret []TeamLeaderboardEntry, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Select(&ret, `
            SELECT
                Team.ID AS TeamID,
                Team.Name AS Name,
                Team.Rating AS Rating,
                Team.Deviation AS Deviation,
                SUM(CASE WHEN Result.WinnerTeamID = Team.ID THEN 1 ELSE 0 END) AS Wins,
                SUM(CASE WHEN Result.LoserTeamID = Team.ID THEN 1 ELSE 0 END) AS Losses,
                MAX(Result.CreatedAt) AS LastPlayed
            FROM Team
            LEFT JOIN Result ON (
                (Result.WinnerTeamID = Team.ID AND Result.LoserTeamID IS NOT NULL)
                OR (Result.LoserTeamID = Team.ID AND Result.WinnerTeamID IS NOT NULL)
            )
            GROUP BY Team.ID
            ORDER BY (Team.Rating - (2*Team.Deviation)) DESC, Team.Name ASC
        `)
	})
}

// Rerank recomputes every player and team rating by replaying all results in
// the order they were recorded.
func (b *Back) Rerank(ctx context.Context) error {
	start := time.Now()
	if err := b.transaction(ctx, b.rerank); err != nil {
		return err
	}

	log.Infof("recomputed rankings in %s", time.Since(start))

	return nil
}

func (b *Back) rerank(tx *sqlx.Tx) error {
	var players []Player
	if err := tx.Select(&players, `SELECT * FROM Player`); err != nil {
		return err
	}

	// The history is rebuilt from scratch: a default rating dated when the
	// player joined, then one rating per replayed result.
	playersByID := make(map[util.UUIDAsBlob]*Player, len(players))
	for k := range players {
		p := &players[k]
		playersByID[p.ID] = p

		for _, role := range []Role{RoleOffense, RoleDefense} {
			r := newRating(p.ID, role, b.env.NewRating(), p.CreatedAt.Time())
			if err := setCurrentRating(tx, p, r); err != nil {
				return fmt.Errorf("unable to reset ratings: %w", err)
			}
		}
	}

	if _, err := tx.Exec(`
        DELETE FROM Rating WHERE ID NOT IN (
            SELECT OffenseRatingID FROM Player
            UNION SELECT DefenseRatingID FROM Player
        )`,
	); err != nil {
		return fmt.Errorf("unable to clear rating history: %w", err)
	}

	var teams []Team
	if err := tx.Select(&teams, `SELECT * FROM Team`); err != nil {
		return err
	}

	teamsByID := make(map[util.UUIDAsBlob]*Team, len(teams))
	for k := range teams {
		t := &teams[k]
		teamsByID[t.ID] = t
		t.resetRating()
		if err := t.updateRating(tx); err != nil {
			return fmt.Errorf("unable to reset team rating: %w", err)
		}
	}

	var results []Result
	if err := tx.Select(&results, `SELECT * FROM Result ORDER BY CreatedAt ASC, rowid ASC`); err != nil {
		return err
	}

	for _, v := range results {
		var seats [4]*Player
		for k, id := range v.PlayerIDs() {
			p, ok := playersByID[id]
			if !ok {
				return fmt.Errorf("result %s references unknown player %s", v.ID, id)
			}
			seats[k] = p
		}

		if err := b.ratePlayers(tx, v.CreatedAt.Time(), seats[0], seats[1], seats[2], seats[3]); err != nil {
			return fmt.Errorf("unable to replay result %s: %w", v.ID, err)
		}

		if !v.WinnerTeamID.Valid || !v.LoserTeamID.Valid {
			continue
		}

		winner, loser := teamsByID[v.WinnerTeamID.UUID], teamsByID[v.LoserTeamID.UUID]
		if winner == nil || loser == nil {
			continue
		}

		if err := rateTeams(tx, winner, loser); err != nil {
			return fmt.Errorf("unable to replay team result %s: %w", v.ID, err)
		}
	}

	log.Debugf("replayed %d results for %d players and %d teams", len(results), len(players), len(teams))

	return nil
}
