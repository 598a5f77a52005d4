package back

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LoadFixtures fills an empty database with a few players, teams and
// results for quick testing during development.
func (b *Back) LoadFixtures(ctx context.Context) error {
	keys := []PlayerKey{
		{"Ada", "Lovelace", "Countess"},
		{"Alan", "Turing", ""},
		{"Grace", "Hopper", "Amazing"},
		{"Edsger", "Dijkstra", ""},
		{"Barbara", "Liskov", ""},
		{"Ken", "Thompson", "ken"},
	}

	teams := []struct {
		name     string
		one, two int
	}{
		{"Analytical Engines", 0, 1},
		{"Compilers", 2, 3},
		{"Substitutes", 4, 5},
	}

	// Winners then losers, offense then defense.
	results := [][4]int{
		{0, 1, 2, 3},
		{2, 3, 4, 5},
		{0, 1, 4, 5},
		{3, 2, 1, 0},
		{5, 4, 3, 2},
		{1, 0, 5, 4},
		{0, 2, 1, 3},
	}

	return b.transaction(ctx, func(tx *sqlx.Tx) error {
		// Spread results in the past so they do not share a timestamp, players
		// join before the first one.
		now := b.clock.Now()
		joined := now.Add(-time.Duration(len(results)+1) * time.Hour)

		players := make([]Player, len(keys))
		for k, v := range keys {
			p, err := b.createPlayer(tx, v, joined)
			if err != nil {
				return fmt.Errorf("unable to create %s: %w", v.DisplayName(), err)
			}
			players[k] = p
		}

		for _, v := range teams {
			team := b.newTeam(v.name)
			team.Members = []Player{players[v.one], players[v.two]}
			if err := team.insert(tx); err != nil {
				return err
			}
		}

		for k, v := range results {
			seats := [4]Player{players[v[0]], players[v[1]], players[v[2]], players[v[3]]}
			at := now.Add(time.Duration(k-len(results)) * time.Hour)
			if _, err := b.recordMatch(tx, &seats, at); err != nil {
				return err
			}

			// Keep the rating pointers current for the next result.
			for i, seat := range v {
				players[seat] = seats[i]
			}
		}

		return nil
	})
}
