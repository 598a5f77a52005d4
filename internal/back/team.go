package back

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"foosball/internal/util"

	"github.com/Masterminds/squirrel"
	"github.com/charmbracelet/log"
	"github.com/jmoiron/sqlx"
	glicko "github.com/zelenin/go-glicko2"
)

// A Team is a named pair of players. Teams carry their own Glicko-2 rating,
// updated when a result opposes two registered teams.
type Team struct {
	ID        util.UUIDAsBlob
	CreatedAt util.TimeAsTimestamp
	Name      string

	// Glicko-2
	Rating     float64
	Deviation  float64
	Volatility float64

	Members []Player `db:"-"`
}

func (b *Back) newTeam(name string) Team {
	return Team{
		ID:         util.NewUUIDAsBlob(),
		CreatedAt:  util.TimeAsTimestamp(b.clock.Now()),
		Name:       name,
		Rating:     glicko.RATING_BASE_R,
		Deviation:  glicko.RATING_BASE_RD,
		Volatility: glicko.RATING_BASE_SIGMA,
	}
}

func (t *Team) insert(tx *sqlx.Tx) error {
	query, args, err := squirrel.Insert("Team").SetMap(squirrel.Eq{
		"ID":         t.ID,
		"CreatedAt":  t.CreatedAt,
		"Name":       t.Name,
		"Rating":     t.Rating,
		"Deviation":  t.Deviation,
		"Volatility": t.Volatility,
	}).ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.Exec(query, args...); err != nil {
		return err
	}

	for _, member := range t.Members {
		query, args, err := squirrel.Insert("PlayerTeamXRef").
			Columns("PlayerID", "TeamID").
			Values(member.ID, t.ID).
			ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("unable to add %s to team: %w", member.Name(), err)
		}
	}

	return nil
}

func normalizeTeamName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalidf("team name must be at least one character")
	}
	if utf8.RuneCountInString(name) > 75 {
		return "", invalidf("team name must be at most 75 characters")
	}

	return name, nil
}

func getTeamByName(tx *sqlx.Tx, name string) (Team, error) {
	var ret Team
	if err := tx.Get(&ret, `SELECT * FROM Team WHERE Name = ? LIMIT 1`, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Team{}, notFoundf("team %s doesn't exist", name)
		}
		return Team{}, err
	}

	return ret, nil
}

// getTeamByPair returns the team formed by the two given players, in any order.
func getTeamByPair(tx *sqlx.Tx, a, b util.UUIDAsBlob) (Team, error) {
	var ret Team
	query := `
        SELECT Team.* FROM Team
        INNER JOIN PlayerTeamXRef AS A ON (A.TeamID = Team.ID AND A.PlayerID = ?)
        INNER JOIN PlayerTeamXRef AS B ON (B.TeamID = Team.ID AND B.PlayerID = ?)
        LIMIT 1`
	if err := tx.Get(&ret, query, a, b); err != nil {
		return Team{}, err
	}

	return ret, nil
}

// fillTeamMembers sets the Members of every given team.
func fillTeamMembers(tx *sqlx.Tx, teams []Team) error {
	var refs []struct {
		TeamID   util.UUIDAsBlob
		PlayerID util.UUIDAsBlob
	}
	if err := tx.Select(&refs, `SELECT TeamID, PlayerID FROM PlayerTeamXRef ORDER BY rowid ASC`); err != nil {
		return err
	}

	ids := make([]util.UUIDAsBlob, 0, len(refs))
	for _, v := range refs {
		ids = append(ids, v.PlayerID)
	}

	players, err := getPlayersByIDs(tx, ids)
	if err != nil {
		return err
	}

	index := make(map[util.UUIDAsBlob]int, len(teams))
	for k := range teams {
		index[teams[k].ID] = k
		teams[k].Members = make([]Player, 0, 2)
	}

	for _, v := range refs {
		if k, ok := index[v.TeamID]; ok {
			teams[k].Members = append(teams[k].Members, players[v.PlayerID])
		}
	}

	return nil
}

// AddTeam registers a new team from two existing and distinct players.
func (b *Back) AddTeam(ctx context.Context, name string, memberOne, memberTwo PlayerKey) (team Team, _ error) {
	name, err := normalizeTeamName(name)
	if err != nil {
		return Team{}, b.reject(err)
	}
	if err := memberOne.validate(); err != nil {
		return Team{}, b.reject(invalidf("first team member must be complete: %s", err))
	}
	if err := memberTwo.validate(); err != nil {
		return Team{}, b.reject(invalidf("second team member must be complete: %s", err))
	}
	if memberOne == memberTwo {
		return Team{}, b.reject(invalidf("a team needs two distinct players"))
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		if _, err := getTeamByName(tx, name); err == nil {
			return existsf("team %s already exists", name)
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}

		one, err := getPlayerByKey(tx, memberOne)
		if err != nil {
			return err
		}
		two, err := getPlayerByKey(tx, memberTwo)
		if err != nil {
			return err
		}

		if existing, err := getTeamByPair(tx, one.ID, two.ID); err == nil {
			return existsf("%s and %s are already on team %s together", one.Name(), two.Name(), existing.Name)
		} else if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		team = b.newTeam(name)
		team.Members = []Player{one, two}

		return team.insert(tx)
	}); err != nil {
		return Team{}, b.reject(err)
	}

	log.Infof("added team %s", team.Name)
	b.metrics.IncCreated("team")

	return team, nil
}

func (b *Back) TeamExists(ctx context.Context, name string) (exists bool, _ error) {
	name, err := normalizeTeamName(name)
	if err != nil {
		return false, b.reject(err)
	}

	return exists, b.transaction(ctx, func(tx *sqlx.Tx) error {
		_, err := getTeamByName(tx, name)
		switch {
		case err == nil:
			exists = true
			return nil
		case errors.Is(err, ErrNotFound):
			return nil
		default:
			return err
		}
	})
}

// GetTeams returns every team with its members, last registered first.
func (b *Back) GetTeams(ctx context.Context) (ret []Team, _ error) {
	return ret, b.transaction(ctx, func(tx *sqlx.Tx) error {
		if err := tx.Select(&ret, `SELECT * FROM Team ORDER BY CreatedAt DESC, rowid DESC`); err != nil {
			return err
		}

		return fillTeamMembers(tx, ret)
	})
}

func (b *Back) CountTeams(ctx context.Context) (count int, _ error) {
	return count, b.transaction(ctx, func(tx *sqlx.Tx) error {
		return tx.Get(&count, `SELECT COUNT(*) FROM Team`)
	})
}

// DeleteTeam removes a team, its members and results are kept.
func (b *Back) DeleteTeam(ctx context.Context, name string) error {
	name, err := normalizeTeamName(name)
	if err != nil {
		return b.reject(err)
	}

	if err := b.transaction(ctx, func(tx *sqlx.Tx) error {
		team, err := getTeamByName(tx, name)
		if err != nil {
			return err
		}

		_, err = tx.Exec(`DELETE FROM Team WHERE ID = ?`, team.ID)
		return err
	}); err != nil {
		return b.reject(err)
	}

	log.Infof("deleted team %s", name)
	b.metrics.IncDeleted("team")

	return nil
}
