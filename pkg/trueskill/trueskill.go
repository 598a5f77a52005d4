// Package trueskill implements the TrueSkill rating update for a match
// between two teams.
//
// With only two teams the factor graph collapses to a single truncated
// Gaussian, so the update is computed in closed form and gives the same
// results as the message-passing implementation.
package trueskill

import (
	"errors"
	"fmt"
	"math"
)

// Default environment, the usual TrueSkill constants.
const (
	DefaultMu              = 25.0
	DefaultSigma           = DefaultMu / 3
	DefaultBeta            = DefaultSigma / 2
	DefaultTau             = DefaultSigma / 100
	DefaultDrawProbability = 0.10
)

var (
	ErrTeamCount     = errors.New("trueskill: exactly two teams are required")
	ErrEmptyTeam     = errors.New("trueskill: a team must have at least one rating")
	ErrRankCount     = errors.New("trueskill: one rank per team is required")
	ErrInvalidRating = errors.New("trueskill: sigma must be strictly positive")
	ErrInvalidEnv    = errors.New("trueskill: invalid environment")
)

// Rating is a Gaussian belief about the skill of a player.
type Rating struct {
	Mu    float64 `json:"mu"`
	Sigma float64 `json:"sigma"`
}

// Conservative returns mu-3σ, a skill the player is very likely above.
func (r Rating) Conservative() float64 {
	return r.Mu - 3*r.Sigma
}

func (r Rating) String() string {
	return fmt.Sprintf("%.3f±%.3f", r.Mu, r.Sigma)
}

// Env holds the parameters shared by every rating of a ladder.
type Env struct {
	Mu, Sigma       float64 // initial rating
	Beta            float64 // distance guaranteeing ~76% chance to win
	Tau             float64 // dynamic factor, added to σ before each match
	DrawProbability float64
}

// New returns the default environment.
func New() Env {
	return Env{
		Mu:              DefaultMu,
		Sigma:           DefaultSigma,
		Beta:            DefaultBeta,
		Tau:             DefaultTau,
		DrawProbability: DefaultDrawProbability,
	}
}

// NewRating returns the rating given to a player that never played.
func (e Env) NewRating() Rating {
	return Rating{Mu: e.Mu, Sigma: e.Sigma}
}

func (e Env) Validate() error {
	switch {
	case e.Sigma <= 0:
		return fmt.Errorf("%w: sigma must be > 0", ErrInvalidEnv)
	case e.Beta <= 0:
		return fmt.Errorf("%w: beta must be > 0", ErrInvalidEnv)
	case e.Tau < 0:
		return fmt.Errorf("%w: tau must be ≥ 0", ErrInvalidEnv)
	case e.DrawProbability < 0 || e.DrawProbability >= 1:
		return fmt.Errorf("%w: draw probability must be in [0, 1)", ErrInvalidEnv)
	}

	return nil
}

// Rate returns the updated ratings of two teams after a match.
// A lower rank is better, equal ranks mean a draw. The returned slices have
// the same shape as teams and the input is not modified.
func (e Env) Rate(teams [][]Rating, ranks []int) ([][]Rating, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if len(teams) != 2 {
		return nil, ErrTeamCount
	}
	if len(ranks) != len(teams) {
		return nil, ErrRankCount
	}

	var (
		size     int
		variance float64
		means    [2]float64
	)
	for i, team := range teams {
		if len(team) == 0 {
			return nil, ErrEmptyTeam
		}

		for _, r := range team {
			if r.Sigma <= 0 || math.IsNaN(r.Mu) {
				return nil, ErrInvalidRating
			}
			variance += r.Sigma*r.Sigma + e.Tau*e.Tau
			means[i] += r.Mu
		}
		size += len(team)
	}

	c2 := variance + float64(size)*e.Beta*e.Beta
	c := math.Sqrt(c2)
	margin := e.drawMargin(size) / c

	winner, loser := 0, 1
	if ranks[1] < ranks[0] {
		winner, loser = 1, 0
	}
	t := (means[winner] - means[loser]) / c

	var v, w float64
	if ranks[0] == ranks[1] {
		v, w = vWithinMargin(t, margin), wWithinMargin(t, margin)
	} else {
		v, w = vExceedsMargin(t, margin), wExceedsMargin(t, margin)
	}

	ret := make([][]Rating, len(teams))
	for i, team := range teams {
		sign := 1.0
		if i == loser {
			sign = -1.0
		}

		ret[i] = make([]Rating, len(team))
		for j, r := range team {
			s2 := r.Sigma*r.Sigma + e.Tau*e.Tau
			ret[i][j] = Rating{
				Mu:    r.Mu + sign*(s2/c)*v,
				Sigma: math.Sqrt(s2 * math.Max(1-(s2/c2)*w, minVarianceFactor)),
			}
		}
	}

	return ret, nil
}

// Quality returns the probability of a draw between the two teams, higher
// means a more balanced match.
func (e Env) Quality(a, b []Rating) float64 {
	size := float64(len(a) + len(b))
	var variance, delta float64
	for _, r := range a {
		variance += r.Sigma * r.Sigma
		delta += r.Mu
	}
	for _, r := range b {
		variance += r.Sigma * r.Sigma
		delta -= r.Mu
	}

	denom := size*e.Beta*e.Beta + variance

	return math.Sqrt(size*e.Beta*e.Beta/denom) * math.Exp(-delta*delta/(2*denom))
}

func (e Env) drawMargin(size int) float64 {
	return ppf((e.DrawProbability+1)/2) * math.Sqrt(float64(size)) * e.Beta
}
