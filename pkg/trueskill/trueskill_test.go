package trueskill_test

import (
	"testing"

	"foosball/pkg/trueskill"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const delta = 1e-3

func TestRateOneVsOne(t *testing.T) {
	env := trueskill.New()
	out, err := env.Rate([][]trueskill.Rating{
		{env.NewRating()},
		{env.NewRating()},
	}, []int{0, 1})
	require.NoError(t, err)

	assert.InDelta(t, 29.396, out[0][0].Mu, delta)
	assert.InDelta(t, 7.171, out[0][0].Sigma, delta)
	assert.InDelta(t, 20.604, out[1][0].Mu, delta)
	assert.InDelta(t, 7.171, out[1][0].Sigma, delta)
}

func TestRateDraw(t *testing.T) {
	env := trueskill.New()
	out, err := env.Rate([][]trueskill.Rating{
		{env.NewRating()},
		{env.NewRating()},
	}, []int{0, 0})
	require.NoError(t, err)

	assert.InDelta(t, 25.0, out[0][0].Mu, delta)
	assert.InDelta(t, 6.458, out[0][0].Sigma, delta)
	assert.InDelta(t, 25.0, out[1][0].Mu, delta)
}

func TestRateTwoVsTwoFreshPlayers(t *testing.T) {
	env := trueskill.New()
	fresh := env.NewRating()
	out, err := env.Rate([][]trueskill.Rating{
		{fresh, fresh},
		{fresh, fresh},
	}, []int{0, 1})
	require.NoError(t, err)

	for _, r := range out[0] {
		assert.InDelta(t, 28.108, r.Mu, delta)
		assert.InDelta(t, 7.774, r.Sigma, delta)
		assert.Greater(t, r.Mu, fresh.Mu)
	}
	for _, r := range out[1] {
		assert.InDelta(t, 21.892, r.Mu, delta)
		assert.InDelta(t, 7.774, r.Sigma, delta)
		assert.Less(t, r.Mu, fresh.Mu)
	}
}

func TestRateSecondTeamWins(t *testing.T) {
	env := trueskill.New()
	teams := [][]trueskill.Rating{
		{{Mu: 30, Sigma: 4}, {Mu: 22, Sigma: 6}},
		{{Mu: 27, Sigma: 5}, {Mu: 26, Sigma: 3}},
	}

	forward, err := env.Rate(teams, []int{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 31.162, forward[0][0].Mu, delta)
	assert.InDelta(t, 5.515, forward[0][1].Sigma, delta)
	assert.InDelta(t, 25.346, forward[1][1].Mu, delta)

	// Same match, teams swapped, ranks swapped.
	swapped, err := env.Rate([][]trueskill.Rating{teams[1], teams[0]}, []int{1, 0})
	require.NoError(t, err)
	for i := range forward[0] {
		assert.InDelta(t, forward[0][i].Mu, swapped[1][i].Mu, 1e-9)
		assert.InDelta(t, forward[1][i].Sigma, swapped[0][i].Sigma, 1e-9)
	}
}

func TestRateIsDeterministic(t *testing.T) {
	env := trueskill.New()
	teams := [][]trueskill.Rating{
		{{Mu: 30, Sigma: 4}, {Mu: 22, Sigma: 6}},
		{{Mu: 27, Sigma: 5}, {Mu: 26, Sigma: 3}},
	}

	a, err := env.Rate(teams, []int{0, 1})
	require.NoError(t, err)
	b, err := env.Rate(teams, []int{0, 1})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, 30.0, teams[0][0].Mu, "input must not be modified")
}

func TestRateUpsetMovesMore(t *testing.T) {
	env := trueskill.New()
	strong := trueskill.Rating{Mu: 35, Sigma: 3}
	weak := trueskill.Rating{Mu: 15, Sigma: 3}

	expected, err := env.Rate([][]trueskill.Rating{{strong}, {weak}}, []int{0, 1})
	require.NoError(t, err)
	upset, err := env.Rate([][]trueskill.Rating{{strong}, {weak}}, []int{1, 0})
	require.NoError(t, err)

	assert.Greater(t, upset[1][0].Mu-weak.Mu, expected[0][0].Mu-strong.Mu)
}

func TestRateRejectsBadInput(t *testing.T) {
	env := trueskill.New()
	r := env.NewRating()

	_, err := env.Rate([][]trueskill.Rating{{r}}, []int{0})
	assert.ErrorIs(t, err, trueskill.ErrTeamCount)

	_, err = env.Rate([][]trueskill.Rating{{r}, {r}}, []int{0})
	assert.ErrorIs(t, err, trueskill.ErrRankCount)

	_, err = env.Rate([][]trueskill.Rating{{r}, {}}, []int{0, 1})
	assert.ErrorIs(t, err, trueskill.ErrEmptyTeam)

	_, err = env.Rate([][]trueskill.Rating{{r}, {{Mu: 25, Sigma: 0}}}, []int{0, 1})
	assert.ErrorIs(t, err, trueskill.ErrInvalidRating)

	env.DrawProbability = 1
	_, err = env.Rate([][]trueskill.Rating{{r}, {r}}, []int{0, 1})
	assert.ErrorIs(t, err, trueskill.ErrInvalidEnv)
}

func TestQuality(t *testing.T) {
	env := trueskill.New()
	r := env.NewRating()

	even := env.Quality([]trueskill.Rating{r}, []trueskill.Rating{r})
	assert.InDelta(t, 0.447, even, delta)

	uneven := env.Quality(
		[]trueskill.Rating{{Mu: 35, Sigma: 2}},
		[]trueskill.Rating{{Mu: 15, Sigma: 2}},
	)
	assert.Less(t, uneven, even)
}

func TestConservative(t *testing.T) {
	assert.InDelta(t, 0.0, trueskill.New().NewRating().Conservative(), 1e-9)
	assert.InDelta(t, 13.0, trueskill.Rating{Mu: 25, Sigma: 4}.Conservative(), 1e-9)
}
