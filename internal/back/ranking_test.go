package back // nolint:testpackage

import (
	"context"
	"testing"

	"foosball/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRankings(t *testing.T) {
	b := createPopulatedTestBack(t)
	ctx := context.Background()

	entries, err := b.GetRankings(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 8)
	for _, v := range entries {
		assert.Equal(t, 0.0, v.Rank)
	}

	_, err = b.RecordResult(ctx, Match{ada, alan, grace, ken})
	require.NoError(t, err)

	entries, err = b.GetRankings(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 8)

	perPlayer := map[string]int{}
	for _, v := range entries {
		perPlayer[v.PlayerName]++
		assert.True(t, v.Role.Valid())
		assert.Equal(t, util.Round4(v.Mu-3*v.Sigma), v.Rank)
	}
	assert.Len(t, perPlayer, 4)
	for _, v := range perPlayer {
		assert.Equal(t, 2, v)
	}

	SortRankings(entries)
	offense := FilterRankings(entries, RoleOffense)
	defense := FilterRankings(entries, RoleDefense)
	require.Len(t, offense, 4)
	require.Len(t, defense, 4)

	assert.Equal(t, ada.DisplayName(), offense[0].PlayerName)
	assert.Equal(t, 1, offense[0].Wins)
	assert.Equal(t, grace.DisplayName(), offense[3].PlayerName)
	assert.Equal(t, 1, offense[3].Losses)

	assert.Equal(t, alan.DisplayName(), defense[0].PlayerName)
	assert.Equal(t, ken.DisplayName(), defense[3].PlayerName)
}

func TestSortRankings(t *testing.T) {
	entries := []RankingEntry{
		{PlayerName: "b", Rank: 1},
		{PlayerName: "c", Rank: 3.5},
		{PlayerName: "a", Rank: 1},
		{PlayerName: "d", Rank: -2},
	}

	SortRankings(entries)

	names := make([]string, 0, len(entries))
	for _, v := range entries {
		names = append(names, v.PlayerName)
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, names)
}

func TestRankingRounding(t *testing.T) {
	r := Rating{Mu: 28.108035, Sigma: 7.7740154}
	assert.Equal(t, 4.786, r.Rank())
}
