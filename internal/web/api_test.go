package web // nolint:testpackage

import (
	"context"
	"net/http"
	"testing"

	"foosball/internal/back"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI(t *testing.T) {
	s := createTestServer(t)
	require.NoError(t, s.back.LoadFixtures(context.Background()))

	var players []map[string]interface{}
	decode(t, s.get(t, "/v1/players"), &players)
	assert.Len(t, players, 6)
	assert.Contains(t, players[0], "FirstName")

	var teams []back.Team
	decode(t, s.get(t, "/v1/teams"), &teams)
	require.Len(t, teams, 3)
	for _, v := range teams {
		assert.Len(t, v.Members, 2)
	}

	var results []map[string]interface{}
	decode(t, s.get(t, "/v1/results?limit=3"), &results)
	assert.Len(t, results, 3)

	decode(t, s.get(t, "/v1/results"), &results)
	assert.Len(t, results, 7)

	var rankings []back.RankingEntry
	decode(t, s.get(t, "/v1/rankings?role=defense"), &rankings)
	require.Len(t, rankings, 6)
	for k := 1; k < len(rankings); k++ {
		assert.GreaterOrEqual(t, rankings[k-1].Rank, rankings[k].Rank)
		assert.Equal(t, back.RoleDefense, rankings[k].Role)
	}

	assert.Equal(t, http.StatusBadRequest, s.get(t, "/v1/rankings?role=goalie").Code)
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/v1/results?limit=-1").Code)
}

func TestAPICORS(t *testing.T) {
	s := createTestServer(t)

	w := s.get(t, "/v1/players", "Origin", "https://example.com")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	// HTML pages are not shared.
	w = s.get(t, "/players", "Origin", "https://example.com")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIQuality(t *testing.T) {
	s := createTestServer(t)
	s.addPlayers(t, ada, alan, grace, ken)

	m := back.Match{OffenseWinner: ada, DefenseWinner: alan, OffenseLoser: grace, DefenseLoser: ken}
	var even struct{ Quality float64 }
	decode(t, s.get(t, "/v1/quality?"+resultForm(m).Encode()), &even)
	assert.InDelta(t, 0.4472136, even.Quality, 1e-6)

	_, err := s.back.RecordResult(context.Background(), m)
	require.NoError(t, err)

	var uneven struct{ Quality float64 }
	decode(t, s.get(t, "/v1/quality?"+resultForm(m).Encode()), &uneven)
	assert.Less(t, uneven.Quality, even.Quality)

	m.DefenseLoser = back.PlayerKey{FirstName: "Nobody", LastName: "Here"}
	assert.Equal(t, http.StatusNotFound, s.get(t, "/v1/quality?"+resultForm(m).Encode()).Code)
	assert.Equal(t, http.StatusBadRequest, s.get(t, "/v1/quality").Code)
}
