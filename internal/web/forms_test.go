package web // nolint:testpackage

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"foosball/internal/back"
	"foosball/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndDeletePlayer(t *testing.T) {
	s := createTestServer(t)

	form := url.Values{"FirstName": {"Ada"}, "LastName": {"Lovelace"}, "Nickname": {"Countess"}}
	w := s.post(t, "/players", form)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/players", w.Header().Get("Location"))

	w = s.post(t, "/players", form)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already exists")
	// The form is filled again.
	assert.Contains(t, w.Body.String(), `value="Countess"`)

	w = s.post(t, "/players", url.Values{"FirstName": {" "}, "LastName": {"Turing"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "first name must be at least one character")

	w = s.post(t, "/players/delete", form)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = s.post(t, "/players/delete", form)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "no players in database to delete")
}

func TestAddAndDeleteTeam(t *testing.T) {
	s := createTestServer(t)
	s.addPlayers(t, ada, alan)

	form := url.Values{"Name": {"Pioneers"}, "MemberOne": {ada.String()}, "MemberTwo": {alan.String()}}
	w := s.post(t, "/teams", form)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = s.get(t, "/teams")
	assert.Contains(t, w.Body.String(), "Pioneers")

	w = s.post(t, "/teams", url.Values{"Name": {"Solo"}, "MemberOne": {ada.String()}, "MemberTwo": {ada.String()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "a team needs two distinct players")

	w = s.post(t, "/teams", url.Values{"Name": {"Broken"}, "MemberOne": {"Ada|Lovelace"}, "MemberTwo": {alan.String()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.post(t, "/teams/delete", url.Values{"Name": {"Pioneers"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	count, err := s.back.CountTeams(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func resultForm(m back.Match) url.Values {
	return url.Values{
		"OffenseWinner": {m.OffenseWinner.String()},
		"DefenseWinner": {m.DefenseWinner.String()},
		"OffenseLoser":  {m.OffenseLoser.String()},
		"DefenseLoser":  {m.DefenseLoser.String()},
	}
}

func TestRecordAndDeleteResult(t *testing.T) {
	s := createTestServer(t)
	s.addPlayers(t, ada, alan, grace, ken)
	ctx := context.Background()

	w := s.post(t, "/results", resultForm(back.Match{
		OffenseWinner: ada, DefenseWinner: alan,
		OffenseLoser: grace, DefenseLoser: ken,
	}))
	assert.Equal(t, http.StatusSeeOther, w.Code)

	var rankings []back.RankingEntry
	decode(t, s.get(t, "/v1/rankings?role=offense"), &rankings)
	require.Len(t, rankings, 4)
	assert.Equal(t, ada.DisplayName(), rankings[0].PlayerName)
	assert.Greater(t, rankings[0].Rank, 0.0)
	assert.Equal(t, grace.DisplayName(), rankings[3].PlayerName)

	results, err := s.back.GetResults(ctx, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)

	w = s.post(t, "/results/delete", url.Values{"ID": {results[0].ID.String()}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = s.post(t, "/results/delete", url.Values{"ID": {results[0].ID.String()}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.post(t, "/results/delete", url.Values{"ID": {"nope"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	decode(t, s.get(t, "/v1/rankings"), &rankings)
	require.Len(t, rankings, 8)
	for _, v := range rankings {
		assert.InDelta(t, 25.0, v.Mu, 1e-9)
	}
}

func TestRecordResultErrors(t *testing.T) {
	s := createTestServer(t)
	s.addPlayers(t, ada, alan, grace)

	nobody := back.PlayerKey{FirstName: "Nobody", LastName: "Here"}
	w := s.post(t, "/results", resultForm(back.Match{
		OffenseWinner: ada, DefenseWinner: alan,
		OffenseLoser: grace, DefenseLoser: nobody,
	}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Nobody Here")

	w = s.post(t, "/results", resultForm(back.Match{
		OffenseWinner: ada, DefenseWinner: ada,
		OffenseLoser: grace, DefenseLoser: alan,
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.post(t, "/results", url.Values{"OffenseWinner": {ada.String()}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	count, err := s.back.CountResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAdminSession(t *testing.T) {
	s := createTestServer(t, func(c *config.Config) {
		c.AdminUser = "admin"
		c.AdminPassword = "hunter2"
		c.WebToken = "00000000000000000000000000000000"
	})

	form := url.Values{"FirstName": {"Ada"}, "LastName": {"Lovelace"}}
	w := s.post(t, "/players", form)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = s.post(t, "/login", url.Values{"User": {"admin"}, "Password": {"nope"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = s.post(t, "/login", url.Values{"User": {"admin"}, "Password": {"hunter2"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)

	w = s.post(t, "/players", form, cookies[0])
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/players", w.Header().Get("Location"))

	forged := &http.Cookie{Name: authCookieName, Value: "forged"}
	w = s.post(t, "/players/delete", form, forged)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = s.post(t, "/logout", nil, cookies[0])
	assert.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, -1, w.Result().Cookies()[0].MaxAge)
}

func TestWriteThrottle(t *testing.T) {
	s := createTestServer(t, func(c *config.Config) {
		c.WriteRateLimit = 0.001
		c.WriteBurst = 1
	})

	w := s.post(t, "/players", url.Values{"FirstName": {"Ada"}, "LastName": {"Lovelace"}})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	w = s.post(t, "/players", url.Values{"FirstName": {"Alan"}, "LastName": {"Turing"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are never throttled.
	assert.Equal(t, http.StatusOK, s.get(t, "/players").Code)
}

func TestWriteThrottleIgnoresAnonymousWrites(t *testing.T) {
	s := createTestServer(t, func(c *config.Config) {
		c.AdminUser = "admin"
		c.AdminPassword = "hunter2"
		c.WebToken = "00000000000000000000000000000000"
		c.WriteRateLimit = 0.001
		c.WriteBurst = 1
	})

	w := s.post(t, "/login", url.Values{"User": {"admin"}, "Password": {"hunter2"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	for i := 0; i < 3; i++ {
		w = s.post(t, "/players", url.Values{"FirstName": {"Eve"}, "LastName": {"Intruder"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	}

	w = s.post(t, "/players", url.Values{"FirstName": {"Ada"}, "LastName": {"Lovelace"}}, cookies[0])
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/players", w.Header().Get("Location"))

	w = s.post(t, "/players", url.Values{"FirstName": {"Alan"}, "LastName": {"Turing"}}, cookies[0])
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestLoginThrottle(t *testing.T) {
	s := createTestServer(t, func(c *config.Config) {
		c.AdminUser = "admin"
		c.AdminPassword = "hunter2"
		c.WebToken = "00000000000000000000000000000000"
	})

	bad := url.Values{"User": {"admin"}, "Password": {"nope"}}
	for i := 0; i < loginBurst; i++ {
		assert.Equal(t, http.StatusUnauthorized, s.post(t, "/login", bad).Code, i)
	}

	assert.Equal(t, http.StatusTooManyRequests, s.post(t, "/login", bad).Code)

	good := url.Values{"User": {"admin"}, "Password": {"hunter2"}}
	assert.Equal(t, http.StatusTooManyRequests, s.post(t, "/login", good).Code)
}
