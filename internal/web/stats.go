package web

import (
	"net/http"
	"time"

	"foosball/internal/back"
)

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	misc, err := s.back.GetMiscStats(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	digest, err := s.back.GetRatingsDigest(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	teams, err := s.back.GetTeamLeaderboard(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	var teamResults int
	for _, v := range teams {
		teamResults += v.Wins
	}

	s.response(w, r, http.StatusOK, "stats.html", struct {
		Misc        back.StatsMisc
		TeamResults int
		Roles       []back.Role
		Version     uint64
	}{
		misc, teamResults,
		[]back.Role{back.RoleOffense, back.RoleDefense},
		// Busts the cached charts whenever a rating changes.
		digest,
	})
}

// statsCacheDuration is how long the charts can be cached, their URL
// changes with the results.
const statsCacheDuration = 1 * time.Hour
