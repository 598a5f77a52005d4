package web

import (
	"net/http"
	"strconv"

	"foosball/internal/back"

	"github.com/charmbracelet/log"
)

// apiResultsDefaultLimit applies when no limit is given.
const apiResultsDefaultLimit = 50

func (s *Server) apiPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.back.GetPlayers(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, players)
}

func (s *Server) apiTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.back.GetTeams(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, teams)
}

// apiRankings returns the rankings best first, ?role= filters on a role.
func (s *Server) apiRankings(w http.ResponseWriter, r *http.Request) {
	rankings, err := s.back.GetRankings(r.Context())
	if err != nil {
		s.apiError(w, r, err)
		return
	}
	back.SortRankings(rankings)

	if role := back.Role(r.URL.Query().Get("role")); role != "" {
		if !role.Valid() {
			s.json(w, http.StatusBadRequest, map[string]string{"error": "unknown role"})
			return
		}
		rankings = back.FilterRankings(rankings, role)
	}

	s.json(w, http.StatusOK, rankings)
}

func (s *Server) apiResults(w http.ResponseWriter, r *http.Request) {
	limit := apiResultsDefaultLimit
	if str := r.URL.Query().Get("limit"); str != "" {
		v, err := strconv.Atoi(str)
		if err != nil || v < 0 {
			s.json(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = v
	}

	results, err := s.back.GetResults(r.Context(), limit)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, results)
}

// apiQuality returns the draw probability of a prospective match, the four
// players are given like in the result form.
func (s *Server) apiQuality(w http.ResponseWriter, r *http.Request) {
	m, err := matchFromForm(r.URL.Query())
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	quality, err := s.back.MatchQuality(r.Context(), m)
	if err != nil {
		s.apiError(w, r, err)
		return
	}

	s.json(w, http.StatusOK, struct{ Quality float64 }{quality})
}

func (s *Server) apiError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFromError(err)
	if code >= http.StatusInternalServerError {
		log.Errorf("%s %s: %s", r.Method, r.URL.Path, err)
	}

	s.json(w, code, map[string]string{"error": http.StatusText(code)})
}
