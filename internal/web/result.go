package web

import (
	"context"
	"net/http"
	"net/url"

	"foosball/internal/back"
	"foosball/internal/util"
)

// resultsPageSize is the number of results listed, older ones only count.
const resultsPageSize = 100

type resultsTemplateData struct {
	Results []back.ResultDetails
	Players []back.Player
	Total   int
}

func (s *Server) getResultsTemplateData(ctx context.Context) (interface{}, error) {
	results, err := s.back.GetResults(ctx, resultsPageSize)
	if err != nil {
		return nil, err
	}

	players, err := s.back.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}

	total, err := s.back.CountResults(ctx)
	if err != nil {
		return nil, err
	}

	return resultsTemplateData{results, players, total}, nil
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	data, err := s.getResultsTemplateData(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.response(w, r, http.StatusOK, "results.html", data)
}

func matchFromForm(form url.Values) (back.Match, error) {
	var m back.Match
	fields := []struct {
		name string
		dst  *back.PlayerKey
	}{
		{"OffenseWinner", &m.OffenseWinner},
		{"DefenseWinner", &m.DefenseWinner},
		{"OffenseLoser", &m.OffenseLoser},
		{"DefenseLoser", &m.DefenseLoser},
	}

	for _, v := range fields {
		k, err := back.ParsePlayerKey(form.Get(v.name))
		if err != nil {
			return back.Match{}, err
		}
		*v.dst = k
	}

	return m, nil
}

func (s *Server) postResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	m, err := matchFromForm(r.PostForm)
	if err == nil {
		_, err = s.back.RecordResult(r.Context(), m)
	}
	if err != nil {
		s.formError(w, r, err, "results.html", s.getResultsTemplateData)
		return
	}

	http.Redirect(w, r, "/results", http.StatusSeeOther)
}

func (s *Server) deleteResult(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	id, err := util.ParseUUIDAsBlob(r.PostForm.Get("ID"))
	if err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.back.DeleteResult(r.Context(), id); err != nil {
		s.formError(w, r, err, "results.html", s.getResultsTemplateData)
		return
	}

	http.Redirect(w, r, "/results", http.StatusSeeOther)
}
