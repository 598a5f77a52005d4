package web

import (
	"context"
	"net/http"

	"foosball/internal/back"
)

const (
	dashboardTopCount     = 5
	dashboardResultsCount = 10
)

// index serves the dashboard: counters, top players per role and the last
// results.
func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	data, err := s.getIndexTemplateData(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.response(w, r, http.StatusOK, "index.html", data)
}

type indexTemplateData struct {
	Misc             back.StatsMisc
	Offense, Defense []back.RankingEntry
	Results          []back.ResultDetails
}

func (s *Server) getIndexTemplateData(ctx context.Context) (indexTemplateData, error) {
	misc, err := s.back.GetMiscStats(ctx)
	if err != nil {
		return indexTemplateData{}, err
	}

	rankings, err := s.back.GetRankings(ctx)
	if err != nil {
		return indexTemplateData{}, err
	}
	back.SortRankings(rankings)

	results, err := s.back.GetResults(ctx, dashboardResultsCount)
	if err != nil {
		return indexTemplateData{}, err
	}

	return indexTemplateData{
		Misc:    misc,
		Offense: top(back.FilterRankings(rankings, back.RoleOffense), dashboardTopCount),
		Defense: top(back.FilterRankings(rankings, back.RoleDefense), dashboardTopCount),
		Results: results,
	}, nil
}

func top(entries []back.RankingEntry, n int) []back.RankingEntry {
	if len(entries) > n {
		return entries[:n]
	}

	return entries
}
