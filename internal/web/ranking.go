package web

import (
	"context"
	"net/http"

	"foosball/internal/back"
)

type rankingsTemplateData struct {
	Offense, Defense []back.RankingEntry
	Teams            []back.TeamLeaderboardEntry
}

func (s *Server) getRankingsTemplateData(ctx context.Context) (rankingsTemplateData, error) {
	rankings, err := s.back.GetRankings(ctx)
	if err != nil {
		return rankingsTemplateData{}, err
	}
	back.SortRankings(rankings)

	teams, err := s.back.GetTeamLeaderboard(ctx)
	if err != nil {
		return rankingsTemplateData{}, err
	}

	return rankingsTemplateData{
		Offense: back.FilterRankings(rankings, back.RoleOffense),
		Defense: back.FilterRankings(rankings, back.RoleDefense),
		Teams:   teams,
	}, nil
}

func (s *Server) getRankings(w http.ResponseWriter, r *http.Request) {
	data, err := s.getRankingsTemplateData(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.response(w, r, http.StatusOK, "rankings.html", data)
}
