package web

import (
	"context"
	"net/http"

	"foosball/internal/back"
)

type teamsTemplateData struct {
	Teams   []back.Team
	Players []back.Player
}

func (s *Server) getTeamsTemplateData(ctx context.Context) (interface{}, error) {
	teams, err := s.back.GetTeams(ctx)
	if err != nil {
		return nil, err
	}

	players, err := s.back.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}

	return teamsTemplateData{teams, players}, nil
}

func (s *Server) getTeams(w http.ResponseWriter, r *http.Request) {
	data, err := s.getTeamsTemplateData(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.response(w, r, http.StatusOK, "teams.html", data)
}

func (s *Server) postTeam(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.addTeamFromForm(r); err != nil {
		s.formError(w, r, err, "teams.html", s.getTeamsTemplateData)
		return
	}

	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}

func (s *Server) addTeamFromForm(r *http.Request) error {
	one, err := back.ParsePlayerKey(r.PostForm.Get("MemberOne"))
	if err != nil {
		return err
	}

	two, err := back.ParsePlayerKey(r.PostForm.Get("MemberTwo"))
	if err != nil {
		return err
	}

	_, err = s.back.AddTeam(r.Context(), r.PostForm.Get("Name"), one, two)
	return err
}

func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	if err := s.back.DeleteTeam(r.Context(), r.PostForm.Get("Name")); err != nil {
		s.formError(w, r, err, "teams.html", s.getTeamsTemplateData)
		return
	}

	http.Redirect(w, r, "/teams", http.StatusSeeOther)
}
