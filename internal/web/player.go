package web

import (
	"context"
	"net/http"

	"foosball/internal/back"
	"foosball/internal/util"

	"github.com/go-chi/chi"
)

type playersTemplateData struct {
	Players []back.Player
}

func (s *Server) getPlayersTemplateData(ctx context.Context) (interface{}, error) {
	players, err := s.back.GetPlayers(ctx)
	if err != nil {
		return nil, err
	}

	return playersTemplateData{players}, nil
}

func (s *Server) getPlayers(w http.ResponseWriter, r *http.Request) {
	data, err := s.getPlayersTemplateData(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	s.response(w, r, http.StatusOK, "players.html", data)
}

// playerKeyFromForm reads a PlayerKey from its three separate fields.
func playerKeyFromForm(r *http.Request) (back.PlayerKey, error) {
	return back.NewPlayerKey(
		r.PostForm.Get("FirstName"),
		r.PostForm.Get("LastName"),
		r.PostForm.Get("Nickname"),
	)
}

func (s *Server) postPlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	k, err := playerKeyFromForm(r)
	if err == nil {
		_, err = s.back.AddPlayer(r.Context(), k)
	}
	if err != nil {
		s.formError(w, r, err, "players.html", s.getPlayersTemplateData)
		return
	}

	http.Redirect(w, r, "/players", http.StatusSeeOther)
}

func (s *Server) deletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.error(w, r, err, http.StatusBadRequest)
		return
	}

	k, err := playerKeyFromForm(r)
	if err == nil {
		err = s.back.DeletePlayer(r.Context(), k)
	}
	if err != nil {
		s.formError(w, r, err, "players.html", s.getPlayersTemplateData)
		return
	}

	http.Redirect(w, r, "/players", http.StatusSeeOther)
}

func urlID(r *http.Request, name string) (util.UUIDAsBlob, error) {
	return util.ParseUUIDAsBlob(chi.URLParam(r, name))
}

func (s *Server) getOnePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "id")
	if err != nil {
		s.error(w, r, err, http.StatusNotFound)
		return
	}

	player, err := s.back.GetPlayer(r.Context(), id)
	if err != nil {
		s.error(w, r, err, statusFromError(err))
		return
	}

	history, err := s.back.GetRatingHistory(r.Context(), id)
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	results, err := s.back.GetPlayerResults(r.Context(), id)
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	rankings, err := s.back.GetRankings(r.Context())
	if err != nil {
		s.error(w, r, err, http.StatusInternalServerError)
		return
	}

	var current []back.RankingEntry
	for _, v := range rankings {
		if v.PlayerID == id {
			current = append(current, v)
		}
	}

	s.response(w, r, http.StatusOK, "one_player.html", struct {
		Player   back.Player
		Rankings []back.RankingEntry
		History  []back.Rating
		Results  []back.ResultDetails
	}{
		Player:   player,
		Rankings: current,
		History:  history,
		Results:  results,
	})
}
