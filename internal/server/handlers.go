package server

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/varoOP/anitrack/internal/domain"
)

const (
	msgAIDRequired  = "Anime ID is required."
	msgDuplicate    = "Anime is already in your list."
	msgNotFound     = "Anime not found."
	msgInvalidPage  = "Page must be a positive number."
	msgInvalidInput = "Invalid request body."
	msgRemoved      = "Anime removed."
)

func (s *Server) handleListAnime(w http.ResponseWriter, r *http.Request) {
	anime, err := s.tracker.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list anime")
		respondWithMessage(w, http.StatusInternalServerError, false, "An error occurred: "+err.Error())
		return
	}
	if anime == nil {
		anime = []domain.TrackedAnime{}
	}

	respondWithJSON(w, http.StatusOK, anime)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p < 1 {
			respondWithMessage(w, http.StatusBadRequest, false, msgInvalidPage)
			return
		}
		page = p
	}

	result, err := s.tracker.Search(r.Context(), query, page)
	if err != nil {
		s.log.Error().Err(err).Str("query", query).Msg("title search failed")
		respondWithMessage(w, http.StatusInternalServerError, false, "An error occurred: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// flexibleID accepts an id sent either as a JSON number or a string
type flexibleID int

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexibleID(n)
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*f = flexibleID(n)
	return nil
}

type addRequest struct {
	AID flexibleID `json:"aid"`
}

type addResponse struct {
	Success bool                 `json:"success"`
	Anime   *domain.TrackedAnime `json:"anime"`
}

func (s *Server) handleAddAnime(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if err := decodeBody(r, &req); err != nil || req.AID <= 0 {
		respondWithMessage(w, http.StatusBadRequest, false, msgAIDRequired)
		return
	}

	anime, err := s.tracker.Add(r.Context(), int(req.AID))
	if err != nil {
		if domain.IsDuplicate(err) {
			respondWithMessage(w, http.StatusOK, false, msgDuplicate)
			return
		}
		if errors.Is(err, domain.ErrInvalidAID) {
			respondWithMessage(w, http.StatusBadRequest, false, msgAIDRequired)
			return
		}

		s.log.Error().Err(err).Int("aid", int(req.AID)).Msg("failed to add anime")
		respondWithMessage(w, http.StatusInternalServerError, false, "An error occurred: "+err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, addResponse{Success: true, Anime: anime})
}

type updateRequest struct {
	Action domain.ProgressDirection `json:"action"`
}

type updateResponse struct {
	Success         bool `json:"success"`
	WatchedEpisodes int  `json:"watched_episodes"`
}

func (s *Server) handleUpdateProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := animeID(r)
	if !ok {
		respondWithMessage(w, http.StatusNotFound, false, msgNotFound)
		return
	}

	var req updateRequest
	if err := decodeBody(r, &req); err != nil {
		respondWithMessage(w, http.StatusBadRequest, false, msgInvalidInput)
		return
	}

	count, err := s.tracker.SetProgress(r.Context(), id, req.Action)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			respondWithMessage(w, http.StatusNotFound, false, msgNotFound)
		case errors.Is(err, domain.ErrInvalidDirection):
			respondWithMessage(w, http.StatusBadRequest, false, "Action must be increment or decrement.")
		default:
			s.log.Error().Err(err).Int64("id", id).Msg("failed to update progress")
			respondWithMessage(w, http.StatusInternalServerError, false, "An error occurred: "+err.Error())
		}
		return
	}

	respondWithJSON(w, http.StatusOK, updateResponse{Success: true, WatchedEpisodes: count})
}

func (s *Server) handleRemoveAnime(w http.ResponseWriter, r *http.Request) {
	id, ok := animeID(r)
	if !ok {
		respondWithMessage(w, http.StatusNotFound, false, msgNotFound)
		return
	}

	if err := s.tracker.Remove(r.Context(), id); err != nil {
		s.log.Error().Err(err).Int64("id", id).Msg("failed to remove anime")
		respondWithMessage(w, http.StatusInternalServerError, false, "An error occurred: "+err.Error())
		return
	}

	respondWithMessage(w, http.StatusOK, true, msgRemoved)
}

// handleImage proxies an AniDB picture. Any failure yields an empty 404 so
// the page shows a missing image instead of an error.
func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	img, err := s.images.Fetch(r.Context(), chi.URLParam(r, "*"))
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	defer img.Body.Close()

	w.Header().Set("Content-Type", img.ContentType)
	if img.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(img.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, img.Body); err != nil {
		s.log.Debug().Err(err).Msg("image stream interrupted")
	}
}

func animeID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "animeID"), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(v)
}
