package handlers

import (
	"net/http"
	"strconv"

	"github.com/codequest-hq/tournament-engine/services"
)

type RoundHandler struct {
	roundService  services.RoundService
	resultService services.ResultService
}

func NewRoundHandler(rs services.RoundService, res services.ResultService) *RoundHandler {
	return &RoundHandler{
		roundService:  rs,
		resultService: res,
	}
}

// GetByIDHandler обрабатывает GET /rounds/{roundID}
func (h *RoundHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	round, err := h.roundService.GetByID(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListByTournamentHandler обрабатывает GET /tournaments/{tournamentSlug}/rounds
func (h *RoundHandler) ListByTournamentHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r, "tournamentSlug")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.roundService.ListByTournament(r.Context(), slug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// EnqueueHandler обрабатывает POST /rounds/{roundID}/enqueue.
// Создаёт локальные матчи раунда и передаёт их compute-бэкенду.
func (h *RoundHandler) EnqueueHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	matches, err := h.roundService.EnqueueRound(r.Context(), roundID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// RequestPublishHandler обрабатывает POST /rounds/{roundID}/publish.
// Ставит задачи на публикацию результатов каждого матча раунда.
func (h *RoundHandler) RequestPublishHandler(w http.ResponseWriter, r *http.Request) {
	roundID, err := getIDFromURL(r, "roundID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	isPublic := true
	if v := r.URL.Query().Get("is_public"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			badRequestResponse(w, r, err)
			return
		}
		isPublic = parsed
	}

	round, err := h.resultService.RequestPublish(r.Context(), roundID, isPublic)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"round": round}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// PublishMatchHandler - колбэк очереди задач, по одному вызову на матч:
// POST /episodes/{episodeSlug}/tournaments/{tournamentSlug}/rounds/{roundID}/matches/{matchID}/publish
func (h *RoundHandler) PublishMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.resultService.UpdateMatchOnProvider(r.Context(), matchID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"status": "published"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
