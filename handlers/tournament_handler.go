package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/codequest-hq/tournament-engine/middleware"
	"github.com/codequest-hq/tournament-engine/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

// GetBySlugHandler обрабатывает GET /tournaments/{tournamentSlug}
func (h *TournamentHandler) GetBySlugHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r, "tournamentSlug")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetBySlug(r.Context(), slug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHandler обрабатывает GET /episodes/{episodeSlug}/tournaments
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	episodeSlug, err := getSlugFromURL(r, "episodeSlug")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.List(r.Context(), episodeSlug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// InitializeHandler обрабатывает POST /tournaments/{tournamentSlug}/initialize.
// Сеет турнир и создаёт пару сеток на bracket-сервисе. Только для админов.
func (h *TournamentHandler) InitializeHandler(w http.ResponseWriter, r *http.Request) {
	operatorID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required to initialize tournament")
		return
	}

	slug, err := getSlugFromURL(r, "tournamentSlug")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	log.Printf("tournament %s initialization requested by user %d", slug, operatorID)

	tournament, err := h.tournamentService.Initialize(r.Context(), slug)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UploadLogoHandler обрабатывает POST /tournaments/{tournamentSlug}/logo
func (h *TournamentHandler) UploadLogoHandler(w http.ResponseWriter, r *http.Request) {
	slug, err := getSlugFromURL(r, "tournamentSlug")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	err = r.ParseMultipartForm(32 << 20)
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to parse multipart form: %w", err))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("failed to get logo file from form: %w", err))
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content-type header is required for logo"))
		return
	}

	tournament, err := h.tournamentService.UploadLogo(r.Context(), slug, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
