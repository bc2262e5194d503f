package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/codequest-hq/tournament-engine/bracket"
	"github.com/codequest-hq/tournament-engine/repositories"
	"github.com/codequest-hq/tournament-engine/services"
	"github.com/go-chi/chi/v5"
)

type jsonResponse map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	if err != nil {
		return err
	}

	return nil
}

func errorResponse(w http.ResponseWriter, r *http.Request, status int, message interface{}) {
	env := jsonResponse{"error": message}
	err := writeJSON(w, status, env, nil)
	if err != nil {
		fmt.Printf("Error writing error JSON response: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	fmt.Printf("Internal server error: %v\n", err)
	message := "the server encountered a problem and could not process your request"
	errorResponse(w, r, http.StatusInternalServerError, message)
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func notFoundResponse(w http.ResponseWriter, r *http.Request) {
	message := "the requested resource could not be found"
	errorResponse(w, r, http.StatusNotFound, message)
}

func conflictResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusConflict, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func unprocessableResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnprocessableEntity, message)
}

func badGatewayResponse(w http.ResponseWriter, r *http.Request, err error) {
	fmt.Printf("Bracket service error: %v\n", err)
	message := "the bracket service could not process the request"
	errorResponse(w, r, http.StatusBadGateway, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	var providerErr *bracket.ProviderError

	switch {
	// Отсутствующие ресурсы
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrRoundNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrTeamNotFound):
		notFoundResponse(w, r)

	// Конфликты состояния
	case errors.Is(err, services.ErrRoundAlreadyInProgress),
		errors.Is(err, services.ErrRoundNotReady),
		errors.Is(err, repositories.ErrTournamentConflict):
		conflictResponse(w, r, err.Error())

	// Нарушения бизнес-правил
	case errors.Is(err, services.ErrRoundInvalidMapCount),
		errors.Is(err, services.ErrTournamentNotInitialized),
		errors.Is(err, services.ErrMatchHasNoParticipants):
		unprocessableResponse(w, r, err.Error())

	// Провайдер сетки недоступен или отвечает ошибкой
	case errors.As(err, &providerErr),
		errors.Is(err, services.ErrBracketDataIntegrity):
		badGatewayResponse(w, r, err)

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		idStr = chi.URLParam(r, "id")
		if idStr == "" {
			return 0, fmt.Errorf("missing %s or id in URL path", paramName)
		}
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", paramName)
	}
	return id, nil
}

func getSlugFromURL(r *http.Request, paramName string) (string, error) {
	slug := chi.URLParam(r, paramName)
	if slug == "" {
		return "", fmt.Errorf("missing %s in URL path", paramName)
	}
	return slug, nil
}
