package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/food-delivery/internal/apperror"
)

const validationFailedMessage = "There are some validation errors"

type ErrorResponse struct {
	Status    int      `json:"status"`
	Message   string   `json:"message"`
	Errors    []string `json:"errors,omitempty"`
	TimeStamp int64    `json:"timeStamp"`
}

// respondWithError writes an ErrorResponse with the given status.
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{
		Status:    code,
		Message:   message,
		TimeStamp: time.Now().UnixMilli(),
	})
}

func respondWithValidationErrors(w http.ResponseWriter, details []string) {
	respondWithJSON(w, http.StatusBadRequest, ErrorResponse{
		Status:    http.StatusBadRequest,
		Message:   validationFailedMessage,
		Errors:    details,
		TimeStamp: time.Now().UnixMilli(),
	})
}

// respondWithJSON marshals payload and writes it with the given status.
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status":500,"message":"Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondWithText(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	if _, err := w.Write([]byte(message)); err != nil {
		log.Error().Err(err).Msg("Failed to write text response")
	}
}

func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithServiceError shows not-found messages to the client as they are
// and hides everything else behind fallback.
func respondWithServiceError(w http.ResponseWriter, err error, fallback string) {
	statusCode := mapErrorToStatusCode(err)

	var notFound *apperror.NotFoundError
	switch {
	case errors.As(err, &notFound):
		respondWithError(w, statusCode, notFound.Message)
	case statusCode == http.StatusConflict:
		log.Warn().Err(err).Msg("Request conflicts with stored references")
		respondWithError(w, statusCode, "Request references an entity that does not exist")
	default:
		log.Error().Err(err).Msg(fallback)
		respondWithError(w, statusCode, fallback)
	}
}

func parseID(w http.ResponseWriter, r *http.Request, param string) (int, bool) {
	raw := chi.URLParam(r, param)
	id, err := strconv.Atoi(raw)
	if err != nil {
		log.Warn().Err(err).Str(param, raw).Msg("Failed to parse id parameter from URL")
		respondWithError(w, http.StatusBadRequest, "Invalid id parameter")
		return 0, false
	}
	return id, true
}
