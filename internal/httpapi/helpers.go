package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"queryquest/internal/auth"
	"queryquest/internal/quest"
)

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quest.ErrMissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Mission not found."})
	case errors.Is(err, quest.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "User not found."})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

func writeAuthError(w http.ResponseWriter, _ *http.Request, err error) {
	message := "Invalid or expired token."
	if errors.Is(err, auth.ErrMissingToken) {
		message = "Access denied. No token provided."
	}
	writeJSON(w, http.StatusUnauthorized, errorResponse{Error: message})
}

// statusForOutcome maps a rejected submission to its HTTP status.
func statusForOutcome(status quest.Status) int {
	switch status {
	case quest.StatusInvalid, quest.StatusUnsafe:
		return http.StatusBadRequest
	case quest.StatusLocked:
		return http.StatusForbidden
	case quest.StatusNotFound:
		return http.StatusNotFound
	case quest.StatusExecError:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func parseRankingsLimit(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	// <=0 means "everyone".
	return parsed, nil
}

func writeMethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}

func writeNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
}

// writeJSON encodes payload before committing the status, so an encoding
// failure still reaches the client as a JSON 500.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Int("status", statusCode).Msg("Failed to encode response")
		statusCode = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "request failed"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_, _ = w.Write(append(body, '\n'))
}
