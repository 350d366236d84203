package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"queryquest/internal/auth"
	"queryquest/internal/mission"
	"queryquest/internal/sandbox"
)

const (
	defaultRankingsLimit = 10
	defaultHistoryLimit  = 20
	maxQueryBodyBytes    = 64 << 10
)

func (a *API) HandleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var request queryRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQueryBodyBytes)).Decode(&request); err != nil {
		writeJSON(w, http.StatusBadRequest, feedbackResponse{Feedback: "Invalid JSON body."})
		return
	}

	userID := auth.UserID(r.Context())
	outcome, err := a.service.Execute(r.Context(), userID, request.SQL, request.MissionID)
	if err != nil {
		log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("user_id", userID).
			Str("mission_id", request.MissionID).
			Msg("Query submission failed")
		writeJSON(w, http.StatusInternalServerError, feedbackResponse{Feedback: "Query execution failed. Please try again later."})
		return
	}

	if status := statusForOutcome(outcome.Status); status != http.StatusOK {
		writeJSON(w, status, feedbackResponse{Feedback: outcome.Feedback})
		return
	}

	response := queryResponse{
		Success:        outcome.Success,
		Columns:        outcome.Columns,
		Rows:           outcome.Rows,
		RowCount:       outcome.RowCount,
		Feedback:       outcome.Feedback,
		XPEarned:       outcome.XPEarned,
		PlayerProgress: outcome.Progress,
	}
	if response.Columns == nil {
		response.Columns = []string{}
	}
	if response.Rows == nil {
		response.Rows = []sandbox.Row{}
	}
	writeJSON(w, http.StatusOK, response)
}

func (a *API) HandleMissions(w http.ResponseWriter, r *http.Request) {
	missions := a.service.Missions()
	if missions == nil {
		missions = []mission.Mission{}
	}
	writeJSON(w, http.StatusOK, missions)
}

func (a *API) HandleMission(w http.ResponseWriter, r *http.Request) {
	m, err := a.service.Mission(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *API) HandleProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.service.Progress(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (a *API) HandleResetProgress(w http.ResponseWriter, r *http.Request) {
	progress, err := a.service.ResetProgress(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resetResponse{
		Message:  "Progress reset successfully",
		Progress: progress,
	})
}

func (a *API) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := a.service.History(r.Context(), auth.UserID(r.Context()), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{History: entries})
}

func (a *API) HandleRankings(w http.ResponseWriter, r *http.Request) {
	limit, err := parseRankingsLimit(r, defaultRankingsLimit)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	entries, err := a.service.Rankings(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rankingsResponse{Rankings: entries})
}

func (a *API) HandleExamples(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, examplesResponse{Examples: mission.Examples()})
}

func (a *API) HandleHints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, hintsResponse{Hints: a.service.Hints()})
}

func (a *API) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	missionID := strings.TrimSpace(chi.URLParam(r, "missionId"))
	template, hint, err := a.service.Template(missionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templateResponse{
		MissionID: missionID,
		Template:  template,
		Hint:      hint,
	})
}

func (a *API) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.service.CurrentUser(r.Context(), auth.UserID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{User: user})
}

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: a.now().UTC(),
	})
}
