package httpapi

import (
	"time"

	"queryquest/internal/mission"
	"queryquest/internal/quest"
	"queryquest/internal/sandbox"
)

type queryRequest struct {
	SQL       string `json:"sql"`
	MissionID string `json:"missionId,omitempty"`
}

type queryResponse struct {
	Success        bool            `json:"success"`
	Columns        []string        `json:"columns"`
	Rows           []sandbox.Row   `json:"rows"`
	RowCount       int64           `json:"rowCount"`
	Feedback       string          `json:"feedback"`
	XPEarned       *int            `json:"xpEarned,omitempty"`
	PlayerProgress *quest.Progress `json:"playerProgress,omitempty"`
}

// feedbackResponse is the body of every rejected query submission.
type feedbackResponse struct {
	Success  bool   `json:"success"`
	Feedback string `json:"feedback"`
}

type resetResponse struct {
	Message  string         `json:"message"`
	Progress quest.Progress `json:"progress"`
}

type historyResponse struct {
	History []quest.HistoryEntry `json:"history"`
}

type rankingsResponse struct {
	Rankings []quest.RankingEntry `json:"rankings"`
}

type examplesResponse struct {
	Examples []mission.Example `json:"examples"`
}

type hintsResponse struct {
	Hints []mission.Hint `json:"hints"`
}

type templateResponse struct {
	MissionID string `json:"missionId"`
	Template  string `json:"template"`
	Hint      string `json:"hint"`
}

type profileResponse struct {
	User quest.User `json:"user"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type errorResponse struct {
	Error string `json:"error"`
}
