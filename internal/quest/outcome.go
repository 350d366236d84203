package quest

import (
	"time"

	"queryquest/internal/sandbox"
)

type Status string

const (
	StatusOK        Status = "ok"
	StatusInvalid   Status = "invalid"
	StatusUnsafe    Status = "unsafe"
	StatusLocked    Status = "locked"
	StatusNotFound  Status = "not_found"
	StatusExecError Status = "exec_error"
)

// Outcome is the result of Service.Execute. Success=false with StatusOK is a
// wrong answer, not an error.
type Outcome struct {
	Status       Status
	Success      bool
	Columns      []string
	Rows         []sandbox.Row
	RowCount     int64
	Feedback     string
	XPEarned     *int
	Progress     *Progress
	LevelsGained int
}

// Recorder receives service events. The telemetry package provides the
// prometheus implementation.
type Recorder interface {
	QueryExecuted(status Status, success bool, elapsed time.Duration)
	MissionCompleted(missionID string, levelsGained int)
}

type nopRecorder struct{}

func (nopRecorder) QueryExecuted(Status, bool, time.Duration) {}

func (nopRecorder) MissionCompleted(string, int) {}
