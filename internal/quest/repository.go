package quest

import (
	"context"
	"errors"
	"time"

	"queryquest/internal/mission"
	"queryquest/internal/sandbox"
)

var (
	ErrMissionNotFound  = mission.ErrNotFound
	ErrUserNotFound     = errors.New("user not found")
	ErrProgressNotFound = errors.New("progress not found")
	ErrInvalidUsername  = errors.New("invalid username")
	ErrUsernameTaken    = errors.New("username already taken")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type HistoryEntry struct {
	UserID    string    `json:"userId"`
	MissionID string    `json:"missionId,omitempty"`
	SQL       string    `json:"sql"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"createdAt"`
}

type RankingEntry struct {
	Username       string `json:"username"`
	Level          int    `json:"level"`
	XP             int    `json:"xp"`
	CompletedCount int    `json:"completedCount"`
}

// ProgressRepository owns per-user progression. CompleteMission must apply
// Progress.Complete atomically per user so that a mission awards XP at most
// once even under concurrent submissions.
type ProgressRepository interface {
	GetProgress(ctx context.Context, userID string) (Progress, error)
	CompleteMission(ctx context.Context, userID, missionID string, xp int, nextID string) (Completion, error)
	ResetProgress(ctx context.Context, userID string) (Progress, error)
}

type HistoryRepository interface {
	SaveQueryHistory(ctx context.Context, entry HistoryEntry) error
	ListQueryHistory(ctx context.Context, userID string, limit int) ([]HistoryEntry, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, username, email string) (User, error)
	GetUser(ctx context.Context, userID string) (User, error)
}

type RankingRepository interface {
	ListRankings(ctx context.Context, limit int) ([]RankingEntry, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	ProgressRepository
	HistoryRepository
	UserRepository
	RankingRepository
}

type MissionCatalog interface {
	Get(id string) (mission.Mission, error)
	All() []mission.Mission
	Hints() []mission.Hint
	MaxLevel() int
}

type Executor interface {
	Run(ctx context.Context, setup []string, query string) (sandbox.Result, error)
}
