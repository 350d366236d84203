package httpapi

import (
	"context"
	"time"

	"queryquest/internal/mission"
	"queryquest/internal/quest"
)

// QuestService is the slice of *quest.Service the handlers use.
type QuestService interface {
	Execute(ctx context.Context, userID, sql, missionID string) (quest.Outcome, error)
	Progress(ctx context.Context, userID string) (quest.Progress, error)
	ResetProgress(ctx context.Context, userID string) (quest.Progress, error)
	History(ctx context.Context, userID string, limit int) ([]quest.HistoryEntry, error)
	Rankings(ctx context.Context, limit int) ([]quest.RankingEntry, error)
	CurrentUser(ctx context.Context, userID string) (quest.User, error)
	Missions() []mission.Mission
	Mission(id string) (mission.Mission, error)
	Hints() []mission.Hint
	Template(id string) (string, string, error)
}

type API struct {
	service QuestService
	now     func() time.Time
}

func NewAPI(service QuestService) *API {
	return &API{
		service: service,
		now:     time.Now,
	}
}
