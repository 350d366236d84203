// Package quest is the query execution and scoring engine: it gates submitted
// SQL, runs it in the sandbox, scores it against the mission and advances the
// player's progression.
package quest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"queryquest/internal/mission"
	"queryquest/internal/safety"
	"queryquest/internal/sandbox"
)

const (
	defaultRankingCacheSize = 16
	defaultRankingCacheTTL  = 30 * time.Second
)

type Service struct {
	missions MissionCatalog
	store    Store
	executor Executor
	recorder Recorder
	rankings *rankingCache
	now      func() time.Time
}

type Option func(*Service)

func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		if recorder != nil {
			s.recorder = recorder
		}
	}
}

// WithRankingCache sets the rankings cache TTL. A non-positive ttl disables
// caching.
func WithRankingCache(ttl time.Duration) Option {
	return func(s *Service) {
		s.rankings = newRankingCache(defaultRankingCacheSize, ttl)
	}
}

func NewService(missions MissionCatalog, store Store, executor Executor, opts ...Option) *Service {
	s := &Service{
		missions: missions,
		store:    store,
		executor: executor,
		recorder: nopRecorder{},
		rankings: newRankingCache(defaultRankingCacheSize, defaultRankingCacheTTL),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs one query submission for userID. The returned error is reserved
// for infrastructure failures; every player-facing failure is an Outcome.
func (s *Service) Execute(ctx context.Context, userID, sql, missionID string) (Outcome, error) {
	started := s.now()
	outcome, err := s.execute(ctx, userID, sql, strings.TrimSpace(missionID))
	if err == nil {
		s.recorder.QueryExecuted(outcome.Status, outcome.Success, s.now().Sub(started))
	}
	return outcome, err
}

func (s *Service) execute(ctx context.Context, userID, sql, missionID string) (Outcome, error) {
	if strings.TrimSpace(sql) == "" {
		return Outcome{Status: StatusInvalid, Feedback: "No SQL query provided."}, nil
	}

	if verdict := safety.Classify(sql, missionID); !verdict.Safe {
		if missionID != "" {
			s.saveHistory(ctx, userID, missionID, sql, false)
		}
		feedback := verdict.Reason
		if feedback == "" {
			feedback = "Unsafe query."
		}
		return Outcome{Status: StatusUnsafe, Feedback: feedback}, nil
	}

	if missionID == "" {
		return s.executeFreeform(ctx, userID, sql)
	}

	m, err := s.missions.Get(missionID)
	if errors.Is(err, mission.ErrNotFound) {
		return Outcome{Status: StatusNotFound, Feedback: "Mission not found."}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	progress, err := s.Progress(ctx, userID)
	if err != nil {
		return Outcome{}, err
	}
	if !progress.IsUnlocked(m.ID) {
		s.saveHistory(ctx, userID, m.ID, sql, false)
		return Outcome{Status: StatusLocked, Feedback: "This mission is locked. Complete previous missions first!"}, nil
	}

	result, err := s.executor.Run(ctx, m.TableSetup, sql)
	if err != nil {
		return s.executionFailure(ctx, userID, m.ID, sql, err)
	}

	outcome := Outcome{
		Status:   StatusOK,
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount,
	}

	verdict := m.ValidationRules.Evaluate(sql, result.Columns, result.RowCount)
	if !verdict.Passed {
		s.saveHistory(ctx, userID, m.ID, sql, false)
		outcome.Feedback = verdict.Feedback
		outcome.Progress = &progress
		return outcome, nil
	}

	next, _ := mission.NextID(m.ID, s.missions.MaxLevel())
	completion, err := s.store.CompleteMission(ctx, userID, m.ID, m.XPReward, next)
	if err != nil {
		return Outcome{}, fmt.Errorf("complete mission %s: %w", m.ID, err)
	}
	s.saveHistory(ctx, userID, m.ID, sql, true)

	outcome.Success = true
	outcome.Progress = &completion.After
	outcome.LevelsGained = completion.LevelsGained
	if completion.Awarded {
		xp := m.XPReward
		outcome.XPEarned = &xp
		outcome.Feedback = completionFeedback(result.RowCount, xp, completion)
		s.rankings.purge()
		s.recorder.MissionCompleted(m.ID, completion.LevelsGained)
		log.Info().
			Str("user_id", userID).
			Str("mission_id", m.ID).
			Int("xp", xp).
			Int("levels_gained", completion.LevelsGained).
			Msg("Mission completed")
	} else {
		zero := 0
		outcome.XPEarned = &zero
		outcome.Feedback = replayFeedback(result.RowCount)
	}
	return outcome, nil
}

// executeFreeform runs SQL outside any mission. Scoring is trivial.
func (s *Service) executeFreeform(ctx context.Context, userID, sql string) (Outcome, error) {
	result, err := s.executor.Run(ctx, nil, sql)
	if err != nil {
		return s.executionFailure(ctx, userID, "", sql, err)
	}
	s.saveHistory(ctx, userID, "", sql, true)

	outcome := Outcome{
		Status:   StatusOK,
		Success:  true,
		Columns:  result.Columns,
		Rows:     result.Rows,
		RowCount: result.RowCount,
		Feedback: "Query executed successfully!",
	}
	if progress, err := s.Progress(ctx, userID); err == nil {
		outcome.Progress = &progress
	} else {
		log.Warn().Err(err).Str("user_id", userID).Msg("Failed to load progress for free-form query")
	}
	return outcome, nil
}

func (s *Service) executionFailure(ctx context.Context, userID, missionID, sql string, err error) (Outcome, error) {
	var execErr *sandbox.ExecError
	if !errors.As(err, &execErr) {
		return Outcome{}, err
	}
	s.saveHistory(ctx, userID, missionID, sql, false)
	log.Debug().
		Str("user_id", userID).
		Str("mission_id", missionID).
		Str("stage", string(execErr.Stage)).
		Str("kind", string(execErr.Kind)).
		Err(execErr.Err).
		Msg("Query execution failed")
	return Outcome{Status: StatusExecError, Feedback: execErr.Feedback()}, nil
}

// saveHistory is best-effort: a failed write is logged and never surfaces.
func (s *Service) saveHistory(ctx context.Context, userID, missionID, sql string, success bool) {
	if userID == "" {
		return
	}
	entry := HistoryEntry{
		UserID:    userID,
		MissionID: missionID,
		SQL:       sql,
		Success:   success,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SaveQueryHistory(ctx, entry); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("mission_id", missionID).Msg("Failed to save query history")
	}
}

// Progress returns the user's progression, or a fresh one for a user who has
// never played.
func (s *Service) Progress(ctx context.Context, userID string) (Progress, error) {
	progress, err := s.store.GetProgress(ctx, userID)
	if errors.Is(err, ErrProgressNotFound) {
		return NewProgress(), nil
	}
	return progress, err
}

func (s *Service) ResetProgress(ctx context.Context, userID string) (Progress, error) {
	progress, err := s.store.ResetProgress(ctx, userID)
	if err != nil {
		return Progress{}, err
	}
	s.rankings.purge()
	return progress, nil
}

func (s *Service) History(ctx context.Context, userID string, limit int) ([]HistoryEntry, error) {
	return s.store.ListQueryHistory(ctx, userID, limit)
}

func (s *Service) Rankings(ctx context.Context, limit int) ([]RankingEntry, error) {
	if entries, ok := s.rankings.get(limit); ok {
		return entries, nil
	}
	entries, err := s.store.ListRankings(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.rankings.set(limit, entries)
	return entries, nil
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (User, error) {
	return s.store.GetUser(ctx, userID)
}

// CreateUser registers a player with fresh progression.
func (s *Service) CreateUser(ctx context.Context, username, email string) (User, error) {
	user, err := s.store.CreateUser(ctx, username, email)
	if err != nil {
		return User{}, err
	}
	s.rankings.purge()
	log.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("User created")
	return user, nil
}

func (s *Service) Missions() []mission.Mission {
	return s.missions.All()
}

func (s *Service) Mission(id string) (mission.Mission, error) {
	return s.missions.Get(id)
}

func (s *Service) Hints() []mission.Hint {
	return s.missions.Hints()
}

// Template returns a query skeleton for the mission plus its hint.
func (s *Service) Template(id string) (string, string, error) {
	m, err := s.missions.Get(id)
	if err != nil {
		return "", "", err
	}
	return mission.Template(m), m.Hint, nil
}

func completionFeedback(rowCount int64, xp int, completion Completion) string {
	found := "Perfect!"
	if rowCount > 0 {
		found = fmt.Sprintf("You found %d record(s).", rowCount)
	}
	feedback := fmt.Sprintf("Mission complete! %s Well done, Detective! +%d XP", found, xp)
	if completion.LevelsGained > 0 {
		feedback += fmt.Sprintf("\n\nLEVEL UP! You are now Level %d!", completion.After.CurrentLevel)
	}
	return feedback
}

func replayFeedback(rowCount int64) string {
	found := "Query executed successfully!"
	if rowCount > 0 {
		found = fmt.Sprintf("You found %d record(s).", rowCount)
	}
	return fmt.Sprintf("Correct! %s (Mission already completed - no XP)", found)
}
