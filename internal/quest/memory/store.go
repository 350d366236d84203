// Package memory is an in-process quest.Store for development and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"queryquest/internal/quest"
)

const maxHistoryPerUser = 500

// userState is guarded by mu; every read-modify-write of a user's progression
// holds it, which serializes concurrent completions for that user.
type userState struct {
	mu       sync.Mutex
	progress *quest.Progress
	history  []quest.HistoryEntry
}

type Store struct {
	users     *xsync.MapOf[string, quest.User]
	usernames *xsync.MapOf[string, string]
	states    *xsync.MapOf[string, *userState]
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:     xsync.NewMapOf[string, quest.User](),
		usernames: xsync.NewMapOf[string, string](),
		states:    xsync.NewMapOf[string, *userState](),
		now:       time.Now,
	}
}

func (s *Store) state(userID string) *userState {
	state, _ := s.states.LoadOrCompute(userID, func() *userState {
		return &userState{}
	})
	return state
}

func (s *Store) GetProgress(_ context.Context, userID string) (quest.Progress, error) {
	state, ok := s.states.Load(userID)
	if !ok {
		return quest.Progress{}, quest.ErrProgressNotFound
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.progress == nil {
		return quest.Progress{}, quest.ErrProgressNotFound
	}
	return state.progress.Clone(), nil
}

func (s *Store) CompleteMission(_ context.Context, userID, missionID string, xp int, nextID string) (quest.Completion, error) {
	state := s.state(userID)

	state.mu.Lock()
	defer state.mu.Unlock()

	current := quest.NewProgress()
	if state.progress != nil {
		current = *state.progress
	}
	completion := current.Complete(missionID, xp, nextID)
	after := completion.After.Clone()
	state.progress = &after
	return completion, nil
}

func (s *Store) ResetProgress(_ context.Context, userID string) (quest.Progress, error) {
	state := s.state(userID)

	state.mu.Lock()
	defer state.mu.Unlock()

	fresh := quest.NewProgress()
	state.progress = &fresh
	return fresh.Clone(), nil
}

func (s *Store) SaveQueryHistory(_ context.Context, entry quest.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	state := s.state(entry.UserID)

	state.mu.Lock()
	defer state.mu.Unlock()

	state.history = append(state.history, entry)
	if overflow := len(state.history) - maxHistoryPerUser; overflow > 0 {
		state.history = append([]quest.HistoryEntry(nil), state.history[overflow:]...)
	}
	return nil
}

// ListQueryHistory returns the newest entries first.
func (s *Store) ListQueryHistory(_ context.Context, userID string, limit int) ([]quest.HistoryEntry, error) {
	state, ok := s.states.Load(userID)
	if !ok {
		return []quest.HistoryEntry{}, nil
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	out := make([]quest.HistoryEntry, 0, len(state.history))
	for idx := len(state.history) - 1; idx >= 0; idx-- {
		out = append(out, state.history[idx])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) CreateUser(_ context.Context, username, email string) (quest.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return quest.User{}, quest.ErrInvalidUsername
	}

	user := quest.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     strings.TrimSpace(email),
		CreatedAt: s.now().UTC(),
	}
	if _, taken := s.usernames.LoadOrStore(strings.ToLower(username), user.ID); taken {
		return quest.User{}, quest.ErrUsernameTaken
	}
	s.users.Store(user.ID, user)

	state := s.state(user.ID)
	state.mu.Lock()
	if state.progress == nil {
		fresh := quest.NewProgress()
		state.progress = &fresh
	}
	state.mu.Unlock()

	return user, nil
}

func (s *Store) GetUser(_ context.Context, userID string) (quest.User, error) {
	user, ok := s.users.Load(userID)
	if !ok {
		return quest.User{}, quest.ErrUserNotFound
	}
	return user, nil
}

// ListRankings orders registered users by level, XP and completed missions.
// A non-positive limit returns everyone.
func (s *Store) ListRankings(_ context.Context, limit int) ([]quest.RankingEntry, error) {
	entries := make([]quest.RankingEntry, 0, s.users.Size())
	s.users.Range(func(userID string, user quest.User) bool {
		progress := quest.NewProgress()
		if state, ok := s.states.Load(userID); ok {
			state.mu.Lock()
			if state.progress != nil {
				progress = state.progress.Clone()
			}
			state.mu.Unlock()
		}
		entries = append(entries, quest.RankingEntry{
			Username:       user.Username,
			Level:          progress.CurrentLevel,
			XP:             progress.CurrentXP,
			CompletedCount: len(progress.CompletedMissions),
		})
		return true
	})

	sort.Slice(entries, func(i, j int) bool {
		return rankingBefore(entries[i], entries[j])
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func rankingBefore(a, b quest.RankingEntry) bool {
	if a.Level != b.Level {
		return a.Level > b.Level
	}
	if a.XP != b.XP {
		return a.XP > b.XP
	}
	if a.CompletedCount != b.CompletedCount {
		return a.CompletedCount > b.CompletedCount
	}
	return a.Username < b.Username
}
