package postgres

import (
	"context"
	"database/sql"
	"errors"

	"queryquest/internal/quest"
)

const (
	selectProgressSQL          = `SELECT current_level, current_xp FROM player_progress WHERE user_id = $1`
	selectProgressForUpdateSQL = selectProgressSQL + ` FOR UPDATE`
	selectCompletedSQL         = `SELECT mission_id FROM completed_missions WHERE user_id = $1 ORDER BY seq`
	selectUnlockedSQL          = `SELECT mission_id FROM unlocked_missions WHERE user_id = $1 ORDER BY seq`
	ensureProgressSQL          = `INSERT INTO player_progress (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	insertCompletedSQL         = `INSERT INTO completed_missions (user_id, mission_id) VALUES ($1, $2) ON CONFLICT (user_id, mission_id) DO NOTHING`
	insertUnlockedSQL          = `INSERT INTO unlocked_missions (user_id, mission_id) VALUES ($1, $2) ON CONFLICT (user_id, mission_id) DO NOTHING`
	updateProgressSQL          = `UPDATE player_progress SET current_level = $2, current_xp = $3, updated_at = now() WHERE user_id = $1`
	resetProgressSQL           = `INSERT INTO player_progress (user_id, current_level, current_xp) VALUES ($1, 1, 0)
		ON CONFLICT (user_id) DO UPDATE SET current_level = 1, current_xp = 0, updated_at = now()`
	deleteCompletedSQL = `DELETE FROM completed_missions WHERE user_id = $1`
	deleteUnlockedSQL  = `DELETE FROM unlocked_missions WHERE user_id = $1`
)

func (s *Store) GetProgress(ctx context.Context, userID string) (quest.Progress, error) {
	return loadProgress(ctx, s.db, userID, selectProgressSQL)
}

func loadProgress(ctx context.Context, q queryer, userID, progressSQL string) (quest.Progress, error) {
	var progress quest.Progress
	err := q.QueryRowContext(ctx, progressSQL, userID).Scan(&progress.CurrentLevel, &progress.CurrentXP)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.Progress{}, quest.ErrProgressNotFound
	}
	if err != nil {
		return quest.Progress{}, err
	}
	progress.XPToNextLevel = progress.CurrentLevel * quest.XPPerLevel

	if progress.CompletedMissions, err = queryStrings(ctx, q, selectCompletedSQL, userID); err != nil {
		return quest.Progress{}, err
	}
	if progress.UnlockedMissions, err = queryStrings(ctx, q, selectUnlockedSQL, userID); err != nil {
		return quest.Progress{}, err
	}
	return progress, nil
}

// CompleteMission locks the user's progress row for the whole read-modify-write
// so concurrent completions of the same mission award XP once.
//
// Invariants:
//   - (user_id, mission_id) is unique in completed_missions and unlocked_missions.
//   - Unlocks are only ever inserted here; only ResetProgress deletes them.
func (s *Store) CompleteMission(ctx context.Context, userID, missionID string, xp int, nextID string) (quest.Completion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.Completion{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, ensureProgressSQL, userID); err != nil {
		return quest.Completion{}, err
	}
	if _, err := tx.ExecContext(ctx, insertUnlockedSQL, userID, quest.FirstMissionID); err != nil {
		return quest.Completion{}, err
	}

	current, err := loadProgress(ctx, tx, userID, selectProgressForUpdateSQL)
	if err != nil {
		return quest.Completion{}, err
	}

	completion := current.Complete(missionID, xp, nextID)
	if !completion.Awarded {
		return completion, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, insertCompletedSQL, userID, missionID); err != nil {
		return quest.Completion{}, err
	}
	for _, unlocked := range completion.After.UnlockedMissions {
		if completion.Before.IsUnlocked(unlocked) {
			continue
		}
		if _, err := tx.ExecContext(ctx, insertUnlockedSQL, userID, unlocked); err != nil {
			return quest.Completion{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, updateProgressSQL, userID, completion.After.CurrentLevel, completion.After.CurrentXP); err != nil {
		return quest.Completion{}, err
	}

	if err := tx.Commit(); err != nil {
		return quest.Completion{}, err
	}
	return completion, nil
}

func (s *Store) ResetProgress(ctx context.Context, userID string) (quest.Progress, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.Progress{}, err
	}
	defer tx.Rollback()

	for _, stmt := range []string{deleteCompletedSQL, deleteUnlockedSQL, resetProgressSQL} {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return quest.Progress{}, err
		}
	}
	if _, err := tx.ExecContext(ctx, insertUnlockedSQL, userID, quest.FirstMissionID); err != nil {
		return quest.Progress{}, err
	}

	if err := tx.Commit(); err != nil {
		return quest.Progress{}, err
	}
	return quest.NewProgress(), nil
}
