package postgres

import (
	"context"

	"queryquest/internal/quest"
)

const defaultHistoryLimit = 100

func (s *Store) SaveQueryHistory(ctx context.Context, entry quest.HistoryEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now().UTC()
	}

	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO query_history (user_id, mission_id, sql_text, success, created_at)
		 VALUES ($1, NULLIF($2, ''), $3, $4, $5)`,
		entry.UserID,
		entry.MissionID,
		entry.SQL,
		entry.Success,
		createdAt,
	)
	return err
}

// ListQueryHistory returns the newest entries first. A non-positive limit
// selects defaultHistoryLimit.
func (s *Store) ListQueryHistory(ctx context.Context, userID string, limit int) ([]quest.HistoryEntry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	rows, err := s.db.QueryContext(
		ctx,
		`SELECT user_id, COALESCE(mission_id, ''), sql_text, success, created_at
		 FROM query_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		userID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]quest.HistoryEntry, 0)
	for rows.Next() {
		var entry quest.HistoryEntry
		if err := rows.Scan(&entry.UserID, &entry.MissionID, &entry.SQL, &entry.Success, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
