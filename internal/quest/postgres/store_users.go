package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"queryquest/internal/quest"
)

const uniqueViolation = "23505"

// CreateUser registers a user and seeds their progression in one transaction.
func (s *Store) CreateUser(ctx context.Context, username, email string) (quest.User, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return quest.User{}, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(
		ctx,
		`INSERT INTO users (id, username, email, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID,
		user.Username,
		user.Email,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return quest.User{}, quest.ErrUsernameTaken
		}
		return quest.User{}, err
	}
	if _, err := tx.ExecContext(ctx, ensureProgressSQL, user.ID); err != nil {
		return quest.User{}, err
	}
	if _, err := tx.ExecContext(ctx, insertUnlockedSQL, user.ID, quest.FirstMissionID); err != nil {
		return quest.User{}, err
	}

	if err := tx.Commit(); err != nil {
		return quest.User{}, err
	}
	return user, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (quest.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return quest.User{}, quest.ErrUserNotFound
	}

	var user quest.User
	err := s.db.QueryRowContext(
		ctx,
		`SELECT id::text, username, email, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return quest.User{}, quest.ErrUserNotFound
	}
	if err != nil {
		return quest.User{}, err
	}
	return user, nil
}

// ListRankings orders registered users by level, XP and completed missions.
// A non-positive limit returns everyone.
func (s *Store) ListRankings(ctx context.Context, limit int) ([]quest.RankingEntry, error) {
	query := `SELECT u.username,
		        COALESCE(p.current_level, 1) AS level,
		        COALESCE(p.current_xp, 0) AS xp,
		        (SELECT COUNT(*) FROM completed_missions c WHERE c.user_id = u.id::text) AS completed
		 FROM users u
		 LEFT JOIN player_progress p ON p.user_id = u.id::text
		 ORDER BY level DESC, xp DESC, completed DESC, u.username ASC`
	if limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(limit)
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]quest.RankingEntry, 0)
	for rows.Next() {
		var entry quest.RankingEntry
		if err := rows.Scan(&entry.Username, &entry.Level, &entry.XP, &entry.CompletedCount); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
