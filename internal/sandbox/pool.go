package sandbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const resetStatement = "DISCARD ALL"

// NewPoolConfig builds the configuration for a pool dedicated to the sandbox.
// Statements are never cached server side, so every released connection can be
// wiped with DISCARD ALL. That drops what a rolled back transaction leaves on
// the session: session advisory locks, session settings and temp tables.
func NewPoolConfig(databaseURL string, maxConns int32) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec
	cfg.AfterRelease = ResetConn
	return cfg, nil
}

// ResetConn discards session state. A connection that cannot be reset is
// destroyed instead of going back to the pool.
func ResetConn(conn *pgx.Conn) bool {
	ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, resetStatement, pgx.QueryExecModeSimpleProtocol); err != nil {
		log.Warn().Err(err).Msg("Sandbox connection reset failed")
		return false
	}
	return true
}
