// Package sandbox runs untrusted SQL against a real Postgres database inside a
// transaction that is always rolled back.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

const (
	DefaultStatementTimeout = 5 * time.Second
	rollbackTimeout         = 5 * time.Second
)

// Beginner is satisfied by *pgxpool.Pool.
type Beginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Result struct {
	Columns  []string
	Rows     []Row
	RowCount int64
}

type Executor struct {
	db               Beginner
	statementTimeout time.Duration
	role             string
}

type Option func(*Executor)

// WithRole runs setup and the player's query as role via SET LOCAL ROLE. The
// connecting user must be a member of role. An empty role keeps the
// connecting user.
func WithRole(role string) Option {
	return func(e *Executor) {
		e.role = strings.TrimSpace(role)
	}
}

// NewExecutor builds an Executor. A zero statementTimeout disables the
// per-statement limit; callers should still bound ctx.
func NewExecutor(db Beginner, statementTimeout time.Duration, opts ...Option) *Executor {
	e := &Executor{
		db:               db,
		statementTimeout: statementTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes setup then query on one connection and rolls everything back.
//
// Setup statements are trusted content and go through the simple protocol, so
// one entry may hold several statements. The submitted query uses the extended
// protocol, which refuses multiple statements; a player cannot smuggle a
// COMMIT past the rollback.
//
// The rollback does not undo session state such as session advisory locks.
// Pools built with NewPoolConfig discard it when the connection is released.
//
// Errors raised by setup or the query are returned as *ExecError. Any other
// error means the database itself was unavailable.
func (e *Executor) Run(ctx context.Context, setup []string, query string) (Result, error) {
	tx, err := e.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Result{}, fmt.Errorf("begin sandbox transaction: %w", err)
	}
	defer rollback(ctx, tx)

	if e.statementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", e.statementTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return Result{}, fmt.Errorf("set statement timeout: %w", err)
		}
	}

	if e.role != "" {
		if _, err := tx.Exec(ctx, "SET LOCAL ROLE "+pgx.Identifier{e.role}.Sanitize()); err != nil {
			return Result{}, fmt.Errorf("set sandbox role: %w", err)
		}
	}

	for _, stmt := range setup {
		if _, err := tx.Exec(ctx, stmt, pgx.QueryExecModeSimpleProtocol); err != nil {
			return Result{}, newExecError(StageSetup, err)
		}
	}

	rows, err := tx.Query(ctx, query, pgx.QueryExecModeDescribeExec)
	if err != nil {
		return Result{}, newExecError(StageQuery, err)
	}
	result, err := collect(rows)
	if err != nil {
		return Result{}, newExecError(StageQuery, err)
	}
	return result, nil
}

// Ping runs a trivial query through the full sandbox path, role included.
func (e *Executor) Ping(ctx context.Context) error {
	_, err := e.Run(ctx, nil, "SELECT 1")
	return err
}

func collect(rows pgx.Rows) (Result, error) {
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]string, len(fields))
	for idx, field := range fields {
		columns[idx] = field.Name
	}

	materialized := make([]Row, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return Result{}, err
		}
		for idx := range values {
			values[idx] = normalizeValue(values[idx])
		}
		materialized = append(materialized, Row{Columns: columns, Values: values})
	}
	if err := rows.Err(); err != nil {
		return Result{}, err
	}

	rowCount := int64(len(materialized))
	if tag := rows.CommandTag(); tag.String() != "" {
		rowCount = tag.RowsAffected()
	}

	return Result{
		Columns:  columns,
		Rows:     materialized,
		RowCount: rowCount,
	}, nil
}

// rollback must run even when ctx is already cancelled, otherwise the pooled
// connection would be returned mid-transaction.
func rollback(ctx context.Context, tx pgx.Tx) {
	rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if err := tx.Rollback(rollbackCtx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Warn().Err(err).Msg("Sandbox rollback failed")
	}
}
