package sandbox

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

type Stage string

const (
	StageSetup Stage = "setup"
	StageQuery Stage = "query"
)

type Kind string

const (
	KindSyntax     Kind = "syntax"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindTimeout    Kind = "timeout"
	KindUnknown    Kind = "unknown"
)

// ExecError is a database error raised by fixture setup or the submitted SQL.
// It is a user-facing failure, not an infrastructure one.
type ExecError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *ExecError) Error() string {
	return string(e.Stage) + ": " + e.Err.Error()
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// Message is the raw database message without driver decoration.
func (e *ExecError) Message() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Message
	}
	return e.Err.Error()
}

// Feedback renders the error for a player.
func (e *ExecError) Feedback() string {
	message := e.Message()
	switch e.Kind {
	case KindSyntax:
		return "SQL Syntax Error: Check your query structure. " + message
	case KindNotFound:
		return "Table or column not found: " + message
	case KindPermission:
		return "Permission denied: This operation is not allowed."
	case KindTimeout:
		return "Query timed out: simplify it or add tighter conditions."
	default:
		return message
	}
}

func newExecError(stage Stage, err error) *ExecError {
	return &ExecError{Stage: stage, Kind: Classify(err), Err: err}
}

// Classify maps a database error to a Kind, by SQLSTATE when available and by
// message text otherwise.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "42601":
			return KindSyntax
		case "42P01", "42703", "42883", "3F000":
			return KindNotFound
		case "42501":
			return KindPermission
		case "57014":
			return KindTimeout
		}
	}

	message := err.Error()
	switch {
	case strings.Contains(message, "syntax error"):
		return KindSyntax
	case strings.Contains(message, "does not exist"):
		return KindNotFound
	case strings.Contains(message, "permission denied"):
		return KindPermission
	case strings.Contains(message, "statement timeout"):
		return KindTimeout
	default:
		return KindUnknown
	}
}
