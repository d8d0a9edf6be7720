package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgState is how one SQLSTATE maps onto the project codes
type pgState struct {
	code  ErrorCode
	retry bool
}

// pgStates covers the SQLSTATEs the status table writer meets; anything else is ErrorCodeDB
var pgStates = map[string]pgState{
	"23505": {ErrorCodeDuplicateKey, false},
	"23502": {ErrorCodeValidation, false},
	"23514": {ErrorCodeValidation, false},
	"22P02": {ErrorCodeInvalidArgument, false},
	"22032": {ErrorCodeInvalidArgument, false},
	"22001": {ErrorCodeInvalidArgument, false}, // value too long for the status column

	// configured table or column missing
	"42P01": {ErrorCodeStorageWrite, false},
	"42703": {ErrorCodeStorageWrite, false},
	"42501": {ErrorCodeStorageWrite, false}, // insufficient privilege

	"40001": {ErrorCodeDB, true},
	"40P01": {ErrorCodeDB, true},
	"55P03": {ErrorCodeDB, true},
	"57014": {ErrorCodeUnavailable, true}, // statement_timeout fired

	"25006": {ErrorCodeUnavailable, false},
	"57P03": {ErrorCodeUnavailable, true},
	"57P01": {ErrorCodeUnavailable, true},
}

// transientPgText catches failures pgx reports without a SQLSTATE, mostly around commit
var transientPgText = []string{
	"commit unexpectedly resulted in rollback",
	"deadlock detected",
	"could not serialize access",
	"canceling statement due to lock timeout",
	"connection reset by peer",
	"terminating connection due to administrator command",
}

// SQLState returns the Postgres SQLSTATE under err, or ""
func SQLState(err error) string {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// DBErrorCode maps a Postgres error to an ErrorCode; ok is false when err carries no SQLSTATE
func DBErrorCode(err error) (ErrorCode, bool) {
	state := SQLState(err)
	if state == "" {
		return ErrorCodeUnknown, false
	}
	if s, ok := pgStates[state]; ok {
		return s.code, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with its mapped code; nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code, ok := DBErrorCode(err)
	if !ok {
		code = ErrorCodeDB
	}
	return Wrap(err, code, msg)
}

// FromPostgresf is FromPostgres with a formatted message
func FromPostgresf(err error, format string, a ...any) error {
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database failure is transient
// local cancellation is never retryable: it was the caller's decision
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if state := SQLState(err); state != "" {
		return pgStates[state].retry
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range transientPgText {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
