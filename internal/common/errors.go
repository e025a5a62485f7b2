package common

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidCursor  = errors.New("invalid pagination cursor")
)

type DatabaseErrorKind string

const (
	UniqueViolation     DatabaseErrorKind = "unique_violation"
	ForeignKeyViolation DatabaseErrorKind = "foreign_key_violation"
	CheckViolation      DatabaseErrorKind = "check_violation"
	ConnectionFailure   DatabaseErrorKind = "connection_failure"
	Timeout             DatabaseErrorKind = "timeout"
	Other               DatabaseErrorKind = "other"
)

// DatabaseError wraps a failure returned by the data store together with its
// classification. Constraint is set for constraint violations.
type DatabaseError struct {
	Kind       DatabaseErrorKind
	Constraint string
	Err        error
}

func (e *DatabaseError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("database error (%s on %s): %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("database error (%s): %v", e.Kind, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// ClassifyDBError wraps err in a *DatabaseError. nil stays nil and errors that
// are already classified are returned unchanged.
func ClassifyDBError(err error) error {
	if err == nil {
		return nil
	}

	var dbErr *DatabaseError
	if errors.As(err, &dbErr) {
		return err
	}

	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr):
		return &DatabaseError{Kind: kindFromCode(pqErr.Code), Constraint: pqErr.Constraint, Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &DatabaseError{Kind: Timeout, Err: err}
	case errors.Is(err, driver.ErrBadConn), strings.Contains(err.Error(), "connection refused"):
		return &DatabaseError{Kind: ConnectionFailure, Err: err}
	default:
		return &DatabaseError{Kind: Other, Err: err}
	}
}

func kindFromCode(code pq.ErrorCode) DatabaseErrorKind {
	switch {
	case code == "23505":
		return UniqueViolation
	case code == "23503":
		return ForeignKeyViolation
	case code == "23514":
		return CheckViolation
	case code == "57014":
		return Timeout
	case code.Class() == "08":
		return ConnectionFailure
	default:
		return Other
	}
}

// IsDatabaseError reports whether err is a classified database error of the
// given kind. An empty constraint matches any constraint.
func IsDatabaseError(err error, kind DatabaseErrorKind, constraint string) bool {
	var dbErr *DatabaseError
	if !errors.As(err, &dbErr) {
		return false
	}

	if dbErr.Kind != kind {
		return false
	}

	return constraint == "" || dbErr.Constraint == constraint
}
