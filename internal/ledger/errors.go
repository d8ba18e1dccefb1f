package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ValidationError means the input is missing or invalid for the current plan or status.
// Nothing has been written when it is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError means a referenced row does not exist.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// UniqueConstraintError is returned when an insert collides with an existing key.
type UniqueConstraintError struct {
	Entity string
	Err    error
}

func (e *UniqueConstraintError) Error() string {
	return fmt.Sprintf("%s already exists: %v", e.Entity, e.Err)
}

func (e *UniqueConstraintError) Unwrap() error { return e.Err }

// StoreUnavailableError wraps connection and transaction failures.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("store unavailable during %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func notFound(entity string, id uint) error {
	return &NotFoundError{Entity: entity, ID: id}
}

// isDuplicateKey recognises unique violations from both drivers, translated or raw.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// classify maps a store error onto the ledger taxonomy. Errors that already belong to it
// pass through unchanged.
func classify(op, entity string, err error) error {
	if err == nil {
		return nil
	}

	var (
		verr *ValidationError
		nerr *NotFoundError
		uerr *UniqueConstraintError
		serr *StoreUnavailableError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &nerr), errors.As(err, &uerr), errors.As(err, &serr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &NotFoundError{Entity: entity}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &StoreUnavailableError{Op: op, Err: err}
	case isDuplicateKey(err):
		return &UniqueConstraintError{Entity: entity, Err: err}
	}
	return &StoreUnavailableError{Op: op, Err: err}
}

func errorKind(err error) string {
	var (
		verr *ValidationError
		nerr *NotFoundError
		uerr *UniqueConstraintError
	)
	switch {
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &nerr):
		return "not_found"
	case errors.As(err, &uerr):
		return "unique"
	}
	return "store"
}
