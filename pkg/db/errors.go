package db

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// QueryError wraps a failure from a read-only statement.
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// WriteError wraps a failure from a mutating statement, including constraint
// violations.
type WriteError struct {
	Query string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write failed: %v", e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation reports whether the provided error references a SQLite
// unique constraint. When column is provided, the helper looks for the
// qualified column text in the error message.
func IsUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if column == "" {
		return true
	}
	return strings.Contains(msg, column)
}

// IsForeignKeyViolation reports whether the error references a SQLite foreign
// key constraint failure.
func IsForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// IsCheckViolation reports whether the error references a SQLite check
// constraint failure.
func IsCheckViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "CHECK constraint failed")
}

func newRowID() string {
	return uuid.NewString()
}
