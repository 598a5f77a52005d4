package back

import (
	"errors"
	"fmt"

	"foosball/internal/util"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrConnection means the database could not be opened or reached.
	ErrConnection = errors.New("unable to reach the database")
	// ErrSyntax means a statement was rejected by the database engine.
	ErrSyntax = errors.New("invalid SQL statement")

	ErrInvalid  = errors.New("invalid value")
	ErrExists   = errors.New("already exists")
	ErrNotFound = errors.New("does not exist")
	ErrConflict = errors.New("conflicts with existing data")
)

// domainError is a validation failure, its message is safe to show to users.
type domainError struct {
	kind error
	msg  string
}

func (e domainError) Error() string {
	return e.msg
}

func (e domainError) Is(target error) bool {
	if target == e.kind {
		return true
	}

	_, ok := target.(util.ErrPublic)
	return ok
}

func invalidf(format string, args ...interface{}) error {
	return domainError{ErrInvalid, fmt.Sprintf(format, args...)}
}

func existsf(format string, args ...interface{}) error {
	return domainError{ErrExists, fmt.Sprintf(format, args...)}
}

func notFoundf(format string, args ...interface{}) error {
	return domainError{ErrNotFound, fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...interface{}) error {
	return domainError{ErrConflict, fmt.Sprintf(format, args...)}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalid):
		return "invalid"
	case errors.Is(err, ErrExists):
		return "exists"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return ""
	}
}

type dbError struct {
	kind error
	err  error
}

func (e dbError) Error() string {
	return fmt.Sprintf("%s: %s", e.kind, e.err)
}

func (e dbError) Unwrap() []error {
	return []error{e.kind, e.err}
}

// wrapDBError tags SQLite engine errors with ErrConnection or ErrSyntax,
// anything else is returned as is.
func wrapDBError(err error) error {
	if err == nil {
		return nil
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || errors.Is(err, ErrConnection) || errors.Is(err, ErrSyntax) {
		return err
	}

	switch sqliteErr.Code { // nolint:exhaustive
	case sqlite3.ErrCantOpen, sqlite3.ErrBusy, sqlite3.ErrLocked,
		sqlite3.ErrIoErr, sqlite3.ErrNotADB, sqlite3.ErrPerm:
		return dbError{ErrConnection, err}
	case sqlite3.ErrError:
		return dbError{ErrSyntax, err}
	case sqlite3.ErrConstraint:
		return dbError{ErrConflict, err}
	}

	return err
}
