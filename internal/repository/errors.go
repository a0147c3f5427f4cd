// Package repository holds the SQL data access for every table. Queries are
// written to run unchanged on MySQL and SQLite.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is wrapped by every resource-specific not-found error, so
// handlers can test errors.Is(err, ErrNotFound) regardless of the table.
var ErrNotFound = errors.New("not found")

var (
	ErrUserNotFound        = notFound("user")
	ErrPlantNotFound       = notFound("plant")
	ErrIncidentNotFound    = notFound("incident")
	ErrMaintenanceNotFound = notFound("maintenance")
	ErrChecklistNotFound   = notFound("checklist item")
	ErrReportNotFound      = notFound("report")
)

// ErrDuplicateKey signals a unique constraint violation, e.g. an email that
// is already registered.
var ErrDuplicateKey = errors.New("duplicate key")

// ErrNoFieldsToUpdate is returned by partial updates that carry none of the
// updatable columns.
var ErrNoFieldsToUpdate = errors.New("no valid fields to update")

// ErrInvalidReference is returned when a row would point at a plant or
// user that does not exist.
var ErrInvalidReference = errors.New("referenced record does not exist")

type notFoundError struct{ resource string }

func notFound(resource string) error { return &notFoundError{resource: resource} }

func (e *notFoundError) Error() string        { return e.resource + " not found" }
func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }

// isDuplicateKey inspects the driver error type rather than its text.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique ||
			se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
