package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// IsNotFoundError checks if the error is a record not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUnavailableError reports whether the error means the store could not be
// reached at all (connection refused, dropped connection, DNS failure), as
// opposed to the store rejecting the statement.
func IsUnavailableError(err error) bool {
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, driver.ErrBadConn)
}

// IsTimeoutError reports whether the error is a caller or transport timeout.
// The statement may still have committed on the server; per-record atomicity
// is the store's job, not the caller's.
func IsTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	// PostgreSQL statement_timeout / lock timeout error classes
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "57014" || pgErr.Code == "55P03"
	}

	return false
}

// GetErrorMessage returns a user-friendly error message based on the database error
func GetErrorMessage(err error) string {
	if IsNotFoundError(err) {
		return "Record not found"
	}

	if IsTimeoutError(err) {
		return "Database operation timed out"
	}

	if IsUnavailableError(err) {
		return "Database is unavailable"
	}

	return "Database operation failed"
}
