package gorm

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	sqlite3 "github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	// ErrDuplicateSession reports an insert whose session_id is already
	// stored. Ingestion treats it as idempotent success.
	ErrDuplicateSession = errors.New("session already exists")

	// ErrNoSessions is returned by Latest when the store is empty.
	ErrNoSessions = errors.New("no sessions stored")
)

// pgUniqueViolation is the Postgres SQLSTATE for unique-constraint errors.
const pgUniqueViolation = "23505"

// isUniqueViolation reports whether err is a unique-constraint failure
// from either storage engine.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		if sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return true
		}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	// Some wrappers hide the typed error; fall back to the message.
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
