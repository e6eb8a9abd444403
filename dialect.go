// This file implements database dialect abstraction to handle SQL
// differences between databases.
//
// Dialect is responsible for:
//   - Database identification (MySQL, PostgreSQL, SQLite)
//   - Placeholder format (? vs $1, $2)
//   - Idempotent insert syntax (ON CONFLICT DO NOTHING vs ON DUPLICATE KEY)
//   - Classifying unique-constraint violations raised by the driver
//
// The unique-violation classification is what lets the stores keep their
// invariants race-safe: the database index is the authority on uniqueness,
// and a constraint error coming back from a write is folded into the same
// ValidationError shape the application-level check produces.
package feedcore

import (
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
)

var (
	SQLite     Dialect = &SQLiteDialect{}
	MySQL      Dialect = &MySQLDialect{}
	PostgreSQL Dialect = &PostgreSQLDialect{}
)

// Dialect abstracts database-specific SQL features.
type Dialect interface {
	// Name returns the driver name ("sqlite3", "mysql", "postgres").
	// Used by sqlx for bind-variable mapping and by metrics attributes.
	Name() string

	// PlaceholderFormat returns the placeholder format squirrel should use
	// when generating parameterized queries.
	PlaceholderFormat() sq.PlaceholderFormat

	// InsertIgnoreClause returns the suffix that turns an INSERT into a
	// no-op when the given unique columns already hold the candidate row.
	// Used by FollowGraph.Follow to make edge insertion idempotent.
	InsertIgnoreClause(conflictCols []string) string

	// IsUniqueViolation reports whether err was raised by a unique index
	// or primary-key constraint.
	IsUniqueViolation(err error) bool
}

// SQLiteDialect implements the SQLite dialect (3.24+ for ON CONFLICT).
// This is the default engine for tests and the example program.
type SQLiteDialect struct{}

func (d *SQLiteDialect) Name() string { return "sqlite3" }

func (d *SQLiteDialect) PlaceholderFormat() sq.PlaceholderFormat {
	return sq.Question
}

// InsertIgnoreClause generates "ON CONFLICT (...) DO NOTHING".
func (d *SQLiteDialect) InsertIgnoreClause(conflictCols []string) string {
	if len(conflictCols) == 0 {
		return ""
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", "))
}

// IsUniqueViolation checks the typed sqlite3 error for a UNIQUE or
// PRIMARY KEY constraint failure.
func (d *SQLiteDialect) IsUniqueViolation(err error) bool {
	var serr sqlite3.Error
	if errors.As(err, &serr) {
		return serr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			serr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// MySQLDialect implements the MySQL dialect.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string { return "mysql" }

func (d *MySQLDialect) PlaceholderFormat() sq.PlaceholderFormat {
	return sq.Question
}

// InsertIgnoreClause generates a no-op ON DUPLICATE KEY UPDATE assignment.
// MySQL has no DO NOTHING form; assigning a conflict column to itself is the
// conventional equivalent and keeps LAST_INSERT_ID stable.
func (d *MySQLDialect) InsertIgnoreClause(conflictCols []string) string {
	if len(conflictCols) == 0 {
		return ""
	}
	col := conflictCols[0]
	return fmt.Sprintf("ON DUPLICATE KEY UPDATE %s=%s", col, col)
}

// IsUniqueViolation matches MySQL error 1062 (ER_DUP_ENTRY) by message.
// The driver is not imported here, so the check is textual.
func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Error 1062") || strings.Contains(msg, "Duplicate entry")
}

// PostgreSQLDialect implements the PostgreSQL dialect.
type PostgreSQLDialect struct{}

func (d *PostgreSQLDialect) Name() string { return "postgres" }

func (d *PostgreSQLDialect) PlaceholderFormat() sq.PlaceholderFormat {
	return sq.Dollar
}

// InsertIgnoreClause generates "ON CONFLICT (...) DO NOTHING".
func (d *PostgreSQLDialect) InsertIgnoreClause(conflictCols []string) string {
	if len(conflictCols) == 0 {
		return ""
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", strings.Join(conflictCols, ", "))
}

// IsUniqueViolation matches SQLSTATE 23505 (unique_violation) by message.
func (d *PostgreSQLDialect) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLSTATE 23505") || strings.Contains(msg, "duplicate key value")
}
