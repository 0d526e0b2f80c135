package repositories

import (
	"fmt"

	"lodge_backend/internal/database"
)

// Dialect captures the few SQL differences between the supported backends.
// Queries are otherwise written once: $N placeholders (numbered in order of
// first appearance so SQLite binds them positionally), RETURNING, partial
// indexes and window functions work on both.
type Dialect struct {
	Name string
	// rowLock is appended to SELECTs that must hold the rows until commit.
	// SQLite has no row locks; its immediate transactions already hold the
	// database write lock.
	rowLock string
}

// NewDialect returns the dialect for a database driver name.
func NewDialect(driver string) Dialect {
	switch driver {
	case database.DriverSQLite:
		return Dialect{Name: database.DriverSQLite}
	default:
		return Dialect{Name: database.DriverPostgres, rowLock: " FOR UPDATE"}
	}
}

// ForUpdate appends the row lock clause to query.
func (d Dialect) ForUpdate(query string) string {
	return query + d.rowLock
}

// placeholder returns the Nth bind parameter.
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
