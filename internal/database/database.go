package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"           // PostgreSQL driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// PostgresConfig holds the parts of a PostgreSQL connection string.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// OpenPostgres opens and pings a PostgreSQL connection pool.
func OpenPostgres(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open(DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

// SQLiteDSN builds a DSN for the SQLite file at path:
//   - _foreign_keys=on: reservations protect their unit and client
//   - _journal_mode=WAL: readers don't block the writer
//   - _busy_timeout=5000: wait up to 5 seconds if the database is locked
//   - _txlock=immediate: every transaction takes the write lock at BEGIN, which
//     serializes overlap check-then-write sequences
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_txlock=immediate", path)
}

// SQLiteMemoryDSN builds a DSN for a named in-memory database.
func SQLiteMemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on&_txlock=immediate", name)
}

// OpenSQLite opens a SQLite database. The pool is capped at one connection:
// SQLite has a single writer, and in-memory databases live as long as their
// connection does.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	return db, nil
}

// Options selects and configures the database backend.
type Options struct {
	Driver     string
	Postgres   PostgresConfig
	SQLitePath string
}

// InitDB opens the configured database backend.
func InitDB(opts Options) (*sql.DB, error) {
	switch opts.Driver {
	case DriverPostgres, "":
		return OpenPostgres(opts.Postgres)
	case DriverSQLite:
		if dir := filepath.Dir(opts.SQLitePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return OpenSQLite(SQLiteDSN(opts.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}
