package storage

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned when a single-row lookup matches nothing.
var ErrNotFound = errors.New("not found")

// DB wraps a sql.DB for the match ledger.
type DB struct {
	conn   *sql.DB
	driver string
}

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	return OpenDriver(DriverSQLite, path)
}

// OpenDriver opens a ledger with the given driver. For sqlite dsn is a file path
// (or ":memory:"); for postgres it is a connection URL.
func OpenDriver(driver, dsn string) (*DB, error) {
	var (
		conn *sql.DB
		err  error
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		conn, err = sql.Open("sqlite", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", dsn))
		if err == nil && dsn == ":memory:" {
			// each pooled connection would otherwise get its own empty database
			conn.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		conn, err = sql.Open("pgx", dsn)
	default:
		return nil, fmt.Errorf("open db: unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := New(conn, driver)
	if err := db.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// New wraps an existing connection without touching the schema.
func New(conn *sql.DB, driver string) *DB {
	return &DB{conn: conn, driver: driver}
}

// Migrate applies the embedded schema. It is idempotent.
func (db *DB) Migrate() error {
	if _, err := db.conn.Exec(schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Driver returns the driver name the ledger was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// rebind rewrites ? placeholders to $n for postgres. Quoted literals are left alone.
func (db *DB) rebind(query string) string {
	if db.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
