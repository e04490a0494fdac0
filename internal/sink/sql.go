package sink

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/pfrederiksen/eplus-events/internal/event"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Dialect selects the SQL database flavour
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const (
	insertQuery = `INSERT INTO events (title, date, venue, url, image_url, source, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	// created_at is left untouched so the first sighting is preserved
	updateQuery = `UPDATE events SET title = ?, date = ?, venue = ?, image_url = ?, source = ?, updated_at = ?
WHERE url = ?`
)

// SQLSink writes records to the events table of a PostgreSQL or SQLite database
type SQLSink struct {
	db      *sql.DB
	dialect Dialect
	mode    Mode
}

// OpenSQL opens the database at dsn, checks the connection and applies any
// pending migrations.
func OpenSQL(dialect Dialect, dsn string, mode Mode) (*SQLSink, error) {
	driverName, err := dialect.driverName()
	if err != nil {
		return nil, err
	}

	if dialect == DialectSQLite && !strings.Contains(dsn, "?") {
		// wait for a competing writer instead of failing with SQLITE_BUSY
		dsn += "?_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := NewSQLSink(db, dialect, mode)
	if _, err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewSQLSink wraps an already open database. The schema is assumed to exist.
func NewSQLSink(db *sql.DB, dialect Dialect, mode Mode) *SQLSink {
	if mode == "" {
		mode = ModeAppend
	}
	return &SQLSink{db: db, dialect: dialect, mode: mode}
}

func (d Dialect) driverName() (string, error) {
	switch d {
	case DialectPostgres:
		return "postgres", nil
	case DialectSQLite:
		return "sqlite", nil
	default:
		return "", fmt.Errorf("unknown SQL dialect: %q", d)
	}
}

// rebind rewrites ? placeholders into the dialect's native form.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate applies pending migrations and returns the resulting schema version.
func (s *SQLSink) Migrate() (uint, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+string(s.dialect))
	if err != nil {
		return 0, fmt.Errorf("create migration source: %w", err)
	}

	var driver database.Driver
	switch s.dialect {
	case DialectPostgres:
		driver, err = postgres.WithInstance(s.db, &postgres.Config{})
	case DialectSQLite:
		driver, err = sqlite.WithInstance(s.db, &sqlite.Config{})
	default:
		err = fmt.Errorf("unknown SQL dialect: %q", s.dialect)
	}
	if err != nil {
		return 0, fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(s.dialect), driver)
	if err != nil {
		return 0, fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}

	version, _, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("read migration version: %w", err)
	}
	return version, nil
}

func (s *SQLSink) Name() string {
	if s.dialect == DialectSQLite {
		return string(KindSQLite)
	}
	return string(KindPostgres)
}

// Save writes all records in one transaction. Either every record is written
// or none is.
func (s *SQLSink) Save(ctx context.Context, records []*event.Record) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	insert := s.dialect.rebind(insertQuery)
	update := s.dialect.rebind(updateQuery)

	for i, rec := range records {
		if s.mode == ModeUpsert && rec.Key() != "" {
			res, err := tx.ExecContext(ctx, update,
				rec.Title, dateArg(rec.Date), nullString(rec.Venue), nullString(rec.ImageURL), rec.Source, rec.UpdatedAt, rec.Key())
			if err != nil {
				return 0, fmt.Errorf("update record %d: %w", i, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return 0, fmt.Errorf("update record %d: %w", i, err)
			}
			if n > 0 {
				continue
			}
		}

		if _, err := tx.ExecContext(ctx, insert,
			rec.Title, dateArg(rec.Date), nullString(rec.Venue), nullString(rec.URL), nullString(rec.ImageURL),
			rec.Source, rec.CreatedAt, rec.UpdatedAt); err != nil {
			return 0, fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}

	return len(records), nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func dateArg(d *event.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// Close closes the underlying database connection.
func (s *SQLSink) Close() error {
	return s.db.Close()
}
