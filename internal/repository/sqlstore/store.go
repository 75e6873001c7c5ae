// Package sqlstore implements the repositories on database/sql for both
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/RMahshie/ephyspipe/internal/repository"
)

// Driver names accepted by New
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store implements SpectrogramRepository and IngestionRepository
type Store struct {
	db     *sql.DB
	driver string
}

var (
	_ repository.SpectrogramRepository = (*Store)(nil)
	_ repository.IngestionRepository   = (*Store)(nil)
)

// New creates a store over an open, migrated database
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// rebind rewrites ? placeholders into $n for PostgreSQL
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
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

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// insertIfAbsent runs an INSERT ... ON CONFLICT DO NOTHING and reports
// whether a row was written.
func (s *Store) insertIfAbsent(ctx context.Context, ex execer, query string, args ...any) (bool, error) {
	res, err := ex.ExecContext(ctx, s.rebind(query+" ON CONFLICT DO NOTHING"), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
