package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned by Get when no row matches.
	ErrNotFound = errors.New("record not found")
	// ErrQuery wraps backend failures.
	ErrQuery = errors.New("query failed")
)

// Store owns the single database connection shared by all three tables.
// It is not safe for use from multiple goroutines without external
// serialisation; every write goes through this one connection.
type Store struct {
	db *sqlx.DB
	tx *sqlx.Tx
}

// Open opens (or creates) the database file and enables foreign-key
// enforcement so the ON DELETE CASCADE clauses hold.
func Open(path string, timeout time.Duration) (*Store, error) {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=%d", path, timeout.Milliseconds())
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// one writer, one connection
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.tx != nil {
		s.Rollback()
	}
	return s.db.Close()
}

// InitSchema creates the three tables and their indexes. Idempotent.
func (s *Store) InitSchema() error {
	for _, ddl := range []string{authorSchema, groupSchema, workSchema} {
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("%w: creating schema: %v", ErrQuery, err)
		}
	}
	return nil
}

// Begin opens a connection-level transaction. Transactions do not nest; a
// second Begin while one is open is an error.
func (s *Store) Begin() error {
	if s.tx != nil {
		return fmt.Errorf("%w: transaction already open", ErrQuery)
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrQuery, err)
	}
	s.tx = tx
	return nil
}

func (s *Store) Commit() error {
	if s.tx == nil {
		return fmt.Errorf("%w: no open transaction", ErrQuery)
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("%w: commit: %v", ErrQuery, err)
	}
	return nil
}

// Rollback aborts the open transaction. Calling it with no transaction open
// is a no-op, which keeps deferred cleanup paths simple.
func (s *Store) Rollback() {
	if s.tx == nil {
		return
	}
	_ = s.tx.Rollback()
	s.tx = nil
}

// InTx reports whether a connection-level transaction is open.
func (s *Store) InTx() bool { return s.tx != nil }

// WithTx runs fn inside a transaction unless one is already open, in which
// case fn joins it and the outer owner stays responsible for the commit.
func (s *Store) WithTx(fn func() error) error {
	if s.InTx() {
		return fn()
	}
	if err := s.Begin(); err != nil {
		return err
	}
	if err := fn(); err != nil {
		s.Rollback()
		return err
	}
	return s.Commit()
}

// ext returns the executor every table operation must use: the open
// transaction when there is one, the bare connection otherwise.
func (s *Store) ext() sqlx.Ext {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}
