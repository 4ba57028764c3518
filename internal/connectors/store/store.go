package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"go-lab-sample-tracker/internal/config"
)

// Dialect names the SQL backend behind a Store.
type Dialect string

const (
	MySQL  Dialect = "mysql"
	SQLite Dialect = "sqlite"
)

// Store persists lab records over database/sql. MySQL is the production
// backend; SQLite serves single-node installs and tests.
type Store struct {
	db           *sql.DB
	dialect      Dialect
	queryTimeout time.Duration
	newID        func() string
}

// NewStore opens the configured backend, verifies connectivity and creates
// the schema when missing.
func NewStore(cfg config.Config) (*Store, error) {
	var (
		db      *sql.DB
		err     error
		dialect Dialect
	)
	switch strings.ToLower(strings.TrimSpace(cfg.DBDriver)) {
	case "mysql":
		dialect = MySQL
		db, err = sql.Open("mysql", cfg.MySQLDSN())
		if err != nil {
			return nil, err
		}
		db.SetConnMaxLifetime(5 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	case "sqlite", "":
		dialect = SQLite
		db, err = sql.Open("sqlite", cfg.SQLiteDSN())
		if err != nil {
			return nil, err
		}
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.DBDriver)
	}

	connTimeout := cfg.DBConnTimeout
	if connTimeout <= 0 {
		connTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := New(db, dialect, cfg.DBQueryTimeout)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return s, nil
}

// New wraps an open database handle without touching the schema.
func New(db *sql.DB, dialect Dialect, queryTimeout time.Duration) *Store {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &Store{
		db:           db,
		dialect:      dialect,
		queryTimeout: queryTimeout,
		newID:        func() string { return uuid.NewString() },
	}
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks that the database answers within the query timeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *Store) Dialect() Dialect {
	return s.dialect
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func (s *Store) ensureID(id *string) {
	if strings.TrimSpace(*id) == "" {
		*id = s.newID()
	}
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
