// Package repository is the SQLite ledger store: facts, the point audit
// trail, banners, streak state, rankings and clans.
package repository

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"

	"github.com/okian/tourney/pkg/logger"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn carries the read queries shared by Store and Tx.
type conn struct {
	q querier
}

// Store owns the database handle. Reads run directly on the pool; every
// write goes through InTx.
type Store struct {
	conn
	db  *sql.DB
	log logger.Logger

	busyTimeout  time.Duration
	maxOpenConns int
}

// Open creates or opens the database at path and applies migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		log:          logger.Named("store"),
		busyTimeout:  5 * time.Second,
		maxOpenConns: 4,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite3", dsn(path, s.busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)
	db.SetMaxIdleConns(s.maxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := migrate(db, s.log); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.db = db
	s.conn = conn{q: db}
	s.log.Info(ctx, "database ready", logger.String("path", path))
	return s, nil
}

// dsn sets the pragmas on every pooled connection. Write transactions take
// the lock up front so two writers never deadlock on upgrade.
func dsn(path string, busy time.Duration) string {
	v := url.Values{}
	v.Set("_busy_timeout", fmt.Sprint(busy.Milliseconds()))
	v.Set("_journal_mode", "WAL")
	v.Set("_synchronous", "NORMAL")
	v.Set("_foreign_keys", "on")
	v.Set("_txlock", "immediate")
	return "file:" + path + "?" + v.Encode()
}

func migrate(db *sql.DB, log logger.Logger) error {
	goose.SetBaseFS(embedMigrations)
	goose.SetLogger(gooseLogger{log: log})
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tx is one atomic unit of work against the ledger.
type Tx struct {
	conn
	tx *sql.Tx
}

// InTx runs fn in a transaction. The transaction commits when fn returns nil
// and rolls back otherwise, so a failed event or pass leaves no trace.
func (s *Store) InTx(ctx context.Context, fn func(*Tx) error) (err error) {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrTx, err)
	}
	defer func() {
		if err != nil {
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				s.log.Error(ctx, "rollback failed", logger.Error(rbErr))
			}
		}
	}()

	if err = fn(&Tx{conn: conn{q: sqlTx}, tx: sqlTx}); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrTx, err)
	}
	return nil
}

// gooseLogger routes migration output through the service logger.
type gooseLogger struct {
	log logger.Logger
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	g.log.Fatal(context.Background(), fmt.Sprintf(format, v...))
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.log.Debug(context.Background(), fmt.Sprintf(format, v...))
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func toUnix(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
