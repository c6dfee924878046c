package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DBTX is the subset of *sql.DB and *sql.Tx used by repositories
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PoolConfig describes how the connection pool is sized
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// PoolStatus reports pool occupancy for diagnostics
type PoolStatus struct {
	Total   int   `json:"total"`
	Active  int   `json:"active"`
	Idle    int   `json:"idle"`
	Waiting int64 `json:"waiting"`
}

// Postgres represents a PostgreSQL connection pool
type Postgres struct {
	DB *sql.DB
}

var _ DBTX = (*Postgres)(nil)

// NewPostgres opens a pooled PostgreSQL connection and verifies it
func NewPostgres(cfg PoolConfig) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{DB: db}, nil
}

// NewPostgresFromDB wraps an already opened handle
func NewPostgresFromDB(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// ExecContext executes a statement and converts driver errors
func (p *Postgres) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := p.DB.ExecContext(ctx, query, args...)
	return res, WrapError(err)
}

// QueryContext runs a query and converts driver errors
func (p *Postgres) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := p.DB.QueryContext(ctx, query, args...)
	return rows, WrapError(err)
}

// QueryRowContext runs a single-row query; errors surface on Scan
func (p *Postgres) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.DB.QueryRowContext(ctx, query, args...)
}

// Transaction runs fn inside BEGIN/COMMIT on a single connection.
// Any error or panic from fn rolls the transaction back.
func (p *Postgres) Transaction(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) (err error) {
	sqlTx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", WrapError(err))
	}

	defer func() {
		if r := recover(); r != nil {
			_ = sqlTx.Rollback()
			panic(r)
		}
	}()

	if err = fn(ctx, &txConn{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", WrapError(err))
	}

	return nil
}

// PoolStatus returns the current pool occupancy
func (p *Postgres) PoolStatus() PoolStatus {
	stats := p.DB.Stats()
	return PoolStatus{
		Total:   stats.OpenConnections,
		Active:  stats.InUse,
		Idle:    stats.Idle,
		Waiting: stats.WaitCount,
	}
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.DB.Close()
}

// Ping checks if the database is available
func (p *Postgres) Ping(ctx context.Context) error {
	return WrapError(p.DB.PingContext(ctx))
}

type txConn struct {
	tx *sql.Tx
}

func (t *txConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	return res, WrapError(err)
}

func (t *txConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	return rows, WrapError(err)
}

func (t *txConn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(ctx, query, args...)
}
