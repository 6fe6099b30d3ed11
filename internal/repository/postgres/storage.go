package postgres

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = 100 * time.Millisecond

// Storage owns the connection pool shared by the per-record repositories.
type Storage struct {
	pool *pgxpool.Pool
}

type options struct {
	maxConns       int32
	minConns       int32
	idleTimeout    time.Duration
	connectRetries uint64
}

type Option func(*options)

func WithMaxConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxConns = int32(n)
		}
	}
}

func WithMinConns(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.minConns = int32(n)
		}
	}
}

func WithIdleTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.idleTimeout = d
		}
	}
}

func WithConnectRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.connectRetries = uint64(n)
		}
	}
}

func New(ctx context.Context, connString string, opts ...Option) (*Storage, error) {
	o := options{
		maxConns:       10,
		minConns:       2,
		idleTimeout:    5 * time.Minute,
		connectRetries: 5,
	}
	for _, opt := range opts {
		opt(&o)
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Failed to parse connection string", err)
		return nil, fmt.Errorf("parse config: %w", err)
	}
	config.MaxConns = o.maxConns
	config.MinConns = o.minConns
	config.MaxConnIdleTime = o.idleTimeout

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Failed to create pool", err)
		return nil, fmt.Errorf("create pool: %w", err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), o.connectRetries), ctx)
	err = backoff.RetryNotify(func() error {
		return pool.Ping(ctx)
	}, policy, func(err error, wait time.Duration) {
		logger.Warn("Repository: Ping failed, retrying", zap.Error(err), zap.Duration("wait", wait))
	})
	if err != nil {
		pool.Close()
		logger.Error("Repository: Ping failed", err)
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info("Repository: Connected to PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Closed all PostgreSQL connections")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		logger.Error("Repository: Ping failed", err)
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

func (s *Storage) Tasks() *TaskStorage                 { return &TaskStorage{pool: s.pool} }
func (s *Storage) Sections() *SectionStorage           { return &SectionStorage{pool: s.pool} }
func (s *Storage) Projects() *ProjectStorage           { return &ProjectStorage{pool: s.pool} }
func (s *Storage) Subscriptions() *SubscriptionStorage { return &SubscriptionStorage{pool: s.pool} }

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func warnIfSlow(op string, start time.Time) {
	if elapsed := time.Since(start); elapsed > slowQuery {
		logger.Warn("Repository: Slow query", zap.String("op", op), zap.Duration("ms", elapsed))
	}
}

func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
