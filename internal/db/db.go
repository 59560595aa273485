package db

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

const (
	retryAttempts = 3
	retryBackoff  = 200 * time.Millisecond
)

// WithRetry re-runs fn on connectivity failures that happened before
// any statement reached the server. Business errors (not found,
// insufficient stock, constraint violations) pass through on the first
// attempt, and so do ambiguous drops: a connection lost mid-commit may
// have landed, and re-running fn could apply a write twice.
func WithRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
		err = fn(ctx)
		if err == nil || !Retryable(err) {
			return err
		}
	}
	return err
}

// Retryable reports whether re-running the failed call is safe: the
// error must be transient and pgconn must confirm nothing was sent.
func Retryable(err error) bool {
	return IsTransient(err) && pgconn.SafeToRetry(err)
}

func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exceptions; 57P01: admin shutdown.
		return strings.HasPrefix(pgErr.Code, "08") || pgErr.Code == "57P01"
	}
	return false
}
