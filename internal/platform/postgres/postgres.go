// Package postgres opens the grant database with bounded retry. A missing
// or unreachable database is not fatal: the service degrades to the
// in-memory fallback cache and keeps serving.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

const (
	maxAttempts  = 3
	retryDelay   = 5 * time.Second
	pingTimeout  = 10 * time.Second
	maxOpenConns = 5
)

// Open connects to PostgreSQL and verifies the connection. Returns nil (and
// no error) when url is empty, signalling the caller to run degraded.
func Open(ctx context.Context, url string, logger *slog.Logger) (*sql.DB, error) {
	if url == "" {
		return nil, nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err = db.PingContext(pingCtx)
		cancel()
		if err == nil {
			return db, nil
		}

		logger.Warn("database connection attempt failed",
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if attempt < maxAttempts {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				_ = db.Close()
				return nil, ctx.Err()
			}
		}
	}

	_ = db.Close()
	return nil, fmt.Errorf("ping postgres after %d attempts: %w", maxAttempts, err)
}
