package db

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ExponentialBackoff doubles from base per attempt up to capDelay, plus a
// small jitter.
func ExponentialBackoff(attempt int, base, capDelay time.Duration) time.Duration {
	// attempt=0 => base, attempt=1 => 2*base, attempt=2 => 4*base

	raw := float64(base) * math.Pow(2, float64(attempt))

	delay := capDelay
	if raw < float64(capDelay) {
		delay = time.Duration(raw)
	}

	// small jitter (0–250ms) to avoid thundering herd
	delay += time.Duration(rand.Intn(250)) * time.Millisecond
	return delay
}

// Connect opens the pool, retrying while the database is still starting
// (compose brings postgres and the api up together).
func Connect(ctx context.Context, log *slog.Logger, dbURL string, maxConns int32, attempts int) (*pgxpool.Pool, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		pool, err := NewPool(ctx, dbURL, maxConns)
		if err == nil {
			return pool, nil
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := ExponentialBackoff(attempt, 500*time.Millisecond, 10*time.Second)
		log.Warn("database not ready, retrying", "attempt", attempt+1, "delay", delay.String(), "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, lastErr
}
