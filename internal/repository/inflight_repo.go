package repository

import (
	"context"
	"time"
)

// InFlightRepository guards against a second submission while one is running.
type InFlightRepository interface {
	// Acquire takes the lock for key. It reports false if the lock is held.
	// The ttl only bounds a lock whose holder died without releasing it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees the lock for key.
	Release(ctx context.Context, key string) error
}
