package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const inFlightPrefix = "panel:inflight:"

// InFlightRepoImpl implements the submission lock with SET NX.
type InFlightRepoImpl struct {
	client redis.Cmdable
}

// NewInFlightRepo creates a new instance of InFlightRepoImpl.
func NewInFlightRepo(client redis.Cmdable) *InFlightRepoImpl {
	return &InFlightRepoImpl{client: client}
}

// Acquire is atomic across panel replicas sharing one Redis.
func (r *InFlightRepoImpl) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, inFlightPrefix+key, "1", ttl).Result()
}

func (r *InFlightRepoImpl) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, inFlightPrefix+key).Err()
}
