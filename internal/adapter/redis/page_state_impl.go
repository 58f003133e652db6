package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
	"github.com/user/crawler-panel/pkg/jsonutil"
)

const pageStatePrefix = "panel:page:"

// PageStateRepoImpl stores page state as JSON strings with an expiry.
type PageStateRepoImpl struct {
	client redis.Cmdable
}

// NewPageStateRepo creates a new instance of PageStateRepoImpl.
func NewPageStateRepo(client redis.Cmdable) *PageStateRepoImpl {
	return &PageStateRepoImpl{client: client}
}

func pageStateKey(sessionID string, op entity.Operation) string {
	return fmt.Sprintf("%s%s:%s", pageStatePrefix, sessionID, op)
}

func (r *PageStateRepoImpl) Get(ctx context.Context, sessionID string, op entity.Operation) (*entity.PageState, error) {
	raw, err := r.client.Get(ctx, pageStateKey(sessionID, op)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrPageStateNotFound
		}
		return nil, fmt.Errorf("get page state: %w", err)
	}

	var state entity.PageState
	if err := jsonutil.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode page state: %w", err)
	}
	return &state, nil
}

// Save overwrites the state with SET ... EX so the key expires with the session.
func (r *PageStateRepoImpl) Save(ctx context.Context, sessionID string, state *entity.PageState, ttl time.Duration) error {
	raw, err := jsonutil.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode page state: %w", err)
	}
	return r.client.Set(ctx, pageStateKey(sessionID, state.Operation), raw, ttl).Err()
}
