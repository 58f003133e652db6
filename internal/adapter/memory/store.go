// Package memory provides process-local implementations of the panel's
// stores, used when no Redis address is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/user/crawler-panel/internal/entity"
	"github.com/user/crawler-panel/internal/repository"
)

// DefaultMaxEntries caps the page states held by one process.
const DefaultMaxEntries = 10000

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}

// cleanExpired drops every expired entry of m and returns how many went.
func cleanExpired[T any](m map[string]entry[T], now time.Time) int {
	n := 0
	for k, e := range m {
		if e.expired(now) {
			delete(m, k)
			n++
		}
	}
	return n
}

// Option configures a PageStateRepo.
type Option func(*PageStateRepo)

// WithMaxEntries sets the entry cap; n <= 0 keeps DefaultMaxEntries.
func WithMaxEntries(n int) Option {
	return func(r *PageStateRepo) {
		if n > 0 {
			r.maxEntries = n
		}
	}
}

// PageStateRepo keeps page state in a map. Expired entries are dropped on
// read, by CleanExpired, and before the map grows past its cap; when every
// entry is live the one closest to expiry is evicted.
type PageStateRepo struct {
	mu         sync.Mutex
	states     map[string]entry[entity.PageState]
	maxEntries int
	now        func() time.Time
}

func NewPageStateRepo(opts ...Option) *PageStateRepo {
	r := &PageStateRepo{
		states:     make(map[string]entry[entity.PageState]),
		maxEntries: DefaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func pageKey(sessionID string, op entity.Operation) string {
	return sessionID + ":" + string(op)
}

func (r *PageStateRepo) Get(_ context.Context, sessionID string, op entity.Operation) (*entity.PageState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := pageKey(sessionID, op)
	e, ok := r.states[key]
	if !ok {
		return nil, repository.ErrPageStateNotFound
	}
	if e.expired(r.now()) {
		delete(r.states, key)
		return nil, repository.ErrPageStateNotFound
	}
	state := e.value
	if state.Result != nil {
		result := *state.Result
		state.Result = &result
	}
	return &state, nil
}

func (r *PageStateRepo) Save(_ context.Context, sessionID string, state *entity.PageState, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *state
	if state.Result != nil {
		result := *state.Result
		stored.Result = &result
	}
	now := r.now()
	key := pageKey(sessionID, state.Operation)
	if _, ok := r.states[key]; !ok && len(r.states) >= r.maxEntries {
		if cleanExpired(r.states, now) == 0 {
			r.evict()
		}
	}
	r.states[key] = entry[entity.PageState]{value: stored, expiresAt: expiry(now, ttl)}
	return nil
}

// evict removes the entry closest to expiry. Entries without a TTL go last.
func (r *PageStateRepo) evict() {
	var (
		victim  string
		soonest time.Time
		found   bool
	)
	for k, e := range r.states {
		if e.expiresAt.IsZero() {
			if !found && victim == "" {
				victim = k
			}
			continue
		}
		if !found || e.expiresAt.Before(soonest) {
			victim, soonest, found = k, e.expiresAt, true
		}
	}
	if victim != "" {
		delete(r.states, victim)
	}
}

// CleanExpired drops all expired page states and reports how many.
func (r *PageStateRepo) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cleanExpired(r.states, r.now())
}

// Len is the number of entries held, expired or not.
func (r *PageStateRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states)
}

// InFlightRepo is a set of held keys with expiry.
type InFlightRepo struct {
	mu    sync.Mutex
	locks map[string]entry[struct{}]
	now   func() time.Time
}

func NewInFlightRepo() *InFlightRepo {
	return &InFlightRepo{
		locks: make(map[string]entry[struct{}]),
		now:   time.Now,
	}
}

func (r *InFlightRepo) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if e, ok := r.locks[key]; ok && !e.expired(now) {
		return false, nil
	}
	r.locks[key] = entry[struct{}]{expiresAt: expiry(now, ttl)}
	return true, nil
}

func (r *InFlightRepo) Release(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.locks, key)
	return nil
}

// CleanExpired drops locks whose holder never released them.
func (r *InFlightRepo) CleanExpired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cleanExpired(r.locks, r.now())
}

// Cleaner is a store with an expiry sweep.
type Cleaner interface {
	CleanExpired() int
}

// StartCleanupTask sweeps stores every interval until ctx is done.
func StartCleanupTask(ctx context.Context, interval time.Duration, stores ...Cleaner) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, s := range stores {
					s.CleanExpired()
				}
			}
		}
	}()
}
