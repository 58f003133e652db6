package repository

import (
	"context"
	"errors"
	"time"

	"github.com/user/crawler-panel/internal/entity"
)

// ErrPageStateNotFound is returned when a session has not opened a page yet
// or its state expired.
var ErrPageStateNotFound = errors.New("page state not found")

// PageStateRepository keeps the state of each form page per browser session.
// Entries are never removed explicitly; they expire with the session.
type PageStateRepository interface {
	// Get returns the state of op for a session, or ErrPageStateNotFound.
	Get(ctx context.Context, sessionID string, op entity.Operation) (*entity.PageState, error)
	// Save stores the state, replacing any previous one, for ttl.
	Save(ctx context.Context, sessionID string, state *entity.PageState, ttl time.Duration) error
}
