// Package store defines the persistence ports consumed by the services.
// Implementations live in subpackages (redisstore for production, the test
// doubles next to the service tests).
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/internal/model"
)

var (
	ErrNotFound = errors.New("store: record not found")
	// ErrConflict is returned when an atomic update lost its compare-and-swap
	// race too many times in a row.
	ErrConflict = errors.New("store: concurrent modification")
)

// Sessions persists session records. Put overwrites the whole record; the
// lifecycle service is the single writer per session, so no per-field
// patching is needed.
type Sessions interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Put(ctx context.Context, s *model.Session) error
	ListByState(ctx context.Context, state model.State) ([]*model.Session, error)
	// FindByAuthority resolves the session that owns a payment-gateway
	// authority token, for the asynchronous callback leg.
	FindByAuthority(ctx context.Context, authority string) (*model.Session, error)
}

// PromptStates persists the engagement-throttle record, one per installation.
// Update must apply fn atomically: two racing updates may not both observe
// the same starting value and both win.
type PromptStates interface {
	Get(ctx context.Context, installationID string) (*model.PromptState, error)
	Update(ctx context.Context, installationID string, fn func(model.PromptState) (model.PromptState, error)) (*model.PromptState, error)
}
