package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/store"
)

const (
	promptKeyPrefix = "engagement:prompt:"
	// casAttempts bounds the optimistic-lock retry loop. Contention is a
	// single installation racing its own background trigger, so collisions
	// are rare and short.
	casAttempts = 5
)

// PromptStates persists the throttle record as one JSON value per
// installation, updated under WATCH so two racing prompt decisions cannot
// both increment past the cap.
type PromptStates struct {
	rdb *goredis.Client
}

func NewPromptStates(rdb *goredis.Client) *PromptStates {
	return &PromptStates{rdb: rdb}
}

func promptKey(installationID string) string { return promptKeyPrefix + installationID }

func (p *PromptStates) Get(ctx context.Context, installationID string) (*model.PromptState, error) {
	raw, err := p.rdb.Get(ctx, promptKey(installationID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("redis get prompt state: %w", err)
	}
	var st model.PromptState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("unmarshal prompt state: %w", err)
	}
	return &st, nil
}

func (p *PromptStates) Update(ctx context.Context, installationID string, fn func(model.PromptState) (model.PromptState, error)) (*model.PromptState, error) {
	key := promptKey(installationID)
	var updated model.PromptState

	txn := func(tx *goredis.Tx) error {
		var cur model.PromptState
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			if err := json.Unmarshal(raw, &cur); err != nil {
				return fmt.Errorf("unmarshal prompt state: %w", err)
			}
		case errors.Is(err, goredis.Nil):
			// First prompt ever for this installation.
		default:
			return fmt.Errorf("redis get prompt state: %w", err)
		}

		next, err := fn(cur)
		if err != nil {
			return err
		}

		out, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("marshal prompt state: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = next
		return nil
	}

	for i := 0; i < casAttempts; i++ {
		err := p.rdb.Watch(ctx, txn, key)
		if err == nil {
			return &updated, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue // lost the race, reload and retry
		}
		return nil, err
	}
	return nil, store.ErrConflict
}
