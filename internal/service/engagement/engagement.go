// Package engagement decides when the app may interrupt the user with a
// mood-check-in prompt: at most two a day per installation, and the second
// one only in the evening. Under-prompting is always preferred over
// over-prompting here, so persistence trouble makes the decision a "no".
package engagement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/store"
)

const dateLayout = "2006-01-02"

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// ShouldPrompt reports whether a prompt may be shown at now. The decision
	// does not mutate persisted state: day-rollover resets are applied lazily
	// so a read never costs a write.
	ShouldPrompt(ctx context.Context, installationID string, now time.Time) bool
	// RecordPromptShown advances the daily counter and stamps the prompt
	// date, atomically from any reader's point of view.
	RecordPromptShown(ctx context.Context, installationID string, now time.Time) (*model.PromptState, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type engagementService struct {
	db          store.PromptStates
	dailyCap    int
	eveningHour int
}

func New(db store.PromptStates, cfg config.EngagementConfig) Service {
	return &engagementService{
		db:          db,
		dailyCap:    cfg.DailyCap,
		eveningHour: cfg.EveningHour,
	}
}

func (s *engagementService) ShouldPrompt(ctx context.Context, installationID string, now time.Time) bool {
	st, err := s.db.Get(ctx, installationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// First use of this installation: nothing shown yet today.
			return true
		}
		// Fail closed: never prompt excessively because the store is down.
		slog.Warn("engagement: state read failed, suppressing prompt",
			"installation_id", installationID, "err", err)
		return false
	}
	return s.decide(*st, now)
}

func (s *engagementService) RecordPromptShown(ctx context.Context, installationID string, now time.Time) (*model.PromptState, error) {
	today := now.Format(dateLayout)
	st, err := s.db.Update(ctx, installationID, func(cur model.PromptState) (model.PromptState, error) {
		count := cur.PromptsShownToday
		if cur.LastPromptDate != today {
			count = 0
		}
		// The policy is re-evaluated inside the atomic update: two triggers
		// that both saw ShouldPrompt true cannot both increment past the cap,
		// because the loser re-reads the winner's count here.
		if !s.allow(count, now) {
			return model.PromptState{}, ErrPromptLimitReached
		}
		return model.PromptState{
			LastPromptDate:    today,
			PromptsShownToday: count + 1,
		}, nil
	})
	if err != nil {
		if errors.Is(err, ErrPromptLimitReached) {
			return nil, ErrPromptLimitReached
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
	}
	return st, nil
}

// allow applies the throttle policy to a same-day count: the first prompt of
// a calendar day is always allowed; further prompts up to the cap only at or
// after the evening hour. The literal two-call cap is kept even when the
// first prompt itself lands in the evening.
func (s *engagementService) allow(count int, now time.Time) bool {
	if count < 1 {
		return true
	}
	return count < s.dailyCap && now.Hour() >= s.eveningHour
}

func (s *engagementService) decide(st model.PromptState, now time.Time) bool {
	count := st.PromptsShownToday
	if st.LastPromptDate != now.Format(dateLayout) {
		count = 0
	}
	return s.allow(count, now)
}
