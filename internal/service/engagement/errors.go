package engagement

import "errors"

var (
	// ErrPersistenceUnavailable wraps throttle-store failures. Prompt decisions
	// never surface it (they fail closed instead), but recording a shown prompt
	// does, so the caller knows the counter was not advanced.
	ErrPersistenceUnavailable = errors.New("engagement state store unavailable")

	// ErrPromptLimitReached means recording the prompt would exceed the daily
	// cap or the evening rule. The counter is left untouched; the trigger that
	// raced ahead already recorded its prompt.
	ErrPromptLimitReached = errors.New("daily prompt limit reached")
)
