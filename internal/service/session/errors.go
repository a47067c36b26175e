package session

import "errors"

var (
	ErrNotFound          = errors.New("session not found")
	ErrInvalidTransition = errors.New("operation not legal in current session state")
	ErrInvalidIntake     = errors.New("intake record failed schema validation")
	ErrInvalidFeedback   = errors.New("feedback record failed schema validation")
	// ErrPaymentConflict marks a duplicate payment confirmation whose outcome
	// disagrees with the recorded one. That is a data-integrity anomaly, not
	// a recoverable user action.
	ErrPaymentConflict = errors.New("conflicting duplicate payment confirmation")
)
