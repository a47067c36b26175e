package payment

import "errors"

var (
	ErrNotFound       = errors.New("no session for this payment authority")
	ErrGatewayFailure = errors.New("payment gateway request failed")
	ErrNotPayable     = errors.New("session is not awaiting payment")
)
