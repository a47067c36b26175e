// Package events publishes lifecycle events on NATS for the notification
// workers. Publishing is best effort: a transition must never fail or block
// because the bus is down.
package events

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const subjectPrefix = "calmora.session."

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// SessionEvent publishes calmora.session.<event>.<id> with the session id as
// payload, mirroring what the workers parse back out of the subject.
func (p *NatsPublisher) SessionEvent(_ context.Context, event string, sessionID uuid.UUID) {
	subject := subjectPrefix + event + "." + sessionID.String()
	if err := p.nc.Publish(subject, []byte(sessionID.String())); err != nil {
		slog.Warn("events: publish failed", "subject", subject, "err", err)
	}
}
