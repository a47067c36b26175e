// Package payment glues the booking flow to the external gateway. The
// lifecycle manager never talks to the gateway itself; this service initiates
// the charge and translates the asynchronous callback into a ConfirmPayment
// call.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/service/session"
	"github.com/calmora/calmora_backend/internal/store"
	paygatepkg "github.com/calmora/calmora_backend/pkg/paygate"
)

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// Initiate requests a charge for a freshly booked session and returns the
	// checkout URL the patient is redirected to.
	Initiate(ctx context.Context, sessionID uuid.UUID, description string) (checkoutURL string, err error)
	// HandleCallback processes the gateway's return leg. status "OK" is
	// verified against the gateway; anything else confirms failure.
	HandleCallback(ctx context.Context, authority, status string) (*model.Session, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type paymentService struct {
	db       store.Sessions
	gateway  *paygatepkg.Client
	sessions session.Service
	cfg      *config.Config
}

func New(db store.Sessions, gateway *paygatepkg.Client, sessions session.Service, cfg *config.Config) Service {
	return &paymentService{db: db, gateway: gateway, sessions: sessions, cfg: cfg}
}

func (s *paymentService) Initiate(ctx context.Context, sessionID uuid.UUID, description string) (string, error) {
	sess, err := s.db.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", session.ErrNotFound
		}
		return "", fmt.Errorf("get session: %w", err)
	}

	if sess.State != model.StateCreated || sess.Payment.Status != model.PaymentPending {
		return "", ErrNotPayable
	}

	authority, checkoutURL, err := s.gateway.RequestCharge(ctx, sess.Payment.Amount, description, s.cfg.PayGate.CallbackURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	// The authority keys the callback leg; store it before handing the user
	// to the gateway.
	sess.Payment.Authority = authority
	if err := s.db.Put(ctx, sess); err != nil {
		return "", fmt.Errorf("store authority: %w", err)
	}

	return checkoutURL, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, authority, status string) (*model.Session, error) {
	sess, err := s.db.FindByAuthority(ctx, authority)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find session by authority: %w", err)
	}

	if status != "OK" {
		// Cancelled or failed on the gateway page.
		return s.sessions.ConfirmPayment(ctx, sess.ID, session.PaymentResult{
			Outcome: model.PaymentFailed,
		})
	}

	reference, alreadyVerified, err := s.gateway.VerifyCharge(ctx, authority, sess.Payment.Amount)
	if err != nil {
		slog.Warn("payment: gateway verify failed", "session_id", sess.ID, "err", err)
		return s.sessions.ConfirmPayment(ctx, sess.ID, session.PaymentResult{
			Outcome: model.PaymentFailed,
		})
	}
	if alreadyVerified {
		slog.Debug("payment: charge already verified", "session_id", sess.ID, "authority", authority)
	}

	return s.sessions.ConfirmPayment(ctx, sess.ID, session.PaymentResult{
		Outcome:   model.PaymentSucceeded,
		Amount:    sess.Payment.Amount,
		Reference: reference,
	})
}
