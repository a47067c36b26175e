// Package session implements the therapy-session lifecycle: a booked session
// moves from creation through payment, intake, the time-gated waiting room,
// the live call and post-session feedback into archival. All timing decisions
// are evaluated against caller-supplied timestamps; the service owns no timer.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/store"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type BookRequest struct {
	ClinicianID    uuid.UUID
	PatientID      uuid.UUID
	ScheduledStart time.Time
	Modality       model.Modality
	Amount         int64
	Contact        model.Contact
}

// PaymentResult is the gateway's confirmation for a booking.
type PaymentResult struct {
	Outcome   model.PaymentStatus // succeeded | failed
	Amount    int64
	Reference string
}

type IntakeRequest struct {
	MoodRating int
	Symptoms   []string
	Notes      string
	Urgent     bool
}

type FeedbackRequest struct {
	ClinicianRating int
	SessionRating   int
	Comments        *string
}

type CancelRequest struct {
	Reason      *string
	RequestedBy string // "patient" | "clinician" | "system"
}

// JoinOutcome distinguishes the gate decision from hard errors so the caller
// can poll and offer "reschedule" instead of a generic failure.
type JoinOutcome string

const (
	JoinReady   JoinOutcome = "ready"
	JoinNotYet  JoinOutcome = "not_yet"
	JoinTooLate JoinOutcome = "too_late"
)

type JoinDecision struct {
	Outcome JoinOutcome
	// SecondsUntilOpen is set for NotYet so a countdown can be rendered.
	SecondsUntilOpen int64
	Session          *model.Session
}

// JoinStatus is the non-mutating countdown helper result.
type JoinStatus struct {
	Ready             bool
	SecondsUntilReady int64
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Book(ctx context.Context, req BookRequest) (*model.Session, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	ListByState(ctx context.Context, state model.State) ([]*model.Session, error)

	ConfirmPayment(ctx context.Context, id uuid.UUID, result PaymentResult) (*model.Session, error)
	SubmitIntake(ctx context.Context, id uuid.UUID, req IntakeRequest) (*model.Session, error)
	SkipIntake(ctx context.Context, id uuid.UUID) (*model.Session, error)
	EnterWaitingRoom(ctx context.Context, id uuid.UUID) (*model.Session, error)

	CanJoinNow(ctx context.Context, id uuid.UUID, now time.Time) (JoinStatus, error)
	Join(ctx context.Context, id uuid.UUID, now time.Time) (JoinDecision, error)
	ExpireIfUnjoined(ctx context.Context, id uuid.UUID, now time.Time) (*model.Session, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)

	Disconnect(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Reconnect(ctx context.Context, id uuid.UUID) (*model.Session, error)
	End(ctx context.Context, id uuid.UUID) (*model.Session, error)
	Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*model.Session, error)

	SubmitFeedback(ctx context.Context, id uuid.UUID, req FeedbackRequest) (*model.Session, error)
	SkipFeedback(ctx context.Context, id uuid.UUID) (*model.Session, error)
}

// Publisher receives lifecycle events for asynchronous consumers (reminder
// workers, audit). Implementations must not block the transition; failures
// are theirs to log.
type Publisher interface {
	SessionEvent(ctx context.Context, event string, sessionID uuid.UUID)
}

// Lifecycle event names as published on the bus.
const (
	EventBooked           = "booked"
	EventPaymentConfirmed = "payment_confirmed"
	EventPaymentFailed    = "payment_failed"
	EventWaiting          = "waiting"
	EventJoined           = "joined"
	EventInterrupted      = "interrupted"
	EventResumed          = "resumed"
	EventEnded            = "ended"
	EventCancelled        = "cancelled"
	EventMissed           = "missed"
	EventArchived         = "archived"
)

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type sessionService struct {
	db          store.Sessions
	pub         Publisher
	graceBefore time.Duration
	graceAfter  time.Duration
}

func New(db store.Sessions, pub Publisher, cfg config.SessionConfig) Service {
	return &sessionService{
		db:          db,
		pub:         pub,
		graceBefore: time.Duration(cfg.GraceBeforeMinutes) * time.Minute,
		graceAfter:  time.Duration(cfg.GraceAfterMinutes) * time.Minute,
	}
}

func (s *sessionService) publish(ctx context.Context, event string, id uuid.UUID) {
	if s.pub != nil {
		s.pub.SessionEvent(ctx, event, id)
	}
}

func (s *sessionService) get(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.db.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// move applies a single transition after checking the edge table. The record
// is left untouched on any failure; there is no partial application.
func (s *sessionService) move(ctx context.Context, sess *model.Session, to model.State, mutate func(*model.Session)) (*model.Session, error) {
	if !canTransition(sess.State, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sess.State, to)
	}
	sess.State = to
	if mutate != nil {
		mutate(sess)
	}
	sess.UpdatedAt = time.Now()
	if err := s.db.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// ---------------------------------------------------------------------------
// Booking & queries
// ---------------------------------------------------------------------------

func (s *sessionService) Book(ctx context.Context, req BookRequest) (*model.Session, error) {
	if req.ClinicianID == uuid.Nil || req.PatientID == uuid.Nil {
		return nil, fmt.Errorf("%w: clinician and patient ids are required", ErrInvalidTransition)
	}
	if req.ScheduledStart.IsZero() {
		return nil, fmt.Errorf("%w: scheduled start is required", ErrInvalidTransition)
	}
	if req.Modality != model.ModalityVideo && req.Modality != model.ModalityAudio {
		return nil, fmt.Errorf("%w: modality must be video or audio", ErrInvalidTransition)
	}

	now := time.Now()
	sess := &model.Session{
		ID:             uuid.New(),
		ClinicianID:    req.ClinicianID,
		PatientID:      req.PatientID,
		ScheduledStart: req.ScheduledStart,
		Modality:       req.Modality,
		Contact:        req.Contact,
		State:          model.StateCreated,
		JoinWindow: model.JoinWindow{
			OpensAt:  req.ScheduledStart.Add(-s.graceBefore),
			ClosesAt: req.ScheduledStart.Add(s.graceAfter),
		},
		Payment: model.Payment{
			Status: model.PaymentPending,
			Amount: req.Amount,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.db.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.publish(ctx, EventBooked, sess.ID)
	return sess, nil
}

func (s *sessionService) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	return s.get(ctx, id)
}

func (s *sessionService) ListByState(ctx context.Context, state model.State) ([]*model.Session, error) {
	sessions, err := s.db.ListByState(ctx, state)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// ---------------------------------------------------------------------------
// Payment
// ---------------------------------------------------------------------------

func (s *sessionService) ConfirmPayment(ctx context.Context, id uuid.UUID, result PaymentResult) (*model.Session, error) {
	if result.Outcome != model.PaymentSucceeded && result.Outcome != model.PaymentFailed {
		return nil, fmt.Errorf("%w: unknown payment outcome %q", ErrInvalidTransition, result.Outcome)
	}

	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	// Duplicate confirmations: same outcome is a no-op, a diverging outcome
	// is a data-integrity anomaly.
	if sess.State == model.StatePaymentConfirmed || sess.State == model.StatePaymentFailed {
		if sess.Payment.Status == result.Outcome {
			return sess, nil
		}
		return nil, ErrPaymentConflict
	}

	to := model.StatePaymentConfirmed
	event := EventPaymentConfirmed
	if result.Outcome == model.PaymentFailed {
		to = model.StatePaymentFailed
		event = EventPaymentFailed
	}

	sess, err = s.move(ctx, sess, to, func(m *model.Session) {
		m.Payment.Status = result.Outcome
		m.Payment.Reference = result.Reference
		if result.Amount > 0 {
			m.Payment.Amount = result.Amount
		}
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, event, sess.ID)
	return sess, nil
}

// ---------------------------------------------------------------------------
// Intake
// ---------------------------------------------------------------------------

func (s *sessionService) SubmitIntake(ctx context.Context, id uuid.UUID, req IntakeRequest) (*model.Session, error) {
	record, err := validateIntake(req)
	if err != nil {
		return nil, err
	}

	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	return s.move(ctx, sess, model.StateIntakeComplete, func(m *model.Session) {
		m.Intake = record
	})
}

func (s *sessionService) SkipIntake(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	// A missing intake via skip is a valid terminal shape, not an error.
	return s.move(ctx, sess, model.StateIntakeSkipped, nil)
}

func (s *sessionService) EnterWaitingRoom(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err = s.move(ctx, sess, model.StateWaiting, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventWaiting, sess.ID)
	return sess, nil
}

// ---------------------------------------------------------------------------
// Join gate
// ---------------------------------------------------------------------------

func (s *sessionService) CanJoinNow(ctx context.Context, id uuid.UUID, now time.Time) (JoinStatus, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return JoinStatus{}, err
	}
	if sess.State != model.StateWaiting {
		return JoinStatus{}, nil
	}
	if sess.JoinWindow.Contains(now) {
		return JoinStatus{Ready: true}, nil
	}
	if now.Before(sess.JoinWindow.OpensAt) {
		secs := int64(sess.JoinWindow.OpensAt.Sub(now).Round(time.Second) / time.Second)
		return JoinStatus{SecondsUntilReady: secs}, nil
	}
	return JoinStatus{}, nil
}

func (s *sessionService) Join(ctx context.Context, id uuid.UUID, now time.Time) (JoinDecision, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return JoinDecision{}, err
	}
	if sess.State != model.StateWaiting {
		return JoinDecision{}, fmt.Errorf("%w: join requires waiting, session is %s", ErrInvalidTransition, sess.State)
	}

	// Outside the window the record stays untouched so the polling UI can
	// keep retrying until Ready or the session expires to missed.
	if now.Before(sess.JoinWindow.OpensAt) {
		secs := int64(sess.JoinWindow.OpensAt.Sub(now).Round(time.Second) / time.Second)
		return JoinDecision{Outcome: JoinNotYet, SecondsUntilOpen: secs, Session: sess}, nil
	}
	if now.After(sess.JoinWindow.ClosesAt) {
		return JoinDecision{Outcome: JoinTooLate, Session: sess}, nil
	}

	sess, err = s.move(ctx, sess, model.StateLive, nil)
	if err != nil {
		return JoinDecision{}, err
	}
	s.publish(ctx, EventJoined, sess.ID)
	return JoinDecision{Outcome: JoinReady, Session: sess}, nil
}

func (s *sessionService) ExpireIfUnjoined(ctx context.Context, id uuid.UUID, now time.Time) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State != model.StateWaiting || !now.After(sess.JoinWindow.ClosesAt) {
		return sess, nil
	}
	sess, err = s.move(ctx, sess, model.StateMissed, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventMissed, sess.ID)
	return sess, nil
}

// SweepExpired runs the expiry check over every waiting session. The service
// holds no timer of its own; a periodic external driver calls this.
func (s *sessionService) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	waiting, err := s.db.ListByState(ctx, model.StateWaiting)
	if err != nil {
		return 0, fmt.Errorf("list waiting sessions: %w", err)
	}
	expired := 0
	for _, sess := range waiting {
		updated, err := s.ExpireIfUnjoined(ctx, sess.ID, now)
		if err != nil {
			return expired, err
		}
		if updated.State == model.StateMissed {
			expired++
		}
	}
	return expired, nil
}

// ---------------------------------------------------------------------------
// Live session
// ---------------------------------------------------------------------------

func (s *sessionService) Disconnect(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err = s.move(ctx, sess, model.StateInterrupted, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventInterrupted, sess.ID)
	return sess, nil
}

// Reconnect re-enters live after a dropped connection. Payment and intake are
// not re-run; a transient network failure is not a terminal outcome.
func (s *sessionService) Reconnect(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.State != model.StateInterrupted {
		return nil, fmt.Errorf("%w: reconnect requires interrupted, session is %s", ErrInvalidTransition, sess.State)
	}
	sess, err = s.move(ctx, sess, model.StateLive, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventResumed, sess.ID)
	return sess, nil
}

func (s *sessionService) End(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sess, err = s.move(ctx, sess, model.StateCompleted, func(m *model.Session) {
		m.CompletedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventEnded, sess.ID)
	return sess, nil
}

func (s *sessionService) Cancel(ctx context.Context, id uuid.UUID, req CancelRequest) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	// The reason is recorded for audit; data already captured in the intake
	// is left exactly as it was.
	sess, err = s.move(ctx, sess, model.StateCancelled, func(m *model.Session) {
		m.CancelReason = req.Reason
		m.CancelledAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventCancelled, sess.ID)
	return sess, nil
}

// ---------------------------------------------------------------------------
// Feedback
// ---------------------------------------------------------------------------

func (s *sessionService) SubmitFeedback(ctx context.Context, id uuid.UUID, req FeedbackRequest) (*model.Session, error) {
	record, err := validateFeedback(req)
	if err != nil {
		return nil, err
	}

	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err = s.move(ctx, sess, model.StateArchived, func(m *model.Session) {
		m.Feedback = record
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventArchived, sess.ID)
	return sess, nil
}

func (s *sessionService) SkipFeedback(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	sess, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess, err = s.move(ctx, sess, model.StateArchived, nil)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, EventArchived, sess.ID)
	return sess, nil
}
