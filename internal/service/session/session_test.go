package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/store"
)

// memStore is an in-memory store.Sessions for service tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[uuid.UUID]*model.Session)}
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, found := m.sessions[id]
	if !found {
		return nil, store.ErrNotFound
	}
	clone := *sess
	return &clone, nil
}

func (m *memStore) Put(_ context.Context, sess *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *sess
	m.sessions[sess.ID] = &clone
	return nil
}

func (m *memStore) ListByState(_ context.Context, state model.State) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Session
	for _, sess := range m.sessions {
		if sess.State == state {
			clone := *sess
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memStore) FindByAuthority(_ context.Context, authority string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sess := range m.sessions {
		if sess.Payment.Authority == authority {
			clone := *sess
			return &clone, nil
		}
	}
	return nil, store.ErrNotFound
}

// eventRecorder captures published lifecycle events in order.
type eventRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *eventRecorder) SessionEvent(_ context.Context, event string, _ uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func newTestService() (Service, *memStore, *eventRecorder) {
	db := newMemStore()
	rec := &eventRecorder{}
	svc := New(db, rec, config.SessionConfig{GraceBeforeMinutes: 5, GraceAfterMinutes: 15})
	return svc, db, rec
}

func mustBook(t *testing.T, svc Service, start time.Time) *model.Session {
	t.Helper()
	sess, err := svc.Book(context.Background(), BookRequest{
		ClinicianID:    uuid.New(),
		PatientID:      uuid.New(),
		ScheduledStart: start,
		Modality:       model.ModalityVideo,
		Amount:         900000,
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	return sess
}

func confirmPaid(t *testing.T, svc Service, id uuid.UUID) {
	t.Helper()
	_, err := svc.ConfirmPayment(context.Background(), id, PaymentResult{
		Outcome:   model.PaymentSucceeded,
		Reference: "ref-1",
	})
	if err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}
}

func TestBookComputesJoinWindow(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	sess := mustBook(t, svc, start)

	if sess.State != model.StateCreated {
		t.Errorf("state = %s, want created", sess.State)
	}
	if sess.Payment.Status != model.PaymentPending {
		t.Errorf("payment status = %s, want pending", sess.Payment.Status)
	}
	wantOpen := start.Add(-5 * time.Minute)
	wantClose := start.Add(15 * time.Minute)
	if !sess.JoinWindow.OpensAt.Equal(wantOpen) || !sess.JoinWindow.ClosesAt.Equal(wantClose) {
		t.Errorf("window = [%v, %v], want [%v, %v]",
			sess.JoinWindow.OpensAt, sess.JoinWindow.ClosesAt, wantOpen, wantClose)
	}
}

func TestBookValidation(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Now().Add(24 * time.Hour)

	tests := []struct {
		name string
		req  BookRequest
	}{
		{"missing clinician", BookRequest{PatientID: uuid.New(), ScheduledStart: start, Modality: model.ModalityVideo}},
		{"missing patient", BookRequest{ClinicianID: uuid.New(), ScheduledStart: start, Modality: model.ModalityVideo}},
		{"zero start", BookRequest{ClinicianID: uuid.New(), PatientID: uuid.New(), Modality: model.ModalityVideo}},
		{"bad modality", BookRequest{ClinicianID: uuid.New(), PatientID: uuid.New(), ScheduledStart: start, Modality: "carrier-pigeon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Book(context.Background(), tt.req); err == nil {
				t.Error("Book() expected error")
			}
		})
	}
}

// Full happy path: booked at 14:00, paid, intake, waiting room, joined at
// 13:57, interrupted and resumed, ended, feedback, archived.
func TestLifecycleHappyPath(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	sess := mustBook(t, svc, start)
	confirmPaid(t, svc, sess.ID)

	if _, err := svc.SubmitIntake(ctx, sess.ID, IntakeRequest{
		MoodRating: 4,
		Symptoms:   []string{"Anxiety", "insomnia", " anxiety "},
		Notes:      "rough week",
	}); err != nil {
		t.Fatalf("SubmitIntake() error = %v", err)
	}

	got, err := svc.GetByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if len(got.Intake.Symptoms) != 2 {
		t.Errorf("symptoms = %v, want deduped pair", got.Intake.Symptoms)
	}

	if _, err := svc.EnterWaitingRoom(ctx, sess.ID); err != nil {
		t.Fatalf("EnterWaitingRoom() error = %v", err)
	}

	decision, err := svc.Join(ctx, sess.ID, start.Add(-3*time.Minute))
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if decision.Outcome != JoinReady {
		t.Fatalf("Join outcome = %s, want ready", decision.Outcome)
	}
	if decision.Session.State != model.StateLive {
		t.Errorf("state after join = %s, want live", decision.Session.State)
	}

	if _, err := svc.Disconnect(ctx, sess.ID); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}
	if _, err := svc.Reconnect(ctx, sess.ID); err != nil {
		t.Fatalf("Reconnect() error = %v", err)
	}

	if _, err := svc.End(ctx, sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	final, err := svc.SubmitFeedback(ctx, sess.ID, FeedbackRequest{
		ClinicianRating: 5,
		SessionRating:   4,
	})
	if err != nil {
		t.Fatalf("SubmitFeedback() error = %v", err)
	}
	if final.State != model.StateArchived {
		t.Errorf("final state = %s, want archived", final.State)
	}

	want := []string{
		EventBooked, EventPaymentConfirmed, EventWaiting, EventJoined,
		EventInterrupted, EventResumed, EventEnded, EventArchived,
	}
	got2 := rec.all()
	if len(got2) != len(want) {
		t.Fatalf("events = %v, want %v", got2, want)
	}
	for i := range want {
		if got2[i] != want[i] {
			t.Errorf("event[%d] = %s, want %s", i, got2[i], want[i])
		}
	}
}

func TestConfirmPaymentIdempotent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	sess := mustBook(t, svc, time.Now().Add(time.Hour))

	first, err := svc.ConfirmPayment(ctx, sess.ID, PaymentResult{Outcome: model.PaymentSucceeded, Reference: "ref-1"})
	if err != nil {
		t.Fatalf("first ConfirmPayment() error = %v", err)
	}

	// Same outcome again: no-op, same state, no error.
	second, err := svc.ConfirmPayment(ctx, sess.ID, PaymentResult{Outcome: model.PaymentSucceeded, Reference: "ref-1"})
	if err != nil {
		t.Fatalf("duplicate ConfirmPayment() error = %v", err)
	}
	if second.State != first.State || second.Payment.Reference != "ref-1" {
		t.Errorf("duplicate confirmation changed the record: %+v", second)
	}

	// Diverging outcome: conflict.
	_, err = svc.ConfirmPayment(ctx, sess.ID, PaymentResult{Outcome: model.PaymentFailed})
	if !errors.Is(err, ErrPaymentConflict) {
		t.Errorf("diverging ConfirmPayment() error = %v, want ErrPaymentConflict", err)
	}
}

func TestConfirmPaymentFailedBlocksProgress(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	sess := mustBook(t, svc, time.Now().Add(time.Hour))

	if _, err := svc.ConfirmPayment(ctx, sess.ID, PaymentResult{Outcome: model.PaymentFailed}); err != nil {
		t.Fatalf("ConfirmPayment(failed) error = %v", err)
	}

	if _, err := svc.SkipIntake(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SkipIntake after payment failure: error = %v, want ErrInvalidTransition", err)
	}

	// Cancel is still allowed for bookkeeping.
	cancelled, err := svc.Cancel(ctx, sess.ID, CancelRequest{RequestedBy: "system"})
	if err != nil {
		t.Fatalf("Cancel after payment failure error = %v", err)
	}
	if cancelled.State != model.StateCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.State)
	}
}

func toWaiting(t *testing.T, svc Service, start time.Time) *model.Session {
	t.Helper()
	ctx := context.Background()
	sess := mustBook(t, svc, start)
	confirmPaid(t, svc, sess.ID)
	if _, err := svc.SkipIntake(ctx, sess.ID); err != nil {
		t.Fatalf("SkipIntake() error = %v", err)
	}
	waiting, err := svc.EnterWaitingRoom(ctx, sess.ID)
	if err != nil {
		t.Fatalf("EnterWaitingRoom() error = %v", err)
	}
	return waiting
}

func TestJoinWindowBoundaries(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want JoinOutcome
	}{
		{"an hour early", start.Add(-time.Hour), JoinNotYet},
		{"one second before open", start.Add(-5*time.Minute - time.Second), JoinNotYet},
		{"exactly at open", start.Add(-5 * time.Minute), JoinReady},
		{"at scheduled start", start, JoinReady},
		{"exactly at close", start.Add(15 * time.Minute), JoinReady},
		{"one second after close", start.Add(15*time.Minute + time.Second), JoinTooLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			sess := toWaiting(t, svc, start)

			decision, err := svc.Join(context.Background(), sess.ID, tt.now)
			if err != nil {
				t.Fatalf("Join() error = %v", err)
			}
			if decision.Outcome != tt.want {
				t.Errorf("outcome = %s, want %s", decision.Outcome, tt.want)
			}

			// A refused join must leave the record in waiting.
			if tt.want != JoinReady {
				got, err := svc.GetByID(context.Background(), sess.ID)
				if err != nil {
					t.Fatalf("GetByID() error = %v", err)
				}
				if got.State != model.StateWaiting {
					t.Errorf("state after refused join = %s, want waiting", got.State)
				}
			}
		})
	}
}

func TestJoinNotYetCountdown(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sess := toWaiting(t, svc, start)

	decision, err := svc.Join(context.Background(), sess.ID, start.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if decision.Outcome != JoinNotYet {
		t.Fatalf("outcome = %s, want not_yet", decision.Outcome)
	}
	if decision.SecondsUntilOpen != 300 {
		t.Errorf("SecondsUntilOpen = %d, want 300", decision.SecondsUntilOpen)
	}
}

func TestCanJoinNow(t *testing.T) {
	svc, _, _ := newTestService()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sess := toWaiting(t, svc, start)
	ctx := context.Background()

	status, err := svc.CanJoinNow(ctx, sess.ID, start.Add(-7*time.Minute))
	if err != nil {
		t.Fatalf("CanJoinNow() error = %v", err)
	}
	if status.Ready || status.SecondsUntilReady != 120 {
		t.Errorf("status = %+v, want not ready in 120s", status)
	}

	status, err = svc.CanJoinNow(ctx, sess.ID, start)
	if err != nil {
		t.Fatalf("CanJoinNow() error = %v", err)
	}
	if !status.Ready {
		t.Errorf("status = %+v, want ready", status)
	}
}

// Scheduled 14:00: the sweep at 14:16 moves an unjoined waiting session to
// missed; a session that went live is left alone.
func TestExpireIfUnjoined(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sess := toWaiting(t, svc, start)

	// Still inside the window: no change.
	got, err := svc.ExpireIfUnjoined(ctx, sess.ID, start.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("ExpireIfUnjoined() error = %v", err)
	}
	if got.State != model.StateWaiting {
		t.Errorf("state = %s, want waiting", got.State)
	}

	got, err = svc.ExpireIfUnjoined(ctx, sess.ID, start.Add(16*time.Minute))
	if err != nil {
		t.Fatalf("ExpireIfUnjoined() error = %v", err)
	}
	if got.State != model.StateMissed {
		t.Errorf("state = %s, want missed", got.State)
	}

	events := rec.all()
	if events[len(events)-1] != EventMissed {
		t.Errorf("last event = %s, want missed", events[len(events)-1])
	}
}

func TestSweepExpired(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)

	expired := toWaiting(t, svc, start)
	joined := toWaiting(t, svc, start.Add(10*time.Minute))
	if _, err := svc.Join(ctx, joined.ID, start.Add(10*time.Minute)); err != nil {
		t.Fatalf("Join() error = %v", err)
	}

	count, err := svc.SweepExpired(ctx, start.Add(16*time.Minute))
	if err != nil {
		t.Fatalf("SweepExpired() error = %v", err)
	}
	if count != 1 {
		t.Errorf("expired count = %d, want 1", count)
	}

	got, _ := svc.GetByID(ctx, expired.ID)
	if got.State != model.StateMissed {
		t.Errorf("unjoined session state = %s, want missed", got.State)
	}
	got, _ = svc.GetByID(ctx, joined.ID)
	if got.State != model.StateLive {
		t.Errorf("joined session state = %s, want live", got.State)
	}
}

func TestCancelKeepsIntake(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	sess := mustBook(t, svc, time.Now().Add(time.Hour))
	confirmPaid(t, svc, sess.ID)

	if _, err := svc.SubmitIntake(ctx, sess.ID, IntakeRequest{MoodRating: 7}); err != nil {
		t.Fatalf("SubmitIntake() error = %v", err)
	}

	reason := "patient request"
	cancelled, err := svc.Cancel(ctx, sess.ID, CancelRequest{Reason: &reason, RequestedBy: "patient"})
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if cancelled.State != model.StateCancelled {
		t.Errorf("state = %s, want cancelled", cancelled.State)
	}
	if cancelled.Intake == nil || cancelled.Intake.MoodRating != 7 {
		t.Errorf("cancel dropped the intake record: %+v", cancelled.Intake)
	}
	if cancelled.CancelReason == nil || *cancelled.CancelReason != reason {
		t.Errorf("cancel reason = %v, want %q", cancelled.CancelReason, reason)
	}

	// Terminal: nothing moves out of cancelled.
	if _, err := svc.Cancel(ctx, sess.ID, CancelRequest{RequestedBy: "system"}); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("double cancel error = %v, want ErrInvalidTransition", err)
	}
}

func TestReconnectRequiresInterrupted(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sess := toWaiting(t, svc, start)

	if _, err := svc.Reconnect(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Reconnect from waiting: error = %v, want ErrInvalidTransition", err)
	}
}

func TestSkipFeedbackArchives(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	sess := toWaiting(t, svc, start)

	if _, err := svc.Join(ctx, sess.ID, start); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if _, err := svc.End(ctx, sess.ID); err != nil {
		t.Fatalf("End() error = %v", err)
	}

	got, err := svc.SkipFeedback(ctx, sess.ID)
	if err != nil {
		t.Fatalf("SkipFeedback() error = %v", err)
	}
	if got.State != model.StateArchived || got.Feedback != nil {
		t.Errorf("skip feedback: state = %s, feedback = %+v", got.State, got.Feedback)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.GetByID(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}
