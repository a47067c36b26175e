package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/service/session"
	"github.com/calmora/calmora_backend/internal/store"
	paygatepkg "github.com/calmora/calmora_backend/pkg/paygate"
)

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

func gatewayStub(t *testing.T, requestCode, verifyCode int) *paygatepkg.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{}
		switch r.URL.Path {
		case "/charge/request.json":
			data["code"] = requestCode
			data["authority"] = "A0001"
		case "/charge/verify.json":
			data["code"] = verifyCode
			data["reference"] = "R42"
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	t.Cleanup(srv.Close)

	return paygatepkg.New(config.PayGateConfig{MerchantID: "m-1"}).
		WithBaseURL(srv.URL, srv.URL+"/checkout/")
}

func newTestService(t *testing.T, gateway *paygatepkg.Client) (Service, session.Service, *memStore) {
	t.Helper()
	db := newMemStore()
	cfg := &config.Config{}
	cfg.PayGate.CallbackURL = "https://app/callback"
	sessions := session.New(db, nil, config.SessionConfig{GraceBeforeMinutes: 5, GraceAfterMinutes: 15})
	return New(db, gateway, sessions, cfg), sessions, db
}

func book(t *testing.T, sessions session.Service) *model.Session {
	t.Helper()
	sess, err := sessions.Book(context.Background(), session.BookRequest{
		ClinicianID:    uuid.New(),
		PatientID:      uuid.New(),
		ScheduledStart: time.Now().Add(24 * time.Hour),
		Modality:       model.ModalityVideo,
		Amount:         900000,
	})
	if err != nil {
		t.Fatalf("Book() error = %v", err)
	}
	return sess
}

func TestInitiateStoresAuthority(t *testing.T) {
	svc, sessions, db := newTestService(t, gatewayStub(t, 100, 100))
	ctx := context.Background()
	sess := book(t, sessions)

	payURL, err := svc.Initiate(ctx, sess.ID, "therapy session")
	if err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}
	if payURL == "" {
		t.Error("Initiate() returned empty pay URL")
	}

	stored, err := db.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Payment.Authority != "A0001" {
		t.Errorf("authority = %q, want A0001", stored.Payment.Authority)
	}
}

func TestInitiateRequiresPayableSession(t *testing.T) {
	svc, sessions, _ := newTestService(t, gatewayStub(t, 100, 100))
	ctx := context.Background()
	sess := book(t, sessions)

	if _, err := sessions.ConfirmPayment(ctx, sess.ID, session.PaymentResult{Outcome: model.PaymentSucceeded}); err != nil {
		t.Fatalf("ConfirmPayment() error = %v", err)
	}

	if _, err := svc.Initiate(ctx, sess.ID, "again"); !errors.Is(err, ErrNotPayable) {
		t.Errorf("Initiate() error = %v, want ErrNotPayable", err)
	}
}

func TestInitiateUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, gatewayStub(t, 100, 100))
	if _, err := svc.Initiate(context.Background(), uuid.New(), "x"); !errors.Is(err, session.ErrNotFound) {
		t.Errorf("Initiate() error = %v, want session.ErrNotFound", err)
	}
}

func TestHandleCallbackSuccess(t *testing.T) {
	svc, sessions, _ := newTestService(t, gatewayStub(t, 100, 100))
	ctx := context.Background()
	sess := book(t, sessions)

	if _, err := svc.Initiate(ctx, sess.ID, "therapy session"); err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	got, err := svc.HandleCallback(ctx, "A0001", "OK")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if got.State != model.StatePaymentConfirmed {
		t.Errorf("state = %s, want payment_confirmed", got.State)
	}
	if got.Payment.Status != model.PaymentSucceeded || got.Payment.Reference != "R42" {
		t.Errorf("payment = %+v", got.Payment)
	}
}

func TestHandleCallbackUserCancelled(t *testing.T) {
	svc, sessions, _ := newTestService(t, gatewayStub(t, 100, 100))
	ctx := context.Background()
	sess := book(t, sessions)

	if _, err := svc.Initiate(ctx, sess.ID, "therapy session"); err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	got, err := svc.HandleCallback(ctx, "A0001", "NOK")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if got.State != model.StatePaymentFailed {
		t.Errorf("state = %s, want payment_failed", got.State)
	}
}

func TestHandleCallbackVerifyFailure(t *testing.T) {
	svc, sessions, _ := newTestService(t, gatewayStub(t, 100, -51))
	ctx := context.Background()
	sess := book(t, sessions)

	if _, err := svc.Initiate(ctx, sess.ID, "therapy session"); err != nil {
		t.Fatalf("Initiate() error = %v", err)
	}

	got, err := svc.HandleCallback(ctx, "A0001", "OK")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if got.State != model.StatePaymentFailed {
		t.Errorf("state = %s, want payment_failed", got.State)
	}
}

func TestHandleCallbackUnknownAuthority(t *testing.T) {
	svc, _, _ := newTestService(t, gatewayStub(t, 100, 100))
	if _, err := svc.HandleCallback(context.Background(), "A9999", "OK"); !errors.Is(err, ErrNotFound) {
		t.Errorf("HandleCallback() error = %v, want ErrNotFound", err)
	}
}
