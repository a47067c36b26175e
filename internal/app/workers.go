package app

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/service/session"
	"github.com/calmora/calmora_backend/internal/store"
	emailpkg "github.com/calmora/calmora_backend/pkg/email"
	smspkg "github.com/calmora/calmora_backend/pkg/sms"
)

// WorkerModule registers the expiry sweeper and the NATS notification workers.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc         fx.Lifecycle
	NC         *nats.Conn
	Cfg        *config.Config
	DB         store.Sessions
	SessionSvc session.Service
	Email      *emailpkg.Client
	SMS        *smspkg.Client
}

func RegisterWorkers(p WorkerParams) {
	stop := make(chan struct{})

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go runExpirySweeper(p.SessionSvc, p.Cfg.Session, stop)
			startNotificationWorker(p.NC, p.DB, p.Email)
			startSMSWorker(p.NC, p.DB, p.SMS)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			close(stop)
			// NATS drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// expiry_sweeper
// ---------------------------------------------------------------------------

// runExpirySweeper periodically moves waiting sessions whose join window has
// closed to missed. The lifecycle service itself holds no timer; this ticker
// is the external driver.
func runExpirySweeper(svc session.Service, cfg config.SessionConfig, stop <-chan struct{}) {
	interval := time.Duration(cfg.SweepIntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("expiry_sweeper: started", "interval", interval)

	for {
		select {
		case <-stop:
			slog.Info("expiry_sweeper: stopped")
			return
		case now := <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			expired, err := svc.SweepExpired(ctx, now)
			cancel()
			if err != nil {
				slog.Warn("expiry_sweeper: sweep failed", "err", err)
				continue
			}
			if expired > 0 {
				slog.Info("expiry_sweeper: sessions expired", "count", expired)
			}
		}
	}
}

// sessionFromMsg parses the session id carried in a lifecycle event payload.
func sessionFromMsg(msg *nats.Msg) (uuid.UUID, bool) {
	idStr := strings.TrimSpace(string(msg.Data))
	id, err := uuid.Parse(idStr)
	if err != nil {
		return uuid.UUID{}, false
	}
	return id, true
}

// ---------------------------------------------------------------------------
// notification_worker
// ---------------------------------------------------------------------------

func startNotificationWorker(nc *nats.Conn, db store.Sessions, mail *emailpkg.Client) {
	// Booking confirmation after payment clears
	_, err := nc.Subscribe("calmora.session.payment_confirmed.*", func(msg *nats.Msg) {
		id, valid := sessionFromMsg(msg)
		if !valid {
			return
		}
		ctx := context.Background()

		sess, err := db.Get(ctx, id)
		if err != nil {
			slog.Warn("notification_worker: session not found", "id", id, "err", err)
			return
		}
		if sess.Contact.Email == "" {
			return
		}

		m := emailpkg.BuildBookingConfirmationEmail(emailpkg.SessionEmailData{
			PatientName:   sess.Contact.Name,
			Email:         sess.Contact.Email,
			StartsAtLocal: sess.ScheduledStart.Format("Monday, 2 January 2006 at 15:04"),
			Modality:      string(sess.Modality),
			JoinURL:       "/sessions/" + sess.ID.String() + "/join",
		})
		if err := mail.Send(ctx, m); err != nil {
			slog.Warn("notification_worker: confirmation email failed", "session_id", id, "err", err)
		}
	})
	if err != nil {
		slog.Error("notification_worker: subscribe payment_confirmed failed", "err", err)
	}

	// Cancellation notice
	_, err = nc.Subscribe("calmora.session.cancelled.*", func(msg *nats.Msg) {
		id, valid := sessionFromMsg(msg)
		if !valid {
			return
		}
		ctx := context.Background()

		sess, err := db.Get(ctx, id)
		if err != nil {
			slog.Warn("notification_worker: session not found", "id", id, "err", err)
			return
		}
		if sess.Contact.Email == "" {
			return
		}

		m := emailpkg.BuildSessionCancelledEmail(emailpkg.SessionEmailData{
			PatientName:   sess.Contact.Name,
			Email:         sess.Contact.Email,
			StartsAtLocal: sess.ScheduledStart.Format("Monday, 2 January 2006 at 15:04"),
		})
		if err := mail.Send(ctx, m); err != nil {
			slog.Warn("notification_worker: cancellation email failed", "session_id", id, "err", err)
		}
	})
	if err != nil {
		slog.Error("notification_worker: subscribe cancelled failed", "err", err)
	}

	// Join-window reminder; the SMS worker covers patients without an email.
	_, err = nc.Subscribe("calmora.session.waiting.*", func(msg *nats.Msg) {
		id, valid := sessionFromMsg(msg)
		if !valid {
			return
		}
		ctx := context.Background()

		sess, err := db.Get(ctx, id)
		if err != nil {
			slog.Warn("notification_worker: session not found", "id", id, "err", err)
			return
		}
		if sess.Contact.Email == "" {
			return
		}

		m := emailpkg.BuildSessionReminderEmail(emailpkg.SessionEmailData{
			PatientName:   sess.Contact.Name,
			Email:         sess.Contact.Email,
			StartsAtLocal: sess.ScheduledStart.Format("Monday, 2 January 2006 at 15:04"),
			JoinURL:       "/sessions/" + sess.ID.String() + "/join",
		})
		if err := mail.Send(ctx, m); err != nil {
			slog.Warn("notification_worker: reminder email failed", "session_id", id, "err", err)
		}
	})
	if err != nil {
		slog.Error("notification_worker: subscribe waiting failed", "err", err)
	}

	slog.Info("notification_worker: started")
}

// ---------------------------------------------------------------------------
// sms_worker
// ---------------------------------------------------------------------------

func startSMSWorker(nc *nats.Conn, db store.Sessions, smsCli *smspkg.Client) {
	// Reminder when a session enters the waiting room
	_, err := nc.Subscribe("calmora.session.waiting.*", func(msg *nats.Msg) {
		id, valid := sessionFromMsg(msg)
		if !valid {
			return
		}
		ctx := context.Background()

		sess, err := db.Get(ctx, id)
		if err != nil {
			slog.Warn("sms_worker: session not found", "id", id, "err", err)
			return
		}
		if sess.Contact.Phone == "" || !smsCli.IsEnabled() {
			return
		}

		startsAt := sess.ScheduledStart.Format("15:04")
		if err := smsCli.SendSessionReminder(ctx, sess.Contact.Phone, startsAt); err != nil {
			slog.Warn("sms_worker: reminder failed", "session_id", id, "err", err)
		}
	})
	if err != nil {
		slog.Error("sms_worker: subscribe waiting failed", "err", err)
	}

	slog.Info("sms_worker: started")
}
