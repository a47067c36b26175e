package app

import (
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/events"
	"github.com/calmora/calmora_backend/internal/service/engagement"
	"github.com/calmora/calmora_backend/internal/service/payment"
	"github.com/calmora/calmora_backend/internal/service/session"
	"github.com/calmora/calmora_backend/internal/store"
	paygatepkg "github.com/calmora/calmora_backend/pkg/paygate"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvidePublisher,
		ProvideSessionService,
		ProvideEngagementService,
		ProvidePaymentService,
	),
)

func ProvidePublisher(nc *nats.Conn) session.Publisher {
	return events.NewNatsPublisher(nc)
}

func ProvideSessionService(db store.Sessions, pub session.Publisher, cfg *config.Config) session.Service {
	return session.New(db, pub, cfg.Session)
}

func ProvideEngagementService(db store.PromptStates, cfg *config.Config) engagement.Service {
	return engagement.New(db, cfg.Engagement)
}

func ProvidePaymentService(db store.Sessions, gateway *paygatepkg.Client, sessions session.Service, cfg *config.Config) payment.Service {
	return payment.New(db, gateway, sessions, cfg)
}
