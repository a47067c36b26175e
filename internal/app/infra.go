package app

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/store"
	"github.com/calmora/calmora_backend/internal/store/redisstore"
	"github.com/calmora/calmora_backend/pkg/email"
	"github.com/calmora/calmora_backend/pkg/observability"
	paygatepkg "github.com/calmora/calmora_backend/pkg/paygate"
	redispkg "github.com/calmora/calmora_backend/pkg/redis"
	"github.com/calmora/calmora_backend/pkg/sms"
)

// InfraModule provides all infrastructure dependencies.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideSessionStore),
	fx.Provide(ProvidePromptStateStore),
	fx.Provide(ProvideEmailClient),
	fx.Provide(ProvideSMSClient),
	fx.Provide(ProvidePayGateClient),
	fx.Provide(ProvideOTel),
)

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(cfg.Redis)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.Nats.URL)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideSessionStore(rdb *redis.Client, cfg *config.Config) (store.Sessions, error) {
	return redisstore.NewSessions(rdb, cfg.Privacy.EncryptionKey)
}

func ProvidePromptStateStore(rdb *redis.Client) store.PromptStates {
	return redisstore.NewPromptStates(rdb)
}

func ProvideEmailClient(cfg *config.Config) (*email.Client, error) {
	return email.NewFromCentral(cfg.Email)
}

func ProvideSMSClient(cfg *config.Config) (*sms.Client, error) {
	return sms.NewFromConfig(cfg.SMS)
}

func ProvidePayGateClient(cfg *config.Config) *paygatepkg.Client {
	return paygatepkg.New(cfg.PayGate)
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	slog.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			slog.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}
