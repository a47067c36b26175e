package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/calmora/calmora_backend/config"
	"github.com/calmora/calmora_backend/internal/api/http/handler"
	"github.com/calmora/calmora_backend/internal/service/engagement"
	"github.com/calmora/calmora_backend/internal/service/payment"
	"github.com/calmora/calmora_backend/internal/service/session"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Redis         *redis.Client
	SessionSvc    session.Service
	EngagementSvc engagement.Service
	PaymentSvc    payment.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Handlers
	sessionH := handler.NewSessionHandler(r.p.SessionSvc)
	engagementH := handler.NewEngagementHandler(r.p.EngagementSvc)
	paymentH := handler.NewPaymentHandler(r.p.PaymentSvc)

	api := app.Group("/api/v1")

	// 3. Delegate to sub-files
	r.registerSessionRoutes(api, sessionH)
	r.registerEngagementRoutes(api, engagementH)
	r.registerPaymentRoutes(api, paymentH)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool {
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
