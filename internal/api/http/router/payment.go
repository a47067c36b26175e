package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/calmora/calmora_backend/internal/api/http/handler"
)

func (r *Router) registerPaymentRoutes(api fiber.Router, ph *handler.PaymentHandler) {
	// Public: gateway callback (no auth)
	api.Get("/payments/verify", ph.Verify)

	payments := api.Group("/payments")
	payments.Post("/pay", ph.Initiate)
}
