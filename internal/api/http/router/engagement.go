package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/calmora/calmora_backend/internal/api/http/handler"
)

func (r *Router) registerEngagementRoutes(api fiber.Router, eh *handler.EngagementHandler) {
	eng := api.Group("/engagement/:installation_id")

	eng.Get("/prompt", eh.ShouldPrompt)
	eng.Post("/prompt", eh.RecordPromptShown)
}
