package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/calmora/calmora_backend/internal/api/http/handler"
)

func (r *Router) registerSessionRoutes(api fiber.Router, sh *handler.SessionHandler) {
	sessions := api.Group("/sessions")

	sessions.Get("/", sh.List)
	sessions.Post("/", sh.Book)

	s := sessions.Group("/:id")
	s.Get("/", sh.GetByID)

	s.Post("/intake", sh.SubmitIntake)
	s.Post("/intake/skip", sh.SkipIntake)
	s.Post("/waiting-room", sh.EnterWaitingRoom)

	s.Get("/can-join", sh.CanJoin)
	s.Post("/join", sh.Join)

	s.Post("/disconnect", sh.Disconnect)
	s.Post("/reconnect", sh.Reconnect)
	s.Post("/end", sh.End)
	s.Post("/cancel", sh.Cancel)

	s.Post("/feedback", sh.SubmitFeedback)
	s.Post("/feedback/skip", sh.SkipFeedback)
}
