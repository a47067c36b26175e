package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/calmora/calmora_backend/internal/service/engagement"
)

type EngagementHandler struct {
	svc engagement.Service
}

func NewEngagementHandler(svc engagement.Service) *EngagementHandler {
	return &EngagementHandler{svc: svc}
}

// GET /engagement/:installation_id/prompt
func (h *EngagementHandler) ShouldPrompt(c fiber.Ctx) error {
	installationID := c.Params("installation_id")
	if installationID == "" {
		return badRequest(c, "installation id is required")
	}
	now, err := parseNow(c)
	if err != nil {
		return badRequest(c, "invalid now parameter, want RFC3339")
	}

	return ok(c, fiber.Map{
		"should_prompt": h.svc.ShouldPrompt(c.Context(), installationID, now),
	})
}

// POST /engagement/:installation_id/prompt
func (h *EngagementHandler) RecordPromptShown(c fiber.Ctx) error {
	installationID := c.Params("installation_id")
	if installationID == "" {
		return badRequest(c, "installation id is required")
	}
	now, err := parseNow(c)
	if err != nil {
		return badRequest(c, "invalid now parameter, want RFC3339")
	}

	st, err := h.svc.RecordPromptShown(c.Context(), installationID, now)
	if err != nil {
		if errors.Is(err, engagement.ErrPromptLimitReached) {
			return conflict(c, err.Error())
		}
		if errors.Is(err, engagement.ErrPersistenceUnavailable) {
			return serviceUnavailable(c, err.Error())
		}
		return internalError(c)
	}

	return ok(c, st)
}
