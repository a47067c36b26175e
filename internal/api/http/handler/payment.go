package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/service/payment"
	"github.com/calmora/calmora_backend/internal/service/session"
)

type PaymentHandler struct {
	svc payment.Service
}

func NewPaymentHandler(svc payment.Service) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

func mapPaymentError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, session.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, payment.ErrNotPayable):
		return conflict(c, err.Error())
	case errors.Is(err, session.ErrPaymentConflict):
		return conflict(c, err.Error())
	case errors.Is(err, payment.ErrGatewayFailure):
		return internalError(c)
	default:
		return internalError(c)
	}
}

// POST /payments/pay
func (h *PaymentHandler) Initiate(c fiber.Ctx) error {
	var body struct {
		SessionID   string `json:"session_id"`
		Description string `json:"description"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}
	if body.Description == "" {
		return badRequest(c, "description is required")
	}

	sessionID, err := uuid.Parse(body.SessionID)
	if err != nil {
		return badRequest(c, "invalid session_id")
	}

	payURL, err := h.svc.Initiate(c.Context(), sessionID, body.Description)
	if err != nil {
		return mapPaymentError(c, err)
	}

	return ok(c, fiber.Map{"pay_url": payURL})
}

// GET /payments/verify
// Public callback from the gateway: ?Authority=...&Status=OK|NOK
func (h *PaymentHandler) Verify(c fiber.Ctx) error {
	authority := c.Query("Authority")
	status := c.Query("Status")

	if authority == "" {
		return badRequest(c, "missing Authority parameter")
	}

	sess, err := h.svc.HandleCallback(c.Context(), authority, status)
	if err != nil {
		return mapPaymentError(c, err)
	}

	if sess.Payment.Status != model.PaymentSucceeded {
		return c.Redirect().To("/payments/result?status=failed")
	}
	return c.Redirect().To("/payments/result?status=success&ref=" + sess.Payment.Reference)
}
