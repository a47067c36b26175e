package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/calmora/calmora_backend/internal/model"
	"github.com/calmora/calmora_backend/internal/service/session"
)

type SessionHandler struct {
	svc session.Service
}

func NewSessionHandler(svc session.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

func mapSessionError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, session.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, session.ErrInvalidTransition):
		return conflict(c, err.Error())
	case errors.Is(err, session.ErrPaymentConflict):
		return conflict(c, err.Error())
	case errors.Is(err, session.ErrInvalidIntake):
		return unprocessable(c, err.Error())
	case errors.Is(err, session.ErrInvalidFeedback):
		return unprocessable(c, err.Error())
	default:
		return internalError(c)
	}
}

func sessionIDFromParams(c fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// parseNow reads an optional RFC3339 "now" query override. Clients in odd
// timezones and tests use it; absent, the server clock decides.
func parseNow(c fiber.Ctx) (time.Time, error) {
	raw := c.Query("now")
	if raw == "" {
		return time.Now(), nil
	}
	return time.Parse(time.RFC3339, raw)
}

// POST /sessions
func (h *SessionHandler) Book(c fiber.Ctx) error {
	var body struct {
		ClinicianID    string    `json:"clinician_id"`
		PatientID      string    `json:"patient_id"`
		ScheduledStart time.Time `json:"scheduled_start"`
		Modality       string    `json:"modality"`
		Amount         int64     `json:"amount"`
		ContactName    string    `json:"contact_name"`
		ContactEmail   string    `json:"contact_email"`
		ContactPhone   string    `json:"contact_phone"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	clinicianID, err := uuid.Parse(body.ClinicianID)
	if err != nil {
		return badRequest(c, "invalid clinician_id")
	}
	patientID, err := uuid.Parse(body.PatientID)
	if err != nil {
		return badRequest(c, "invalid patient_id")
	}

	sess, err := h.svc.Book(c.Context(), session.BookRequest{
		ClinicianID:    clinicianID,
		PatientID:      patientID,
		ScheduledStart: body.ScheduledStart,
		Modality:       model.Modality(body.Modality),
		Amount:         body.Amount,
		Contact: model.Contact{
			Name:  body.ContactName,
			Email: body.ContactEmail,
			Phone: body.ContactPhone,
		},
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return created(c, sess)
}

// GET /sessions?state=waiting
func (h *SessionHandler) List(c fiber.Ctx) error {
	state := c.Query("state")
	if state == "" {
		return badRequest(c, "state query parameter is required")
	}

	sessions, err := h.svc.ListByState(c.Context(), model.State(state))
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sessions)
}

// GET /sessions/:id
func (h *SessionHandler) GetByID(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.GetByID(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/intake
func (h *SessionHandler) SubmitIntake(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	var body struct {
		MoodRating int      `json:"mood_rating"`
		Symptoms   []string `json:"symptoms"`
		Notes      string   `json:"notes"`
		Urgent     bool     `json:"urgent"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.svc.SubmitIntake(c.Context(), id, session.IntakeRequest{
		MoodRating: body.MoodRating,
		Symptoms:   body.Symptoms,
		Notes:      body.Notes,
		Urgent:     body.Urgent,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/intake/skip
func (h *SessionHandler) SkipIntake(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.SkipIntake(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/waiting-room
func (h *SessionHandler) EnterWaitingRoom(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.EnterWaitingRoom(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// GET /sessions/:id/can-join
func (h *SessionHandler) CanJoin(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}
	now, err := parseNow(c)
	if err != nil {
		return badRequest(c, "invalid now parameter, want RFC3339")
	}

	status, err := h.svc.CanJoinNow(c.Context(), id, now)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, fiber.Map{
		"ready":               status.Ready,
		"seconds_until_ready": status.SecondsUntilReady,
	})
}

// POST /sessions/:id/join
//
// A closed window is a decision, not an error: the response is 200 with an
// outcome the client renders as a countdown or a reschedule screen.
func (h *SessionHandler) Join(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}
	now, err := parseNow(c)
	if err != nil {
		return badRequest(c, "invalid now parameter, want RFC3339")
	}

	decision, err := h.svc.Join(c.Context(), id, now)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, fiber.Map{
		"outcome":            decision.Outcome,
		"seconds_until_open": decision.SecondsUntilOpen,
		"session":            decision.Session,
	})
}

// POST /sessions/:id/disconnect
func (h *SessionHandler) Disconnect(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.Disconnect(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/reconnect
func (h *SessionHandler) Reconnect(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.Reconnect(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/end
func (h *SessionHandler) End(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.End(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/cancel
func (h *SessionHandler) Cancel(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	var body struct {
		Reason      *string `json:"reason"`
		RequestedBy string  `json:"requested_by"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.svc.Cancel(c.Context(), id, session.CancelRequest{
		Reason:      body.Reason,
		RequestedBy: body.RequestedBy,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/feedback
func (h *SessionHandler) SubmitFeedback(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	var body struct {
		ClinicianRating int     `json:"clinician_rating"`
		SessionRating   int     `json:"session_rating"`
		Comments        *string `json:"comments"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return badRequest(c, "invalid request body")
	}

	sess, err := h.svc.SubmitFeedback(c.Context(), id, session.FeedbackRequest{
		ClinicianRating: body.ClinicianRating,
		SessionRating:   body.SessionRating,
		Comments:        body.Comments,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}

// POST /sessions/:id/feedback/skip
func (h *SessionHandler) SkipFeedback(c fiber.Ctx) error {
	id, err := sessionIDFromParams(c)
	if err != nil {
		return badRequest(c, "invalid session id")
	}

	sess, err := h.svc.SkipFeedback(c.Context(), id)
	if err != nil {
		return mapSessionError(c, err)
	}

	return ok(c, sess)
}
