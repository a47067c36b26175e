// Package model holds the persisted domain records shared by the services
// and the store layer.
package model

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a session. Transitions are only legal
// along the edges encoded in service/session; a State never moves backwards
// except through the explicit cancel edge.
type State string

const (
	StateCreated          State = "created"
	StatePaymentConfirmed State = "payment_confirmed"
	StatePaymentFailed    State = "payment_failed"
	StateIntakeComplete   State = "intake_complete"
	StateIntakeSkipped    State = "intake_skipped"
	StateWaiting          State = "waiting"
	StateLive             State = "live"
	StateInterrupted      State = "interrupted"
	StateCompleted        State = "completed"
	StateCancelled        State = "cancelled"
	StateMissed           State = "missed"
	StateArchived         State = "archived"
)

// Terminal reports whether no further lifecycle transition is possible.
// completed is deliberately NOT terminal: it still accepts the feedback
// edge into archived. payment_failed is not terminal either; it can still
// be cancelled for bookkeeping.
func (s State) Terminal() bool {
	switch s {
	case StateCancelled, StateMissed, StateArchived:
		return true
	}
	return false
}

// Modality is the media type of the remote session.
type Modality string

const (
	ModalityVideo Modality = "video"
	ModalityAudio Modality = "audio"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
)

// Payment is the charge attached to a booking. Reference is the gateway
// receipt id, Authority the pre-payment token handed out at initiation.
type Payment struct {
	Status    PaymentStatus `json:"status"`
	Amount    int64         `json:"amount"`
	Reference string        `json:"reference,omitempty"`
	Authority string        `json:"authority,omitempty"`
}

// Contact is the patient's notification address book, captured at booking so
// the reminder workers need no directory lookup.
type Contact struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Name  string `json:"name,omitempty"`
}

// JoinWindow is the interval around the scheduled start during which a join
// is permitted. Computed once at booking from the configured grace periods.
type JoinWindow struct {
	OpensAt  time.Time `json:"opens_at"`
	ClosesAt time.Time `json:"closes_at"`
}

// Contains reports whether t lies inside the window, bounds inclusive.
func (w JoinWindow) Contains(t time.Time) bool {
	return !t.Before(w.OpensAt) && !t.After(w.ClosesAt)
}

// IntakeRecord is the patient's pre-session self-report. It is captured at
// most once per session and never modified afterwards; clinicians must be
// able to trust that what they see was not edited after the fact.
type IntakeRecord struct {
	MoodRating  int       `json:"mood_rating"` // 1..10
	Symptoms    []string  `json:"symptoms,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Urgent      bool      `json:"urgent"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Feedback is the post-session rating pair, present only once the session
// reached completed.
type Feedback struct {
	ClinicianRating int       `json:"clinician_rating"` // 1..5
	SessionRating   int       `json:"session_rating"`   // 1..5
	Comments        *string   `json:"comments,omitempty"`
	SubmittedAt     time.Time `json:"submitted_at"`
}

// Session is one scheduled therapy appointment instance and its accumulated
// state, from booking through archival.
type Session struct {
	ID          uuid.UUID `json:"id"`
	ClinicianID uuid.UUID `json:"clinician_id"`
	PatientID   uuid.UUID `json:"patient_id"`

	ScheduledStart time.Time  `json:"scheduled_start"`
	Modality       Modality   `json:"modality"`
	State          State      `json:"state"`
	JoinWindow     JoinWindow `json:"join_window"`
	Contact        Contact    `json:"contact,omitempty"`

	Payment  Payment       `json:"payment"`
	Intake   *IntakeRecord `json:"intake,omitempty"`
	Feedback *Feedback     `json:"feedback,omitempty"`

	CancelReason *string    `json:"cancel_reason,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
