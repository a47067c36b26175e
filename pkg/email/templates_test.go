package email

import (
	"strings"
	"testing"
)

func TestBuildSessionReminderEmail(t *testing.T) {
	m := BuildSessionReminderEmail(SessionEmailData{
		PatientName:   "Sara",
		Email:         "sara@example.com",
		ClinicianName: "Dr. Ahmadi",
		StartsAtLocal: "Tuesday, 10 March 2026 at 14:00",
		JoinURL:       "/sessions/abc/join",
	})

	if len(m.To) != 1 || m.To[0] != "sara@example.com" {
		t.Errorf("To = %v, want [sara@example.com]", m.To)
	}
	if !strings.Contains(m.Subject, "starts soon") {
		t.Errorf("Subject = %q, want a reminder subject", m.Subject)
	}
	for _, want := range []string{"Sara", "Dr. Ahmadi", "14:00", "/sessions/abc/join"} {
		if !strings.Contains(m.TextBody, want) {
			t.Errorf("TextBody missing %q", want)
		}
	}
	if !strings.Contains(m.HTMLBody, "/sessions/abc/join") {
		t.Error("HTMLBody missing join link")
	}
}

func TestSessionEmailDefaults(t *testing.T) {
	// Patients can book without giving a display name.
	m := BuildBookingConfirmationEmail(SessionEmailData{Email: "p@example.com"})
	if !strings.Contains(m.TextBody, "Hi there,") {
		t.Error("TextBody should fall back to a generic greeting")
	}
	if !strings.Contains(m.Subject, "Calmora") {
		t.Errorf("Subject = %q, want the default app name", m.Subject)
	}
}
