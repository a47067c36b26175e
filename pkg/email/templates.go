package email

import (
	"fmt"
)

// SessionEmailData contains the data needed for session lifecycle emails.
type SessionEmailData struct {
	PatientName   string
	Email         string
	ClinicianName string
	StartsAtLocal string // formatted in the patient's timezone
	Modality      string // "video" or "audio"
	JoinURL       string
	AppName       string
}

func (d SessionEmailData) appName() string {
	if d.AppName == "" {
		return "Calmora"
	}
	return d.AppName
}

func (d SessionEmailData) patientName() string {
	if d.PatientName == "" {
		return "there"
	}
	return d.PatientName
}

// BuildBookingConfirmationEmail creates the confirmation sent once payment
// has cleared for a booked session.
func BuildBookingConfirmationEmail(data SessionEmailData) Message {
	appName := data.appName()

	subject := fmt.Sprintf("Your %s session is confirmed", appName)

	textBody := fmt.Sprintf(`Hi %s,

Your %s session with %s is confirmed.

When: %s
Format: %s call

You can join from the link below starting 5 minutes before your session:
%s

Take care,
The %s Team`,
		data.patientName(), appName, data.ClinicianName, data.StartsAtLocal, data.Modality, data.JoinURL, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p>Your %s session with <strong>%s</strong> is confirmed.</p>
    <p><strong>When:</strong> %s<br><strong>Format:</strong> %s call</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #2563eb; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">Join Session</a>
    </p>
    <p style="color: #6b7280; font-size: 14px;"><em>The join link opens 5 minutes before your session starts.</em></p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Take care,<br>The %s Team</p>
</body>
</html>`,
		data.patientName(), appName, data.ClinicianName, data.StartsAtLocal, data.Modality, data.JoinURL, appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildSessionReminderEmail creates the reminder sent shortly before the
// session's join window opens.
func BuildSessionReminderEmail(data SessionEmailData) Message {
	appName := data.appName()

	subject := fmt.Sprintf("Your %s session starts soon", appName)

	textBody := fmt.Sprintf(`Hi %s,

A reminder that your session with %s starts at %s.

Join here:
%s

If you can't make it, please cancel from the app so your clinician knows.

Take care,
The %s Team`,
		data.patientName(), data.ClinicianName, data.StartsAtLocal, data.JoinURL, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p>A reminder that your session with <strong>%s</strong> starts at <strong>%s</strong>.</p>
    <p style="text-align: center; margin: 30px 0;">
        <a href="%s" style="background-color: #16a34a; color: white; padding: 14px 28px; text-decoration: none; border-radius: 6px; display: inline-block; font-size: 16px;">Join Session</a>
    </p>
    <p style="color: #6b7280; font-size: 14px;"><em>If you can't make it, please cancel from the app so your clinician knows.</em></p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Take care,<br>The %s Team</p>
</body>
</html>`,
		data.patientName(), data.ClinicianName, data.StartsAtLocal, data.JoinURL, appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// BuildSessionCancelledEmail creates the notice sent when a session is
// cancelled, by either party or by payment failure.
func BuildSessionCancelledEmail(data SessionEmailData) Message {
	appName := data.appName()

	subject := fmt.Sprintf("Your %s session was cancelled", appName)

	textBody := fmt.Sprintf(`Hi %s,

Your session with %s scheduled for %s has been cancelled.

If this wasn't expected, you can rebook from the app at any time.

Take care,
The %s Team`,
		data.patientName(), data.ClinicianName, data.StartsAtLocal, appName)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #2563eb;">Hi %s,</h2>
    <p>Your session with <strong>%s</strong> scheduled for <strong>%s</strong> has been cancelled.</p>
    <p>If this wasn't expected, you can rebook from the app at any time.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Take care,<br>The %s Team</p>
</body>
</html>`,
		data.patientName(), data.ClinicianName, data.StartsAtLocal, appName)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
