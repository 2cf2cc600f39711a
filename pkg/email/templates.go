package email

import (
	"fmt"
	"html"
	"strings"
)

// ReminderEmailData contains the data needed for the appointment reminder.
type ReminderEmailData struct {
	Email      string
	Name       string
	Date       string // YYYY-MM-DD
	Time       string // slot label, e.g. "9:00 AM"
	Pets       []string
	Services   []string
	ClinicName string
}

// BuildAppointmentReminderEmail creates the reminder sent to a customer
// before their visit.
func BuildAppointmentReminderEmail(data ReminderEmailData) Message {
	clinic := data.ClinicName
	if clinic == "" {
		clinic = "the clinic"
	}

	name := data.Name
	if name == "" {
		name = "there"
	}

	subject := fmt.Sprintf("Reminder: your appointment on %s at %s", data.Date, data.Time)

	var details strings.Builder
	if len(data.Pets) > 0 {
		fmt.Fprintf(&details, "Pets: %s\n", strings.Join(data.Pets, ", "))
	}
	if len(data.Services) > 0 {
		fmt.Fprintf(&details, "Services: %s\n", strings.Join(data.Services, ", "))
	}

	textBody := fmt.Sprintf(`Hi %s,

This is a reminder of your appointment at %s on %s at %s.

%s
If you can no longer make it, please cancel from your account or call us.

Thanks,
%s`,
		name, clinic, data.Date, data.Time, details.String(), clinic)

	var rows strings.Builder
	if len(data.Pets) > 0 {
		fmt.Fprintf(&rows, "<li><strong>Pets:</strong> %s</li>", html.EscapeString(strings.Join(data.Pets, ", ")))
	}
	if len(data.Services) > 0 {
		fmt.Fprintf(&rows, "<li><strong>Services:</strong> %s</li>", html.EscapeString(strings.Join(data.Services, ", ")))
	}

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>This is a reminder of your appointment at %s.</p>
    <p style="text-align: center; margin: 30px 0; background-color: #f0fdfa; padding: 20px; border-radius: 6px; font-size: 18px;">
        <strong>%s</strong> at <strong>%s</strong>
    </p>
    <ul>%s</ul>
    <p>If you can no longer make it, please cancel from your account or call us.</p>
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px;">Thanks,<br>%s</p>
</body>
</html>`,
		html.EscapeString(name), html.EscapeString(clinic),
		html.EscapeString(data.Date), html.EscapeString(data.Time),
		rows.String(), html.EscapeString(clinic))

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}
