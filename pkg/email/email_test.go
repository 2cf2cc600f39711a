package email

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestBuildAppointmentReminderEmail(t *testing.T) {
	m := BuildAppointmentReminderEmail(ReminderEmailData{
		Email:      "ana@example.com",
		Name:       "Ana <Reyes>",
		Date:       "2030-01-03",
		Time:       "9:00 AM",
		Pets:       []string{"Rex"},
		Services:   []string{"Vaccination", "Consultation"},
		ClinicName: "PawCare",
	})

	if len(m.To) != 1 || m.To[0] != "ana@example.com" {
		t.Errorf("To = %v", m.To)
	}
	if !strings.Contains(m.Subject, "2030-01-03") || !strings.Contains(m.Subject, "9:00 AM") {
		t.Errorf("Subject missing date/time: %q", m.Subject)
	}
	if !strings.Contains(m.TextBody, "Services: Vaccination, Consultation") {
		t.Errorf("TextBody missing services: %q", m.TextBody)
	}
	if !strings.Contains(m.HTMLBody, "Ana &lt;Reyes&gt;") {
		t.Error("HTMLBody should escape the customer name")
	}
}

func TestBuildMessage(t *testing.T) {
	tests := []struct {
		name    string
		from    string
		msg     Message
		wantErr bool
	}{
		{"valid text", "clinic@example.com", Message{To: []string{"a@example.com"}, Subject: "Hi", TextBody: "body"}, false},
		{"valid html", "clinic@example.com", Message{To: []string{"a@example.com"}, Subject: "Hi", HTMLBody: "<p>x</p>"}, false},
		{"missing from", " ", Message{To: []string{"a@example.com"}, Subject: "Hi", TextBody: "body"}, true},
		{"missing subject", "clinic@example.com", Message{To: []string{"a@example.com"}, TextBody: "body"}, true},
		{"missing body", "clinic@example.com", Message{To: []string{"a@example.com"}, Subject: "Hi"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := buildMessage(tt.from, tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("buildMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSendDisabled(t *testing.T) {
	c, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if c.IsEnabled() {
		t.Fatal("default config should be disabled")
	}
	err = c.Send(context.Background(), Message{To: []string{"a@example.com"}, Subject: "Hi", TextBody: "x"})
	if !errors.As(err, &ErrDisabled{}) {
		t.Errorf("Send() error = %v, want ErrDisabled", err)
	}
}

func TestNewRequiresHostWhenEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.From = "clinic@example.com"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for missing SMTP host")
	}
}

func TestCleanAddrs(t *testing.T) {
	got := cleanAddrs([]string{" a@example.com ", "", "  "})
	if len(got) != 1 || got[0] != "a@example.com" {
		t.Errorf("cleanAddrs() = %v", got)
	}
}
