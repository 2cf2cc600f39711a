package sms

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/arsmn/go-smsir/smsir"

	"github.com/pawcare/vetclinic_backend/config"
)

var ErrMissingRecipient = errors.New("phone number is required")

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client             *smsir.Client
	enabled            bool
	reminderTemplateID string
}

// NewFromConfig creates a new SMS client from the application configuration.
// If SMS is disabled, returns a client that no-ops on all operations.
func NewFromConfig(cfg config.SMSConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{enabled: false}, nil
	}

	if cfg.SMSIR.APIKey == "" {
		return nil, fmt.Errorf("sms.ir API key required when SMS enabled")
	}
	if cfg.SMSIR.ReminderTemplateID == "" {
		return nil, fmt.Errorf("sms.ir reminder template ID required when SMS enabled")
	}

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:             client,
		enabled:            true,
		reminderTemplateID: cfg.SMSIR.ReminderTemplateID,
	}, nil
}

// SendTemplate sends an sms.ir ultra-fast template message. Every key in
// params must exist as a parameter of the template.
// If SMS is disabled, this is a no-op and returns nil.
func (c *Client) SendTemplate(ctx context.Context, phoneNumber, templateID string, params map[string]string) error {
	if !c.enabled {
		return nil
	}

	if phoneNumber == "" {
		return ErrMissingRecipient
	}
	if templateID == "" {
		return fmt.Errorf("template ID is required")
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     phoneNumber,
		TemplateID: templateID,
		Parameters: templateParams(params),
	}

	if _, err := c.client.Verification.UltraFastSend(ctx, req); err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}
	return nil
}

// SendReminder sends the appointment reminder template with the name, date
// and time parameters.
func (c *Client) SendReminder(ctx context.Context, phoneNumber, name, date, time string) error {
	return c.SendTemplate(ctx, phoneNumber, c.reminderTemplateID, map[string]string{
		"name": name,
		"date": date,
		"time": time,
	})
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}

// templateParams orders params by key so requests are reproducible.
func templateParams(params map[string]string) []smsir.UltraFastParameter {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]smsir.UltraFastParameter, 0, len(keys))
	for _, k := range keys {
		out = append(out, smsir.UltraFastParameter{Key: k, Value: params[k]})
	}
	return out
}
