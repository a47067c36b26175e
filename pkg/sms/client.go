// Package sms sends session reminders via sms.ir.
package sms

import (
	"context"
	"fmt"

	"github.com/arsmn/go-smsir/smsir"
	"github.com/nyaruka/phonenumbers"

	"github.com/calmora/calmora_backend/config"
)

// defaultRegion is assumed for numbers submitted without a country code.
const defaultRegion = "IR"

// Client provides SMS sending functionality via sms.ir.
type Client struct {
	client     *smsir.Client
	templateID string
	enabled    bool
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

	client := smsir.NewClient().WithAuthentication(cfg.SMSIR.APIKey, cfg.SMSIR.SecretKey)

	return &Client{
		client:     client,
		templateID: cfg.SMSIR.TemplateID,
		enabled:    true,
	}, nil
}

// NormalizePhone validates a phone number and returns it in E.164 format.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, defaultRegion)
	if err != nil {
		return "", fmt.Errorf("parse phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("invalid phone number %q", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

// SendSessionReminder sends a reminder with the session's local start time.
// If SMS is disabled, this is a no-op and returns nil.
//
// The configured template must have a parameter named "time".
func (c *Client) SendSessionReminder(ctx context.Context, phoneNumber, startsAt string) error {
	if !c.enabled {
		// No-op when disabled (useful for development)
		return nil
	}

	if c.templateID == "" {
		return fmt.Errorf("template ID is required")
	}
	if startsAt == "" {
		return fmt.Errorf("start time is required")
	}

	normalized, err := NormalizePhone(phoneNumber)
	if err != nil {
		return err
	}

	req := &smsir.UltraFastSendRequest{
		Mobile:     normalized,
		TemplateID: c.templateID,
		Parameters: []smsir.UltraFastParameter{
			{Key: "time", Value: startsAt},
		},
	}

	_, err = c.client.Verification.UltraFastSend(ctx, req)
	if err != nil {
		return fmt.Errorf("sms.ir send failed: %w", err)
	}

	return nil
}

// IsEnabled returns whether SMS sending is enabled.
func (c *Client) IsEnabled() bool {
	return c.enabled
}
