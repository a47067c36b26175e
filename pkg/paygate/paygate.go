// Package paygate provides a minimal HTTP client for the hosted payment
// gateway. The gateway is a black box to the rest of the system: a charge is
// requested up front, the patient pays on the gateway's page, and the result
// comes back asynchronously through the callback URL.
package paygate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/calmora/calmora_backend/config"
)

var (
	ErrChargeFailed       = errors.New("paygate: charge failed or cancelled by user")
	ErrValidation         = errors.New("paygate: validation error")
	ErrAmountMismatch     = errors.New("paygate: amount does not match original request")
	ErrInvalidAuthority   = errors.New("paygate: invalid authority")
	ErrAuthorityNotFound  = errors.New("paygate: authority not found")
	ErrUnexpectedResponse = errors.New("paygate: unexpected response from gateway")
)

// Client is a lightweight gateway HTTP client.
type Client struct {
	merchantID string
	baseURL    string
	payPageURL string
	httpClient *http.Client
}

// New creates a Client from config. Uses sandbox endpoints when cfg.Sandbox
// is true.
func New(cfg config.PayGateConfig) *Client {
	baseURL := "https://gateway.calmora.app/pg/v2"
	payPageURL := "https://gateway.calmora.app/pg/checkout/"
	if cfg.Sandbox {
		baseURL = "https://sandbox.gateway.calmora.app/pg/v2"
		payPageURL = "https://sandbox.gateway.calmora.app/pg/checkout/"
	}
	return &Client{
		merchantID: cfg.MerchantID,
		baseURL:    baseURL,
		payPageURL: payPageURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the gateway endpoints; used by tests.
func (c *Client) WithBaseURL(baseURL, payPageURL string) *Client {
	c.baseURL = baseURL
	c.payPageURL = payPageURL
	return c
}

// RequestCharge initiates a charge and returns (authority, checkoutURL, error).
// The authority is the gateway's token for this charge; it comes back on the
// callback and is the key for verification.
func (c *Client) RequestCharge(ctx context.Context, amount int64, desc, callbackURL string) (authority string, checkoutURL string, err error) {
	reqBody := map[string]any{
		"merchant_id":  c.merchantID,
		"amount":       amount,
		"description":  desc,
		"callback_url": callbackURL,
	}

	var resp struct {
		Data struct {
			Code      int    `json:"code"`
			Authority string `json:"authority"`
			Message   string `json:"message"`
		} `json:"data"`
		Errors any `json:"errors"`
	}

	if err := c.post(ctx, "/charge/request.json", reqBody, &resp); err != nil {
		return "", "", fmt.Errorf("paygate request: %w", err)
	}

	switch resp.Data.Code {
	case 100:
		// success
	case -9:
		return "", "", ErrValidation
	default:
		return "", "", fmt.Errorf("%w (code=%d, msg=%s)", ErrUnexpectedResponse, resp.Data.Code, resp.Data.Message)
	}

	if resp.Data.Authority == "" {
		return "", "", ErrUnexpectedResponse
	}

	return resp.Data.Authority, c.payPageURL + resp.Data.Authority, nil
}

// VerifyCharge verifies a charge after the user returns from the gateway.
// Returns (reference, alreadyVerified, error). alreadyVerified=true means
// code 101, an idempotent re-verify, treated as success.
func (c *Client) VerifyCharge(ctx context.Context, authority string, amount int64) (reference string, alreadyVerified bool, err error) {
	reqBody := map[string]any{
		"merchant_id": c.merchantID,
		"amount":      amount,
		"authority":   authority,
	}

	var resp struct {
		Data struct {
			Code      int    `json:"code"`
			Reference string `json:"reference"`
			Message   string `json:"message"`
		} `json:"data"`
		Errors any `json:"errors"`
	}

	if err := c.post(ctx, "/charge/verify.json", reqBody, &resp); err != nil {
		return "", false, fmt.Errorf("paygate verify: %w", err)
	}

	switch resp.Data.Code {
	case 100:
		return resp.Data.Reference, false, nil
	case 101:
		return resp.Data.Reference, true, nil
	case -9:
		return "", false, ErrValidation
	case -50:
		return "", false, ErrAmountMismatch
	case -51:
		return "", false, ErrChargeFailed
	case -54:
		return "", false, ErrInvalidAuthority
	case -55:
		return "", false, ErrAuthorityNotFound
	default:
		return "", false, fmt.Errorf("%w (code=%d, msg=%s)", ErrUnexpectedResponse, resp.Data.Code, resp.Data.Message)
	}
}

// post sends a JSON POST request to baseURL+path and decodes the JSON
// response into out.
func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
