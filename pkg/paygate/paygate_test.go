package paygate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/calmora/calmora_backend/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.PayGateConfig{MerchantID: "merchant-1"}).
		WithBaseURL(srv.URL, srv.URL+"/checkout/")
}

func gatewayResponse(code int, fields map[string]any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{"code": code}
		for k, v := range fields {
			data[k] = v
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}
}

func TestRequestCharge(t *testing.T) {
	var gotBody map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/charge/request.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		gatewayResponse(100, map[string]any{"authority": "A0001"})(w, r)
	})

	authority, checkoutURL, err := c.RequestCharge(context.Background(), 900000, "therapy session", "https://app/callback")
	if err != nil {
		t.Fatalf("RequestCharge() error = %v", err)
	}
	if authority != "A0001" {
		t.Errorf("authority = %q, want A0001", authority)
	}
	if checkoutURL == "" || checkoutURL[len(checkoutURL)-5:] != "A0001" {
		t.Errorf("checkoutURL = %q, want suffix A0001", checkoutURL)
	}
	if gotBody["merchant_id"] != "merchant-1" {
		t.Errorf("merchant_id = %v", gotBody["merchant_id"])
	}
	if gotBody["amount"] != float64(900000) {
		t.Errorf("amount = %v", gotBody["amount"])
	}
}

func TestRequestChargeValidationError(t *testing.T) {
	c := newTestClient(t, gatewayResponse(-9, nil))

	_, _, err := c.RequestCharge(context.Background(), 0, "", "")
	if !errors.Is(err, ErrValidation) {
		t.Errorf("RequestCharge() error = %v, want ErrValidation", err)
	}
}

func TestRequestChargeMissingAuthority(t *testing.T) {
	c := newTestClient(t, gatewayResponse(100, nil))

	_, _, err := c.RequestCharge(context.Background(), 900000, "d", "cb")
	if !errors.Is(err, ErrUnexpectedResponse) {
		t.Errorf("RequestCharge() error = %v, want ErrUnexpectedResponse", err)
	}
}

func TestVerifyCharge(t *testing.T) {
	tests := []struct {
		name            string
		code            int
		wantErr         error
		alreadyVerified bool
	}{
		{"success", 100, nil, false},
		{"already verified", 101, nil, true},
		{"validation", -9, ErrValidation, false},
		{"amount mismatch", -50, ErrAmountMismatch, false},
		{"charge failed", -51, ErrChargeFailed, false},
		{"invalid authority", -54, ErrInvalidAuthority, false},
		{"authority not found", -55, ErrAuthorityNotFound, false},
		{"unknown code", -99, ErrUnexpectedResponse, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, gatewayResponse(tt.code, map[string]any{"reference": "R42"}))

			reference, alreadyVerified, err := c.VerifyCharge(context.Background(), "A0001", 900000)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("VerifyCharge() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("VerifyCharge() error = %v", err)
			}
			if reference != "R42" {
				t.Errorf("reference = %q, want R42", reference)
			}
			if alreadyVerified != tt.alreadyVerified {
				t.Errorf("alreadyVerified = %v, want %v", alreadyVerified, tt.alreadyVerified)
			}
		})
	}
}

func TestPostDecodesErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "not json")
	})

	_, _, err := c.RequestCharge(context.Background(), 900000, "d", "cb")
	if err == nil {
		t.Error("RequestCharge() expected decode error")
	}
}
