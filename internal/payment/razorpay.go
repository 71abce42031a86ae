package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrBadSignature rejects callbacks whose HMAC does not match.
var ErrBadSignature = errors.New("invalid webhook signature")

// Event is the normalized payment callback: what happened, to which order,
// for how much. Amount is converted from the gateway's minor units to the
// currency amounts the ledger stores.
type Event struct {
	ID          string
	Kind        string
	PaymentID   string
	OrderNumber string
	Amount      float64
	Currency    string
}

// Captured reports whether the event settles money, as opposed to an
// informational or failure callback.
func (e Event) Captured() bool {
	return e.Kind == "payment.captured"
}

// Razorpay verifies gateway callbacks. The signature is HMAC-SHA256 over the
// raw request body with the webhook secret, hex encoded in the
// X-Razorpay-Signature header.
type Razorpay struct {
	WebhookSecret string
}

type razorpayEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string            `json:"id"`
				Amount   json.Number       `json:"amount"`
				Currency string            `json:"currency"`
				Status   string            `json:"status"`
				Notes    map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// VerifyWebhook checks the signature against the raw body and extracts the
// normalized event. The body must be the exact bytes received; any
// re-serialization breaks the HMAC.
func (rz Razorpay) VerifyWebhook(r *http.Request, body []byte) (Event, error) {
	secret := strings.TrimSpace(rz.WebhookSecret)
	if secret == "" {
		return Event{}, errors.New("webhook secret not configured")
	}
	provided := strings.TrimSpace(r.Header.Get("X-Razorpay-Signature"))
	if provided == "" {
		return Event{}, ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(provided)) {
		return Event{}, ErrBadSignature
	}

	var envelope razorpayEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return Event{}, err
	}
	entity := envelope.Payload.Payment.Entity

	minor, err := entity.Amount.Int64()
	if err != nil {
		if f, ferr := entity.Amount.Float64(); ferr == nil {
			minor = int64(f)
		}
	}

	return Event{
		ID:          webhookEventID(r, entity.ID),
		Kind:        envelope.Event,
		PaymentID:   entity.ID,
		OrderNumber: entity.Notes["order_number"],
		Amount:      float64(minor) / 100,
		Currency:    entity.Currency,
	}, nil
}

// webhookEventID prefers the gateway's delivery id header so a re-delivered
// event keeps its identity even when the payment id repeats across events.
func webhookEventID(r *http.Request, paymentID string) string {
	if id := strings.TrimSpace(r.Header.Get("X-Razorpay-Event-Id")); id != "" {
		return id
	}
	return paymentID
}
