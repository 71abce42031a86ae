package payment

import (
	"context"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/receipt"
	"github.com/noah-isme/backend-pos/internal/sales"
)

func countWebhook(result string) {
	if obs.PaymentWebhookTotal != nil {
		obs.PaymentWebhookTotal.WithLabelValues(result).Inc()
	}
}

// ReplayProtector claims a webhook delivery exactly once.
type ReplayProtector interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// RedisReplayProtector implements ReplayProtector with SETNX semantics.
type RedisReplayProtector struct {
	Client *redis.Client
}

func (r RedisReplayProtector) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if r.Client == nil {
		return true, nil
	}
	return r.Client.SetNX(ctx, key, "1", ttl).Result()
}

// amountTolerance absorbs minor-unit rounding between the gateway and the
// ledger's floating totals.
const amountTolerance = 0.01

// Webhook confirms online payments against the sales ledger. The gateway
// retries deliveries on non-2xx responses, so terminal conditions are
// acknowledged with 200 and only transient failures return errors.
type Webhook struct {
	Verifier  Razorpay
	Replay    ReplayProtector
	ReplayTTL time.Duration
	Sales     *sales.Recorder
	Receipts  *receipt.Enqueuer
	Logger    zerolog.Logger
}

// Handle processes one gateway callback.
func (h *Webhook) Handle(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "INVALID_BODY", "unable to read payload", nil)
		return
	}
	event, err := h.Verifier.VerifyWebhook(r, body)
	if err != nil {
		if errors.Is(err, ErrBadSignature) {
			h.Logger.Warn().Str("remote", r.RemoteAddr).Msg("webhook signature rejected")
			countWebhook("bad_signature")
			common.JSONError(w, http.StatusUnauthorized, "BAD_SIGNATURE", "signature verification failed", nil)
			return
		}
		common.JSONError(w, http.StatusBadRequest, "INVALID_PAYLOAD", err.Error(), nil)
		return
	}
	if !event.Captured() {
		countWebhook("ignored")
		common.JSON(w, http.StatusOK, map[string]any{"status": "ignored", "event": event.Kind})
		return
	}

	ttl := h.ReplayTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if h.Replay != nil {
		fresh, err := h.Replay.Acquire(r.Context(), "payment:webhook:"+event.ID, ttl)
		if err != nil {
			common.JSONError(w, http.StatusInternalServerError, "REPLAY_GUARD", err.Error(), nil)
			return
		}
		if !fresh {
			countWebhook("duplicate")
			common.JSON(w, http.StatusOK, map[string]any{"status": "duplicate"})
			return
		}
	}

	record, err := h.Sales.GetByOrderNumber(r.Context(), event.OrderNumber)
	if err != nil {
		if errors.Is(err, sales.ErrNotFound) {
			// Terminal: retrying will not make the order appear.
			h.Logger.Error().
				Str("order_number", event.OrderNumber).
				Str("payment_id", event.PaymentID).
				Msg("captured payment for unknown order")
			countWebhook("unknown_order")
			common.JSON(w, http.StatusOK, map[string]any{"status": "unknown_order"})
			return
		}
		common.WriteAppError(w, err)
		return
	}

	expected := record.Total
	if record.PaymentMethod == sales.PaySplit && record.Split != nil {
		expected = record.Split.Online
	}
	if math.Abs(event.Amount-expected) > amountTolerance {
		h.Logger.Error().
			Str("order_number", event.OrderNumber).
			Str("payment_id", event.PaymentID).
			Float64("expected", expected).
			Float64("captured", event.Amount).
			Msg("captured amount does not match ledger")
		countWebhook("amount_mismatch")
		common.JSON(w, http.StatusOK, map[string]any{"status": "amount_mismatch"})
		return
	}

	h.Logger.Info().
		Str("order_number", event.OrderNumber).
		Str("payment_id", event.PaymentID).
		Float64("amount", event.Amount).
		Msg("online payment confirmed")
	countWebhook("confirmed")
	h.Receipts.Enqueue(r.Context(), record.OrderNumber)
	common.JSON(w, http.StatusOK, map[string]any{"status": "confirmed"})
}
