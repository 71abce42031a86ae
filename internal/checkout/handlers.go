package checkout

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/sales"
)

// Handler exposes settlement over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Settle handles POST /checkout.
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	var in Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	in.TerminalID = common.TerminalID(r.Context())

	out, err := h.Svc.Settle(r.Context(), in)
	if err != nil {
		var stockErr *StockError
		if errors.As(err, &stockErr) {
			countCheckout(in.PaymentMethod, "stock_rejected")
			if obs.StockRejectionsTotal != nil {
				obs.StockRejectionsTotal.Inc()
			}
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", stockErr.Error(), map[string]any{
				"shortfalls": stockErr.Shortfalls,
			})
			return
		}
		var couponErr *CouponError
		if errors.As(err, &couponErr) {
			countCheckout(in.PaymentMethod, "coupon_rejected")
			common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", couponErr.Reason, nil)
			return
		}
		if errors.Is(err, ErrValidation) {
			countCheckout(in.PaymentMethod, "invalid")
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
		countCheckout(in.PaymentMethod, "error")
		common.WriteAppError(w, err)
		return
	}
	countCheckout(in.PaymentMethod, "ok")
	if obs.SaleAmount != nil {
		obs.SaleAmount.Observe(out.Order.Total)
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func countCheckout(method sales.PaymentMethod, result string) {
	if obs.CheckoutTotal == nil {
		return
	}
	obs.CheckoutTotal.WithLabelValues(string(method), result).Inc()
}
