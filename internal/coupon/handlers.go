package coupon

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
	"github.com/noah-isme/backend-pos/internal/pricing"
)

// Handler exposes administrative coupon management endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type couponPayload struct {
	Code                 string   `json:"code" validate:"required"`
	Type                 string   `json:"type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value                float64  `json:"value" validate:"required,gt=0"`
	MinPurchase          float64  `json:"minPurchase" validate:"gte=0"`
	MaxDiscount          float64  `json:"maxDiscount" validate:"gte=0"`
	ApplicableProductIDs []string `json:"applicableProductIds"`
	ExpiryDate           string   `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	IsActive             *bool    `json:"isActive"`
}

type previewRequest struct {
	Code  string        `json:"code" validate:"required"`
	Items []previewItem `json:"items" validate:"required,min=1,dive"`
}

type previewItem struct {
	ProductID    string  `json:"productId" validate:"required"`
	Title        string  `json:"title"`
	Price        float64 `json:"price" validate:"gte=0"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	SoldByWeight bool    `json:"soldByWeight"`
}

func (p couponPayload) toModel() Coupon {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return Coupon{
		Code:                 p.Code,
		Type:                 DiscountType(p.Type),
		Value:                p.Value,
		MinPurchase:          p.MinPurchase,
		MaxDiscount:          p.MaxDiscount,
		ApplicableProductIDs: p.ApplicableProductIDs,
		ExpiryDate:           p.ExpiryDate,
		IsActive:             active,
	}
}

// Create inserts a new coupon definition.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.Svc.Create(r.Context(), payload.toModel())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update replaces a coupon definition by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.decode(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Svc.Update(r.Context(), id, payload.toModel()); err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": map[string]string{"id": id}})
}

// Delete removes a coupon definition.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Svc.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List returns all coupons for the admin view.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Svc.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": coupons})
}

// Preview evaluates a code against a posted cart without mutating state.
// The cart UI calls this on every change so a stale discount never sticks.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	lines := make([]pricing.Line, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, pricing.Line{
			ProductID:    it.ProductID,
			Title:        it.Title,
			UnitPrice:    it.Price,
			Quantity:     it.Quantity,
			SoldByWeight: it.SoldByWeight,
		})
	}
	result, err := h.Svc.Evaluate(r.Context(), req.Code, lines, pricing.Subtotal(lines))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if obs.CouponEvaluationsTotal != nil {
		outcome := "rejected"
		if result.Valid {
			outcome = "valid"
		}
		obs.CouponEvaluationsTotal.WithLabelValues(outcome).Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": result})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (couponPayload, bool) {
	var payload couponPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return couponPayload{}, false
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return couponPayload{}, false
		}
	}
	return payload, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrDuplicateCode):
		common.JSONError(w, http.StatusConflict, "CONFLICT", "coupon code already exists", nil)
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	default:
		common.WriteAppError(w, err)
	}
}
