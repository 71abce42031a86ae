package sales

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/obs"
)

// Handler exposes the sales ledger over HTTP.
type Handler struct {
	Recorder *Recorder
	Reports  *Reports
	Returns  *Returns
	Validate *validator.Validate
}

type returnRequest struct {
	Items        []returnItemPayload `json:"items" validate:"required,min=1,dive"`
	RefundAmount float64             `json:"refundAmount" validate:"required,gt=0"`
}

type returnItemPayload struct {
	ProductID string  `json:"productId" validate:"required"`
	Quantity  float64 `json:"quantity" validate:"gt=0"`
}

// List returns ledger records for an optional date range.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	records, err := h.Reports.List(r.Context(), start, end)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": records})
}

// Summary returns headline numbers for a date range.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	start := strings.TrimSpace(r.URL.Query().Get("start"))
	end := strings.TrimSpace(r.URL.Query().Get("end"))
	summary, err := h.Reports.Summarize(r.Context(), start, end)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": summary})
}

// Get returns one sale by order number.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.Recorder.GetByOrderNumber(r.Context(), chi.URLParam(r, "orderNumber"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "sale not found", nil)
			return
		}
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": record})
}

// Return reverses part or all of a prior order.
func (h *Handler) Return(w http.ResponseWriter, r *http.Request) {
	var req returnRequest
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
	lines := make([]ReturnLine, 0, len(req.Items))
	for _, it := range req.Items {
		lines = append(lines, ReturnLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	record, err := h.Returns.Process(r.Context(), chi.URLParam(r, "orderNumber"), lines, req.RefundAmount)
	if err != nil {
		if errors.Is(err, ErrPartialReturn) {
			// The refund record exists; the operator must reconcile stock.
			countReturn("partial")
			common.JSON(w, http.StatusOK, map[string]any{
				"data":    record,
				"warning": err.Error(),
			})
			return
		}
		countReturn("rejected")
		if errors.Is(err, ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
			return
		}
		common.WriteAppError(w, err)
		return
	}
	countReturn("ok")
	common.JSON(w, http.StatusCreated, map[string]any{"data": record})
}

func countReturn(result string) {
	if obs.ReturnsTotal != nil {
		obs.ReturnsTotal.WithLabelValues(result).Inc()
	}
}
