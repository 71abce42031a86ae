package cashbook

import (
	"encoding/json"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes the cash ledger over HTTP.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type entryPayload struct {
	Direction string  `json:"direction" validate:"required,oneof=IN OUT"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Reason    string  `json:"reason" validate:"required"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload entryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(payload); err != nil {
			common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
			return
		}
	}
	entry, err := h.Svc.Add(r.Context(), Entry{
		Direction:  Direction(payload.Direction),
		Amount:     payload.Amount,
		Reason:     payload.Reason,
		TerminalID: common.TerminalID(r.Context()),
	})
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": entry})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	date := strings.TrimSpace(r.URL.Query().Get("date"))
	entries, err := h.Svc.List(r.Context(), date)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	balance, err := h.Svc.Balance(r.Context(), date)
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":    entries,
		"balance": balance,
	})
}
