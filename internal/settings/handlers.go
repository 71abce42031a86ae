package settings

import (
	"encoding/json"
	"net/http"

	"github.com/noah-isme/backend-pos/internal/common"
)

// Handler exposes store settings over HTTP.
type Handler struct {
	Svc *Service
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.Svc.Get(r.Context())
	if err != nil {
		common.WriteAppError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": st})
}

func (h *Handler) Put(w http.ResponseWriter, r *http.Request) {
	var st Store
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	saved, err := h.Svc.Save(r.Context(), st)
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": saved})
}
