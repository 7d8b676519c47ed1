package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	"github.com/go-chi/chi/v5"
	"net/http"
)

type Initiator interface {
	Initiate(ctx context.Context, req checkout.Request) (checkout.Handle, error)
}

type CheckoutHandler struct {
	Initiator Initiator
	Limiter   *IPRateLimiter
}

func (h *CheckoutHandler) Register(r chi.Router) {
	if h.Limiter != nil {
		r.With(h.Limiter.Middleware).Post("/api/checkout", h.create)
		return
	}
	r.Post("/api/checkout", h.create)
}

type validationResp struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func (h *CheckoutHandler) create(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	handle, err := h.Initiator.Initiate(r.Context(), req)
	var verr *checkout.ValidationError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, handle)
	case errors.Is(err, checkout.ErrEmptyCart):
		writeError(w, http.StatusBadRequest, "cart is empty")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResp{Error: "missing required fields", Fields: verr.Fields})
	default:
		// detail sudah di-log oleh initiator
		writeError(w, http.StatusInternalServerError, "could not start checkout")
	}
}
