package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redirect"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"net/http"
	"strings"
	"time"
)

const msgNotConfirmed = "order could not be confirmed"

type Materializer interface {
	Materialize(ctx context.Context, sessionID string) (orders.Order, error)
}

type OrdersHandler struct {
	Materializer Materializer
	Store        orders.Store
	Redis        *redis.Client
}

type ConfirmReq struct {
	SessionID string `json:"sessionId"`
}

func (h *OrdersHandler) Register(r chi.Router) {
	r.Post("/api/create-order", h.createOrder)
	r.Get("/api/orders/{number}", h.getOrder)
	r.Get("/success", h.success)
	r.Get("/cancel", h.cancel)
}

func (h *OrdersHandler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req ConfirmReq
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session id required")
		return
	}
	h.confirm(w, r, req.SessionID)
}

// success is the processor's return destination. One request is one page
// load, so the trigger confirms at most once.
func (h *OrdersHandler) success(w http.ResponseWriter, r *http.Request) {
	t := redirect.NewTrigger(h.Materializer.Materialize)
	o, err := t.Handle(r.Context(), r.URL)
	switch {
	case errors.Is(err, redirect.ErrNoSessionID):
		writeJSON(w, http.StatusOK, map[string]string{"status": "no_session"})
	case err != nil:
		writeError(w, http.StatusInternalServerError, msgNotConfirmed)
	default:
		writeJSON(w, http.StatusOK, orders.Confirmation{OrderNumber: o.Number, Order: o})
	}
}

func (h *OrdersHandler) cancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (h *OrdersHandler) confirm(w http.ResponseWriter, r *http.Request, sessionID string) {
	o, err := h.Materializer.Materialize(r.Context(), sessionID)
	if err != nil {
		// materializer sudah log kind + cause; user cukup pesan generik
		writeError(w, http.StatusInternalServerError, msgNotConfirmed)
		return
	}
	writeJSON(w, http.StatusOK, orders.Confirmation{OrderNumber: o.Number, Order: o})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "number")
	if number == "" {
		writeError(w, http.StatusBadRequest, "missing order number")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// 1) coba cache
	key := fmt.Sprintf(redisx.KeyOrder, number)
	if h.Redis != nil {
		var cached orders.Order
		if err := redisx.GetJSON(ctx, h.Redis, key, &cached); err == nil {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	// 2) fallback DB
	o, err := h.Store.GetByNumber(ctx, number)
	if errors.Is(err, orders.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if h.Redis != nil {
		_ = redisx.SetJSON(ctx, h.Redis, key, o, redisx.TTLOrderCache)
	}
	writeJSON(w, http.StatusOK, o)
}
