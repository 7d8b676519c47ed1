package httpx

import (
	"context"
	"errors"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"io"
	"log/slog"
	"net/http"
)

const maxWebhookBody = 64 << 10

type WebhookParser interface {
	Parse(payload []byte, signature string) (payment.WebhookEvent, error)
}

// SessionSink receives sessions the processor reports as settled.
type SessionSink interface {
	Enqueue(ctx context.Context, sessionID, providerEventID, traceID string) error
}

type WebhookHandler struct {
	Parser WebhookParser
	Sink   SessionSink
	Log    *slog.Logger
}

func (h *WebhookHandler) Register(r chi.Router) {
	r.Post("/api/stripe/webhook", h.receive)
}

func (h *WebhookHandler) receive(w http.ResponseWriter, r *http.Request) {
	log := h.Log
	if log == nil {
		log = slog.Default()
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	ev, err := h.Parser.Parse(body, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, payment.ErrBadSignature) {
		log.Warn("webhook rejected", "err", err)
		writeError(w, http.StatusBadRequest, "invalid signature")
		return
	}
	if err != nil {
		log.Error("webhook undecodable", "kind", "integrity", "err", err)
		writeError(w, http.StatusBadRequest, "invalid event")
		return
	}
	if !ev.Settles() {
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
		return
	}

	if err := h.Sink.Enqueue(r.Context(), ev.SessionID, ev.ID, middleware.GetReqID(r.Context())); err != nil {
		// 5xx supaya processor kirim ulang
		log.Error("webhook enqueue failed", "kind", "remote", "event_id", ev.ID, "session_id", ev.SessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "enqueue failed")
		return
	}
	log.Info("webhook queued", "event_id", ev.ID, "session_id", ev.SessionID)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
