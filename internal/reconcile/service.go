// Package reconcile is the second path into order materialization: processor
// webhooks are queued on Kafka and replayed here, so orders still appear when
// the shopper never returns to the success page.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	kafkax "github.com/cosmic-community/digital-cowboys-portfolio-website/internal/kafka"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/materializer"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"log/slog"
)

type Materializer interface {
	Materialize(ctx context.Context, sessionID string) (orders.Order, error)
}

type Service struct {
	Materializer Materializer
	Redis        *redis.Client
	ServiceName  string
	Log          *slog.Logger
}

// HandleSessionCompleted: dipasang sebagai handler consumer.
// Error retryable dikembalikan supaya offset tidak di-commit; anomali data di-log lalu di-ack.
func (s *Service) HandleSessionCompleted(ctx context.Context, m kafkago.Message) error {
	log := s.logger()

	// 1) decode envelope
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		log.Error("drop undecodable message", "offset", m.Offset, "err", err)
		return nil
	}
	if env.EventType != orders.EventCheckoutSessionCompleted {
		return nil
	} // ignore

	// 2) decode payload
	p, err := kafkax.UnwrapPayload[orders.CheckoutSessionCompletedPayload](env.Payload)
	if err != nil {
		log.Error("drop undecodable payload", "event_id", env.EventID, "err", err)
		return nil
	}
	log = log.With("event_id", env.EventID, "session_id", p.SessionID)

	// 3) klaim event_id via SETNX; materializer tetap idempotent kalau Redis tidak tersedia
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if s.Redis != nil {
		claimed, err := redisx.MarkOnce(ctx, s.Redis, dkey, redisx.TTLDedupClaim)
		if err != nil {
			log.Warn("dedup claim failed, materializing anyway", "err", err)
		} else if !claimed {
			if v, _ := s.Redis.Get(ctx, dkey).Result(); v == redisx.DedupDone {
				return nil
			}
			// klaim milik worker lain (atau crash); dicoba lagi sampai klaimnya selesai/kedaluwarsa
			return ErrInFlight
		}
	}

	// 4) materialize
	o, err := s.Materializer.Materialize(ctx, p.SessionID)
	switch {
	case err == nil:
		log.Info("session reconciled", "order_number", o.Number)
	case materializer.Retryable(err):
		if s.Redis != nil {
			_ = s.Redis.Del(ctx, dkey).Err()
		}
		return err
	default:
		log.Error("session not reconcilable", "kind", materializer.Kind(err), "err", err)
	}

	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, redisx.DedupDone, redisx.TTLDedup).Err()
	}
	return nil
}

func (s *Service) logger() *slog.Logger {
	l := s.Log
	if l == nil {
		l = slog.Default()
	}
	return l.With("component", "reconcile")
}

// Enqueuer puts settled sessions on the reconcile topic.
type Enqueuer struct {
	Producer    kafkax.Publisher
	ServiceName string
}

var ErrNoSession = errors.New("reconcile: event has no session id")

// ErrInFlight means another handler holds the claim for the same event.
var ErrInFlight = errors.New("reconcile: event is being handled elsewhere")

func (e *Enqueuer) Enqueue(ctx context.Context, sessionID, providerEventID, traceID string) error {
	if sessionID == "" {
		return ErrNoSession
	}
	ev, err := orders.NewEnvelope(orders.EventCheckoutSessionCompleted, e.ServiceName, traceID, sessionID,
		orders.CheckoutSessionCompletedPayload{SessionID: sessionID, ProviderEventID: providerEventID})
	if err != nil {
		return err
	}
	// event_id processor dipakai supaya retry webhook yang sama ter-dedup di consumer
	if providerEventID != "" {
		ev.EventID = providerEventID
	}
	return e.Producer.Publish(orders.PartitionKey(sessionID), kafkax.MustMarshal(ev),
		kafkax.EventHeaders(ev.EventType, ev.EventVersion)...)
}
