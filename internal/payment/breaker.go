package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Breaker trips after consecutive processor failures so callers fail fast
// instead of stacking timeouts.
type Breaker struct {
	next Processor
	cb   *gobreaker.CircuitBreaker[any]
}

type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func NewBreaker(next Processor, cfg BreakerConfig, log *slog.Logger) *Breaker {
	if cfg.Name == "" {
		cfg.Name = "payment-processor"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// unknown session id adalah jawaban valid, bukan gangguan
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSessionNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &Breaker{next: next, cb: gobreaker.NewCircuitBreaker[any](st)}
}

func (b *Breaker) CreateCheckoutSession(ctx context.Context, p SessionParams) (SessionHandle, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.CreateCheckoutSession(ctx, p)
	})
	if err != nil {
		return SessionHandle{}, breakerErr(err)
	}
	return v.(SessionHandle), nil
}

func (b *Breaker) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	v, err := b.cb.Execute(func() (any, error) {
		return b.next.RetrieveSession(ctx, id)
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return v.(*Session), nil
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
