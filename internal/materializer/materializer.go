// Package materializer turns a paid checkout session into a persisted order.
// Amounts and line items are always re-read from the processor; the browser
// only supplies the session id. Materialize is safe to call any number of
// times, from any number of callers, for the same session.
package materializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/checkout"
	kafkax "github.com/cosmic-community/digital-cowboys-portfolio-website/internal/kafka"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/orders"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/payment"
	"github.com/cosmic-community/digital-cowboys-portfolio-website/internal/redisx"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

type SessionRetriever interface {
	RetrieveSession(ctx context.Context, id string) (*payment.Session, error)
}

type Config struct {
	FlatShipping     decimal.Decimal
	ProcessorTimeout time.Duration
	StoreTimeout     time.Duration
	ServiceName      string
}

type Materializer struct {
	sessions  SessionRetriever
	store     orders.Store
	rdb       *redis.Client
	pub       kafkax.Publisher
	cfg       Config
	now       func() time.Time
	newNumber func(time.Time) string
	log       *slog.Logger
}

type Option func(*Materializer)

// WithRedis enables the idempotency fast path.
func WithRedis(rdb *redis.Client) Option { return func(m *Materializer) { m.rdb = rdb } }

// WithPublisher emits OrderConfirmed for newly created orders.
func WithPublisher(p kafkax.Publisher) Option { return func(m *Materializer) { m.pub = p } }

func WithClock(now func() time.Time) Option { return func(m *Materializer) { m.now = now } }

func WithOrderNumbers(fn func(time.Time) string) Option {
	return func(m *Materializer) { m.newNumber = fn }
}

func New(sessions SessionRetriever, store orders.Store, cfg Config, log *slog.Logger, opts ...Option) *Materializer {
	if cfg.ProcessorTimeout <= 0 {
		cfg.ProcessorTimeout = 10 * time.Second
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 5 * time.Second
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "shop-api"
	}
	if log == nil {
		log = slog.Default()
	}
	m := &Materializer{
		sessions:  sessions,
		store:     store,
		cfg:       cfg,
		now:       time.Now,
		newNumber: OrderNumber,
		log:       log.With("component", "materializer"),
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// OrderNumber formats ORD-<unix millis>-<4 hex>.
func OrderNumber(t time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:4]
	return fmt.Sprintf("ORD-%d-%s", t.UnixMilli(), strings.ToUpper(suffix))
}

func (m *Materializer) Materialize(ctx context.Context, sessionID string) (orders.Order, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return orders.Order{}, m.fail(ErrMissingSessionID, "")
	}
	log := m.log.With("session_id", sessionID)

	if o, ok := m.existing(ctx, sessionID); ok {
		log.Info("order already materialized", "order_number", o.Number)
		return o, nil
	}

	s, err := m.retrieve(ctx, sessionID)
	if err != nil {
		return orders.Order{}, m.fail(err, sessionID)
	}
	if !s.Completed() {
		return orders.Order{}, m.fail(fmt.Errorf("%w: status=%s payment_status=%s", ErrSessionIncomplete, s.Status, s.PaymentStatus), sessionID)
	}
	draft, ok := checkout.DraftFromMetadata(s.CustomerEmail, s.Metadata)
	if !ok {
		return orders.Order{}, m.fail(ErrMissingMetadata, sessionID)
	}

	o := m.build(s, draft)
	saved, created, err := m.persist(ctx, o)
	if err != nil {
		return orders.Order{}, m.fail(err, sessionID)
	}
	m.remember(ctx, saved)
	if created {
		log.Info("order materialized", "order_number", saved.Number, "total", saved.Total.StringFixed(2), "lines", len(saved.Items))
		m.publish(ctx, saved)
	} else {
		log.Info("order already materialized", "order_number", saved.Number)
	}
	return saved, nil
}

// existing checks the cache, then the store, before any processor call.
func (m *Materializer) existing(ctx context.Context, sessionID string) (orders.Order, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()

	if m.rdb != nil {
		key := fmt.Sprintf(redisx.KeyIdemOrderSession, sessionID)
		if number, err := m.rdb.Get(ctx, key).Result(); err == nil && number != "" {
			if o, err := m.store.GetByNumber(ctx, number); err == nil {
				return o, true
			}
		}
	}
	o, err := m.store.GetBySession(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, orders.ErrNotFound) {
			m.log.Warn("existing order lookup failed", "session_id", sessionID, "err", err)
		}
		return orders.Order{}, false
	}
	return o, true
}

func (m *Materializer) retrieve(ctx context.Context, sessionID string) (*payment.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProcessorTimeout)
	defer cancel()

	s, err := m.sessions.RetrieveSession(ctx, sessionID)
	switch {
	case err == nil:
		return s, nil
	case errors.Is(err, payment.ErrSessionNotFound):
		return nil, ErrSessionNotFound
	default:
		return nil, fmt.Errorf("%w: retrieve session: %v", ErrUnavailable, err)
	}
}

func (m *Materializer) build(s *payment.Session, d checkout.Draft) orders.Order {
	items := make([]orders.LineItem, 0, len(s.Lines))
	for _, l := range s.Lines {
		items = append(items, orders.LineItem{
			ProductID:   l.ProductID,
			ProductName: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   orders.UnitPrice(l.AmountTotal, l.Quantity),
			LineTotal:   orders.FromCents(l.AmountTotal),
		})
	}
	return orders.Order{
		SessionID:        s.ID,
		PaymentReference: s.PaymentIntentID,
		CustomerEmail:    d.Email,
		CustomerName:     d.Name,
		ShippingAddress:  d.Address,
		ShippingCity:     d.City,
		ShippingState:    d.State,
		ShippingZip:      d.Zip,
		Items:            items,
		Subtotal:         orders.FromCents(s.AmountSubtotal),
		Tax:              orders.FromCents(s.AmountTotal - s.AmountSubtotal),
		Shipping:         m.cfg.FlatShipping,
		Total:            orders.FromCents(s.AmountTotal),
		Status:           orders.StatusProcessing,
	}
}

// persist retries once with a fresh number if the generated one collides.
func (m *Materializer) persist(ctx context.Context, o orders.Order) (orders.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.StoreTimeout)
	defer cancel()

	var err error
	for attempt := 0; attempt < 2; attempt++ {
		now := m.now().UTC()
		o.OrderDate = now
		o.Number = m.newNumber(now)
		var (
			saved   orders.Order
			created bool
		)
		saved, created, err = m.store.CreateOrder(ctx, o)
		if err == nil {
			return saved, created, nil
		}
		if !errors.Is(err, orders.ErrConflict) {
			break
		}
	}
	return orders.Order{}, false, fmt.Errorf("%w: persist order: %v", ErrUnavailable, err)
}

func (m *Materializer) remember(ctx context.Context, o orders.Order) {
	if m.rdb == nil {
		return
	}
	key := fmt.Sprintf(redisx.KeyIdemOrderSession, o.SessionID)
	if err := m.rdb.Set(ctx, key, o.Number, redisx.TTLIdempotency).Err(); err != nil {
		m.log.Warn("cache idempotency key", "session_id", o.SessionID, "err", err)
	}
}

func (m *Materializer) publish(ctx context.Context, o orders.Order) {
	if m.pub == nil {
		return
	}
	ev, err := orders.NewEnvelope(orders.EventOrderConfirmed, m.cfg.ServiceName, traceID(ctx), o.SessionID, orders.ConfirmedPayload(o))
	if err != nil {
		m.log.Error("encode order event", "order_number", o.Number, "err", err)
		return
	}
	err = m.pub.Publish(orders.PartitionKey(o.SessionID), kafkax.MustMarshal(ev), kafkax.EventHeaders(ev.EventType, ev.EventVersion)...)
	if err != nil {
		m.log.Error("publish order event", "order_number", o.Number, "err", err)
	}
}

func (m *Materializer) fail(err error, sessionID string) error {
	kind := Kind(err)
	attrs := []any{"kind", kind, "session_id", sessionID, "err", err}
	switch kind {
	case KindIntegrity:
		// anomali data: jangan di-retry, tapi harus kelihatan di log
		m.log.Error("order materialization anomaly", attrs...)
	case KindRemote:
		m.log.Error("order materialization failed", attrs...)
	default:
		m.log.Warn("order materialization rejected", attrs...)
	}
	return err
}

func traceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return middleware.GetReqID(ctx)
}
