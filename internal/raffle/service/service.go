// Package service orchestrates the raffle core: pool lifecycle, entry
// registry, the draw engine, and public verification.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fairdraw/internal/geo"
	"fairdraw/internal/notify"
	"fairdraw/internal/payments"
	rafflemetrics "fairdraw/internal/raffle/metrics"
	"fairdraw/internal/raffle/models"
	id "fairdraw/pkg/domain"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/platform/sentinel"
	"fairdraw/pkg/platform/tx"
)

// PoolStore persists raffle pools. UpdateFromStatus must be a compare-and-
// swap on the pool status so lifecycle races resolve to exactly one winner.
type PoolStore interface {
	Create(ctx context.Context, p *models.Pool) error
	FindByID(ctx context.Context, poolID id.PoolID) (*models.Pool, error)
	UpdateFromStatus(ctx context.Context, p *models.Pool, expected models.PoolStatus) error
}

// EntryStore persists entries. ListByPool must return the draw input order:
// ascending creation time, entry ID as tiebreak.
type EntryStore interface {
	Create(ctx context.Context, e *models.Entry) error
	ListByPool(ctx context.Context, poolID id.PoolID) ([]*models.Entry, error)
	UpdateWinner(ctx context.Context, e *models.Entry) error
}

// TicketStore persists the per-event ticket inventory. ListAvailableByEvent
// must return ascending ticket ID order.
type TicketStore interface {
	CreateBatch(ctx context.Context, tickets []*models.Ticket) error
	ListAvailableByEvent(ctx context.Context, eventID id.EventID) ([]*models.Ticket, error)
	Assign(ctx context.Context, t *models.Ticket) error
}

// Notifier announces raffle events. Failures are logged, never propagated
// into the lifecycle or draw paths.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event) error
}

// PaymentGateway collects the tier fee. Entry existence does not depend on
// payment completion succeeding synchronously.
type PaymentGateway interface {
	CreatePayment(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (payments.Intent, error)
}

// GeoVerifier gates entry acceptance; its verdict is a precondition
// external to the fairness core.
type GeoVerifier interface {
	VerifyLocation(ctx context.Context, lat, lng float64, ip string) (geo.Result, error)
}

// DrawScheduler delivers the draw trigger at the pool's scheduled time,
// at-least-once, idempotent by job ID.
type DrawScheduler interface {
	Schedule(ctx context.Context, jobID string, payload []byte, delay time.Duration) error
}

// Service is the raffle core facade.
type Service struct {
	pools    PoolStore
	entries  EntryStore
	tickets  TicketStore
	runner   tx.Runner
	notifier Notifier
	gateway  PaymentGateway
	geo      GeoVerifier
	sched    DrawScheduler
	metrics  *rafflemetrics.Metrics
	log      *slog.Logger
	tracer   trace.Tracer
	baseURL  string
}

type serviceConfig struct {
	runner   tx.Runner
	notifier Notifier
	gateway  PaymentGateway
	geo      GeoVerifier
	sched    DrawScheduler
	metrics  *rafflemetrics.Metrics
	log      *slog.Logger
	baseURL  string
}

// Option customizes Service construction.
type Option func(*serviceConfig)

func WithTxRunner(runner tx.Runner) Option {
	return func(c *serviceConfig) { c.runner = runner }
}

func WithNotifier(n Notifier) Option {
	return func(c *serviceConfig) { c.notifier = n }
}

func WithPaymentGateway(g PaymentGateway) Option {
	return func(c *serviceConfig) { c.gateway = g }
}

func WithGeoVerifier(v GeoVerifier) Option {
	return func(c *serviceConfig) { c.geo = v }
}

func WithScheduler(s DrawScheduler) Option {
	return func(c *serviceConfig) { c.sched = s }
}

func WithMetrics(m *rafflemetrics.Metrics) Option {
	return func(c *serviceConfig) { c.metrics = m }
}

func WithLogger(log *slog.Logger) Option {
	return func(c *serviceConfig) { c.log = log }
}

// WithPublicBaseURL sets the base for verification URLs recorded on pools.
func WithPublicBaseURL(baseURL string) Option {
	return func(c *serviceConfig) { c.baseURL = baseURL }
}

// New builds the service. Stores are required; everything else defaults to
// an in-process implementation so tests stay small.
func New(pools PoolStore, entries EntryStore, tickets TicketStore, opts ...Option) *Service {
	cfg := &serviceConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.runner == nil {
		cfg.runner = tx.NewMemoryRunner()
	}
	if cfg.notifier == nil {
		cfg.notifier = notify.NewInMemory()
	}
	if cfg.gateway == nil {
		cfg.gateway = payments.NewStubGateway()
	}
	if cfg.geo == nil {
		cfg.geo = geo.NewAllowAll()
	}
	if cfg.log == nil {
		cfg.log = slog.New(slog.DiscardHandler)
	}
	if cfg.baseURL == "" {
		cfg.baseURL = "http://localhost:8080"
	}
	return &Service{
		pools:    pools,
		entries:  entries,
		tickets:  tickets,
		runner:   cfg.runner,
		notifier: cfg.notifier,
		gateway:  cfg.gateway,
		geo:      cfg.geo,
		sched:    cfg.sched,
		metrics:  cfg.metrics,
		log:      cfg.log,
		tracer:   otel.Tracer("fairdraw/raffle"),
		baseURL:  cfg.baseURL,
	}
}

// channelKey scopes notifications to an event's audience.
func channelKey(eventID id.EventID) string {
	return "event:" + eventID.String()
}

func (s *Service) verificationURL(poolID id.PoolID) string {
	return s.baseURL + "/pools/" + poolID.String() + "/verify"
}

func (s *Service) publish(ctx context.Context, event notify.Event) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		s.log.Warn("publish notification",
			"type", string(event.Type),
			"channel", event.Channel,
			"error", err)
	}
}

// translatePoolErr maps store sentinels on pool reads/writes to domain codes.
func translatePoolErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "pool not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "pool changed state concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "pool storage failure")
	}
}
