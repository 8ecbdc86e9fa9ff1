// Package service is the circulation state machine. It creates, returns,
// renews and deletes loans, keeping the availability ledger in step with the
// loan store inside a per-item critical section.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"circulation/internal/circulation/fine"
	"circulation/internal/circulation/metrics"
	"circulation/internal/circulation/models"
	id "circulation/pkg/domain"
	dErrors "circulation/pkg/domain-errors"
)

type ItemStore interface {
	FindByID(ctx context.Context, itemID id.ItemID) (*models.CatalogItem, error)
	Save(ctx context.Context, item *models.CatalogItem) error
}

type MemberStore interface {
	FindByID(ctx context.Context, memberID id.MemberID) (*models.Member, error)
}

type LoanStore interface {
	FindByID(ctx context.Context, loanID id.LoanID) (*models.Loan, error)
	Save(ctx context.Context, loan *models.Loan) error
	Delete(ctx context.Context, loanID id.LoanID) error
	FindAll(ctx context.Context) ([]*models.Loan, error)
	FindBy(ctx context.Context, filter models.LoanFilter) ([]*models.Loan, error)
}

// Policy is the lending policy and retry budget of the engine.
type Policy struct {
	DailyFineRate float64
	LoanPeriod    time.Duration
	RenewalPeriod time.Duration
	MaxAttempts   int
}

// DefaultPolicy charges 0.50 per day late and lends for 14 days.
func DefaultPolicy() Policy {
	return Policy{
		DailyFineRate: fine.DefaultDailyRate,
		LoanPeriod:    14 * 24 * time.Hour,
		RenewalPeriod: 14 * 24 * time.Hour,
		MaxAttempts:   3,
	}
}

// Service orchestrates circulation. All ledger-affecting work runs inside
// tx.RunInTx keyed by item ID.
type Service struct {
	tx      CirculationTx
	stores  TxStores
	fines   fine.Calculator
	policy  Policy
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	backoff time.Duration
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithPolicy overrides the lending policy. Zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(s *Service) {
		if p.DailyFineRate > 0 {
			s.policy.DailyFineRate = p.DailyFineRate
		}
		if p.LoanPeriod > 0 {
			s.policy.LoanPeriod = p.LoanPeriod
		}
		if p.RenewalPeriod > 0 {
			s.policy.RenewalPeriod = p.RenewalPeriod
		}
		if p.MaxAttempts > 0 {
			s.policy.MaxAttempts = p.MaxAttempts
		}
	}
}

// WithRetryBackoff sets the base pause between contended attempts.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		s.backoff = d
	}
}

// New constructs a Service. stores is used for reads outside the critical
// section; tx hands out the stores used inside it.
func New(tx CirculationTx, stores TxStores, opts ...Option) *Service {
	s := &Service{
		tx:      tx,
		stores:  stores,
		policy:  DefaultPolicy(),
		logger:  slog.Default(),
		tracer:  otel.Tracer("circulation/service"),
		backoff: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.fines = fine.New(s.policy.DailyFineRate)
	return s
}

// Fines exposes the calculator used for projections, so callers render the
// same amounts the service settles.
func (s *Service) Fines() fine.Calculator {
	return s.fines
}

// startOp opens a span and returns a finisher that records the outcome.
func (s *Service) startOp(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(err *error)) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "circulation."+op, trace.WithAttributes(attrs...))
	return ctx, func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if s.metrics != nil {
				s.metrics.IncrementRejection(op, string(dErrors.CodeOf(err)))
			}
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
		if s.metrics != nil {
			s.metrics.ObserveOperation(op, start)
		}
	}
}

func (s *Service) logWarn(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.WarnContext(ctx, msg, args...)
	}
}

func (s *Service) logInfo(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}

func (s *Service) logError(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.ErrorContext(ctx, msg, args...)
	}
}
