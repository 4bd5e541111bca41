package bookings

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/prism-crm/internal/leads"
	"github.com/wolfman30/prism-crm/internal/observability/metrics"
	"github.com/wolfman30/prism-crm/pkg/logging"
)

var bookingsTracer = otel.Tracer("prism.internal.bookings")

// Booking outcomes reported to metrics.
const (
	outcomeMerged  = "merged"
	outcomeCreated = "created"
	outcomeFailed  = "failed"
)

// Service books tours and attaches them to leads.
type Service struct {
	store   Store
	leads   leads.Repository
	cache   SlotCache
	metrics *metrics.IngestionMetrics
	logger  *logging.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithSlotCache enables read-through caching of taken slots.
func WithSlotCache(cache SlotCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithMetrics records booking outcomes and cache lookups.
func WithMetrics(m *metrics.IngestionMetrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// NewService constructs a bookings service. leadRepo is used to check that a
// lead exists before listing its bookings.
func NewService(store Store, leadRepo leads.Repository, logger *logging.Logger, opts ...ServiceOption) *Service {
	if store == nil {
		panic("bookings: store required")
	}
	if leadRepo == nil {
		panic("bookings: leads repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{store: store, leads: leadRepo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBooking finds or creates the lead and inserts a scheduled booking in
// one transaction. Slot availability is not re-checked.
func (s *Service) CreateBooking(ctx context.Context, req *CreateBookingRequest) (*Result, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.create")
	defer span.End()
	span.SetAttributes(
		attribute.String("prism.building", req.Building),
		attribute.String("prism.tour_date", req.Date),
	)

	if err := req.Validate(); err != nil {
		span.RecordError(err)
		return nil, err
	}

	var result Result
	err := s.store.WithTx(ctx, func(tx Tx) error {
		lead, created, err := ResolveLead(ctx, tx, req.contact())
		if err != nil {
			return err
		}
		booking, err := tx.InsertBooking(ctx, &Booking{
			LeadID:   lead.ID,
			Building: req.Building,
			TourDate: req.Date,
			TourTime: req.Time,
			Status:   StatusScheduled,
		})
		if err != nil {
			return err
		}
		result = Result{BookingID: booking.ID, LeadID: lead.ID, Merged: !created}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking(outcomeFailed)
		s.logger.Error("booking failed", "error", err, "building", req.Building, "tour_date", req.Date)
		return nil, err
	}

	outcome := outcomeCreated
	if result.Merged {
		outcome = outcomeMerged
	}
	s.metrics.ObserveBooking(outcome)
	span.SetAttributes(
		attribute.Int64("prism.booking_id", result.BookingID),
		attribute.Int64("prism.lead_id", result.LeadID),
		attribute.Bool("prism.lead_merged", result.Merged),
	)
	s.logger.Info("booking created",
		"booking_id", result.BookingID,
		"lead_id", result.LeadID,
		"outcome", outcome,
		"building", req.Building,
		"tour_date", req.Date,
		"tour_time", req.Time,
	)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, req.Building, req.Date); err != nil {
			s.logger.Warn("failed to invalidate slot cache", "error", err, "building", req.Building, "tour_date", req.Date)
		}
	}
	return &result, nil
}

// TakenSlots returns the booked tour times for a building and date.
func (s *Service) TakenSlots(ctx context.Context, building, date string) ([]string, error) {
	var (
		version   int64
		cacheable bool
	)
	if s.cache != nil {
		slots, ok, err := s.cache.Get(ctx, building, date)
		if err != nil {
			s.logger.Warn("slot cache read failed", "error", err, "building", building, "tour_date", date)
		}
		if ok {
			s.metrics.ObserveSlotCache(true)
			return slots, nil
		}
		s.metrics.ObserveSlotCache(false)

		// Taken before the store read so a booking committed in between
		// makes the write-back a no-op.
		version, err = s.cache.Version(ctx, building, date)
		if err != nil {
			s.logger.Warn("slot cache version read failed", "error", err, "building", building, "tour_date", date)
		}
		cacheable = err == nil
	}

	slots, err := s.store.TakenSlots(ctx, building, date)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.Set(ctx, building, date, version, slots); err != nil {
			s.logger.Warn("slot cache write failed", "error", err, "building", building, "tour_date", date)
		}
	}
	return slots, nil
}

// ListByLead returns the bookings of an existing lead.
func (s *Service) ListByLead(ctx context.Context, leadID int64) ([]*Booking, error) {
	if _, err := s.leads.GetByID(ctx, leadID); err != nil {
		return nil, err
	}
	out, err := s.store.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("bookings: list for lead %d: %w", leadID, err)
	}
	return out, nil
}
