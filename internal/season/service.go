package season

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/notify"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
	"github.com/nekogravitycat/court-season-backend/internal/slot"
)

var tracer = otel.Tracer("github.com/nekogravitycat/court-season-backend/internal/season")

type CreateRequest struct {
	UserID    string
	CourtID   string
	StartDate time.Time
	EndDate   time.Time
	DayOfWeek time.Weekday
	StartTime timeofday.TimeOfDay
	EndTime   timeofday.TimeOfDay
	Notes     string
	Customer  booking.Customer
}

type Service interface {
	Preview(ctx context.Context, req CreateRequest) (*Preview, error)
	Create(ctx context.Context, req CreateRequest) (*Series, error)
	GetByID(ctx context.Context, id string) (*Series, error)
	List(ctx context.Context, filter Filter) ([]*Series, int, error)
	Confirm(ctx context.Context, id, actorID string) (*Series, error)
	Reject(ctx context.Context, id, actorID string) (*Series, error)
	MarkPaid(ctx context.Context, id, actorID string) (*Series, error)
	Activate(ctx context.Context, id string, skipConflictCheck bool, actorID string) (*ActivationResult, error)
	AutoComplete(ctx context.Context) (int, error)
}

type service struct {
	repo       Repository
	txr        TxRunner
	courts     court.Service
	dispatcher *notify.Dispatcher
	now        func() time.Time
}

func NewService(repo Repository, txr TxRunner, courts court.Service, dispatcher *notify.Dispatcher) Service {
	return &service{
		repo:       repo,
		txr:        txr,
		courts:     courts,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// plan is a validated, priced expansion of a request.
type plan struct {
	court       *court.Court
	occurrences []PricedOccurrence
	total       decimal.Decimal
}

func (s *service) plan(ctx context.Context, req CreateRequest) (*plan, error) {
	if req.CourtID == "" || req.StartDate.IsZero() || req.EndDate.IsZero() || req.EndTime == 0 {
		return nil, ErrMissingField
	}

	c, err := s.courts.GetBookable(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	occurrences, err := Expand(req.StartDate, req.EndDate, req.DayOfWeek, req.StartTime, req.EndTime, loc)
	if err != nil {
		return nil, err
	}
	if len(occurrences) == 0 {
		return nil, ErrNoOccurrences
	}
	// Every occurrence shares the weekday, so the first one speaks for all.
	if err := slot.CheckWithinHours(c, occurrences[0].Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	duration := int(req.EndTime - req.StartTime)
	quote := pricing.Resolve(c.Pricing, c.Facility.DefaultPricePerSlot, req.StartTime, duration, c.SlotDurationMinutes)
	if !quote.Priced() {
		log.Error().Str("court_id", c.ID).Msg("court has no pricing and facility has no default rate")
		return nil, ErrUnpriced
	}

	p := &plan{court: c, occurrences: make([]PricedOccurrence, len(occurrences)), total: decimal.Zero}
	for i, o := range occurrences {
		p.occurrences[i] = PricedOccurrence{Occurrence: o, Price: quote.Price}
		p.total = p.total.Add(quote.Price)
	}
	return p, nil
}

// Preview expands and prices a request and lists the bookings it would
// currently collide with. Nothing is persisted.
func (s *service) Preview(ctx context.Context, req CreateRequest) (*Preview, error) {
	p, err := s.plan(ctx, req)
	if err != nil {
		return nil, err
	}

	windows := make([]booking.Interval, len(p.occurrences))
	for i, o := range p.occurrences {
		windows[i] = booking.Interval{Start: o.Start, End: o.End}
	}
	conflicts, err := booking.FindConflicts(ctx, s.repo, p.court, windows, "")
	if err != nil {
		return nil, err
	}

	return &Preview{
		CourtID:     p.court.ID,
		CourtName:   p.court.Name,
		Occurrences: p.occurrences,
		TotalPrice:  p.total,
		Conflicts:   conflicts,
	}, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Series, error) {
	ctx, span := tracer.Start(ctx, "season.Create", trace.WithAttributes(attribute.String("court.id", req.CourtID)))
	defer span.End()

	p, err := s.plan(ctx, req)
	if err != nil {
		return nil, recordErr(span, err)
	}

	series := &Series{
		ID:            uuid.NewString(),
		CourtID:       p.court.ID,
		CourtName:     p.court.Name,
		UserID:        req.UserID,
		StartDate:     dateIn(req.StartDate, time.UTC),
		EndDate:       dateIn(req.EndDate, time.UTC),
		DayOfWeek:     req.DayOfWeek,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        booking.StatusPending,
		PaymentStatus: booking.PaymentPending,
		TotalPrice:    p.total,
		Notes:         req.Notes,
		Customer:      req.Customer,
		Bookings:      make([]*booking.Booking, len(p.occurrences)),
	}
	for i, o := range p.occurrences {
		series.Bookings[i] = &booking.Booking{StartTime: o.Start, EndTime: o.End, Price: o.Price}
	}

	err = s.txr.WithinCourt(ctx, series.CourtID, func(repo Repository) error {
		return repo.Create(ctx, series)
	})
	if err != nil {
		return nil, recordErr(span, err)
	}

	span.SetAttributes(attribute.String("series.id", series.ID), attribute.Int("series.slots", len(series.Bookings)))
	log.Info().
		Str("series_id", series.ID).
		Str("court_id", series.CourtID).
		Int("slots", len(series.Bookings)).
		Str("total_price", series.TotalPrice.StringFixed(2)).
		Msg("seasonal series created")
	s.notify(ctx, notify.EventSeriesCreated, series)
	return series, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Series, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Series, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Confirm(ctx context.Context, id, actorID string) (*Series, error) {
	return s.transition(ctx, "season.Confirm", id, actorID, booking.StatusPending, booking.StatusConfirmed, notify.EventSeriesConfirmed)
}

func (s *service) Reject(ctx context.Context, id, actorID string) (*Series, error) {
	return s.transition(ctx, "season.Reject", id, actorID, booking.StatusPending, booking.StatusRejected, notify.EventSeriesRejected)
}

// transition moves a series from one status to another without touching
// occupancy, so no conflict check is needed.
func (s *service) transition(ctx context.Context, op, id, actorID string, from, to booking.Status, event notify.EventType) (*Series, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("series.id", id)))
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, recordErr(span, err)
	}

	var series *Series
	err = s.txr.WithinCourt(ctx, current.CourtID, func(repo Repository) error {
		locked, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if locked.Status != from {
			return ErrInvalidTransition
		}
		if err := repo.UpdateStatus(ctx, id, to); err != nil {
			return err
		}
		setStatus(locked, to)
		series = locked
		return nil
	})
	if err != nil {
		return nil, recordErr(span, err)
	}

	log.Info().Str("series_id", id).Str("actor_id", actorID).Str("status", string(to)).Msg("seasonal series status changed")
	s.notify(ctx, event, series)
	return series, nil
}

// MarkPaid records payment. Paying a rejected or completed series is refused;
// paying twice is a no-op.
func (s *service) MarkPaid(ctx context.Context, id, actorID string) (*Series, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var series *Series
	err = s.txr.WithinCourt(ctx, current.CourtID, func(repo Repository) error {
		locked, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		series = locked
		if locked.Status == booking.StatusRejected || locked.Status == booking.StatusCompleted {
			return ErrInvalidTransition
		}
		if locked.PaymentStatus == booking.PaymentPaid {
			return nil
		}
		if err := repo.UpdatePaymentStatus(ctx, id, booking.PaymentPaid); err != nil {
			return err
		}
		locked.PaymentStatus = booking.PaymentPaid
		for _, b := range locked.Bookings {
			b.PaymentStatus = booking.PaymentPaid
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("series_id", id).Str("actor_id", actorID).Msg("seasonal series marked paid")
	return series, nil
}

// Activate turns a paid, confirmed series into occupying bookings.
//
// Payment is checked first. Conflicts with occupying bookings abort the
// activation and are returned in the result, unless skipConflictCheck is set,
// in which case they are logged as an audited override.
func (s *service) Activate(ctx context.Context, id string, skipConflictCheck bool, actorID string) (*ActivationResult, error) {
	ctx, span := tracer.Start(ctx, "season.Activate", trace.WithAttributes(
		attribute.String("series.id", id),
		attribute.Bool("series.skip_conflict_check", skipConflictCheck),
	))
	defer span.End()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, recordErr(span, err)
	}
	span.SetAttributes(attribute.String("court.id", current.CourtID))

	var result ActivationResult
	err = s.txr.WithinCourt(ctx, current.CourtID, func(repo Repository) error {
		locked, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if locked.PaymentStatus != booking.PaymentPaid {
			return ErrPaymentRequired
		}
		if locked.Status != booking.StatusConfirmed {
			return ErrInvalidTransition
		}

		c, err := s.courts.GetByID(ctx, locked.CourtID)
		if err != nil {
			return err
		}
		conflicts, err := booking.FindConflicts(ctx, repo, c, locked.Windows(), locked.ID)
		if err != nil {
			return err
		}

		if len(conflicts) > 0 && !skipConflictCheck {
			result = ActivationResult{Series: locked, HasConflicts: true, Conflicts: conflicts}
			return nil
		}

		if err := repo.UpdateStatus(ctx, id, booking.StatusActive); err != nil {
			return err
		}
		setStatus(locked, booking.StatusActive)
		result = ActivationResult{Series: locked, Overridden: conflicts}
		return nil
	})
	if err != nil {
		return nil, recordErr(span, err)
	}

	if result.HasConflicts {
		span.SetAttributes(attribute.Int("series.conflicts", len(result.Conflicts)))
		log.Info().Str("series_id", id).Int("conflicts", len(result.Conflicts)).Msg("seasonal series activation blocked by conflicts")
		return &result, nil
	}

	if len(result.Overridden) > 0 {
		ids := make([]string, len(result.Overridden))
		for i, c := range result.Overridden {
			ids[i] = c.BookingID
		}
		log.Warn().
			Str("series_id", id).
			Str("court_id", current.CourtID).
			Str("actor_id", actorID).
			Int("conflicts", len(result.Overridden)).
			Strs("conflicting_booking_ids", ids).
			Msg("seasonal series activated over conflicts")
	}

	log.Info().Str("series_id", id).Str("actor_id", actorID).Msg("seasonal series activated")
	s.notify(ctx, notify.EventSeriesActivated, result.Series)
	return &result, nil
}

// AutoComplete completes every active series whose end date has passed in
// its facility's time zone. Each series is completed in its own court-locked
// transaction that re-reads the status, so overlapping sweeps complete each
// series once.
func (s *service) AutoComplete(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "season.AutoComplete")
	defer span.End()

	now := s.now()
	// Local dates are at most one day ahead of UTC. The candidate list is a
	// superset; seasonOver decides per facility under the lock.
	cutoff := dateIn(now.UTC(), time.UTC).AddDate(0, 0, 1)
	expired, err := s.repo.ListExpiredActive(ctx, cutoff)
	if err != nil {
		return 0, recordErr(span, err)
	}

	completed := 0
	var errs []error
	for _, candidate := range expired {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		var done *Series
		err := s.txr.WithinCourt(ctx, candidate.CourtID, func(repo Repository) error {
			locked, err := repo.GetByID(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if locked.Status != booking.StatusActive {
				return nil
			}
			c, err := s.courts.GetByID(ctx, locked.CourtID)
			if err != nil {
				return err
			}
			loc, err := c.Location()
			if err != nil {
				return err
			}
			if !seasonOver(locked, now, loc) {
				return nil
			}
			if err := repo.UpdateStatus(ctx, locked.ID, booking.StatusCompleted); err != nil {
				return err
			}
			setStatus(locked, booking.StatusCompleted)
			done = locked
			return nil
		})
		if err != nil {
			log.Error().Err(err).Str("series_id", candidate.ID).Msg("failed to complete seasonal series")
			errs = append(errs, err)
			continue
		}
		if done != nil {
			completed++
			s.notify(ctx, notify.EventSeriesCompleted, done)
		}
	}

	span.SetAttributes(attribute.Int("series.completed", completed))
	if completed > 0 {
		log.Info().Int("completed", completed).Msg("seasonal series auto-completed")
	}
	return completed, recordErr(span, errors.Join(errs...))
}

func (s *service) notify(ctx context.Context, t notify.EventType, series *Series) {
	e := notify.Event{
		Type:      t,
		SeriesID:  series.ID,
		CourtID:   series.CourtID,
		CourtName: series.CourtName,
		UserID:    series.UserID,
		Email:     series.Customer.Email,
		Phone:     series.Customer.Phone,
	}
	if len(series.Bookings) > 0 {
		e.StartTime = series.Bookings[0].StartTime
		e.EndTime = series.Bookings[0].EndTime
	}
	s.dispatcher.Dispatch(ctx, e)
}

// seasonOver reports whether the series end date lies before today in loc
// and none of its occurrences is still running.
func seasonOver(s *Series, now time.Time, loc *time.Location) bool {
	today := dateIn(now.In(loc), time.UTC)
	if !s.EndDate.Before(today) {
		return false
	}
	for _, b := range s.Bookings {
		if b.EndTime.After(now) {
			return false
		}
	}
	return true
}

func setStatus(s *Series, status booking.Status) {
	s.Status = status
	for _, b := range s.Bookings {
		b.Status = status
	}
}

func recordErr(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
