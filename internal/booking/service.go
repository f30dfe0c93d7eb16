package booking

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
	"github.com/nekogravitycat/court-season-backend/internal/slot"
)

type CreateRequest struct {
	UserID    string
	CourtID   string
	StartTime time.Time
	EndTime   time.Time
	Notes     string
	Customer  Customer
}

// Releaser is told when court time becomes free again.
type Releaser interface {
	NotifyOnRelease(ctx context.Context, courtID string, start, end time.Time) error
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error)
	Cancel(ctx context.Context, id string, userID string, isProvider bool) error
}

type service struct {
	repo     Repository
	txr      TxRunner
	courts   court.Service
	releaser Releaser
	now      func() time.Time
}

func NewService(repo Repository, txr TxRunner, courts court.Service, releaser Releaser) Service {
	return &service{
		repo:     repo,
		txr:      txr,
		courts:   courts,
		releaser: releaser,
		now:      time.Now,
	}
}

// transitions lists the status changes allowed on ad-hoc bookings.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusRejected},
	StatusConfirmed: {StatusCompleted},
}

func canTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Booking, error) {
	// 1. Validate Time Range
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	if req.StartTime.Before(s.now()) {
		return nil, ErrStartTimePast
	}

	// 2. Court must accept bookings
	c, err := s.courts.GetBookable(ctx, req.CourtID)
	if err != nil {
		return nil, err
	}

	// 3. Window must sit inside the working hours of its day
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	localStart := req.StartTime.In(loc)
	duration := int(req.EndTime.Sub(req.StartTime).Minutes())
	startClock := timeofday.Of(localStart)
	if err := slot.CheckWithinHours(c, localStart, startClock, startClock.Add(duration)); err != nil {
		return nil, err
	}

	// 4. Price
	quote := pricing.Resolve(c.Pricing, c.Facility.DefaultPricePerSlot, startClock, duration, c.SlotDurationMinutes)
	if !quote.Priced() {
		log.Error().Str("court_id", c.ID).Msg("court has no pricing and facility has no default rate")
		return nil, ErrUnpriced
	}

	b := &Booking{
		CourtID:       c.ID,
		CourtName:     c.Name,
		UserID:        req.UserID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		Price:         quote.Price,
		Notes:         req.Notes,
		Customer:      req.Customer,
	}

	// 5. Check and insert under the court lock
	err = s.txr.WithinCourt(ctx, c.ID, func(repo Repository) error {
		conflicts, err := FindConflicts(ctx, repo, c, []Interval{{Start: b.StartTime, End: b.EndTime}}, "")
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return ErrTimeConflict
		}
		return repo.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("booking_id", b.ID).Str("court_id", c.ID).Str("price", b.Price.StringFixed(2)).Msg("booking created")
	return b, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, filter)
}

// UpdateStatus moves an ad-hoc booking along its lifecycle. Confirming
// re-checks conflicts under the court lock since confirmed bookings occupy
// the court.
func (s *service) UpdateStatus(ctx context.Context, id string, status Status) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.InSeries() {
		return nil, ErrSeriesMember
	}

	err = s.txr.WithinCourt(ctx, b.CourtID, func(repo Repository) error {
		// Re-read under the lock; the status may have moved meanwhile.
		current, err := repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !canTransition(current.Status, status) {
			return ErrInvalidTransition
		}

		if status == StatusConfirmed {
			c, err := s.courts.GetByID(ctx, current.CourtID)
			if err != nil {
				return err
			}
			conflicts, err := FindConflicts(ctx, repo, c, []Interval{{Start: current.StartTime, End: current.EndTime}}, "")
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return ErrTimeConflict
			}
		}

		if err := repo.UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		b = current
		b.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("booking_id", id).Str("status", string(status)).Msg("booking status updated")
	return b, nil
}

// Cancel deletes a booking. Owners may cancel their own bookings, providers
// any. Released court time is offered to the waitlist.
func (s *service) Cancel(ctx context.Context, id string, userID string, isProvider bool) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !isProvider && b.UserID != userID {
		return ErrPermissionDenied
	}
	if b.InSeries() {
		return ErrSeriesMember
	}

	err = s.txr.WithinCourt(ctx, b.CourtID, func(repo Repository) error {
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	log.Info().Str("booking_id", id).Str("court_id", b.CourtID).Msg("booking cancelled")

	if s.releaser == nil || b.Status == StatusRejected || b.Status == StatusCompleted || !b.EndTime.After(s.now()) {
		return nil
	}
	if err := s.releaser.NotifyOnRelease(ctx, b.CourtID, b.StartTime, b.EndTime); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Str("court_id", b.CourtID).Msg("waitlist notification on release failed")
	}
	return nil
}
