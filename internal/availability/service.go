// Package availability reports which slots of a court are free on a day.
package availability

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
	"github.com/nekogravitycat/court-season-backend/internal/slot"
)

// Slot is one window of the day with its state and price.
type Slot struct {
	Start           time.Time
	End             time.Time
	Available       bool
	Price           decimal.Decimal
	DurationMinutes int
	// Priced is false when neither the court nor the facility has a price.
	Priced bool
}

type Day struct {
	CourtID   string
	CourtName string
	Date      time.Time
	Timezone  string
	Slots     []Slot
}

type Service interface {
	ForDate(ctx context.Context, courtID string, date time.Time) (*Day, error)
}

type service struct {
	courts   court.Service
	bookings booking.BlockingLister
}

func NewService(courts court.Service, bookings booking.BlockingLister) Service {
	return &service{courts: courts, bookings: bookings}
}

func (s *service) ForDate(ctx context.Context, courtID string, date time.Time) (*Day, error) {
	c, err := s.courts.GetBookable(ctx, courtID)
	if err != nil {
		return nil, err
	}

	windows, err := slot.Generate(c, date)
	if err != nil {
		return nil, err
	}
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}

	day := &Day{
		CourtID:   c.ID,
		CourtName: c.Name,
		Date:      slot.DayOf(date, loc),
		Timezone:  loc.String(),
		Slots:     make([]Slot, 0, len(windows)),
	}
	if len(windows) == 0 {
		return day, nil
	}

	occupied, err := s.bookings.ListBlocking(ctx, c.ID, windows[0].Start, windows[len(windows)-1].End, "")
	if err != nil {
		return nil, err
	}

	unpriced := 0
	for _, w := range windows {
		q := pricing.Resolve(c.Pricing, c.Facility.DefaultPricePerSlot, w.StartClock, w.DurationMinutes, c.SlotDurationMinutes)
		if !q.Priced() {
			unpriced++
		}
		day.Slots = append(day.Slots, Slot{
			Start:           w.Start,
			End:             w.End,
			Available:       isFree(w, occupied),
			Price:           q.Price,
			DurationMinutes: w.DurationMinutes,
			Priced:          q.Priced(),
		})
	}

	if unpriced > 0 {
		log.Warn().
			Str("court_id", c.ID).
			Int("slots", unpriced).
			Msg("court has no price configured, showing zero prices")
	}
	return day, nil
}

func isFree(w slot.Window, occupied []*booking.Booking) bool {
	for _, b := range occupied {
		if b.Occupies() && booking.Overlaps(w.Start, w.End, b.StartTime, b.EndTime) {
			return false
		}
	}
	return true
}
