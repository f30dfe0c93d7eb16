// Package season expands weekly booking requests into dated series and
// drives them through confirmation, payment, activation and completion.
package season

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/booking"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "seasonal series not found")
	ErrMissingField      = apperror.Validation("court, dates, day of week and times are required")
	ErrInvalidDateRange  = apperror.Validation("end date must not be before start date")
	ErrInvalidTimeRange  = apperror.Validation("end time must be after start time")
	ErrInvalidDayOfWeek  = apperror.Validation("day of week must be between 0 (Sunday) and 6 (Saturday)")
	ErrNoOccurrences     = apperror.Validation("date range contains no matching weekday")
	ErrPaymentRequired   = apperror.PaymentRequired("series must be paid before activation")
	ErrInvalidTransition = apperror.InvalidTransition("status change not allowed from the current status")
	ErrUnpriced          = apperror.InvalidConfiguration("court has no price configured")
)

// Series is a weekly recurring booking. It is stored as a header booking row
// whose occurrences reference it as parent.
type Series struct {
	ID            string
	CourtID       string
	CourtName     string
	UserID        string
	StartDate     time.Time
	EndDate       time.Time
	DayOfWeek     time.Weekday
	StartTime     timeofday.TimeOfDay
	EndTime       timeofday.TimeOfDay
	Status        booking.Status
	PaymentStatus booking.PaymentStatus
	TotalPrice    decimal.Decimal
	Notes         string
	Customer      booking.Customer
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Bookings []*booking.Booking // occurrences, ordered by start time
}

// Windows returns the occurrence intervals of the series.
func (s *Series) Windows() []booking.Interval {
	windows := make([]booking.Interval, len(s.Bookings))
	for i, b := range s.Bookings {
		windows[i] = booking.Interval{Start: b.StartTime, End: b.EndTime}
	}
	return windows
}

type Filter struct {
	CourtID   string
	UserID    string
	Status    string
	Page      int
	PageSize  int
	SortOrder string
}

// PricedOccurrence is an occurrence with its resolved price.
type PricedOccurrence struct {
	Occurrence
	Price decimal.Decimal
}

// Preview is what a series would look like if submitted now.
type Preview struct {
	CourtID     string
	CourtName   string
	Occurrences []PricedOccurrence
	TotalPrice  decimal.Decimal
	Conflicts   []booking.Conflict
}

// SlotCount is the number of bookings the series expands to.
func (p *Preview) SlotCount() int {
	return len(p.Occurrences)
}

// ActivationResult reports the outcome of an activation attempt. When
// HasConflicts is set nothing was changed.
type ActivationResult struct {
	Series       *Series
	HasConflicts bool
	Conflicts    []booking.Conflict
	Overridden   []booking.Conflict
}
