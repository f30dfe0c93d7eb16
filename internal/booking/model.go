package booking

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking not found")
	ErrTimeConflict      = apperror.Conflict("time slot already booked")
	ErrInvalidTimeRange  = apperror.Validation("start time must be before end time")
	ErrStartTimePast     = apperror.Validation("cannot create booking in the past")
	ErrInvalidStatus     = apperror.Validation("invalid booking status")
	ErrInvalidTransition = apperror.InvalidTransition("status change not allowed from the current status")
	ErrSeriesMember      = apperror.Validation("booking belongs to a seasonal series")
	ErrUnpriced          = apperror.InvalidConfiguration("court has no price configured")
	ErrPermissionDenied  = apperror.New(http.StatusForbidden, "permission denied")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusRejected  Status = "rejected"
	StatusCompleted Status = "completed"
)

// ParseStatus validates s against the known statuses.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusActive, StatusRejected, StatusCompleted:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Booking struct {
	ID               string
	CourtID          string
	CourtName        string
	UserID           string
	StartTime        time.Time
	EndTime          time.Time
	Status           Status
	PaymentStatus    PaymentStatus
	Price            decimal.Decimal
	SeasonalSeriesID *string
	ParentBookingID  *string
	Notes            string
	Customer         Customer
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsSeriesHeader reports whether b is the parent row of a seasonal series.
func (b *Booking) IsSeriesHeader() bool {
	return b.SeasonalSeriesID != nil && b.ParentBookingID == nil
}

// InSeries reports whether b is a series header or one of its occurrences.
func (b *Booking) InSeries() bool {
	return b.SeasonalSeriesID != nil
}

// Occupies reports whether b holds court time. Active bookings always do;
// confirmed bookings do unless they belong to a series that has not been
// activated yet. Series headers never do.
func (b *Booking) Occupies() bool {
	if b.IsSeriesHeader() {
		return false
	}
	switch b.Status {
	case StatusActive:
		return true
	case StatusConfirmed:
		return b.SeasonalSeriesID == nil
	default:
		return false
	}
}

type Filter struct {
	UserID    string
	CourtID   string
	Status    string
	StartTime *time.Time // Filter bookings ending after this time
	EndTime   *time.Time // Filter bookings starting before this time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
