// Package waitlist queues customers for court time and offers released
// slots to the first one in line.
package waitlist

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "waitlist entry not found")
	ErrInvalidTimeRange = apperror.Validation("end time must be after start time")
	ErrMissingContact   = apperror.Validation("an email or phone number is required")
	ErrInvalidEmail     = apperror.Validation("invalid email address")
	ErrInvalidPhone     = apperror.Validation("invalid phone number")
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusOffered Status = "offered"
)

// Entry is one customer's place in the queue for a court window.
// Position is 1-indexed and counted per court and start time.
type Entry struct {
	ID        string
	CourtID   string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
	Email     string
	Phone     string
	Position  int
	Status    Status
	OfferedAt *time.Time
	CreatedAt time.Time
}

type Contact struct {
	Email string
	Phone string
}

type JoinRequest struct {
	CourtID   string
	UserID    string
	StartTime time.Time
	EndTime   time.Time
	Contact   Contact
}

type Filter struct {
	CourtID   string
	StartTime *time.Time
	UserID    string
}
