package court

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
)

var (
	ErrNotFound            = apperror.New(http.StatusNotFound, "court not found")
	ErrInactive            = apperror.Validation("court is not accepting bookings")
	ErrInvalidWorkingHours = apperror.InvalidConfiguration("invalid working hours configuration")
	ErrInvalidTimezone     = apperror.InvalidConfiguration("invalid facility time zone")
)

// Facility is the venue a court belongs to.
type Facility struct {
	ID                  string
	Name                string
	Timezone            string
	Location            *time.Location // resolved from Timezone when loaded
	WorkingHours        WorkingHours
	DefaultPricePerSlot *decimal.Decimal
	IsActive            bool
}

// Court is a bookable unit. It is read-only to the engine.
type Court struct {
	ID                  string
	FacilityID          string
	Name                string
	SlotDurationMinutes int
	WorkingHours        WorkingHours // nil falls back to the facility's hours
	Pricing             pricing.Pricing
	IsActive            bool
	CreatedAt           time.Time

	Facility Facility
}

// Location returns the facility time zone. An unknown zone name is
// ErrInvalidTimezone.
func (c *Court) Location() (*time.Location, error) {
	if c.Facility.Location != nil {
		return c.Facility.Location, nil
	}
	return LoadTimezone(c.Facility.Timezone)
}

// LoadTimezone resolves an IANA zone name. Empty means UTC.
func LoadTimezone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// HoursFor returns the effective hours for a weekday: the court's own
// hours when configured, else the facility's.
func (c *Court) HoursFor(day time.Weekday) DayHours {
	if c.WorkingHours != nil {
		return c.WorkingHours.For(day)
	}
	return c.Facility.WorkingHours.For(day)
}

// DayHours is the opening window of one weekday.
type DayHours struct {
	Open   timeofday.TimeOfDay
	Close  timeofday.TimeOfDay // 24:00 when configured as "00:00"
	Closed bool
}

// WorkingHours maps weekdays to opening windows. Missing days are closed.
type WorkingHours map[time.Weekday]DayHours

// For returns the hours of day. Absent entries are reported as closed.
func (w WorkingHours) For(day time.Weekday) DayHours {
	h, ok := w[day]
	if !ok {
		return DayHours{Closed: true}
	}
	return h
}

type dayHoursJSON struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

// DecodeWorkingHours parses the JSONB working_hours column, keyed by
// lowercase English weekday names. An empty value yields nil.
func DecodeWorkingHours(raw []byte) (WorkingHours, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items map[string]dayHoursJSON
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}

	hours := make(WorkingHours, len(items))
	for name, it := range items {
		day, ok := parseWeekday(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkingHours, name)
		}
		if it.Closed {
			hours[day] = DayHours{Closed: true}
			continue
		}
		open, err := timeofday.Parse(it.Open)
		if err != nil {
			return nil, fmt.Errorf("%w: %s open: %v", ErrInvalidWorkingHours, name, err)
		}
		closeAt, err := timeofday.ParseClose(it.Close)
		if err != nil {
			return nil, fmt.Errorf("%w: %s close: %v", ErrInvalidWorkingHours, name, err)
		}
		hours[day] = DayHours{Open: open, Close: closeAt}
	}
	return hours, nil
}

// parseWeekday accepts English weekday names in any case ("Monday", "mon").
func parseWeekday(s string) (time.Weekday, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, true
		}
	}
	return 0, false
}
