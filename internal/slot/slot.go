// Package slot turns a court's working hours into fixed-length bookable windows.
package slot

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

var (
	ErrInvalidDuration = apperror.InvalidConfiguration("slot duration must be positive")
	ErrInvalidHours    = apperror.InvalidConfiguration("opening time must be before closing time")
	ErrOutsideHours    = apperror.Validation("requested time is outside the court's working hours")
)

// Window is one bookable slot on a court.
type Window struct {
	CourtID         string
	Date            time.Time // midnight of the day in the facility time zone
	Start           time.Time
	End             time.Time
	StartClock      timeofday.TimeOfDay
	DurationMinutes int
}

// Generate returns the slots of court c on the calendar date of date,
// anchored in the facility time zone. A closed day yields no slots. Slots never
// extend past closing time, so a trailing remainder shorter than the slot
// duration is dropped.
func Generate(c *court.Court, date time.Time) ([]Window, error) {
	if c.SlotDurationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	day := DayOf(date, loc)
	hours := c.HoursFor(day.Weekday())
	if hours.Closed {
		return nil, nil
	}
	if hours.Open >= hours.Close {
		return nil, ErrInvalidHours
	}

	step := c.SlotDurationMinutes
	windows := make([]Window, 0, int(hours.Close-hours.Open)/step)
	for cursor := hours.Open; cursor.Add(step) <= hours.Close; cursor = cursor.Add(step) {
		windows = append(windows, Window{
			CourtID:         c.ID,
			Date:            day,
			Start:           cursor.On(day, loc),
			End:             cursor.Add(step).On(day, loc),
			StartClock:      cursor,
			DurationMinutes: step,
		})
	}
	return windows, nil
}

// CheckWithinHours reports ErrOutsideHours unless [start, end) on the given
// date lies inside the court's hours for that weekday.
func CheckWithinHours(c *court.Court, date time.Time, start, end timeofday.TimeOfDay) error {
	loc, err := c.Location()
	if err != nil {
		return err
	}
	day := DayOf(date, loc)
	hours := c.HoursFor(day.Weekday())
	if hours.Closed {
		return ErrOutsideHours
	}
	if hours.Open >= hours.Close {
		return ErrInvalidHours
	}
	if start < hours.Open || end > hours.Close || start >= end {
		return ErrOutsideHours
	}
	return nil
}

// DayOf returns midnight in loc of the calendar date carried by t.
// The date is taken as written, without converting t into loc first.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
