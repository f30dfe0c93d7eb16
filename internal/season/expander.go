package season

import (
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

// Occurrence is one dated instance of a weekly series.
type Occurrence struct {
	Date  time.Time // midnight in the facility time zone
	Start time.Time
	End   time.Time
}

// Expand returns an occurrence for every date from startDate through endDate
// inclusive that falls on day, with the given times anchored in loc.
// Only the calendar dates of startDate and endDate are used.
func Expand(startDate, endDate time.Time, day time.Weekday, startTime, endTime timeofday.TimeOfDay, loc *time.Location) ([]Occurrence, error) {
	if day < time.Sunday || day > time.Saturday {
		return nil, ErrInvalidDayOfWeek
	}
	if !startTime.Valid() || !endTime.Valid() || startTime >= endTime {
		return nil, ErrInvalidTimeRange
	}

	first := dateIn(startDate, loc)
	last := dateIn(endDate, loc)
	if last.Before(first) {
		return nil, ErrInvalidDateRange
	}

	offset := (int(day) - int(first.Weekday()) + 7) % 7
	var out []Occurrence
	for d := first.AddDate(0, 0, offset); !d.After(last); d = d.AddDate(0, 0, 7) {
		out = append(out, Occurrence{
			Date:  d,
			Start: startTime.On(d, loc),
			End:   endTime.On(d, loc),
		})
	}
	return out, nil
}

func dateIn(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
