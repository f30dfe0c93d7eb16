// Package timeofday models wall-clock times on a 24h day as minutes since midnight.
package timeofday

import (
	"errors"
	"fmt"
	"time"
)

// EndOfDay is 24:00, the exclusive end of a day.
const EndOfDay TimeOfDay = 24 * 60

var ErrInvalidFormat = errors.New("time of day must be HH:MM or HH:MM:SS")

// TimeOfDay is a number of minutes after midnight in the range [0, 1440].
type TimeOfDay int

// Parse reads "HH:MM" or "HH:MM:SS". Seconds are truncated.
func Parse(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		// Fallback: try short format if long format fails
		t, err = time.Parse("15:04", s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// ParseClose reads a closing time; "00:00" is interpreted as 24:00.
func ParseClose(s string) (TimeOfDay, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	if t == 0 {
		return EndOfDay, nil
	}
	return t, nil
}

// Of returns the time of day of t in t's location.
func Of(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

// Hour returns the hour component (24 for EndOfDay).
func (t TimeOfDay) Hour() int {
	return int(t) / 60
}

// Minute returns the minute component.
func (t TimeOfDay) Minute() int {
	return int(t) % 60
}

// Add returns t shifted by the given number of minutes.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// Valid reports whether t lies within [00:00, 24:00].
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= EndOfDay
}

// On anchors t to the calendar date of day in loc.
// EndOfDay yields midnight of the following day.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, int(t), 0, 0, loc)
}

// String formats t as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}
