package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/court-season-backend/internal/pkg/timeofday"
)

func hm(h, m int) timeofday.TimeOfDay {
	return timeofday.TimeOfDay(h*60 + m)
}

func newCourt(duration int, hours court.WorkingHours) *court.Court {
	return &court.Court{
		ID:                  "court-1",
		SlotDurationMinutes: duration,
		Facility: court.Facility{
			Timezone:     "UTC",
			WorkingHours: hours,
		},
	}
}

// 2024-01-01 is a Monday.
var monday = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestGenerateHourlySlots(t *testing.T) {
	c := newCourt(60, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(22, 0)}})

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	require.Len(t, windows, 14)

	assert.Equal(t, time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC), windows[0].Start)
	assert.Equal(t, time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), windows[0].End)

	last := windows[len(windows)-1]
	assert.Equal(t, time.Date(2024, 1, 1, 21, 0, 0, 0, time.UTC), last.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), last.End)
	assert.Equal(t, hm(21, 0), last.StartClock)
	assert.Equal(t, "court-1", last.CourtID)
}

func TestGenerateDropsPartialSlot(t *testing.T) {
	c := newCourt(90, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(22, 0)}})

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	require.Len(t, windows, 9)

	last := windows[len(windows)-1]
	assert.Equal(t, time.Date(2024, 1, 1, 20, 30, 0, 0, time.UTC), last.Start)
	assert.Equal(t, time.Date(2024, 1, 1, 22, 0, 0, 0, time.UTC), last.End)
}

func TestGenerateClosedDay(t *testing.T) {
	c := newCourt(60, court.WorkingHours{
		time.Monday:  {Closed: true},
		time.Tuesday: {Open: hm(8, 0), Close: hm(10, 0)},
	})

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	assert.Empty(t, windows)

	// Sunday has no entry at all.
	windows, err = Generate(c, monday.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestGenerateMidnightClose(t *testing.T) {
	c := newCourt(60, court.WorkingHours{time.Monday: {Open: hm(20, 0), Close: timeofday.EndOfDay}})

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	require.Len(t, windows, 4)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), windows[3].End)
}

func TestGenerateUsesCourtOverride(t *testing.T) {
	c := newCourt(30, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(22, 0)}})
	c.WorkingHours = court.WorkingHours{time.Monday: {Open: hm(10, 0), Close: hm(11, 0)}}

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, hm(10, 30), windows[1].StartClock)
}

func TestGenerateInFacilityTimezone(t *testing.T) {
	c := newCourt(60, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(10, 0)}})
	c.Facility.Timezone = "America/New_York"

	windows, err := Generate(c, monday)
	require.NoError(t, err)
	require.Len(t, windows, 2)
	assert.Equal(t, time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC), windows[0].Start.UTC())
}

func TestGenerateInvalidConfiguration(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		hours    court.DayHours
		want     error
	}{
		{"zero duration", 0, court.DayHours{Open: hm(8, 0), Close: hm(22, 0)}, ErrInvalidDuration},
		{"negative duration", -30, court.DayHours{Open: hm(8, 0), Close: hm(22, 0)}, ErrInvalidDuration},
		{"open equals close", 60, court.DayHours{Open: hm(8, 0), Close: hm(8, 0)}, ErrInvalidHours},
		{"open after close", 60, court.DayHours{Open: hm(22, 0), Close: hm(8, 0)}, ErrInvalidHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCourt(tt.duration, court.WorkingHours{time.Monday: tt.hours})
			_, err := Generate(c, monday)
			require.ErrorIs(t, err, tt.want)
			assert.Equal(t, apperror.KindInvalidConfiguration, apperror.KindOf(err))
		})
	}
}

func TestGenerateUnknownTimezone(t *testing.T) {
	c := newCourt(60, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(22, 0)}})
	c.Facility.Timezone = "Europe/Ljubjlana"

	windows, err := Generate(c, monday)
	require.ErrorIs(t, err, court.ErrInvalidTimezone)
	assert.Equal(t, apperror.KindInvalidConfiguration, apperror.KindOf(err))
	assert.Empty(t, windows)

	err = CheckWithinHours(c, monday, hm(9, 0), hm(10, 0))
	assert.ErrorIs(t, err, court.ErrInvalidTimezone)
}

func TestGenerateBounds(t *testing.T) {
	for duration := 5; duration <= 240; duration += 5 {
		for open := 0; open < 23*60; open += 45 {
			for _, closeAt := range []int{open + 30, open + 61, 22 * 60, 24 * 60} {
				if closeAt <= open || closeAt > 24*60 {
					continue
				}
				hours := court.DayHours{Open: timeofday.TimeOfDay(open), Close: timeofday.TimeOfDay(closeAt)}
				c := newCourt(duration, court.WorkingHours{time.Monday: hours})

				windows, err := Generate(c, monday)
				require.NoError(t, err)
				require.Len(t, windows, (closeAt-open)/duration)

				for i, w := range windows {
					assert.Equal(t, duration, int(w.End.Sub(w.Start).Minutes()))
					assert.False(t, w.Start.Before(hours.Open.On(monday, time.UTC)))
					assert.False(t, w.End.After(hours.Close.On(monday, time.UTC)))
					if i > 0 {
						assert.Equal(t, windows[i-1].End, w.Start)
					}
				}
			}
		}
	}
}

func TestCheckWithinHours(t *testing.T) {
	c := newCourt(60, court.WorkingHours{time.Monday: {Open: hm(8, 0), Close: hm(22, 0)}})

	assert.NoError(t, CheckWithinHours(c, monday, hm(8, 0), hm(22, 0)))
	assert.NoError(t, CheckWithinHours(c, monday, hm(18, 0), hm(19, 30)))
	assert.ErrorIs(t, CheckWithinHours(c, monday, hm(7, 0), hm(9, 0)), ErrOutsideHours)
	assert.ErrorIs(t, CheckWithinHours(c, monday, hm(21, 0), hm(23, 0)), ErrOutsideHours)
	assert.ErrorIs(t, CheckWithinHours(c, monday.AddDate(0, 0, 1), hm(9, 0), hm(10, 0)), ErrOutsideHours)
}
