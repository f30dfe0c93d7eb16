package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/nekogravitycat/court-season-backend/internal/court"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching intervals do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// BlockingLister returns the bookings occupying a court within [from, to).
// Bookings of excludeSeriesID are left out when it is not empty.
type BlockingLister interface {
	ListBlocking(ctx context.Context, courtID string, from, to time.Time, excludeSeriesID string) ([]*Booking, error)
}

// Conflict describes a requested window colliding with an occupying booking.
type Conflict struct {
	Date      string // YYYY-MM-DD in the facility time zone
	Time      string // HH:MM-HH:MM of the requested window
	CourtName string
	BookingID string
}

// DetectConflicts pairs every window with the occupying bookings it overlaps.
// Output follows window order, then existing order.
func DetectConflicts(courtName string, loc *time.Location, windows []Interval, existing []*Booking, excludeSeriesID string) []Conflict {
	var conflicts []Conflict
	for _, w := range windows {
		for _, b := range existing {
			if !b.Occupies() {
				continue
			}
			if excludeSeriesID != "" && b.SeasonalSeriesID != nil && *b.SeasonalSeriesID == excludeSeriesID {
				continue
			}
			if !Overlaps(w.Start, w.End, b.StartTime, b.EndTime) {
				continue
			}
			start := w.Start.In(loc)
			conflicts = append(conflicts, Conflict{
				Date:      start.Format("2006-01-02"),
				Time:      fmt.Sprintf("%s-%s", start.Format("15:04"), w.End.In(loc).Format("15:04")),
				CourtName: courtName,
				BookingID: b.ID,
			})
		}
	}
	return conflicts
}

// FindConflicts loads the occupying bookings spanning windows and returns
// every collision. Callers that write afterwards must pass a lister bound
// to the court-locked transaction doing the write.
func FindConflicts(ctx context.Context, lister BlockingLister, c *court.Court, windows []Interval, excludeSeriesID string) ([]Conflict, error) {
	if len(windows) == 0 {
		return nil, nil
	}

	from, to := windows[0].Start, windows[0].End
	for _, w := range windows[1:] {
		if w.Start.Before(from) {
			from = w.Start
		}
		if w.End.After(to) {
			to = w.End
		}
	}

	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	existing, err := lister.ListBlocking(ctx, c.ID, from, to, excludeSeriesID)
	if err != nil {
		return nil, err
	}
	return DetectConflicts(c.Name, loc, windows, existing, excludeSeriesID), nil
}
