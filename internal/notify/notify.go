// Package notify fans lifecycle events out to log, message broker and email sinks.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSeriesCreated   EventType = "series.created"
	EventSeriesConfirmed EventType = "series.confirmed"
	EventSeriesRejected  EventType = "series.rejected"
	EventSeriesActivated EventType = "series.activated"
	EventSeriesCompleted EventType = "series.completed"
	EventWaitlistOffered EventType = "waitlist.offered"
)

// Event is a lifecycle change worth telling someone about.
type Event struct {
	Type       EventType `json:"type"`
	SeriesID   string    `json:"series_id,omitempty"`
	EntryID    string    `json:"entry_id,omitempty"`
	CourtID    string    `json:"court_id"`
	CourtName  string    `json:"court_name,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Phone      string    `json:"phone,omitempty"`
	StartTime  time.Time `json:"start_time,omitzero"`
	EndTime    time.Time `json:"end_time,omitzero"`
	Message    string    `json:"message,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// LogNotifier writes events to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, e Event) error {
	log.Info().
		Str("event", string(e.Type)).
		Str("series_id", e.SeriesID).
		Str("entry_id", e.EntryID).
		Str("court_id", e.CourtID).
		Str("user_id", e.UserID).
		Msg(e.Message)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
