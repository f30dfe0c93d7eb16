package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	err    error
	ctxErr error
}

func (r *recorder) Notify(ctx context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	r.ctxErr = ctx.Err()
	return r.err
}

func TestDispatchOutlivesRequestContext(t *testing.T) {
	rec := &recorder{}
	d := NewDispatcher(rec, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Dispatch(ctx, Event{Type: EventSeriesConfirmed, CourtID: "c1"})
	d.Wait()

	require.Len(t, rec.events, 1)
	assert.NoError(t, rec.ctxErr)
	assert.False(t, rec.events[0].OccurredAt.IsZero())
}

func TestDispatchSwallowsErrors(t *testing.T) {
	d := NewDispatcher(&recorder{err: errors.New("broker down")}, time.Second)
	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), Event{Type: EventSeriesRejected})
		d.Wait()
	})

	var nilDispatcher *Dispatcher
	assert.NotPanics(t, func() {
		nilDispatcher.Dispatch(context.Background(), Event{})
		nilDispatcher.Wait()
	})
}

func TestMultiJoinsErrors(t *testing.T) {
	a, b := &recorder{}, &recorder{err: errors.New("boom")}
	err := Multi{a, b, LogNotifier{}}.Notify(context.Background(), Event{Type: EventSeriesActivated})

	assert.EqualError(t, err, "boom")
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}

type fakeSender struct {
	recipient, subject, body string
	calls                    int
}

func (f *fakeSender) Send(ctx context.Context, recipient, subject, body string) error {
	f.calls++
	f.recipient, f.subject, f.body = recipient, subject, body
	return nil
}

func TestEmailNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := NewEmailNotifier(sender)

	require.NoError(t, n.Notify(context.Background(), Event{Type: EventSeriesActivated}))
	assert.Zero(t, sender.calls, "no address, no email")

	start := time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)
	require.NoError(t, n.Notify(context.Background(), Event{
		Type:      EventWaitlistOffered,
		Email:     " player@example.com ",
		CourtName: "Court A",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	}))
	assert.Equal(t, 1, sender.calls)
	assert.Equal(t, "player@example.com", sender.recipient)
	assert.Equal(t, "A court slot you waited for is available", sender.subject)
	assert.Contains(t, sender.body, "Court: Court A")
	assert.Contains(t, sender.body, "Mon 1 Jan 2024 18:00 - 19:00")
}
