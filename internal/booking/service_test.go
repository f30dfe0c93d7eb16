package booking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/pricing"
	"github.com/nekogravitycat/court-season-backend/internal/slot"
)

type memRepo struct {
	mu    sync.Mutex
	items map[string]*Booking
	seq   int
}

func newMemRepo() *memRepo {
	return &memRepo{items: map[string]*Booking{}}
}

func (r *memRepo) Create(ctx context.Context, b *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("b-%d", r.seq)
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *memRepo) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.items {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (r *memRepo) UpdateStatus(ctx context.Context, id string, status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memRepo) ListBlocking(ctx context.Context, courtID string, from, to time.Time, excludeSeriesID string) ([]*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Booking
	for _, b := range r.items {
		if b.CourtID != courtID || !b.Occupies() || !Overlaps(from, to, b.StartTime, b.EndTime) {
			continue
		}
		if excludeSeriesID != "" && b.SeasonalSeriesID != nil && *b.SeasonalSeriesID == excludeSeriesID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memRepo) put(b *Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.items[b.ID] = &cp
}

type lockingRunner struct {
	mu   sync.Mutex
	repo Repository
}

func (l *lockingRunner) WithinCourt(ctx context.Context, courtID string, fn func(repo Repository) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(l.repo)
}

type courtStub struct {
	courts map[string]*court.Court
}

func (s courtStub) GetByID(ctx context.Context, id string) (*court.Court, error) {
	c, ok := s.courts[id]
	if !ok {
		return nil, court.ErrNotFound
	}
	return c, nil
}

func (s courtStub) GetBookable(ctx context.Context, id string) (*court.Court, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive {
		return nil, court.ErrInactive
	}
	return c, nil
}

type releaseCall struct {
	courtID    string
	start, end time.Time
}

type recordingReleaser struct {
	calls []releaseCall
}

func (r *recordingReleaser) NotifyOnRelease(ctx context.Context, courtID string, start, end time.Time) error {
	r.calls = append(r.calls, releaseCall{courtID, start, end})
	return nil
}

func testCourt(p pricing.Pricing) *court.Court {
	return &court.Court{
		ID:                  "c1",
		Name:                "Court A",
		SlotDurationMinutes: 60,
		Pricing:             p,
		IsActive:            true,
		Facility: court.Facility{
			Timezone:     "UTC",
			WorkingHours: court.WorkingHours{time.Monday: {Open: 8 * 60, Close: 22 * 60}},
			IsActive:     true,
		},
	}
}

type fixture struct {
	svc      *service
	repo     *memRepo
	releaser *recordingReleaser
	court    *court.Court
}

func newFixture(p pricing.Pricing) *fixture {
	repo := newMemRepo()
	c := testCourt(p)
	releaser := &recordingReleaser{}
	svc := NewService(repo, &lockingRunner{repo: repo}, courtStub{courts: map[string]*court.Court{c.ID: c}}, releaser).(*service)
	svc.now = func() time.Time { return time.Date(2029, 12, 31, 10, 0, 0, 0, time.UTC) }
	return &fixture{svc: svc, repo: repo, releaser: releaser, court: c}
}

func basic(price string) pricing.Pricing {
	return pricing.Basic{PricePerSlot: decimal.RequireFromString(price)}
}

func TestCreatePricesWindow(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()

	b, err := f.svc.Create(ctx, CreateRequest{UserID: "u1", CourtID: "c1", StartTime: at(7, 18, 0), EndTime: at(7, 19, 0)})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, PaymentPending, b.PaymentStatus)
	assert.Equal(t, "25.00", b.Price.StringFixed(2))

	b, err = f.svc.Create(ctx, CreateRequest{UserID: "u1", CourtID: "c1", StartTime: at(7, 19, 0), EndTime: at(7, 20, 30)})
	require.NoError(t, err)
	assert.Equal(t, "37.50", b.Price.StringFixed(2))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()

	tests := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"end before start", CreateRequest{CourtID: "c1", StartTime: at(7, 19, 0), EndTime: at(7, 18, 0)}, ErrInvalidTimeRange},
		{"in the past", CreateRequest{CourtID: "c1", StartTime: time.Date(2029, 12, 30, 9, 0, 0, 0, time.UTC), EndTime: time.Date(2029, 12, 30, 10, 0, 0, 0, time.UTC)}, ErrStartTimePast},
		{"unknown court", CreateRequest{CourtID: "nope", StartTime: at(7, 18, 0), EndTime: at(7, 19, 0)}, court.ErrNotFound},
		{"before opening", CreateRequest{CourtID: "c1", StartTime: at(7, 7, 0), EndTime: at(7, 8, 0)}, slot.ErrOutsideHours},
		{"past closing", CreateRequest{CourtID: "c1", StartTime: at(7, 21, 30), EndTime: at(7, 22, 30)}, slot.ErrOutsideHours},
		{"closed day", CreateRequest{CourtID: "c1", StartTime: at(8, 18, 0), EndTime: at(8, 19, 0)}, slot.ErrOutsideHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateRefusesUnpricedCourt(t *testing.T) {
	f := newFixture(nil)
	_, err := f.svc.Create(context.Background(), CreateRequest{CourtID: "c1", StartTime: at(7, 18, 0), EndTime: at(7, 19, 0)})
	assert.ErrorIs(t, err, ErrUnpriced)

	rate := decimal.RequireFromString("12")
	f.court.Facility.DefaultPricePerSlot = &rate
	b, err := f.svc.Create(context.Background(), CreateRequest{CourtID: "c1", StartTime: at(7, 18, 0), EndTime: at(7, 19, 0)})
	require.NoError(t, err)
	assert.Equal(t, "12.00", b.Price.StringFixed(2))
}

func TestCreateConflicts(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()

	f.repo.put(&Booking{ID: "pending", CourtID: "c1", Status: StatusPending, StartTime: at(7, 10, 0), EndTime: at(7, 11, 0)})
	f.repo.put(&Booking{ID: "confirmed", CourtID: "c1", Status: StatusConfirmed, StartTime: at(7, 12, 0), EndTime: at(7, 13, 0)})

	_, err := f.svc.Create(ctx, CreateRequest{CourtID: "c1", StartTime: at(7, 10, 0), EndTime: at(7, 11, 0)})
	assert.NoError(t, err, "pending bookings do not occupy the court")

	_, err = f.svc.Create(ctx, CreateRequest{CourtID: "c1", StartTime: at(7, 12, 30), EndTime: at(7, 13, 30)})
	assert.ErrorIs(t, err, ErrTimeConflict)

	_, err = f.svc.Create(ctx, CreateRequest{CourtID: "c1", StartTime: at(7, 13, 0), EndTime: at(7, 14, 0)})
	assert.NoError(t, err, "touching windows do not conflict")
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()

	f.repo.put(&Booking{ID: "a", CourtID: "c1", Status: StatusPending, StartTime: at(7, 10, 0), EndTime: at(7, 11, 0)})
	f.repo.put(&Booking{ID: "b", CourtID: "c1", Status: StatusPending, StartTime: at(7, 10, 30), EndTime: at(7, 11, 30)})

	b, err := f.svc.UpdateStatus(ctx, "a", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, b.Status)

	_, err = f.svc.UpdateStatus(ctx, "b", StatusConfirmed)
	assert.ErrorIs(t, err, ErrTimeConflict)
	stored, _ := f.repo.GetByID(ctx, "b")
	assert.Equal(t, StatusPending, stored.Status)

	_, err = f.svc.UpdateStatus(ctx, "b", StatusRejected)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, "b", StatusConfirmed)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.svc.UpdateStatus(ctx, "a", StatusCompleted)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeriesMembersUseSeriesLifecycle(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()
	f.repo.put(&Booking{ID: "child", CourtID: "c1", Status: StatusPending, StartTime: at(7, 10, 0), EndTime: at(7, 11, 0),
		SeasonalSeriesID: strp("s1"), ParentBookingID: strp("s1")})

	_, err := f.svc.UpdateStatus(ctx, "child", StatusConfirmed)
	assert.ErrorIs(t, err, ErrSeriesMember)

	err = f.svc.Cancel(ctx, "child", "", true)
	assert.ErrorIs(t, err, ErrSeriesMember)
}

func TestCancel(t *testing.T) {
	f := newFixture(basic("25"))
	ctx := context.Background()
	f.repo.put(&Booking{ID: "a", CourtID: "c1", UserID: "owner", Status: StatusConfirmed, StartTime: at(7, 10, 0), EndTime: at(7, 11, 0)})
	f.repo.put(&Booking{ID: "old", CourtID: "c1", UserID: "owner", Status: StatusCompleted,
		StartTime: time.Date(2029, 12, 1, 10, 0, 0, 0, time.UTC), EndTime: time.Date(2029, 12, 1, 11, 0, 0, 0, time.UTC)})

	err := f.svc.Cancel(ctx, "a", "stranger", false)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	require.NoError(t, f.svc.Cancel(ctx, "a", "owner", false))
	_, err = f.repo.GetByID(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	require.Len(t, f.releaser.calls, 1)
	assert.Equal(t, releaseCall{"c1", at(7, 10, 0), at(7, 11, 0)}, f.releaser.calls[0])

	require.NoError(t, f.svc.Cancel(ctx, "old", "", true))
	assert.Len(t, f.releaser.calls, 1, "completed bookings release nothing")

	assert.ErrorIs(t, f.svc.Cancel(ctx, "missing", "", true), ErrNotFound)
}
