package waitlist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nekogravitycat/court-season-backend/internal/court"
	"github.com/nekogravitycat/court-season-backend/internal/notify"
)

type Service interface {
	Join(ctx context.Context, req JoinRequest) (*Entry, error)
	GetByID(ctx context.Context, id string) (*Entry, error)
	List(ctx context.Context, filter Filter) ([]*Entry, error)
	Withdraw(ctx context.Context, id string) error
	Fulfill(ctx context.Context, id string) error
	// NotifyOnRelease offers [start, end) on the court to the first waiting
	// entry overlapping it. It is a no-op when nobody is waiting.
	NotifyOnRelease(ctx context.Context, courtID string, start, end time.Time) error
}

type service struct {
	repo          Repository
	txr           TxRunner
	courts        court.Service
	dispatcher    *notify.Dispatcher
	defaultRegion string
	now           func() time.Time
}

func NewService(repo Repository, txr TxRunner, courts court.Service, dispatcher *notify.Dispatcher, defaultRegion string) Service {
	return &service{
		repo:          repo,
		txr:           txr,
		courts:        courts,
		dispatcher:    dispatcher,
		defaultRegion: defaultRegion,
		now:           time.Now,
	}
}

func (s *service) Join(ctx context.Context, req JoinRequest) (*Entry, error) {
	if !req.StartTime.Before(req.EndTime) {
		return nil, ErrInvalidTimeRange
	}
	contact, err := req.Contact.Normalize(s.defaultRegion)
	if err != nil {
		return nil, err
	}
	if _, err := s.courts.GetBookable(ctx, req.CourtID); err != nil {
		return nil, err
	}

	e := &Entry{
		CourtID:   req.CourtID,
		UserID:    req.UserID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Email:     contact.Email,
		Phone:     contact.Phone,
		Status:    StatusWaiting,
	}
	// Positions are assigned under the court lock so concurrent joins never share one.
	err = s.txr.WithinCourt(ctx, req.CourtID, func(repo Repository) error {
		return repo.Create(ctx, e)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("entry_id", e.ID).
		Str("court_id", e.CourtID).
		Int("position", e.Position).
		Msg("waitlist entry created")
	return e, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Entry, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Withdraw(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("entry_id", id).Msg("waitlist entry withdrawn")
	return nil
}

func (s *service) Fulfill(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("entry_id", id).Msg("waitlist entry fulfilled")
	return nil
}

func (s *service) NotifyOnRelease(ctx context.Context, courtID string, start, end time.Time) error {
	var offered *Entry
	err := s.txr.WithinCourt(ctx, courtID, func(repo Repository) error {
		e, err := repo.NextWaiting(ctx, courtID, start, end)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			return err
		}
		at := s.now().UTC()
		if err := repo.MarkOffered(ctx, e.ID, at); err != nil {
			return err
		}
		e.Status = StatusOffered
		e.OfferedAt = &at
		offered = e
		return nil
	})
	if err != nil {
		return fmt.Errorf("offer released slot: %w", err)
	}
	if offered == nil {
		return nil
	}

	log.Info().
		Str("entry_id", offered.ID).
		Str("court_id", courtID).
		Int("position", offered.Position).
		Msg("released slot offered to waitlist")

	s.dispatcher.Dispatch(ctx, notify.Event{
		Type:      notify.EventWaitlistOffered,
		EntryID:   offered.ID,
		CourtID:   courtID,
		UserID:    offered.UserID,
		Email:     offered.Email,
		Phone:     offered.Phone,
		StartTime: start,
		EndTime:   end,
		Message:   "A slot you are waiting for has become available",
	})
	return nil
}
