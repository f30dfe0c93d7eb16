package court

import "context"

type Service interface {
	GetByID(ctx context.Context, id string) (*Court, error)
	// GetBookable returns the court only if it and its facility accept bookings.
	GetBookable(ctx context.Context, id string) (*Court, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Court, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetBookable(ctx context.Context, id string) (*Court, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.IsActive || !c.Facility.IsActive {
		return nil, ErrInactive
	}
	return c, nil
}
