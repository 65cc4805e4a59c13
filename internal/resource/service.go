package resource

import (
	"context"

	"github.com/google/uuid"
)

// Service exposes the read side of resources needed for allocation.
// Creating and renaming resources is handled elsewhere.
type Service interface {
	GetByID(ctx context.Context, id string) (*Resource, error)
	Pool(ctx context.Context, venueID, activityID string) ([]*Resource, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Resource, error) {
	// Malformed IDs can never match a row; skip the round trip.
	u, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, u.String())
}

func (s *service) Pool(ctx context.Context, venueID, activityID string) ([]*Resource, error) {
	return s.repo.ListByPool(ctx, venueID, activityID)
}
