package reservation

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/nekogravitycat/court-reservation-backend/internal/resource"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) FindOverlapping(ctx context.Context, q OverlapQuery) ([]*Reservation, error) {
	args := m.Called(ctx, q)
	found, _ := args.Get(0).([]*Reservation)
	return found, args.Error(1)
}

func (m *mockRepository) InsertIfFree(ctx context.Context, r *Reservation) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*Reservation, error) {
	args := m.Called(ctx, id)
	b, _ := args.Get(0).(*Reservation)
	return b, args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, filter Filter) ([]*Reservation, int, error) {
	args := m.Called(ctx, filter)
	items, _ := args.Get(0).([]*Reservation)
	return items, args.Int(1), args.Error(2)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) CompleteElapsed(ctx context.Context, today time.Time, hour int) (int64, error) {
	args := m.Called(ctx, today, hour)
	return args.Get(0).(int64), args.Error(1)
}

type mockResources struct {
	mock.Mock
}

func (m *mockResources) GetByID(ctx context.Context, id string) (*resource.Resource, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*resource.Resource)
	return r, args.Error(1)
}

func (m *mockResources) Pool(ctx context.Context, venueID, activityID string) ([]*resource.Resource, error) {
	args := m.Called(ctx, venueID, activityID)
	pool, _ := args.Get(0).([]*resource.Resource)
	return pool, args.Error(1)
}
