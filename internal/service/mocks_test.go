package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/siddhartha296/vechicle-service-portal/internal/domain"
	"github.com/siddhartha296/vechicle-service-portal/internal/events"
)

type mockComplaintRepo struct {
	mock.Mock
}

func (m *mockComplaintRepo) Create(ctx context.Context, complaint *domain.Complaint) error {
	args := m.Called(ctx, complaint)
	return args.Error(0)
}

func (m *mockComplaintRepo) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) ListByOwner(ctx context.Context, userID string) ([]domain.Complaint, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) ListAll(ctx context.Context) ([]domain.Complaint, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Complaint), args.Error(1)
}

func (m *mockComplaintRepo) Update(ctx context.Context, id string, patch domain.ComplaintPatch) (*domain.Complaint, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Complaint), args.Error(1)
}

type mockHistoryRepo struct {
	mock.Mock
}

func (m *mockHistoryRepo) Create(ctx context.Context, event *domain.ComplaintEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockHistoryRepo) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintEvent, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ComplaintEvent), args.Error(1)
}

type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *mockDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	m.Called(eventType, handler)
}
