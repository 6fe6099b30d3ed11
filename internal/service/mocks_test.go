package service_test

import (
	"context"
	"time"

	"taskflow/internal/models/section"
	"taskflow/internal/models/subscription"
	"taskflow/internal/models/task"
	"taskflow/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockTaskRepository is a testify mock of the task repository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTaskRepository) Create(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) CreateMany(ctx context.Context, tasks []*task.Task) error {
	args := m.Called(ctx, tasks)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, t *task.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTaskRepository) UpdateMany(ctx context.Context, tasks []*task.Task) error {
	args := m.Called(ctx, tasks)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, subscriptionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) ListSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, subscriptionID, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *MockTaskRepository) Delete(ctx context.Context, subscriptionID uuid.UUID, ids []uuid.UUID) error {
	args := m.Called(ctx, subscriptionID, ids)
	return args.Error(0)
}

func (m *MockTaskRepository) ListWithDueReminders(ctx context.Context, now time.Time, skip []uuid.UUID, limit int) ([]*task.Task, error) {
	args := m.Called(ctx, now, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*task.Task), args.Error(1)
}

var _ service.TaskRepository = (*MockTaskRepository)(nil)

type MockLocator struct {
	mock.Mock
}

func (m *MockLocator) Location(ctx context.Context, subscriptionID uuid.UUID) (*time.Location, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*time.Location), args.Error(1)
}

var _ service.Locator = (*MockLocator)(nil)

type MockSectionRepository struct {
	mock.Mock
}

func (m *MockSectionRepository) Create(ctx context.Context, sec *section.Section) error {
	args := m.Called(ctx, sec)
	return args.Error(0)
}

func (m *MockSectionRepository) CreateMany(ctx context.Context, sections []*section.Section) error {
	args := m.Called(ctx, sections)
	return args.Error(0)
}

func (m *MockSectionRepository) Update(ctx context.Context, sec *section.Section) error {
	args := m.Called(ctx, sec)
	return args.Error(0)
}

func (m *MockSectionRepository) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error) {
	args := m.Called(ctx, subscriptionID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*section.Section), args.Error(1)
}

func (m *MockSectionRepository) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*section.Section), args.Error(1)
}

func (m *MockSectionRepository) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	args := m.Called(ctx, subscriptionID, id)
	return args.Error(0)
}

var _ service.SectionRepository = (*MockSectionRepository)(nil)

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Update(ctx context.Context, sub *subscription.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ service.SubscriptionRepository = (*MockSubscriptionRepository)(nil)
