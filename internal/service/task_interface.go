package service

import (
	"context"
	"time"

	"taskflow/internal/models/project"
	"taskflow/internal/models/section"
	"taskflow/internal/models/subscription"
	"taskflow/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	HealthCheck(context.Context) error
	Create(context.Context, *task.Task) error
	// CreateMany stores all tasks or none of them.
	CreateMany(context.Context, []*task.Task) error
	Update(context.Context, *task.Task) error
	UpdateMany(context.Context, []*task.Task) error
	GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error)
	ListSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID) ([]*task.Task, error)
	Delete(ctx context.Context, subscriptionID uuid.UUID, ids []uuid.UUID) error
	ListWithDueReminders(ctx context.Context, now time.Time, skip []uuid.UUID, limit int) ([]*task.Task, error)
}

type SectionRepository interface {
	Create(context.Context, *section.Section) error
	CreateMany(context.Context, []*section.Section) error
	Update(context.Context, *section.Section) error
	GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error)
	Delete(ctx context.Context, subscriptionID, id uuid.UUID) error
}

type ProjectRepository interface {
	Create(context.Context, *project.Project) error
	GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*project.Project, error)
	ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*project.Project, error)
	Delete(ctx context.Context, subscriptionID, id uuid.UUID) error
}

type SubscriptionRepository interface {
	Create(context.Context, *subscription.Subscription) error
	Update(context.Context, *subscription.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Locator resolves the time zone a subscription works in.
type Locator interface {
	Location(ctx context.Context, subscriptionID uuid.UUID) (*time.Location, error)
}
