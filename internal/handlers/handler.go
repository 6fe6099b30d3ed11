package handlers

import (
	"context"
	"time"

	"taskflow/internal/models/project"
	"taskflow/internal/models/section"
	"taskflow/internal/models/subscription"
	"taskflow/internal/models/task"
	"taskflow/internal/service"

	"cloud.google.com/go/civil"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, subscriptionID, projectID uuid.UUID, title string, opts ...task.TaskOption) (*task.Task, error)
	CreateSubTask(ctx context.Context, subscriptionID, parentID uuid.UUID, title string, opts ...task.TaskOption) (*task.Task, error)
	GetTask(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	ListTasks(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error)
	UpdateTask(ctx context.Context, subscriptionID, id uuid.UUID, options ...service.UpdateOption) (*task.Task, error)
	AddTag(ctx context.Context, subscriptionID, id uuid.UUID, tag string) (*task.Task, error)
	RemoveTag(ctx context.Context, subscriptionID, id uuid.UUID, tag string) (*task.Task, error)
	ToggleImportant(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	ToggleFocus(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	SetMarkedForToday(ctx context.Context, subscriptionID, id uuid.UUID, marked bool) (*task.Task, error)
	SetDueDate(ctx context.Context, subscriptionID, id uuid.UUID, date civil.Date) (*task.Task, error)
	SetDueDateTime(ctx context.Context, subscriptionID, id uuid.UUID, date civil.Date, clock civil.Time) (*task.Task, error)
	ClearDueDate(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	AddRelativeReminder(ctx context.Context, subscriptionID, id uuid.UUID, minutesBefore int) (*task.Reminder, error)
	AddOnTimeReminder(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Reminder, error)
	AddDateOnlyReminder(ctx context.Context, subscriptionID, id uuid.UUID, fallback civil.Time) (*task.Reminder, error)
	RemoveReminder(ctx context.Context, subscriptionID, id, reminderID uuid.UUID) (*task.Task, error)
	Complete(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	Uncomplete(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	AssignToProject(ctx context.Context, subscriptionID, id, projectID uuid.UUID) (*task.Task, error)
	UnassignFromProject(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error)
	AddSubTask(ctx context.Context, subscriptionID, parentID, childID uuid.UUID) (*task.Task, error)
	RemoveSubTask(ctx context.Context, subscriptionID, parentID, childID uuid.UUID) (*task.Task, error)
	ReorderProject(ctx context.Context, subscriptionID, projectID uuid.UUID, ids []uuid.UUID) ([]*task.Task, error)
	ReorderSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID, ids []uuid.UUID) ([]*task.Task, error)
	DeleteTask(ctx context.Context, subscriptionID, id uuid.UUID) error
}

type SectionService interface {
	Create(ctx context.Context, subscriptionID uuid.UUID, name string, rule section.Rule) (*section.Section, error)
	Get(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error)
	List(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error)
	Rename(ctx context.Context, subscriptionID, id uuid.UUID, name string) (*section.Section, error)
	UpdateRule(ctx context.Context, subscriptionID, id uuid.UUID, rule section.Rule) (*section.Section, error)
	IncludeTask(ctx context.Context, subscriptionID, id, taskID uuid.UUID) (*section.Section, error)
	RemoveTask(ctx context.Context, subscriptionID, id, taskID uuid.UUID) (*section.Section, error)
	Delete(ctx context.Context, subscriptionID, id uuid.UUID) error
	Resolve(ctx context.Context, subscriptionID, id uuid.UUID) ([]*task.Task, error)
	View(ctx context.Context, subscriptionID uuid.UUID) ([]service.SectionView, error)
}

type ProjectService interface {
	Create(ctx context.Context, subscriptionID uuid.UUID, name string) (*project.Project, error)
	Get(ctx context.Context, subscriptionID, id uuid.UUID) (*project.Project, error)
	List(ctx context.Context, subscriptionID uuid.UUID) ([]*project.Project, error)
	Delete(ctx context.Context, subscriptionID, id uuid.UUID) error
}

type SubscriptionService interface {
	Create(ctx context.Context, name, timeZone string) (*subscription.Subscription, error)
	Get(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error)
	UpdateTimeZone(ctx context.Context, id uuid.UUID, timeZone string) (*subscription.Subscription, error)
}

// Handler serves the HTTP API. The tenant is always taken from the
// {subscriptionID} path segment.
type Handler struct {
	Tasks         TaskService
	Sections      SectionService
	Projects      ProjectService
	Subscriptions SubscriptionService
	HealthTimeout time.Duration
}

func NewHandler(tasks TaskService, sections SectionService, projects ProjectService, subscriptions SubscriptionService) *Handler {
	return &Handler{
		Tasks:         tasks,
		Sections:      sections,
		Projects:      projects,
		Subscriptions: subscriptions,
		HealthTimeout: 5 * time.Second,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Post("/subscriptions", h.CreateSubscription)
	r.Route("/subscriptions/{subscriptionID}", func(r chi.Router) {
		r.Get("/", h.GetSubscription)
		r.Put("/timezone", h.UpdateTimeZone)

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", h.ListProjects)
			r.Post("/", h.CreateProject)
			r.Route("/{projectID}", func(r chi.Router) {
				r.Get("/", h.GetProject)
				r.Delete("/", h.DeleteProject)
				r.Post("/reorder", h.ReorderProject)
			})
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Post("/reorder", h.ReorderInbox)

			r.Route("/{taskID}", func(r chi.Router) {
				r.Get("/", h.GetTask)
				r.Patch("/", h.UpdateTask)
				r.Delete("/", h.DeleteTask)

				r.Post("/complete", h.CompleteTask)
				r.Post("/uncomplete", h.UncompleteTask)
				r.Post("/important", h.ToggleImportant)
				r.Post("/focus", h.ToggleFocus)
				r.Put("/today", h.MarkForToday)

				r.Post("/tags", h.AddTag)
				r.Delete("/tags/{tag}", h.RemoveTag)

				r.Put("/due", h.SetDue)
				r.Delete("/due", h.ClearDue)
				r.Post("/reminders", h.AddReminder)
				r.Delete("/reminders/{reminderID}", h.RemoveReminder)

				r.Put("/project", h.AssignProject)
				r.Delete("/project", h.UnassignProject)

				r.Post("/subtasks", h.AddSubTask)
				r.Post("/subtasks/reorder", h.ReorderSubTasks)
				r.Delete("/subtasks/{childID}", h.RemoveSubTask)
			})
		})

		r.Route("/sections", func(r chi.Router) {
			r.Get("/", h.ListSections)
			r.Post("/", h.CreateSection)
			r.Get("/view", h.ViewSections)

			r.Route("/{sectionID}", func(r chi.Router) {
				r.Get("/", h.GetSection)
				r.Patch("/", h.RenameSection)
				r.Delete("/", h.DeleteSection)
				r.Put("/rule", h.UpdateSectionRule)
				r.Get("/tasks", h.ResolveSection)
				r.Put("/tasks/{taskID}", h.IncludeSectionTask)
				r.Delete("/tasks/{taskID}", h.RemoveSectionTask)
			})
		})
	})
}
