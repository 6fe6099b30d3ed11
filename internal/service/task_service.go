package service

import (
	"context"
	"errors"
	"fmt"

	"taskflow/internal/errs"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	rep "taskflow/internal/repository"
	"taskflow/internal/timectx"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskService struct {
	repo     TaskRepository
	projects ProjectRepository
	locator  Locator
	clock    timectx.Clock
}

func NewTaskService(repo TaskRepository, projects ProjectRepository, locator Locator, clock timectx.Clock) *TaskService {
	if clock == nil {
		clock = timectx.SystemClock{}
	}
	return &TaskService{
		repo:     repo,
		projects: projects,
		locator:  locator,
		clock:    clock,
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		logger.Error("Service: Health check failed", err)
		return fmt.Errorf("service health check: %w", err)
	}
	return nil
}

// forest loads every task of the subscription with subtasks linked.
func (s *TaskService) forest(ctx context.Context, subscriptionID uuid.UUID) (*task.Forest, error) {
	tasks, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return task.NewForest(tasks), nil
}

func (s *TaskService) load(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, *task.Forest, error) {
	f, err := s.forest(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}
	t, ok := f.Get(id)
	if !ok {
		logger.Info("Service: Task not found", zap.String("target_id", id.String()))
		return nil, nil, errs.NewNotFound("task", id.String())
	}
	return t, f, nil
}

func (s *TaskService) persist(ctx context.Context, op string, id uuid.UUID, changed []*task.Task) error {
	if len(changed) == 0 {
		return nil
	}
	var err error
	if len(changed) == 1 {
		err = s.repo.Update(ctx, changed[0])
	} else {
		err = s.repo.UpdateMany(ctx, changed)
	}
	return translate(err, op, "task", id)
}

// mutate loads a task with its subtree, applies fn and stores the task.
func (s *TaskService) mutate(ctx context.Context, subscriptionID, id uuid.UUID, op string, fn func(*task.Task) error) (*task.Task, error) {
	t, _, err := s.load(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, op, id, []*task.Task{t}); err != nil {
		return nil, err
	}
	return t, nil
}

// nextSortOrder returns the first free sort order among top level tasks of
// the project, or of the inbox when projectID is nil.
func nextSortOrder(f *task.Forest, projectID uuid.UUID, skip uuid.UUID) int {
	next := 0
	for _, root := range f.Roots() {
		if root.ID() == skip {
			continue
		}
		if pid, _ := root.ProjectID(); pid != projectID {
			continue
		}
		if root.SortOrder()+1 > next {
			next = root.SortOrder() + 1
		}
	}
	return next
}

func (s *TaskService) checkProject(ctx context.Context, subscriptionID, projectID uuid.UUID) error {
	if projectID == uuid.Nil {
		return nil
	}
	_, err := s.projects.GetByID(ctx, subscriptionID, projectID)
	return translate(err, "get project", "project", projectID)
}

// CreateTask adds a top level task to the project, or to the inbox when
// projectID is nil, after the existing tasks of that scope.
func (s *TaskService) CreateTask(ctx context.Context, subscriptionID, projectID uuid.UUID, title string, opts ...task.TaskOption) (*task.Task, error) {
	if err := s.checkProject(ctx, subscriptionID, projectID); err != nil {
		return nil, err
	}
	t, err := task.NewTask(subscriptionID, title, s.clock.Now(), opts...)
	if err != nil {
		return nil, err
	}
	f, err := s.forest(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if err := t.SetSortOrder(nextSortOrder(f, projectID, uuid.Nil)); err != nil {
		return nil, err
	}
	if projectID != uuid.Nil {
		if _, err := t.AssignToProject(projectID); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, translate(err, "create task", "task", t.ID())
	}
	logger.Info("Service: Task created", zap.String("task_id", t.ID().String()))
	return t, nil
}

// CreateSubTask creates a task directly below parentID.
func (s *TaskService) CreateSubTask(ctx context.Context, subscriptionID, parentID uuid.UUID, title string, opts ...task.TaskOption) (*task.Task, error) {
	parent, _, err := s.load(ctx, subscriptionID, parentID)
	if err != nil {
		return nil, err
	}
	t, err := task.NewTask(subscriptionID, title, s.clock.Now(), opts...)
	if err != nil {
		return nil, err
	}
	if _, err := parent.AddSubTask(t); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, translate(err, "create subtask", "task", t.ID())
	}
	return t, nil
}

// GetTask returns the task with its subtree linked.
func (s *TaskService) GetTask(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	t, _, err := s.load(ctx, subscriptionID, id)
	return t, err
}

// ListTasks returns the top level tasks; subtasks hang below their parents.
func (s *TaskService) ListTasks(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error) {
	f, err := s.forest(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return f.Roots(), nil
}

func (s *TaskService) UpdateTask(ctx context.Context, subscriptionID, id uuid.UUID, options ...UpdateOption) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "update task", func(t *task.Task) error {
		for _, opt := range options {
			if err := opt(t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *TaskService) AddTag(ctx context.Context, subscriptionID, id uuid.UUID, tag string) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "add tag", func(t *task.Task) error {
		return t.AddTag(tag)
	})
}

func (s *TaskService) RemoveTag(ctx context.Context, subscriptionID, id uuid.UUID, tag string) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "remove tag", func(t *task.Task) error {
		t.RemoveTag(tag)
		return nil
	})
}

func (s *TaskService) ToggleImportant(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "toggle important", func(t *task.Task) error {
		return t.ToggleImportant()
	})
}

func (s *TaskService) ToggleFocus(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "toggle focus", func(t *task.Task) error {
		t.ToggleFocus()
		return nil
	})
}

func (s *TaskService) SetMarkedForToday(ctx context.Context, subscriptionID, id uuid.UUID, marked bool) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "mark for today", func(t *task.Task) error {
		if marked {
			t.MarkForToday()
		} else {
			t.UnmarkForToday()
		}
		return nil
	})
}

func (s *TaskService) SetDueDate(ctx context.Context, subscriptionID, id uuid.UUID, date civil.Date) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "set due date", func(t *task.Task) error {
		return t.SetDueDate(date)
	})
}

// SetDueDateTime interprets date and clock in the subscription's time zone.
func (s *TaskService) SetDueDateTime(ctx context.Context, subscriptionID, id uuid.UUID, date civil.Date, clock civil.Time) (*task.Task, error) {
	loc, err := s.locator.Location(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, subscriptionID, id, "set due date and time", func(t *task.Task) error {
		return t.SetDueDateTime(date, clock, loc)
	})
}

func (s *TaskService) ClearDueDate(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "clear due date", func(t *task.Task) error {
		t.ClearDueDate()
		return nil
	})
}

func (s *TaskService) AddRelativeReminder(ctx context.Context, subscriptionID, id uuid.UUID, minutesBefore int) (*task.Reminder, error) {
	var added *task.Reminder
	_, err := s.mutate(ctx, subscriptionID, id, "add reminder", func(t *task.Task) error {
		r, err := t.AddRelativeReminder(minutesBefore)
		added = r
		return err
	})
	return added, err
}

func (s *TaskService) AddOnTimeReminder(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Reminder, error) {
	return s.AddRelativeReminder(ctx, subscriptionID, id, 0)
}

func (s *TaskService) AddDateOnlyReminder(ctx context.Context, subscriptionID, id uuid.UUID, fallback civil.Time) (*task.Reminder, error) {
	loc, err := s.locator.Location(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	var added *task.Reminder
	_, err = s.mutate(ctx, subscriptionID, id, "add reminder", func(t *task.Task) error {
		r, err := t.AddDateOnlyReminder(fallback, loc)
		added = r
		return err
	})
	return added, err
}

func (s *TaskService) RemoveReminder(ctx context.Context, subscriptionID, id, reminderID uuid.UUID) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "remove reminder", func(t *task.Task) error {
		t.RemoveReminder(reminderID)
		return nil
	})
}

// Complete completes the task and every descendant and persists the changed
// tasks together.
func (s *TaskService) Complete(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	t, _, err := s.load(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	changed := t.Complete(s.clock.Now())
	if err := s.persist(ctx, "complete task", id, changed); err != nil {
		return nil, err
	}
	logger.Info("Service: Task completed", zap.String("task_id", id.String()), zap.Int("changed", len(changed)))
	return t, nil
}

func (s *TaskService) Uncomplete(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	return s.mutate(ctx, subscriptionID, id, "uncomplete task", func(t *task.Task) error {
		t.Uncomplete()
		return nil
	})
}

func (s *TaskService) AssignToProject(ctx context.Context, subscriptionID, id, projectID uuid.UUID) (*task.Task, error) {
	if projectID == uuid.Nil {
		return nil, errs.NewValidation("project_id", "must not be empty")
	}
	if err := s.checkProject(ctx, subscriptionID, projectID); err != nil {
		return nil, err
	}
	t, f, err := s.load(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	current, _ := t.ProjectID()
	order := nextSortOrder(f, projectID, t.ID())
	changed, err := t.AssignToProject(projectID)
	if err != nil {
		return nil, err
	}
	if current == projectID {
		return t, nil
	}
	if err := t.SetSortOrder(order); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, "assign to project", id, changed); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) UnassignFromProject(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	t, f, err := s.load(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	wasAssigned := t.IsAssigned()
	order := nextSortOrder(f, uuid.Nil, t.ID())
	changed, err := t.UnassignFromProject()
	if err != nil {
		return nil, err
	}
	if !wasAssigned {
		return t, nil
	}
	if err := t.SetSortOrder(order); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, "unassign from project", id, changed); err != nil {
		return nil, err
	}
	return t, nil
}

// AddSubTask moves an existing top level task below parentID.
func (s *TaskService) AddSubTask(ctx context.Context, subscriptionID, parentID, childID uuid.UUID) (*task.Task, error) {
	parent, f, err := s.load(ctx, subscriptionID, parentID)
	if err != nil {
		return nil, err
	}
	child, ok := f.Get(childID)
	if !ok {
		return nil, errs.NewNotFound("task", childID.String())
	}
	changed, err := parent.AddSubTask(child)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, "add subtask", parentID, changed); err != nil {
		return nil, err
	}
	return parent, nil
}

// RemoveSubTask turns a direct subtask into a top level task of the same
// project, placed after the existing ones.
func (s *TaskService) RemoveSubTask(ctx context.Context, subscriptionID, parentID, childID uuid.UUID) (*task.Task, error) {
	parent, f, err := s.load(ctx, subscriptionID, parentID)
	if err != nil {
		return nil, err
	}
	projectID, _ := parent.ProjectID()
	order := nextSortOrder(f, projectID, uuid.Nil)
	detached, err := parent.RemoveSubTask(childID)
	if err != nil {
		return nil, err
	}
	if err := detached.SetSortOrder(order); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, "remove subtask", childID, []*task.Task{detached}); err != nil {
		return nil, err
	}
	return detached, nil
}

// ReorderProject reorders the top level tasks of a project, or of the inbox
// when projectID is nil.
func (s *TaskService) ReorderProject(ctx context.Context, subscriptionID, projectID uuid.UUID, ids []uuid.UUID) ([]*task.Task, error) {
	if err := s.checkProject(ctx, subscriptionID, projectID); err != nil {
		return nil, err
	}
	f, err := s.forest(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	var siblings []*task.Task
	for _, root := range f.Roots() {
		if pid, _ := root.ProjectID(); pid == projectID {
			siblings = append(siblings, root)
		}
	}
	return s.reorder(ctx, projectID, siblings, ids)
}

func (s *TaskService) ReorderSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID, ids []uuid.UUID) ([]*task.Task, error) {
	parent, _, err := s.load(ctx, subscriptionID, parentID)
	if err != nil {
		return nil, err
	}
	return s.reorder(ctx, parentID, parent.SubTasks(), ids)
}

func (s *TaskService) reorder(ctx context.Context, scopeID uuid.UUID, siblings []*task.Task, ids []uuid.UUID) ([]*task.Task, error) {
	ordered, changed, err := task.Reorder(siblings, ids)
	if err != nil {
		return nil, err
	}
	if err := s.persist(ctx, "reorder tasks", scopeID, changed); err != nil {
		return nil, err
	}
	logger.Debug("Service: Tasks reordered", zap.Int("siblings", len(ordered)), zap.Int("changed", len(changed)))
	return ordered, nil
}

// DeleteTask removes the task together with its whole subtree.
func (s *TaskService) DeleteTask(ctx context.Context, subscriptionID, id uuid.UUID) error {
	t, _, err := s.load(ctx, subscriptionID, id)
	if err != nil {
		return err
	}
	subtree := t.Subtree()
	ids := make([]uuid.UUID, len(subtree))
	for i, n := range subtree {
		ids[i] = n.ID()
	}
	if err := s.repo.Delete(ctx, subscriptionID, ids); err != nil {
		return translate(err, "delete task", "task", id)
	}
	logger.Info("Service: Task deleted", zap.String("task_id", id.String()), zap.Int("removed", len(ids)))
	return nil
}

// Export returns the subscription's top level tasks with subtrees linked.
func (s *TaskService) Export(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error) {
	return s.ListTasks(ctx, subscriptionID)
}

// Import stores imported task trees all at once. Ids are kept, so importing
// into a subscription that already holds any of them stores nothing.
func (s *TaskService) Import(ctx context.Context, subscriptionID uuid.UUID, roots []*task.Task) (int, error) {
	var all []*task.Task
	for _, root := range roots {
		all = append(all, root.Subtree()...)
	}
	checked := map[uuid.UUID]bool{}
	for _, t := range all {
		if t.SubscriptionID() != subscriptionID {
			return 0, errs.NewTenantMismatch("task", t.ID().String())
		}
		if pid, ok := t.ProjectID(); ok && !checked[pid] {
			if err := s.checkProject(ctx, subscriptionID, pid); err != nil {
				return 0, err
			}
			checked[pid] = true
		}
	}
	if err := s.repo.CreateMany(ctx, all); err != nil {
		logger.Warn("Service: Import rejected", zap.Int("tasks", len(all)), zap.Error(err))
		if errors.Is(err, rep.ErrAlreadyExists) {
			return 0, errs.NewInvalidOperation("import tasks", "an imported task id is already in use")
		}
		return 0, fmt.Errorf("import tasks: %w", err)
	}
	logger.Info("Service: Tasks imported", zap.Int("count", len(all)))
	return len(all), nil
}
