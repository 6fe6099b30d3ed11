package service

import (
	"context"
	"fmt"

	"taskflow/internal/logger"
	"taskflow/internal/models/project"
	"taskflow/internal/models/task"
	"taskflow/internal/timectx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProjectService struct {
	repo  ProjectRepository
	tasks TaskRepository
	clock timectx.Clock
}

func NewProjectService(repo ProjectRepository, tasks TaskRepository, clock timectx.Clock) *ProjectService {
	if clock == nil {
		clock = timectx.SystemClock{}
	}
	return &ProjectService{repo: repo, tasks: tasks, clock: clock}
}

func (s *ProjectService) Create(ctx context.Context, subscriptionID uuid.UUID, name string) (*project.Project, error) {
	p, err := project.New(subscriptionID, name, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, translate(err, "create project", "project", p.ID)
	}
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, subscriptionID, id uuid.UUID) (*project.Project, error) {
	p, err := s.repo.GetByID(ctx, subscriptionID, id)
	if err != nil {
		return nil, translate(err, "get project", "project", id)
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, subscriptionID uuid.UUID) ([]*project.Project, error) {
	projects, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Delete moves the project's tasks to the end of the inbox, then removes
// the project.
func (s *ProjectService) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	if _, err := s.Get(ctx, subscriptionID, id); err != nil {
		return err
	}
	all, err := s.tasks.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}
	f := task.NewForest(all)
	// Moved trees go after the inbox, keeping their order within the project.
	next := nextSortOrder(f, uuid.Nil, uuid.Nil)
	var changed []*task.Task
	for _, root := range f.Roots() {
		if pid, _ := root.ProjectID(); pid != id {
			continue
		}
		moved, err := root.UnassignFromProject()
		if err != nil {
			return err
		}
		if err := root.SetSortOrder(next); err != nil {
			return err
		}
		next++
		changed = append(changed, moved...)
	}
	if len(changed) > 0 {
		if err := s.tasks.UpdateMany(ctx, changed); err != nil {
			return translate(err, "unassign project tasks", "project", id)
		}
	}
	if err := s.repo.Delete(ctx, subscriptionID, id); err != nil {
		return translate(err, "delete project", "project", id)
	}
	logger.Info("Service: Project deleted", zap.String("project_id", id.String()), zap.Int("unassigned", len(changed)))
	return nil
}
