package service

import (
	"context"
	"fmt"

	"taskflow/internal/errs"
	"taskflow/internal/models/section"
	"taskflow/internal/models/task"
	"taskflow/internal/timectx"

	"github.com/google/uuid"
)

type SectionService struct {
	repo    SectionRepository
	tasks   TaskRepository
	locator Locator
	clock   timectx.Clock
}

func NewSectionService(repo SectionRepository, tasks TaskRepository, locator Locator, clock timectx.Clock) *SectionService {
	if clock == nil {
		clock = timectx.SystemClock{}
	}
	return &SectionService{repo: repo, tasks: tasks, locator: locator, clock: clock}
}

// SectionView is a section together with the tasks it currently shows.
type SectionView struct {
	Section *section.Section
	Tasks   []*task.Task
}

func (s *SectionService) get(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error) {
	sec, err := s.repo.GetByID(ctx, subscriptionID, id)
	if err != nil {
		return nil, translate(err, "get section", "section", id)
	}
	return sec, nil
}

func (s *SectionService) update(ctx context.Context, subscriptionID, id uuid.UUID, op string, fn func(*section.Section) error) (*section.Section, error) {
	sec, err := s.get(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sec); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sec); err != nil {
		return nil, translate(err, op, "section", id)
	}
	return sec, nil
}

// Create adds a user section after the existing ones.
func (s *SectionService) Create(ctx context.Context, subscriptionID uuid.UUID, name string, rule section.Rule) (*section.Section, error) {
	existing, err := s.List(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	next := 0
	for _, sec := range existing {
		if sec.SortOrder()+1 > next {
			next = sec.SortOrder() + 1
		}
	}
	sec, err := section.NewSection(subscriptionID, name, next)
	if err != nil {
		return nil, err
	}
	if err := sec.UpdateRule(rule); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sec); err != nil {
		return nil, translate(err, "create section", "section", sec.ID())
	}
	return sec, nil
}

func (s *SectionService) Get(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error) {
	return s.get(ctx, subscriptionID, id)
}

func (s *SectionService) List(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error) {
	sections, err := s.repo.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (s *SectionService) Rename(ctx context.Context, subscriptionID, id uuid.UUID, name string) (*section.Section, error) {
	return s.update(ctx, subscriptionID, id, "rename section", func(sec *section.Section) error {
		return sec.Rename(name)
	})
}

func (s *SectionService) UpdateRule(ctx context.Context, subscriptionID, id uuid.UUID, rule section.Rule) (*section.Section, error) {
	return s.update(ctx, subscriptionID, id, "update section rule", func(sec *section.Section) error {
		return sec.UpdateRule(rule)
	})
}

// IncludeTask pins a task of the same subscription to the section.
func (s *SectionService) IncludeTask(ctx context.Context, subscriptionID, id, taskID uuid.UUID) (*section.Section, error) {
	if _, err := s.tasks.GetByID(ctx, subscriptionID, taskID); err != nil {
		return nil, translate(err, "include task", "task", taskID)
	}
	return s.update(ctx, subscriptionID, id, "include task", func(sec *section.Section) error {
		return sec.IncludeTask(taskID)
	})
}

func (s *SectionService) RemoveTask(ctx context.Context, subscriptionID, id, taskID uuid.UUID) (*section.Section, error) {
	return s.update(ctx, subscriptionID, id, "remove task", func(sec *section.Section) error {
		sec.RemoveTask(taskID)
		return nil
	})
}

func (s *SectionService) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	sec, err := s.get(ctx, subscriptionID, id)
	if err != nil {
		return err
	}
	if sec.IsSystemSection() {
		return errs.NewInvalidOperation("delete section", "system sections cannot be deleted")
	}
	if err := s.repo.Delete(ctx, subscriptionID, id); err != nil {
		return translate(err, "delete section", "section", id)
	}
	return nil
}

func (s *SectionService) evalContext(ctx context.Context, subscriptionID uuid.UUID) (section.EvalContext, error) {
	loc, err := s.locator.Location(ctx, subscriptionID)
	if err != nil {
		return section.EvalContext{}, err
	}
	return section.NewEvalContext(s.clock.Now(), loc), nil
}

// Resolve returns the tasks the section shows right now, in view order.
func (s *SectionService) Resolve(ctx context.Context, subscriptionID, id uuid.UUID) ([]*task.Task, error) {
	sec, err := s.get(ctx, subscriptionID, id)
	if err != nil {
		return nil, err
	}
	ec, err := s.evalContext(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return sec.Resolve(tasks, ec), nil
}

// View resolves every section against one evaluation context, so all
// sections agree on what today is.
func (s *SectionService) View(ctx context.Context, subscriptionID uuid.UUID) ([]SectionView, error) {
	sections, err := s.List(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	ec, err := s.evalContext(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListBySubscription(ctx, subscriptionID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	views := make([]SectionView, len(sections))
	for i, sec := range sections {
		views[i] = SectionView{Section: sec, Tasks: sec.Resolve(tasks, ec)}
	}
	return views, nil
}
