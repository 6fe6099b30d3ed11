package inmemory

import (
	"bytes"
	"context"
	"slices"
	"sync"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage keeps task snapshots in memory. Callers always get fresh
// copies, so mutating a returned task never changes the stored state until
// Update is called.
type TaskStorage struct {
	storage map[uuid.UUID]task.Snapshot
	mtx     *sync.RWMutex
	ids     []uuid.UUID
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]task.Snapshot),
		mtx:     &sync.RWMutex{},
		ids:     []uuid.UUID{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Debug("Repository: in-memory task storage is healthy")
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.storage[taskToCreate.ID()]; ok {
		return repo.ErrAlreadyExists
	}
	taskToCreate.SetVersion(1)
	s.storage[taskToCreate.ID()] = taskToCreate.Snapshot()
	s.ids = append(s.ids, taskToCreate.ID())
	return nil
}

// CreateMany stores all tasks or none of them.
func (s *TaskStorage) CreateMany(ctx context.Context, tasks []*task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	seen := make(map[uuid.UUID]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := s.storage[t.ID()]; ok {
			return repo.ErrAlreadyExists
		}
		if _, ok := seen[t.ID()]; ok {
			return repo.ErrAlreadyExists
		}
		seen[t.ID()] = struct{}{}
	}
	for _, t := range tasks {
		t.SetVersion(1)
		s.storage[t.ID()] = t.Snapshot()
		s.ids = append(s.ids, t.ID())
	}
	return nil
}

func (s *TaskStorage) checkWritable(t *task.Task) error {
	stored, ok := s.storage[t.ID()]
	if !ok || stored.SubscriptionID != t.SubscriptionID() {
		return repo.ErrNotFound
	}
	if stored.Version != t.Version() {
		return repo.ErrVersionConflict
	}
	return nil
}

func (s *TaskStorage) write(t *task.Task) {
	snap := t.Snapshot()
	snap.Version++
	s.storage[t.ID()] = snap
	t.SetVersion(snap.Version)
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if err := s.checkWritable(taskToUpdate); err != nil {
		return err
	}
	s.write(taskToUpdate)
	return nil
}

// UpdateMany writes all tasks or none of them.
func (s *TaskStorage) UpdateMany(ctx context.Context, tasks []*task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	unique := make([]*task.Task, 0, len(tasks))
	seen := make(map[uuid.UUID]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID()]; ok {
			continue
		}
		seen[t.ID()] = struct{}{}
		if err := s.checkWritable(t); err != nil {
			return err
		}
		unique = append(unique, t)
	}
	for _, t := range unique {
		s.write(t)
	}
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	stored, ok := s.storage[id]
	if !ok || stored.SubscriptionID != subscriptionID {
		return nil, repo.ErrNotFound
	}
	return task.Rehydrate(stored), nil
}

func (s *TaskStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	res := []*task.Task{}
	for _, id := range s.ids {
		stored := s.storage[id]
		if stored.SubscriptionID == subscriptionID {
			res = append(res, task.Rehydrate(stored))
		}
	}
	return res, nil
}

func (s *TaskStorage) ListSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	res := []*task.Task{}
	for _, id := range s.ids {
		stored := s.storage[id]
		if stored.SubscriptionID != subscriptionID || stored.ParentTaskID == nil {
			continue
		}
		if *stored.ParentTaskID == parentID {
			res = append(res, task.Rehydrate(stored))
		}
	}
	return res, nil
}

// Delete removes all given tasks or none of them.
func (s *TaskStorage) Delete(ctx context.Context, subscriptionID uuid.UUID, ids []uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, id := range ids {
		stored, ok := s.storage[id]
		if !ok || stored.SubscriptionID != subscriptionID {
			return repo.ErrNotFound
		}
	}
	doomed := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		delete(s.storage, id)
		doomed[id] = struct{}{}
	}
	kept := s.ids[:0]
	for _, id := range s.ids {
		if _, ok := doomed[id]; !ok {
			kept = append(kept, id)
		}
	}
	s.ids = kept
	return nil
}

// ListWithDueReminders returns tasks of any subscription that have an unsent
// reminder triggering at or before now, oldest pending trigger first. Tasks
// in skip are left out.
func (s *TaskStorage) ListWithDueReminders(ctx context.Context, now time.Time, skip []uuid.UUID, limit int) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	type due struct {
		snap  task.Snapshot
		first time.Time
	}
	var found []due
	for _, id := range s.ids {
		if slices.Contains(skip, id) {
			continue
		}
		stored := s.storage[id]
		var first time.Time
		for _, r := range stored.Reminders {
			if r.SentAtUTC != nil || r.TriggerAtUTC.After(now) {
				continue
			}
			if first.IsZero() || r.TriggerAtUTC.Before(first) {
				first = r.TriggerAtUTC
			}
		}
		if !first.IsZero() {
			found = append(found, due{snap: stored, first: first})
		}
	}
	slices.SortFunc(found, func(a, b due) int {
		if c := a.first.Compare(b.first); c != 0 {
			return c
		}
		return bytes.Compare(a.snap.ID[:], b.snap.ID[:])
	})

	res := make([]*task.Task, 0, min(limit, len(found)))
	for _, d := range found {
		if len(res) >= limit {
			break
		}
		res = append(res, task.Rehydrate(d.snap))
	}
	return res, nil
}
