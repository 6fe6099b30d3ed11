package inmemory

import (
	"context"
	"sync"

	"taskflow/internal/models/project"
	"taskflow/internal/models/subscription"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
)

type ProjectStorage struct {
	storage map[uuid.UUID]project.Project
	ids     []uuid.UUID
	mtx     *sync.RWMutex
}

func NewProjectStorage() *ProjectStorage {
	return &ProjectStorage{
		storage: make(map[uuid.UUID]project.Project),
		mtx:     &sync.RWMutex{},
	}
}

func (s *ProjectStorage) Create(ctx context.Context, p *project.Project) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.storage[p.ID]; ok {
		return repo.ErrAlreadyExists
	}
	s.storage[p.ID] = *p
	s.ids = append(s.ids, p.ID)
	return nil
}

func (s *ProjectStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	p, ok := s.storage[id]
	if !ok || p.SubscriptionID != subscriptionID {
		return nil, repo.ErrNotFound
	}
	return &p, nil
}

func (s *ProjectStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*project.Project, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	res := []*project.Project{}
	for _, id := range s.ids {
		p := s.storage[id]
		if p.SubscriptionID == subscriptionID {
			res = append(res, &p)
		}
	}
	return res, nil
}

func (s *ProjectStorage) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	p, ok := s.storage[id]
	if !ok || p.SubscriptionID != subscriptionID {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return nil
}

type SubscriptionStorage struct {
	storage map[uuid.UUID]subscription.Subscription
	mtx     *sync.RWMutex
}

func NewSubscriptionStorage() *SubscriptionStorage {
	return &SubscriptionStorage{
		storage: make(map[uuid.UUID]subscription.Subscription),
		mtx:     &sync.RWMutex{},
	}
}

func (s *SubscriptionStorage) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.storage[sub.ID]; ok {
		return repo.ErrAlreadyExists
	}
	s.storage[sub.ID] = *sub
	return nil
}

func (s *SubscriptionStorage) Update(ctx context.Context, sub *subscription.Subscription) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.storage[sub.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[sub.ID] = *sub
	return nil
}

func (s *SubscriptionStorage) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	sub, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &sub, nil
}

func (s *SubscriptionStorage) Delete(ctx context.Context, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}
