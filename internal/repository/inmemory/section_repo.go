package inmemory

import (
	"context"
	"sort"
	"sync"

	"taskflow/internal/models/section"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
)

type SectionStorage struct {
	storage map[uuid.UUID]section.Snapshot
	mtx     *sync.RWMutex
}

func NewSectionStorage() *SectionStorage {
	return &SectionStorage{
		storage: make(map[uuid.UUID]section.Snapshot),
		mtx:     &sync.RWMutex{},
	}
}

func (s *SectionStorage) CreateMany(ctx context.Context, sections []*section.Section) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	for _, sec := range sections {
		if _, ok := s.storage[sec.ID()]; ok {
			return repo.ErrAlreadyExists
		}
	}
	for _, sec := range sections {
		sec.SetVersion(1)
		s.storage[sec.ID()] = sec.Snapshot()
	}
	return nil
}

func (s *SectionStorage) Create(ctx context.Context, sec *section.Section) error {
	return s.CreateMany(ctx, []*section.Section{sec})
}

func (s *SectionStorage) Update(ctx context.Context, sec *section.Section) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	stored, ok := s.storage[sec.ID()]
	if !ok || stored.SubscriptionID != sec.SubscriptionID() {
		return repo.ErrNotFound
	}
	if stored.Version != sec.Version() {
		return repo.ErrVersionConflict
	}
	snap := sec.Snapshot()
	snap.Version++
	s.storage[sec.ID()] = snap
	sec.SetVersion(snap.Version)
	return nil
}

func (s *SectionStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	stored, ok := s.storage[id]
	if !ok || stored.SubscriptionID != subscriptionID {
		return nil, repo.ErrNotFound
	}
	return section.Rehydrate(stored), nil
}

// ListBySubscription returns sections ordered by sort order, then name.
func (s *SectionStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	res := []*section.Section{}
	for _, stored := range s.storage {
		if stored.SubscriptionID == subscriptionID {
			res = append(res, section.Rehydrate(stored))
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].SortOrder() != res[j].SortOrder() {
			return res[i].SortOrder() < res[j].SortOrder()
		}
		return res[i].Name() < res[j].Name()
	})
	return res, nil
}

func (s *SectionStorage) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	stored, ok := s.storage[id]
	if !ok || stored.SubscriptionID != subscriptionID {
		return repo.ErrNotFound
	}
	delete(s.storage, id)
	return nil
}
