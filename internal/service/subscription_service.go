package service

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/section"
	"taskflow/internal/models/subscription"
	"taskflow/internal/timectx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SubscriptionService struct {
	repo     SubscriptionRepository
	sections SectionRepository
	resolver *timectx.Resolver
	clock    timectx.Clock
}

func NewSubscriptionService(repo SubscriptionRepository, sections SectionRepository, resolver *timectx.Resolver, clock timectx.Clock) *SubscriptionService {
	if resolver == nil {
		resolver = timectx.NewResolver()
	}
	if clock == nil {
		clock = timectx.SystemClock{}
	}
	return &SubscriptionService{
		repo:     repo,
		sections: sections,
		resolver: resolver,
		clock:    clock,
	}
}

// Create stores a subscription with a validated time zone and seeds its
// system sections. The subscription is removed again when seeding fails.
func (s *SubscriptionService) Create(ctx context.Context, name, timeZone string) (*subscription.Subscription, error) {
	sub, err := subscription.New(name, timeZone, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Resolve(sub.TimeZone); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, translate(err, "create subscription", "subscription", sub.ID)
	}
	if err := s.sections.CreateMany(ctx, section.SystemDefaults(sub.ID)); err != nil {
		if delErr := s.repo.Delete(ctx, sub.ID); delErr != nil {
			logger.Error("Service: Failed to roll back subscription", delErr, zap.String("subscription_id", sub.ID.String()))
		}
		return nil, fmt.Errorf("seed system sections: %w", err)
	}
	logger.Info("Service: Subscription created", zap.String("subscription_id", sub.ID.String()), zap.String("time_zone", sub.TimeZone))
	return sub, nil
}

func (s *SubscriptionService) Get(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "get subscription", "subscription", id)
	}
	return sub, nil
}

// UpdateTimeZone changes the zone used for future scheduling. Reminder
// triggers that were already computed keep their instants.
func (s *SubscriptionService) UpdateTimeZone(ctx context.Context, id uuid.UUID, timeZone string) (*subscription.Subscription, error) {
	if _, err := s.resolver.Resolve(timeZone); err != nil {
		return nil, err
	}
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sub.TimeZone = timeZone
	if err := s.repo.Update(ctx, sub); err != nil {
		return nil, translate(err, "update subscription", "subscription", id)
	}
	return sub, nil
}

func (s *SubscriptionService) Location(ctx context.Context, subscriptionID uuid.UUID) (*time.Location, error) {
	sub, err := s.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	return s.resolver.Resolve(sub.TimeZone)
}
