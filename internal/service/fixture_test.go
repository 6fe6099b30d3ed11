package service_test

import (
	"context"
	"testing"
	"time"

	"taskflow/internal/models/subscription"
	"taskflow/internal/repository/inmemory"
	"taskflow/internal/service"
	"taskflow/internal/timectx"

	"github.com/stretchr/testify/require"
)

// 2026-03-10 is a Tuesday; 10:00 in Berlin.
var now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	ctx      context.Context
	tasks    *inmemory.TaskStorage
	sections *inmemory.SectionStorage
	projects *inmemory.ProjectStorage
	subs     *inmemory.SubscriptionStorage

	subscriptionSvc *service.SubscriptionService
	taskSvc         *service.TaskService
	projectSvc      *service.ProjectService
	sectionSvc      *service.SectionService

	sub *subscription.Subscription
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		tasks:    inmemory.NewTaskStorage(),
		sections: inmemory.NewSectionStorage(),
		projects: inmemory.NewProjectStorage(),
		subs:     inmemory.NewSubscriptionStorage(),
	}
	clock := timectx.FixedClock{At: now}
	f.subscriptionSvc = service.NewSubscriptionService(f.subs, f.sections, timectx.NewResolver(), clock)
	f.taskSvc = service.NewTaskService(f.tasks, f.projects, f.subscriptionSvc, clock)
	f.projectSvc = service.NewProjectService(f.projects, f.tasks, clock)
	f.sectionSvc = service.NewSectionService(f.sections, f.tasks, f.subscriptionSvc, clock)

	sub, err := f.subscriptionSvc.Create(f.ctx, "acme", "Europe/Berlin")
	require.NoError(t, err)
	f.sub = sub
	return f
}
