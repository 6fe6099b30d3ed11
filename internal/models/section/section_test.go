package section_test

import (
	"strings"
	"testing"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/models/section"
	"taskflow/internal/models/task"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenant = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	// Wednesday 2026-02-11, 12:00 UTC; week ends Sunday 2026-02-15.
	now   = time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	today = civil.Date{Year: 2026, Month: time.February, Day: 11}
)

func evalContext() section.EvalContext {
	return section.NewEvalContext(now, time.UTC)
}

func newTask(t *testing.T, opts ...task.TaskOption) *task.Task {
	t.Helper()
	tk, err := task.NewTask(tenant, "task", now.Add(-30*24*time.Hour), opts...)
	require.NoError(t, err)
	return tk
}

func sectionWith(t *testing.T, rule section.Rule) *section.Section {
	t.Helper()
	s, err := section.NewSection(tenant, "custom", 0)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRule(rule))
	return s
}

func bucketRule(b section.Bucket) section.Rule {
	rule := section.DefaultRule()
	rule.DueBucket = b
	return rule
}

func TestNewEvalContext(t *testing.T) {
	ec := evalContext()
	assert.Equal(t, today, ec.Today)
	assert.Equal(t, civil.Date{Year: 2026, Month: time.February, Day: 15}, ec.EndOfWeek)

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	late := section.NewEvalContext(time.Date(2026, 2, 11, 20, 0, 0, 0, time.UTC), tokyo)
	assert.Equal(t, today.AddDays(1), late.Today)
}

func TestNewSection_Defaults(t *testing.T) {
	s, err := section.NewSection(tenant, "  Errands ", 3)
	require.NoError(t, err)
	assert.Equal(t, "Errands", s.Name())
	assert.False(t, s.IsSystemSection())
	assert.Equal(t, section.Rule{
		DueBucket:              section.BucketAny,
		IncludeAssignedTasks:   true,
		IncludeUnassignedTasks: true,
	}, s.Rule())

	_, err = section.NewSection(tenant, strings.Repeat("n", section.MaxNameLength+1), 0)
	assert.True(t, errs.IsValidation(err))
	_, err = section.NewSection(tenant, "", 0)
	assert.True(t, errs.IsValidation(err))
}

func TestSystemDefaults(t *testing.T) {
	defaults := section.SystemDefaults(tenant)
	require.Len(t, defaults, 6)
	buckets := make([]section.Bucket, 0, len(defaults))
	for i, s := range defaults {
		assert.True(t, s.IsSystemSection())
		assert.Equal(t, i, s.SortOrder())
		buckets = append(buckets, s.Rule().DueBucket)
	}
	assert.ElementsMatch(t, []section.Bucket{
		section.BucketToday, section.BucketThisWeek, section.BucketUpcoming,
		section.BucketNoDueDate, section.BucketImportant, section.BucketRecent,
	}, buckets)

	err := defaults[0].Rename("Mine")
	assert.True(t, errs.IsInvalidOperation(err))
}

func TestMatches_Buckets(t *testing.T) {
	tests := []struct {
		name   string
		bucket section.Bucket
		setup  func(t *testing.T) *task.Task
		want   bool
	}{
		{"any matches plain task", section.BucketAny, func(t *testing.T) *task.Task { return newTask(t) }, true},
		{"today: marked for today without due date", section.BucketToday, func(t *testing.T) *task.Task {
			tk := newTask(t)
			tk.MarkForToday()
			return tk
		}, true},
		{"today: due today", section.BucketToday, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today))
		}, true},
		{"today: due tomorrow", section.BucketToday, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(1)))
		}, false},
		{"this week: due today is excluded", section.BucketThisWeek, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today))
		}, false},
		{"this week: due tomorrow", section.BucketThisWeek, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(1)))
		}, true},
		{"this week: due on week end", section.BucketThisWeek, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(4)))
		}, true},
		{"this week: due after week end", section.BucketThisWeek, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(5)))
		}, false},
		{"upcoming: due after week end", section.BucketUpcoming, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(5)))
		}, true},
		{"upcoming: due on week end", section.BucketUpcoming, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today.AddDays(4)))
		}, false},
		{"upcoming: no due date", section.BucketUpcoming, func(t *testing.T) *task.Task { return newTask(t) }, false},
		{"no due date: none", section.BucketNoDueDate, func(t *testing.T) *task.Task { return newTask(t) }, true},
		{"no due date: has one", section.BucketNoDueDate, func(t *testing.T) *task.Task {
			return newTask(t, task.WithDueDate(today))
		}, false},
		{"important", section.BucketImportant, func(t *testing.T) *task.Task {
			tk := newTask(t)
			require.NoError(t, tk.ToggleImportant())
			return tk
		}, true},
		{"important: not flagged", section.BucketImportant, func(t *testing.T) *task.Task { return newTask(t) }, false},
		{"recent: created seven days ago", section.BucketRecent, func(t *testing.T) *task.Task {
			tk, err := task.NewTask(tenant, "r", time.Date(2026, 2, 4, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			return tk
		}, true},
		{"recent: created eight days ago", section.BucketRecent, func(t *testing.T) *task.Task {
			tk, err := task.NewTask(tenant, "r", time.Date(2026, 2, 3, 23, 59, 0, 0, time.UTC))
			require.NoError(t, err)
			return tk
		}, false},
		{"unknown bucket fails closed", section.Bucket(99), func(t *testing.T) *task.Task { return newTask(t) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := section.Rehydrate(section.Snapshot{
				ID:             uuid.New(),
				SubscriptionID: tenant,
				Name:           "s",
				Rule:           bucketRule(tt.bucket),
			})
			assert.Equal(t, tt.want, s.Matches(tt.setup(t), evalContext()))
		})
	}
}

func TestMatches_RecentUsesLocalCreationDate(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	s := sectionWith(t, bucketRule(section.BucketRecent))

	// 2026-02-03 20:00 UTC is 2026-02-04 05:00 in Tokyo: seven local days back.
	tk, err := task.NewTask(tenant, "r", time.Date(2026, 2, 3, 20, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.False(t, s.Matches(tk, section.NewEvalContext(now, time.UTC)))
	assert.True(t, s.Matches(tk, section.NewEvalContext(time.Date(2026, 2, 11, 1, 0, 0, 0, time.UTC), tokyo)))
}

func TestMatches_InclusionFlags(t *testing.T) {
	project := uuid.New()
	assigned := newTask(t)
	_, err := assigned.AssignToProject(project)
	require.NoError(t, err)
	unassigned := newTask(t)
	done := newTask(t, task.WithStatus(task.StatusDone))
	cancelled := newTask(t, task.WithStatus(task.StatusCancelled))

	tests := []struct {
		name string
		rule section.Rule
		task *task.Task
		want bool
	}{
		{"assigned excluded", section.Rule{IncludeUnassignedTasks: true}, assigned, false},
		{"assigned included", section.Rule{IncludeAssignedTasks: true}, assigned, true},
		{"unassigned excluded", section.Rule{IncludeAssignedTasks: true}, unassigned, false},
		{"done excluded by default", section.DefaultRule(), done, false},
		{"done included", section.Rule{IncludeUnassignedTasks: true, IncludeDoneTasks: true}, done, true},
		{"cancelled excluded by default", section.DefaultRule(), cancelled, false},
		{"cancelled included", section.Rule{IncludeUnassignedTasks: true, IncludeCancelledTasks: true}, cancelled, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sectionWith(t, tt.rule).Matches(tt.task, evalContext()))
		})
	}
}

func TestMatches_ManualInclusionWins(t *testing.T) {
	s := sectionWith(t, section.Rule{DueBucket: section.BucketToday, IncludeAssignedTasks: true})
	tk := newTask(t, task.WithStatus(task.StatusDone), task.WithDueDate(today.AddDays(30)))

	assert.False(t, s.Matches(tk, evalContext()))

	require.NoError(t, s.IncludeTask(tk.ID()))
	require.NoError(t, s.IncludeTask(tk.ID()))
	assert.True(t, s.Matches(tk, evalContext()))
	assert.Len(t, s.ManualTaskIDs(), 1)

	s.RemoveTask(tk.ID())
	s.RemoveTask(tk.ID())
	assert.False(t, s.Matches(tk, evalContext()))
	assert.Empty(t, s.ManualTaskIDs())

	assert.True(t, errs.IsValidation(s.IncludeTask(uuid.Nil)))
}

func TestUpdateRule_ReplacesWholeRule(t *testing.T) {
	s := sectionWith(t, section.DefaultRule())
	next := section.Rule{DueBucket: section.BucketUpcoming, IncludeDoneTasks: true}
	require.NoError(t, s.UpdateRule(next))
	assert.Equal(t, next, s.Rule())

	err := s.UpdateRule(section.Rule{DueBucket: section.Bucket(42), IncludeAssignedTasks: false})
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, next, s.Rule())
}

func TestResolve_Ordering(t *testing.T) {
	loc := time.UTC
	s := sectionWith(t, section.DefaultRule())

	mk := func(title string, createdAt time.Time) *task.Task {
		tk, err := task.NewTask(tenant, title, createdAt)
		require.NoError(t, err)
		return tk
	}
	base := now.Add(-48 * time.Hour)

	noDueOld := mk("no due old", base)
	noDueNew := mk("no due new", base.Add(time.Hour))
	laterDate := mk("later date", base)
	require.NoError(t, laterDate.SetDueDate(today.AddDays(3)))
	timedLate := mk("timed 15:00", base)
	require.NoError(t, timedLate.SetDueDateTime(today, civil.Time{Hour: 15}, loc))
	timedEarly := mk("timed 09:00", base)
	require.NoError(t, timedEarly.SetDueDateTime(today, civil.Time{Hour: 9}, loc))
	timedHalf := mk("timed 09:30", base)
	require.NoError(t, timedHalf.SetDueDateTime(today, civil.Time{Hour: 9, Minute: 30}, loc))
	dateOnly := mk("date only", base)
	require.NoError(t, dateOnly.SetDueDate(today))

	input := []*task.Task{noDueOld, timedHalf, laterDate, timedLate, noDueNew, dateOnly, timedEarly}
	got := s.Resolve(input, evalContext())

	titles := make([]string, len(got))
	for i, tk := range got {
		titles[i] = tk.Title()
	}
	assert.Equal(t, []string{"date only", "timed 09:00", "timed 09:30", "timed 15:00", "later date", "no due new", "no due old"}, titles)

	again := s.Resolve([]*task.Task{timedEarly, noDueNew, dateOnly, timedHalf, noDueOld, timedLate, laterDate}, evalContext())
	assert.Equal(t, got, again)
}

func TestParseBucket(t *testing.T) {
	b, err := section.ParseBucket("This_Week")
	require.NoError(t, err)
	assert.Equal(t, section.BucketThisWeek, b)

	_, err = section.ParseBucket("someday")
	assert.True(t, errs.IsValidation(err))
}
