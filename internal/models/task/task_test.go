package task_test

import (
	"strings"
	"testing"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/models/task"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	tenant  = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	created = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
)

func newTask(t *testing.T, title string, opts ...task.TaskOption) *task.Task {
	t.Helper()
	tk, err := task.NewTask(tenant, title, created, opts...)
	require.NoError(t, err)
	return tk
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	return loc
}

func TestNewTask_Validation(t *testing.T) {
	tests := []struct {
		name    string
		tenant  uuid.UUID
		title   string
		wantErr bool
	}{
		{"trimmed title", tenant, "  write report  ", false},
		{"empty title", tenant, "   ", true},
		{"title at limit", tenant, strings.Repeat("a", task.MaxTitleLength), false},
		{"title too long", tenant, strings.Repeat("a", task.MaxTitleLength+1), true},
		{"missing tenant", uuid.Nil, "x", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk, err := task.NewTask(tt.tenant, tt.title, created)
			if tt.wantErr {
				assert.True(t, errs.IsValidation(err))
				assert.Nil(t, tk)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, strings.TrimSpace(tt.title), tk.Title())
			assert.Equal(t, task.PriorityMedium, tk.Priority())
			assert.Equal(t, task.StatusTodo, tk.Status())
			assert.False(t, tk.IsAssigned())
			assert.Equal(t, created, tk.CreatedAt())
		})
	}
}

func TestTask_Options(t *testing.T) {
	tk := newTask(t, "plan",
		task.WithNote("  details "),
		task.WithPriority(task.PriorityHigh),
		task.WithStatus(task.StatusDoing),
		task.WithTags("Home", "home", "errand"),
		task.WithNote(""),
	)
	assert.Equal(t, "details", tk.Note())
	assert.Equal(t, task.PriorityHigh, tk.Priority())
	assert.Equal(t, task.StatusDoing, tk.Status())
	assert.Equal(t, []string{"Home", "errand"}, tk.Tags())

	_, err := task.NewTask(tenant, "bad", created, task.WithPriority(task.Priority(9)))
	assert.True(t, errs.IsValidation(err))
}

func TestTask_UpdateNote_BlankClears(t *testing.T) {
	tk := newTask(t, "a", task.WithNote("something"))
	tk.UpdateNote("   \t")
	assert.Equal(t, "", tk.Note())
}

func TestTask_UpdateTitle_FailureLeavesTitle(t *testing.T) {
	tk := newTask(t, "original")
	err := tk.UpdateTitle(" ")
	assert.True(t, errs.IsValidation(err))
	assert.Equal(t, "original", tk.Title())
}

func TestTask_CompleteCascadesUncompleteDoesNot(t *testing.T) {
	parent := newTask(t, "parent")
	children := make([]*task.Task, 3)
	for i := range children {
		children[i] = newTask(t, "child")
		_, err := parent.AddSubTask(children[i])
		require.NoError(t, err)
	}
	grandchild := newTask(t, "grandchild")
	_, err := children[0].AddSubTask(grandchild)
	require.NoError(t, err)

	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	changed := parent.Complete(now)
	assert.Len(t, changed, 5)
	for _, tk := range parent.Subtree() {
		assert.True(t, tk.IsCompleted())
		at, ok := tk.CompletedAt()
		assert.True(t, ok)
		assert.Equal(t, now, at)
	}

	assert.Empty(t, parent.Complete(now.Add(time.Hour)), "second complete is a no-op")

	parent.Uncomplete()
	assert.False(t, parent.IsCompleted())
	_, ok := parent.CompletedAt()
	assert.False(t, ok)
	for _, tk := range parent.Descendants() {
		assert.True(t, tk.IsCompleted())
	}
	assert.Equal(t, task.StatusTodo, parent.Status())
}

func TestTask_CompleteReachesIncompleteGrandchildOfCompletedChild(t *testing.T) {
	parent := newTask(t, "parent")
	child := newTask(t, "child")
	grandchild := newTask(t, "grandchild")
	_, err := parent.AddSubTask(child)
	require.NoError(t, err)
	_, err = child.AddSubTask(grandchild)
	require.NoError(t, err)

	child.Complete(created)
	grandchild.Uncomplete()

	changed := parent.Complete(created.Add(time.Hour))
	assert.ElementsMatch(t, []*task.Task{parent, grandchild}, changed)
	assert.True(t, grandchild.IsCompleted())
}

func TestTask_AddSubTask(t *testing.T) {
	project := uuid.New()

	t.Run("inherits project and next sort order", func(t *testing.T) {
		parent := newTask(t, "parent")
		_, err := parent.AssignToProject(project)
		require.NoError(t, err)

		first, second := newTask(t, "one"), newTask(t, "two")
		_, err = parent.AddSubTask(first)
		require.NoError(t, err)
		require.NoError(t, first.SetSortOrder(4))
		_, err = parent.AddSubTask(second)
		require.NoError(t, err)

		parentID, ok := second.ParentTaskID()
		assert.True(t, ok)
		assert.Equal(t, parent.ID(), parentID)
		got, ok := second.ProjectID()
		assert.True(t, ok)
		assert.Equal(t, project, got)
		assert.Equal(t, 4, first.SortOrder())
		assert.Equal(t, 5, second.SortOrder())
	})

	t.Run("unassigned parent clears candidate project", func(t *testing.T) {
		parent := newTask(t, "parent")
		candidate := newTask(t, "candidate")
		grandchild := newTask(t, "grandchild")
		_, err := candidate.AddSubTask(grandchild)
		require.NoError(t, err)
		_, err = candidate.AssignToProject(project)
		require.NoError(t, err)

		changed, err := parent.AddSubTask(candidate)
		require.NoError(t, err)
		assert.Equal(t, []*task.Task{candidate, grandchild}, changed)
		assert.False(t, candidate.IsAssigned())
		assert.False(t, grandchild.IsAssigned())
		assert.Equal(t, 0, candidate.SortOrder())
	})

	t.Run("rejects self, duplicate, cycle and other tenant", func(t *testing.T) {
		parent := newTask(t, "parent")
		child := newTask(t, "child")
		_, err := parent.AddSubTask(child)
		require.NoError(t, err)

		_, err = parent.AddSubTask(parent)
		assert.True(t, errs.IsInvalidOperation(err))

		_, err = parent.AddSubTask(child)
		assert.True(t, errs.IsInvalidOperation(err))

		_, err = child.AddSubTask(parent)
		assert.True(t, errs.IsInvalidOperation(err))

		foreign, err := task.NewTask(uuid.New(), "foreign", created)
		require.NoError(t, err)
		_, err = parent.AddSubTask(foreign)
		assert.True(t, errs.IsInvalidOperation(err))
		assert.True(t, errs.IsTenantMismatch(err))

		assert.Len(t, parent.SubTasks(), 1)
		assert.False(t, foreign.HasParent())
	})

	t.Run("drops importance of the new subtask", func(t *testing.T) {
		parent := newTask(t, "parent")
		candidate := newTask(t, "candidate")
		require.NoError(t, candidate.ToggleImportant())
		_, err := parent.AddSubTask(candidate)
		require.NoError(t, err)
		assert.False(t, candidate.IsImportant())
	})
}

func TestTask_RemoveSubTask(t *testing.T) {
	parent := newTask(t, "parent")
	child := newTask(t, "child")
	_, err := parent.AddSubTask(child)
	require.NoError(t, err)

	detached, err := parent.RemoveSubTask(child.ID())
	require.NoError(t, err)
	assert.Same(t, child, detached)
	assert.False(t, child.HasParent())
	assert.Empty(t, parent.SubTasks())

	_, err = parent.RemoveSubTask(child.ID())
	assert.True(t, errs.IsNotFound(err))
}

func TestTask_ProjectAssignmentCascades(t *testing.T) {
	parent := newTask(t, "parent")
	child := newTask(t, "child")
	grandchild := newTask(t, "grandchild")
	_, err := parent.AddSubTask(child)
	require.NoError(t, err)
	_, err = child.AddSubTask(grandchild)
	require.NoError(t, err)

	project := uuid.New()
	changed, err := parent.AssignToProject(project)
	require.NoError(t, err)
	assert.Len(t, changed, 3)
	for _, tk := range parent.Subtree() {
		got, ok := tk.ProjectID()
		assert.True(t, ok)
		assert.Equal(t, project, got)
	}

	_, err = child.AssignToProject(uuid.New())
	assert.True(t, errs.IsInvalidOperation(err))
	_, err = child.UnassignFromProject()
	assert.True(t, errs.IsInvalidOperation(err))

	_, err = parent.AssignToProject(uuid.Nil)
	assert.True(t, errs.IsValidation(err))

	changed, err = parent.UnassignFromProject()
	require.NoError(t, err)
	assert.Len(t, changed, 3)
	for _, tk := range parent.Subtree() {
		assert.False(t, tk.IsAssigned())
	}
}

func TestTask_ToggleImportant(t *testing.T) {
	parent := newTask(t, "parent")
	require.NoError(t, parent.ToggleImportant())
	assert.True(t, parent.IsImportant())
	require.NoError(t, parent.ToggleImportant())
	assert.False(t, parent.IsImportant())

	child := newTask(t, "child")
	_, err := parent.AddSubTask(child)
	require.NoError(t, err)
	err = child.ToggleImportant()
	assert.True(t, errs.IsInvalidOperation(err))
	assert.False(t, child.IsImportant())
}

func TestTask_Flags(t *testing.T) {
	tk := newTask(t, "flags")
	tk.ToggleFocus()
	assert.True(t, tk.IsFocused())
	tk.MarkForToday()
	assert.True(t, tk.IsMarkedForToday())
	tk.UnmarkForToday()
	assert.False(t, tk.IsMarkedForToday())

	assert.True(t, errs.IsValidation(tk.SetSortOrder(-1)))
	require.NoError(t, tk.SetSortOrder(7))
	assert.Equal(t, 7, tk.SortOrder())
}

func TestTask_DueScheduling(t *testing.T) {
	loc := berlin(t)
	date := civil.Date{Year: 2026, Month: time.February, Day: 10}

	tk := newTask(t, "due")
	require.NoError(t, tk.SetDueDateTime(date, civil.Time{Hour: 10}, loc))
	at, ok := tk.DueAtUTC()
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC), at)

	require.NoError(t, tk.SetDueDate(date.AddDays(1)))
	_, ok = tk.DueTimeLocal()
	assert.False(t, ok)
	_, ok = tk.DueAtUTC()
	assert.False(t, ok)
	got, ok := tk.DueDateLocal()
	assert.True(t, ok)
	assert.Equal(t, date.AddDays(1), got)

	assert.True(t, errs.IsValidation(tk.SetDueDate(civil.Date{})))
	assert.True(t, errs.IsValidation(tk.SetDueDateTime(date, civil.Time{Hour: 10}, nil)))
	assert.True(t, errs.IsValidation(tk.SetDueDateTime(civil.Date{}, civil.Time{Hour: 10}, loc)))
	got, _ = tk.DueDateLocal()
	assert.Equal(t, date.AddDays(1), got, "failed calls leave the due date alone")

	tk.ClearDueDate()
	assert.False(t, tk.HasDueDate())
	_, ok = tk.DueTimeLocal()
	assert.False(t, ok)
}

func TestTask_Reminders(t *testing.T) {
	loc := berlin(t)
	date := civil.Date{Year: 2026, Month: time.February, Day: 10}

	t.Run("relative reminder is due minus offset", func(t *testing.T) {
		tk := newTask(t, "meeting")
		require.NoError(t, tk.SetDueDateTime(date, civil.Time{Hour: 10}, loc))
		r, err := tk.AddRelativeReminder(15)
		require.NoError(t, err)

		due, _ := tk.DueAtUTC()
		assert.Equal(t, due.Add(-15*time.Minute), r.TriggerAtUTC())
		assert.Equal(t, task.ReminderRelativeToDueDateTime, r.Mode())
		assert.Equal(t, tk.ID(), r.TaskID())

		onTime, err := tk.AddOnTimeReminder()
		require.NoError(t, err)
		assert.Equal(t, due, onTime.TriggerAtUTC())

		_, err = tk.AddRelativeReminder(-1)
		assert.True(t, errs.IsValidation(err))
		assert.Len(t, tk.Reminders(), 2)
	})

	t.Run("relative reminder needs a due time", func(t *testing.T) {
		tk := newTask(t, "date only", task.WithDueDate(date))
		_, err := tk.AddRelativeReminder(5)
		assert.True(t, errs.IsInvalidOperation(err))
	})

	t.Run("date only reminder uses fallback time", func(t *testing.T) {
		tk := newTask(t, "date only", task.WithDueDate(date))
		r, err := tk.AddDateOnlyReminder(civil.Time{Hour: 9}, loc)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC), r.TriggerAtUTC())
		fallback, ok := r.FallbackLocalTime()
		assert.True(t, ok)
		assert.Equal(t, civil.Time{Hour: 9}, fallback)

		none := newTask(t, "no due")
		_, err = none.AddDateOnlyReminder(civil.Time{Hour: 9}, loc)
		assert.True(t, errs.IsInvalidOperation(err))
	})

	t.Run("trigger does not move with the due date", func(t *testing.T) {
		tk := newTask(t, "fixed")
		require.NoError(t, tk.SetDueDateTime(date, civil.Time{Hour: 10}, loc))
		r, err := tk.AddOnTimeReminder()
		require.NoError(t, err)
		before := r.TriggerAtUTC()
		require.NoError(t, tk.SetDueDateTime(date.AddDays(3), civil.Time{Hour: 10}, loc))
		assert.Equal(t, before, r.TriggerAtUTC())
	})

	t.Run("mark sent keeps first timestamp", func(t *testing.T) {
		tk := newTask(t, "send")
		require.NoError(t, tk.SetDueDateTime(date, civil.Time{Hour: 10}, loc))
		r, err := tk.AddOnTimeReminder()
		require.NoError(t, err)

		first := time.Date(2026, 2, 10, 9, 0, 5, 0, time.UTC)
		require.NoError(t, tk.MarkReminderSent(r.ID(), first))
		require.NoError(t, tk.MarkReminderSent(r.ID(), first.Add(time.Hour)))
		sent, ok := r.SentAtUTC()
		assert.True(t, ok)
		assert.Equal(t, first, sent)

		err = tk.MarkReminderSent(uuid.New(), first)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("remove and due listing", func(t *testing.T) {
		tk := newTask(t, "list")
		require.NoError(t, tk.SetDueDateTime(date, civil.Time{Hour: 10}, loc))
		early, err := tk.AddRelativeReminder(60)
		require.NoError(t, err)
		late, err := tk.AddOnTimeReminder()
		require.NoError(t, err)

		now := time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC)
		assert.Equal(t, []*task.Reminder{early}, tk.DueReminders(now))

		tk.RemoveReminder(uuid.New())
		tk.RemoveReminder(early.ID())
		assert.Equal(t, []*task.Reminder{late}, tk.Reminders())
	})
}

func TestNormalizeTags(t *testing.T) {
	got, err := task.NormalizeTags([]string{" Straße ", "STRASSE", "home"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Straße", "home"}, got)

	_, err = task.NormalizeTags([]string{"ok", ""})
	assert.True(t, errs.IsValidation(err))
}

func TestTask_Tags(t *testing.T) {
	tk := newTask(t, "tags")
	require.NoError(t, tk.AddTag(" Work "))
	require.NoError(t, tk.AddTag("WORK"))
	require.NoError(t, tk.AddTag("Ärger"))
	require.NoError(t, tk.AddTag("ÄRGER"))
	assert.Equal(t, []string{"Work", "Ärger"}, tk.Tags())
	assert.True(t, tk.HasTag("work"))

	assert.True(t, errs.IsValidation(tk.AddTag("  ")))
	assert.True(t, errs.IsValidation(tk.SetTags([]string{"ok", ""})))
	assert.Equal(t, []string{"Work", "Ärger"}, tk.Tags(), "failed SetTags keeps tags")

	tk.RemoveTag("work")
	assert.Equal(t, []string{"Ärger"}, tk.Tags())
}

func TestPriorityAndStatus_Parse(t *testing.T) {
	p, err := task.ParsePriority("HIGH")
	require.NoError(t, err)
	assert.Equal(t, task.PriorityHigh, p)
	assert.True(t, task.PriorityLow < task.PriorityMedium && task.PriorityMedium < task.PriorityHigh)

	s, err := task.ParseStatus("cancelled")
	require.NoError(t, err)
	assert.Equal(t, task.StatusCancelled, s)

	_, err = task.ParseStatus("archived")
	assert.True(t, errs.IsValidation(err))
}

func TestSnapshot_RehydrateKeepsEveryField(t *testing.T) {
	loc := berlin(t)
	tk := newTask(t, "full", task.WithNote("n"), task.WithTags("a"), task.WithPriority(task.PriorityLow))
	_, err := tk.AssignToProject(uuid.New())
	require.NoError(t, err)
	require.NoError(t, tk.SetDueDateTime(civil.Date{Year: 2026, Month: time.March, Day: 3}, civil.Time{Hour: 7, Minute: 30}, loc))
	r, err := tk.AddRelativeReminder(10)
	require.NoError(t, err)
	require.NoError(t, tk.MarkReminderSent(r.ID(), created))
	require.NoError(t, tk.ToggleImportant())
	tk.MarkForToday()
	tk.Complete(created)
	tk.SetVersion(3)

	copyOf := task.Rehydrate(tk.Snapshot())
	assert.Equal(t, tk.Snapshot(), copyOf.Snapshot())
}

func TestForest_LinksAndOrders(t *testing.T) {
	parent := newTask(t, "parent")
	a, b := newTask(t, "a"), newTask(t, "b")
	_, err := parent.AddSubTask(a)
	require.NoError(t, err)
	_, err = parent.AddSubTask(b)
	require.NoError(t, err)
	other := newTask(t, "other", task.WithSortOrder(1))

	flat := []*task.Task{b.Clone(), other.Clone(), a.Clone(), parent.Clone()}
	forest := task.NewForest(flat)

	assert.Equal(t, 4, forest.Len())
	roots := forest.Roots()
	require.Len(t, roots, 2)
	assert.Equal(t, parent.ID(), roots[0].ID())
	subs := roots[0].SubTasks()
	require.Len(t, subs, 2)
	assert.Equal(t, a.ID(), subs[0].ID())
	assert.Equal(t, b.ID(), subs[1].ID())

	got, ok := forest.Get(b.ID())
	assert.True(t, ok)
	assert.Equal(t, "b", got.Title())
	assert.Len(t, forest.All(), 4)
}
