package transfer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/models/task"
	"taskflow/internal/transfer"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func forest(t *testing.T, subscriptionID uuid.UUID) []*task.Task {
	t.Helper()
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	parent, err := task.NewTask(subscriptionID, "move flat", created,
		task.WithNote("before April"),
		task.WithPriority(task.PriorityHigh),
		task.WithTags("home", "Big"))
	require.NoError(t, err)
	_, err = parent.AssignToProject(uuid.New())
	require.NoError(t, err)
	require.NoError(t, parent.SetDueDateTime(civil.Date{Year: 2026, Month: 3, Day: 31}, civil.Time{Hour: 12}, berlin))
	_, err = parent.AddRelativeReminder(60)
	require.NoError(t, err)

	child, err := task.NewTask(subscriptionID, "book van", created.Add(time.Minute))
	require.NoError(t, err)
	require.NoError(t, child.SetDueDate(civil.Date{Year: 2026, Month: 3, Day: 20}))
	_, err = child.AddDateOnlyReminder(civil.Time{Hour: 9}, berlin)
	require.NoError(t, err)
	_, err = parent.AddSubTask(child)
	require.NoError(t, err)

	grandchild, err := task.NewTask(subscriptionID, "compare prices", created.Add(2*time.Minute))
	require.NoError(t, err)
	_, err = child.AddSubTask(grandchild)
	require.NoError(t, err)
	parent.Complete(created.Add(time.Hour))

	loose, err := task.NewTask(subscriptionID, "water plants", created, task.WithSortOrder(1))
	require.NoError(t, err)
	require.NoError(t, loose.ToggleImportant())

	return []*task.Task{parent, loose}
}

func TestRoundTrip(t *testing.T) {
	for _, format := range []transfer.Format{transfer.FormatJSON, transfer.FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			subscriptionID := uuid.New()
			doc := transfer.Export(subscriptionID, forest(t, subscriptionID), created)

			var first bytes.Buffer
			require.NoError(t, transfer.Encode(&first, doc, format))

			decoded, err := transfer.Decode(bytes.NewReader(first.Bytes()), format)
			require.NoError(t, err)
			roots, err := decoded.ToTasks()
			require.NoError(t, err)
			require.Len(t, roots, 2)

			parent := roots[0]
			require.Len(t, parent.SubTasks(), 1)
			child := parent.SubTasks()[0]
			require.Len(t, child.SubTasks(), 1)
			assert.True(t, child.SubTasks()[0].IsCompleted())
			pid, ok := child.ParentTaskID()
			require.True(t, ok)
			assert.Equal(t, parent.ID(), pid)
			assert.True(t, roots[1].IsImportant())

			var second bytes.Buffer
			require.NoError(t, transfer.Encode(&second, transfer.Export(subscriptionID, roots, created), format))
			assert.Equal(t, first.String(), second.String())
		})
	}
}

func TestTasks_Invalid(t *testing.T) {
	base := func() transfer.Document {
		return transfer.Document{
			Version:        transfer.FormatVersion,
			SubscriptionID: uuid.New(),
			Tasks: []transfer.Task{{
				ID:        uuid.New(),
				Title:     "ok",
				CreatedAt: created,
			}},
		}
	}
	_, err := base().ToTasks()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*transfer.Document)
	}{
		{name: "unknown version", mutate: func(d *transfer.Document) { d.Version = 7 }},
		{name: "missing subscription", mutate: func(d *transfer.Document) { d.SubscriptionID = uuid.Nil }},
		{name: "missing id", mutate: func(d *transfer.Document) { d.Tasks[0].ID = uuid.Nil }},
		{name: "blank title", mutate: func(d *transfer.Document) { d.Tasks[0].Title = "  " }},
		{name: "bad priority", mutate: func(d *transfer.Document) { d.Tasks[0].Priority = task.Priority(9) }},
		{name: "time without date", mutate: func(d *transfer.Document) { d.Tasks[0].DueTime = &civil.Time{Hour: 8} }},
		{name: "unknown reminder mode", mutate: func(d *transfer.Document) {
			d.Tasks[0].Reminders = []transfer.Reminder{{ID: uuid.New(), Mode: "sometimes"}}
		}},
		{name: "instant without time", mutate: func(d *transfer.Document) {
			date := civil.Date{Year: 2026, Month: 3, Day: 12}
			at := created.Add(48 * time.Hour)
			d.Tasks[0].DueDate = &date
			d.Tasks[0].DueAtUTC = &at
		}},
		{name: "empty tag", mutate: func(d *transfer.Document) { d.Tasks[0].Tags = []string{"work", " "} }},
		{name: "negative reminder offset", mutate: func(d *transfer.Document) {
			d.Tasks[0].Reminders = []transfer.Reminder{{
				ID:            uuid.New(),
				Mode:          "relative_to_due_date_time",
				MinutesBefore: -5,
				TriggerAtUTC:  created,
			}}
		}},
		{name: "duplicate id", mutate: func(d *transfer.Document) {
			d.Tasks[0].SubTasks = []transfer.Task{{ID: d.Tasks[0].ID, Title: "twin", CreatedAt: created}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := base()
			tt.mutate(&doc)
			_, err := doc.ToTasks()
			assert.True(t, errs.IsValidation(err), "got %v", err)
		})
	}
}

func TestTasks_TagsFoldCase(t *testing.T) {
	doc := transfer.Document{
		Version:        transfer.FormatVersion,
		SubscriptionID: uuid.New(),
		Tasks: []transfer.Task{{
			ID:        uuid.New(),
			Title:     "tagged",
			Tags:      []string{" Work", "work", "WORK", "home"},
			CreatedAt: created,
		}},
	}

	roots, err := doc.ToTasks()
	require.NoError(t, err)
	assert.Equal(t, []string{"Work", "home"}, roots[0].Tags())
}

func TestTasks_SubTasksFollowParent(t *testing.T) {
	projectID := uuid.New()
	doc := transfer.Document{
		Version:        transfer.FormatVersion,
		SubscriptionID: uuid.New(),
		Tasks: []transfer.Task{{
			ID:        uuid.New(),
			Title:     "parent",
			ProjectID: &projectID,
			CreatedAt: created,
			SubTasks: []transfer.Task{{
				ID:          uuid.New(),
				Title:       "child",
				IsImportant: true,
				CreatedAt:   created,
			}},
		}},
	}

	roots, err := doc.ToTasks()
	require.NoError(t, err)
	child := roots[0].SubTasks()[0]
	got, ok := child.ProjectID()
	require.True(t, ok)
	assert.Equal(t, projectID, got)
	assert.False(t, child.IsImportant())
}

func TestDecode_RejectsUnknownFields(t *testing.T) {
	_, err := transfer.Decode(strings.NewReader(`{"version":1,"colour":"red"}`), transfer.FormatJSON)
	assert.Error(t, err)
	_, err = transfer.Decode(strings.NewReader("version: 1\ncolour: red\n"), transfer.FormatYAML)
	assert.Error(t, err)
}

func TestParseFormat(t *testing.T) {
	f, err := transfer.ParseFormat(" YML ")
	require.NoError(t, err)
	assert.Equal(t, transfer.FormatYAML, f)

	_, err = transfer.ParseFormat("csv")
	assert.True(t, errs.IsValidation(err))
}
