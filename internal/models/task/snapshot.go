package task

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// Snapshot is the flat, storage-neutral form of a task. Subtasks are not
// included; they are separate snapshots linked by ParentTaskID.
type Snapshot struct {
	ID               uuid.UUID
	SubscriptionID   uuid.UUID
	ParentTaskID     *uuid.UUID
	ProjectID        *uuid.UUID
	Title            string
	Note             string
	Priority         Priority
	Status           Status
	Tags             []string
	IsCompleted      bool
	CompletedAt      *time.Time
	DueDateLocal     *civil.Date
	DueTimeLocal     *civil.Time
	DueAtUTC         *time.Time
	IsFocused        bool
	IsImportant      bool
	IsMarkedForToday bool
	SortOrder        int
	CreatedAt        time.Time
	Version          int
	Reminders        []ReminderSnapshot
}

type ReminderSnapshot struct {
	ID                uuid.UUID
	TaskID            uuid.UUID
	Mode              ReminderMode
	MinutesBefore     int
	FallbackLocalTime *civil.Time
	TriggerAtUTC      time.Time
	SentAtUTC         *time.Time
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	out := id
	return &out
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}

func (t *Task) Snapshot() Snapshot {
	s := Snapshot{
		ID:               t.id,
		SubscriptionID:   t.subscriptionID,
		ParentTaskID:     optionalID(t.parentTaskID),
		ProjectID:        optionalID(t.projectID),
		Title:            t.title,
		Note:             t.note,
		Priority:         t.priority,
		Status:           t.status,
		Tags:             t.Tags(),
		IsCompleted:      t.isCompleted,
		CompletedAt:      copyTime(t.completedAt),
		DueAtUTC:         copyTime(t.dueAtUTC),
		IsFocused:        t.isFocused,
		IsImportant:      t.isImportant,
		IsMarkedForToday: t.isMarkedForToday,
		SortOrder:        t.sortOrder,
		CreatedAt:        t.createdAt,
		Version:          t.version,
	}
	if t.dueDateLocal != nil {
		d := *t.dueDateLocal
		s.DueDateLocal = &d
	}
	if t.dueTimeLocal != nil {
		c := *t.dueTimeLocal
		s.DueTimeLocal = &c
	}
	for _, r := range t.reminders {
		rs := ReminderSnapshot{
			ID:            r.id,
			TaskID:        r.taskID,
			Mode:          r.mode,
			MinutesBefore: r.minutesBefore,
			TriggerAtUTC:  r.triggerAtUTC,
			SentAtUTC:     copyTime(r.sentAtUTC),
		}
		if r.fallbackLocalTime != nil {
			c := *r.fallbackLocalTime
			rs.FallbackLocalTime = &c
		}
		s.Reminders = append(s.Reminders, rs)
	}
	return s
}

// Rehydrate rebuilds a task from stored or imported data without running
// the constructor's validation. Subtasks are linked afterwards by NewForest.
func Rehydrate(s Snapshot) *Task {
	t := &Task{
		id:               s.ID,
		subscriptionID:   s.SubscriptionID,
		title:            s.Title,
		note:             s.Note,
		priority:         s.Priority,
		status:           s.Status,
		isCompleted:      s.IsCompleted,
		completedAt:      copyTime(s.CompletedAt),
		isFocused:        s.IsFocused,
		isImportant:      s.IsImportant,
		isMarkedForToday: s.IsMarkedForToday,
		sortOrder:        s.SortOrder,
		createdAt:        s.CreatedAt,
		version:          s.Version,
	}
	if s.ParentTaskID != nil {
		t.parentTaskID = *s.ParentTaskID
	}
	if s.ProjectID != nil {
		t.projectID = *s.ProjectID
	}
	if len(s.Tags) > 0 {
		t.tags = append([]string(nil), s.Tags...)
	}
	if s.DueDateLocal != nil {
		d := *s.DueDateLocal
		t.dueDateLocal = &d
	}
	if s.DueTimeLocal != nil && s.DueDateLocal != nil {
		c := *s.DueTimeLocal
		t.dueTimeLocal = &c
		t.dueAtUTC = copyTime(s.DueAtUTC)
	}
	for _, rs := range s.Reminders {
		r := &Reminder{
			id:            rs.ID,
			taskID:        s.ID,
			mode:          rs.Mode,
			minutesBefore: rs.MinutesBefore,
			triggerAtUTC:  rs.TriggerAtUTC,
			sentAtUTC:     copyTime(rs.SentAtUTC),
		}
		if rs.FallbackLocalTime != nil {
			c := *rs.FallbackLocalTime
			r.fallbackLocalTime = &c
		}
		t.reminders = append(t.reminders, r)
	}
	return t
}

// Clone returns an independent copy of t without subtask links.
func (t *Task) Clone() *Task {
	return Rehydrate(t.Snapshot())
}
