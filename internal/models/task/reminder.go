package task

import (
	"fmt"
	"strings"
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/timectx"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

type ReminderMode int

const (
	ReminderRelativeToDueDateTime ReminderMode = iota
	ReminderDateOnlyFallbackTime
)

var reminderModeNames = map[ReminderMode]string{
	ReminderRelativeToDueDateTime: "relative_to_due_date_time",
	ReminderDateOnlyFallbackTime:  "date_only_fallback_time",
}

func (m ReminderMode) String() string {
	if name, ok := reminderModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("reminder_mode(%d)", int(m))
}

func ParseReminderMode(s string) (ReminderMode, error) {
	for m, name := range reminderModeNames {
		if name == strings.TrimSpace(s) {
			return m, nil
		}
	}
	return 0, errs.NewValidation("mode", fmt.Sprintf("unknown reminder mode %q", s))
}

// Reminder belongs to exactly one task. Its trigger instant is fixed when
// it is created; later due date changes do not move it.
type Reminder struct {
	id                uuid.UUID
	taskID            uuid.UUID
	mode              ReminderMode
	minutesBefore     int
	fallbackLocalTime *civil.Time
	triggerAtUTC      time.Time
	sentAtUTC         *time.Time
}

func (r *Reminder) ID() uuid.UUID           { return r.id }
func (r *Reminder) TaskID() uuid.UUID       { return r.taskID }
func (r *Reminder) Mode() ReminderMode      { return r.mode }
func (r *Reminder) MinutesBefore() int      { return r.minutesBefore }
func (r *Reminder) TriggerAtUTC() time.Time { return r.triggerAtUTC }
func (r *Reminder) IsSent() bool            { return r.sentAtUTC != nil }

func (r *Reminder) FallbackLocalTime() (civil.Time, bool) {
	if r.fallbackLocalTime == nil {
		return civil.Time{}, false
	}
	return *r.fallbackLocalTime, true
}

func (r *Reminder) SentAtUTC() (time.Time, bool) {
	if r.sentAtUTC == nil {
		return time.Time{}, false
	}
	return *r.sentAtUTC, true
}

// IsDue reports whether the reminder is unsent and its trigger is not after now.
func (r *Reminder) IsDue(now time.Time) bool {
	return r.sentAtUTC == nil && !r.triggerAtUTC.After(now)
}

func (r *Reminder) markSent(at time.Time) {
	if r.sentAtUTC != nil {
		return
	}
	sent := at.UTC()
	r.sentAtUTC = &sent
}

func (t *Task) Reminders() []*Reminder {
	out := make([]*Reminder, len(t.reminders))
	copy(out, t.reminders)
	return out
}

// DueReminders returns the unsent reminders whose trigger is not after now.
func (t *Task) DueReminders(now time.Time) []*Reminder {
	var out []*Reminder
	for _, r := range t.reminders {
		if r.IsDue(now) {
			out = append(out, r)
		}
	}
	return out
}

// AddRelativeReminder fires minutesBefore minutes ahead of the due instant.
// The task needs both a due date and a due time.
func (t *Task) AddRelativeReminder(minutesBefore int) (*Reminder, error) {
	if t.dueAtUTC == nil {
		return nil, errs.NewInvalidOperation("add reminder", "task has no due date and time")
	}
	if minutesBefore < 0 {
		return nil, errs.NewValidation("minutes_before", "must not be negative")
	}
	r := &Reminder{
		id:            uuid.New(),
		taskID:        t.id,
		mode:          ReminderRelativeToDueDateTime,
		minutesBefore: minutesBefore,
		triggerAtUTC:  t.dueAtUTC.Add(-time.Duration(minutesBefore) * time.Minute),
	}
	t.reminders = append(t.reminders, r)
	return r, nil
}

func (t *Task) AddOnTimeReminder() (*Reminder, error) {
	return t.AddRelativeReminder(0)
}

// AddDateOnlyReminder fires on the due date at fallbackTime in loc. It works
// for date-only tasks as well as timed ones.
func (t *Task) AddDateOnlyReminder(fallbackTime civil.Time, loc *time.Location) (*Reminder, error) {
	if t.dueDateLocal == nil {
		return nil, errs.NewInvalidOperation("add reminder", "task has no due date")
	}
	if loc == nil {
		return nil, errs.NewValidation("time_zone", "a time zone is required")
	}
	if !fallbackTime.IsValid() {
		return nil, errs.NewValidation("fallback_time", "a valid time of day is required")
	}
	fallback := fallbackTime
	r := &Reminder{
		id:                uuid.New(),
		taskID:            t.id,
		mode:              ReminderDateOnlyFallbackTime,
		fallbackLocalTime: &fallback,
		triggerAtUTC:      timectx.ToUTC(*t.dueDateLocal, fallbackTime, loc),
	}
	t.reminders = append(t.reminders, r)
	return r, nil
}

func (t *Task) RemoveReminder(id uuid.UUID) {
	for i, r := range t.reminders {
		if r.id == id {
			t.reminders = append(t.reminders[:i:i], t.reminders[i+1:]...)
			return
		}
	}
}

// MarkReminderSent records the first send time; later calls keep it.
func (t *Task) MarkReminderSent(id uuid.UUID, sentAtUTC time.Time) error {
	for _, r := range t.reminders {
		if r.id == id {
			r.markSent(sentAtUTC)
			return nil
		}
	}
	return errs.NewNotFound("reminder", id.String())
}
