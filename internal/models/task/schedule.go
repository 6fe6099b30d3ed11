package task

import (
	"time"

	"taskflow/internal/errs"
	"taskflow/internal/timectx"

	"cloud.google.com/go/civil"
)

func (t *Task) DueDateLocal() (civil.Date, bool) {
	if t.dueDateLocal == nil {
		return civil.Date{}, false
	}
	return *t.dueDateLocal, true
}

func (t *Task) DueTimeLocal() (civil.Time, bool) {
	if t.dueTimeLocal == nil {
		return civil.Time{}, false
	}
	return *t.dueTimeLocal, true
}

func (t *Task) DueAtUTC() (time.Time, bool) {
	if t.dueAtUTC == nil {
		return time.Time{}, false
	}
	return *t.dueAtUTC, true
}

func (t *Task) HasDueDate() bool { return t.dueDateLocal != nil }

// SetDueDate makes the task due on a calendar date with no time of day.
// Any previous time and UTC instant are dropped.
func (t *Task) SetDueDate(date civil.Date) error {
	if !date.IsValid() {
		return errs.NewValidation("due_date", "a valid calendar date is required")
	}
	d := date
	t.dueDateLocal = &d
	t.dueTimeLocal = nil
	t.dueAtUTC = nil
	return nil
}

// SetDueDateTime stores the local date and time together with the UTC
// instant they denote in loc.
func (t *Task) SetDueDateTime(date civil.Date, clock civil.Time, loc *time.Location) error {
	if loc == nil {
		return errs.NewValidation("time_zone", "a time zone is required")
	}
	if !date.IsValid() {
		return errs.NewValidation("due_date", "a valid calendar date is required")
	}
	if !clock.IsValid() {
		return errs.NewValidation("due_time", "a valid time of day is required")
	}
	d, c := date, clock
	at := timectx.ToUTC(date, clock, loc)
	t.dueDateLocal = &d
	t.dueTimeLocal = &c
	t.dueAtUTC = &at
	return nil
}

func (t *Task) ClearDueDate() {
	t.dueDateLocal = nil
	t.dueTimeLocal = nil
	t.dueAtUTC = nil
}
