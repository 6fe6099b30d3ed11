package section

import (
	"slices"
	"time"

	"taskflow/internal/models/task"
	"taskflow/internal/timectx"

	"cloud.google.com/go/civil"
)

// RecentWindowDays is how far back a task's local creation date may lie for
// the Recent bucket.
const RecentWindowDays = 7

// EvalContext pins "now" for a whole batch of evaluations so every task is
// bucketed against the same today and week end.
type EvalContext struct {
	Today     civil.Date
	EndOfWeek civil.Date
	Now       time.Time
	Location  *time.Location
}

func NewEvalContext(now time.Time, loc *time.Location) EvalContext {
	if loc == nil {
		loc = time.UTC
	}
	today := timectx.LocalDate(now, loc)
	return EvalContext{
		Today:     today,
		EndOfWeek: timectx.EndOfWeek(today),
		Now:       now.UTC(),
		Location:  loc,
	}
}

// Matches reports whether t belongs in the section. Manually included tasks
// always match; everything else goes through the inclusion flags and then
// the due bucket.
func (s *Section) Matches(t *task.Task, ec EvalContext) bool {
	if s.HasManualTask(t.ID()) {
		return true
	}

	rule := s.rule
	if t.IsAssigned() && !rule.IncludeAssignedTasks {
		return false
	}
	if !t.IsAssigned() && !rule.IncludeUnassignedTasks {
		return false
	}
	if t.Status() == task.StatusDone && !rule.IncludeDoneTasks {
		return false
	}
	if t.Status() == task.StatusCancelled && !rule.IncludeCancelledTasks {
		return false
	}

	due, hasDue := t.DueDateLocal()
	switch rule.DueBucket {
	case BucketAny:
		return true
	case BucketToday:
		return t.IsMarkedForToday() || (hasDue && due == ec.Today)
	case BucketThisWeek:
		return hasDue && due.After(ec.Today) && !due.After(ec.EndOfWeek)
	case BucketUpcoming:
		return hasDue && due.After(ec.EndOfWeek)
	case BucketNoDueDate:
		return !hasDue
	case BucketImportant:
		return t.IsImportant()
	case BucketRecent:
		loc := ec.Location
		if loc == nil {
			loc = time.UTC
		}
		createdLocal := timectx.LocalDate(t.CreatedAt(), loc)
		return !createdLocal.Before(ec.Today.AddDays(-RecentWindowDays)) && !createdLocal.After(ec.Today)
	default:
		return false
	}
}

// Resolve filters tasks through the section and returns them in view order.
func (s *Section) Resolve(tasks []*task.Task, ec EvalContext) []*task.Task {
	out := make([]*task.Task, 0, len(tasks))
	for _, t := range tasks {
		if s.Matches(t, ec) {
			out = append(out, t)
		}
	}
	Order(out)
	return out
}

// Order sorts tasks for display: tasks with a due date first, by date; on
// the same date, date-only tasks come before timed ones, timed ones by time;
// then newest first, then by id.
func Order(tasks []*task.Task) {
	slices.SortStableFunc(tasks, compareForView)
}

func compareForView(a, b *task.Task) int {
	aDate, aHasDate := a.DueDateLocal()
	bDate, bHasDate := b.DueDateLocal()
	if aHasDate != bHasDate {
		if aHasDate {
			return -1
		}
		return 1
	}
	if aHasDate {
		if c := aDate.Compare(bDate); c != 0 {
			return c
		}
		aTime, aHasTime := a.DueTimeLocal()
		bTime, bHasTime := b.DueTimeLocal()
		if aHasTime != bHasTime {
			if !aHasTime {
				return -1
			}
			return 1
		}
		if aHasTime {
			if c := aTime.Compare(bTime); c != 0 {
				return c
			}
		}
	}
	if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
		return c
	}
	aID, bID := a.ID(), b.ID()
	return slices.Compare(aID[:], bID[:])
}
