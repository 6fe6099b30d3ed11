package task

import "cloud.google.com/go/civil"

type TaskOption func(*Task) error

func WithNote(note string) TaskOption {
	if note == "" {
		return nil
	}
	return func(t *Task) error {
		t.UpdateNote(note)
		return nil
	}
}

func WithPriority(p Priority) TaskOption {
	return func(t *Task) error {
		return t.SetPriority(p)
	}
}

func WithStatus(s Status) TaskOption {
	return func(t *Task) error {
		return t.SetStatus(s)
	}
}

func WithTags(tags ...string) TaskOption {
	if len(tags) == 0 {
		return nil
	}
	return func(t *Task) error {
		return t.SetTags(tags)
	}
}

// WithDueDate sets a date-only due date.
func WithDueDate(date civil.Date) TaskOption {
	return func(t *Task) error {
		return t.SetDueDate(date)
	}
}

func WithSortOrder(n int) TaskOption {
	return func(t *Task) error {
		return t.SetSortOrder(n)
	}
}
