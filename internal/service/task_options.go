package service

import "taskflow/internal/models/task"

// UpdateOption is one field change applied by TaskService.UpdateTask.
type UpdateOption func(*task.Task) error

func WithTitle(title string) UpdateOption {
	return func(t *task.Task) error {
		return t.UpdateTitle(title)
	}
}

func WithNote(note string) UpdateOption {
	return func(t *task.Task) error {
		t.UpdateNote(note)
		return nil
	}
}

func WithPriority(priority task.Priority) UpdateOption {
	return func(t *task.Task) error {
		return t.SetPriority(priority)
	}
}

func WithStatus(status task.Status) UpdateOption {
	return func(t *task.Task) error {
		return t.SetStatus(status)
	}
}

func WithTags(tags []string) UpdateOption {
	return func(t *task.Task) error {
		return t.SetTags(tags)
	}
}
