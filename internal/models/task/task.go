// Package task holds the Task aggregate: a work item with its owned subtasks,
// tags and reminders. Every mutation validates first and only then writes,
// so a failed call never leaves a task half updated.
package task

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/internal/errs"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

const MaxTitleLength = 500

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

var priorityNames = map[Priority]string{
	PriorityLow:    "low",
	PriorityMedium: "medium",
	PriorityHigh:   "high",
}

func (p Priority) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("priority(%d)", int(p))
}

func (p Priority) IsValid() bool {
	_, ok := priorityNames[p]
	return ok
}

func ParsePriority(s string) (Priority, error) {
	for p, name := range priorityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return p, nil
		}
	}
	return 0, errs.NewValidation("priority", fmt.Sprintf("unknown priority %q", s))
}

func (p Priority) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(data []byte) error {
	parsed, err := ParsePriority(string(data))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Status is the workflow state. It is independent of the completion flag.
type Status int

const (
	StatusTodo Status = iota
	StatusDoing
	StatusDone
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusTodo:      "todo",
	StatusDoing:     "doing",
	StatusDone:      "done",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status(%d)", int(s))
}

func (s Status) IsValid() bool {
	_, ok := statusNames[s]
	return ok
}

func ParseStatus(s string) (Status, error) {
	for st, name := range statusNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return 0, errs.NewValidation("status", fmt.Sprintf("unknown status %q", s))
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(data []byte) error {
	parsed, err := ParseStatus(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

type Task struct {
	id             uuid.UUID
	subscriptionID uuid.UUID
	parentTaskID   uuid.UUID
	projectID      uuid.UUID

	title    string
	note     string
	priority Priority
	status   Status
	tags     []string

	isCompleted bool
	completedAt *time.Time

	dueDateLocal *civil.Date
	dueTimeLocal *civil.Time
	dueAtUTC     *time.Time

	isFocused        bool
	isImportant      bool
	isMarkedForToday bool

	sortOrder int
	createdAt time.Time
	version   int

	reminders []*Reminder
	subTasks  []*Task
}

// NewTask creates a top level, unassigned task.
func NewTask(subscriptionID uuid.UUID, title string, createdAt time.Time, opts ...TaskOption) (*Task, error) {
	if subscriptionID == uuid.Nil {
		return nil, errs.NewValidation("subscription_id", "must not be empty")
	}
	cleanTitle, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	t := &Task{
		id:             uuid.New(),
		subscriptionID: subscriptionID,
		title:          cleanTitle,
		priority:       PriorityMedium,
		status:         StatusTodo,
		createdAt:      createdAt.UTC(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(t); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func validateTitle(title string) (string, error) {
	clean := strings.TrimSpace(title)
	if clean == "" {
		return "", errs.NewValidation("title", "must not be empty")
	}
	if utf8.RuneCountInString(clean) > MaxTitleLength {
		return "", errs.NewValidation("title", fmt.Sprintf("must be at most %d characters", MaxTitleLength))
	}
	return clean, nil
}

func (t *Task) ID() uuid.UUID             { return t.id }
func (t *Task) SubscriptionID() uuid.UUID { return t.subscriptionID }
func (t *Task) Title() string             { return t.title }
func (t *Task) Note() string              { return t.note }
func (t *Task) Priority() Priority        { return t.priority }
func (t *Task) Status() Status            { return t.status }
func (t *Task) IsCompleted() bool         { return t.isCompleted }
func (t *Task) IsFocused() bool           { return t.isFocused }
func (t *Task) IsImportant() bool         { return t.isImportant }
func (t *Task) IsMarkedForToday() bool    { return t.isMarkedForToday }
func (t *Task) SortOrder() int            { return t.sortOrder }
func (t *Task) CreatedAt() time.Time      { return t.createdAt }
func (t *Task) Version() int              { return t.version }

// SetVersion is used by repositories after a successful write.
func (t *Task) SetVersion(version int) { t.version = version }

func (t *Task) ParentTaskID() (uuid.UUID, bool) {
	return t.parentTaskID, t.parentTaskID != uuid.Nil
}

func (t *Task) HasParent() bool { return t.parentTaskID != uuid.Nil }

func (t *Task) ProjectID() (uuid.UUID, bool) {
	return t.projectID, t.projectID != uuid.Nil
}

func (t *Task) IsAssigned() bool { return t.projectID != uuid.Nil }

func (t *Task) CompletedAt() (time.Time, bool) {
	if t.completedAt == nil {
		return time.Time{}, false
	}
	return *t.completedAt, true
}

func (t *Task) UpdateTitle(title string) error {
	clean, err := validateTitle(title)
	if err != nil {
		return err
	}
	t.title = clean
	return nil
}

// UpdateNote stores the trimmed note; blank input removes it.
func (t *Task) UpdateNote(note string) {
	t.note = strings.TrimSpace(note)
}

func (t *Task) SetPriority(p Priority) error {
	if !p.IsValid() {
		return errs.NewValidation("priority", "unknown priority")
	}
	t.priority = p
	return nil
}

func (t *Task) SetStatus(s Status) error {
	if !s.IsValid() {
		return errs.NewValidation("status", "unknown status")
	}
	t.status = s
	return nil
}

// ToggleImportant flips the important flag. Only top level tasks can be
// important.
func (t *Task) ToggleImportant() error {
	if t.HasParent() {
		return errs.NewInvalidOperation("toggle important", "subtasks cannot be marked important")
	}
	t.isImportant = !t.isImportant
	return nil
}

func (t *Task) ToggleFocus() {
	t.isFocused = !t.isFocused
}

func (t *Task) MarkForToday() {
	t.isMarkedForToday = true
}

func (t *Task) UnmarkForToday() {
	t.isMarkedForToday = false
}

func (t *Task) SetSortOrder(n int) error {
	if n < 0 {
		return errs.NewValidation("sort_order", "must not be negative")
	}
	t.sortOrder = n
	return nil
}

// Uncomplete clears completion on this task only; subtasks and status are
// left as they are.
func (t *Task) Uncomplete() {
	if !t.isCompleted {
		return
	}
	t.isCompleted = false
	t.completedAt = nil
}
