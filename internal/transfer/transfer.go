package transfer

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"taskflow/internal/errs"
	"taskflow/internal/models/task"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const FormatVersion = 1

type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errs.NewValidation("format", fmt.Sprintf("unsupported format %q, use json or yaml", s))
	}
}

// Document is the exported form of a subscription's task forest. Subtasks
// are nested below their parents, so parent ids are implied.
type Document struct {
	Version        int       `json:"version" yaml:"version"`
	SubscriptionID uuid.UUID `json:"subscription_id" yaml:"subscription_id"`
	ExportedAt     time.Time `json:"exported_at" yaml:"exported_at"`
	Tasks          []Task    `json:"tasks" yaml:"tasks"`
}

type Task struct {
	ID               uuid.UUID     `json:"id" yaml:"id"`
	ProjectID        *uuid.UUID    `json:"project_id,omitempty" yaml:"project_id,omitempty"`
	Title            string        `json:"title" yaml:"title"`
	Note             string        `json:"note,omitempty" yaml:"note,omitempty"`
	Priority         task.Priority `json:"priority" yaml:"priority"`
	Status           task.Status   `json:"status" yaml:"status"`
	Tags             []string      `json:"tags,omitempty" yaml:"tags,omitempty"`
	IsCompleted      bool          `json:"is_completed" yaml:"is_completed"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	DueDate          *civil.Date   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
	DueTime          *civil.Time   `json:"due_time,omitempty" yaml:"due_time,omitempty"`
	DueAtUTC         *time.Time    `json:"due_at_utc,omitempty" yaml:"due_at_utc,omitempty"`
	IsFocused        bool          `json:"is_focused" yaml:"is_focused"`
	IsImportant      bool          `json:"is_important" yaml:"is_important"`
	IsMarkedForToday bool          `json:"is_marked_for_today" yaml:"is_marked_for_today"`
	SortOrder        int           `json:"sort_order" yaml:"sort_order"`
	CreatedAt        time.Time     `json:"created_at" yaml:"created_at"`
	Reminders        []Reminder    `json:"reminders,omitempty" yaml:"reminders,omitempty"`
	SubTasks         []Task        `json:"subtasks,omitempty" yaml:"subtasks,omitempty"`
}

type Reminder struct {
	ID            uuid.UUID   `json:"id" yaml:"id"`
	Mode          string      `json:"mode" yaml:"mode"`
	MinutesBefore int         `json:"minutes_before" yaml:"minutes_before"`
	FallbackTime  *civil.Time `json:"fallback_time,omitempty" yaml:"fallback_time,omitempty"`
	TriggerAtUTC  time.Time   `json:"trigger_at_utc" yaml:"trigger_at_utc"`
	SentAtUTC     *time.Time  `json:"sent_at_utc,omitempty" yaml:"sent_at_utc,omitempty"`
}

// Export converts linked task trees into a document.
func Export(subscriptionID uuid.UUID, roots []*task.Task, exportedAt time.Time) Document {
	doc := Document{
		Version:        FormatVersion,
		SubscriptionID: subscriptionID,
		ExportedAt:     exportedAt.UTC(),
		Tasks:          make([]Task, 0, len(roots)),
	}
	for _, root := range roots {
		doc.Tasks = append(doc.Tasks, fromTask(root))
	}
	return doc
}

func fromTask(t *task.Task) Task {
	s := t.Snapshot()
	out := Task{
		ID:               s.ID,
		ProjectID:        s.ProjectID,
		Title:            s.Title,
		Note:             s.Note,
		Priority:         s.Priority,
		Status:           s.Status,
		Tags:             s.Tags,
		IsCompleted:      s.IsCompleted,
		CompletedAt:      s.CompletedAt,
		DueDate:          s.DueDateLocal,
		DueTime:          s.DueTimeLocal,
		DueAtUTC:         s.DueAtUTC,
		IsFocused:        s.IsFocused,
		IsImportant:      s.IsImportant,
		IsMarkedForToday: s.IsMarkedForToday,
		SortOrder:        s.SortOrder,
		CreatedAt:        s.CreatedAt,
	}
	for _, r := range s.Reminders {
		out.Reminders = append(out.Reminders, Reminder{
			ID:            r.ID,
			Mode:          r.Mode.String(),
			MinutesBefore: r.MinutesBefore,
			FallbackTime:  r.FallbackLocalTime,
			TriggerAtUTC:  r.TriggerAtUTC,
			SentAtUTC:     r.SentAtUTC,
		})
	}
	for _, sub := range t.SubTasks() {
		out.SubTasks = append(out.SubTasks, fromTask(sub))
	}
	return out
}

// ToTasks rebuilds the task trees of the document, validating every node.
// Subtasks inherit their parent's project and are never important.
func (d Document) ToTasks() ([]*task.Task, error) {
	if d.Version != FormatVersion {
		return nil, errs.NewValidation("version", fmt.Sprintf("unsupported export version %d", d.Version))
	}
	if d.SubscriptionID == uuid.Nil {
		return nil, errs.NewValidation("subscription_id", "must be set")
	}

	var flat []*task.Task
	seen := make(map[uuid.UUID]bool)
	type frame struct {
		node   Task
		parent *task.Snapshot
	}
	stack := make([]frame, 0, len(d.Tasks))
	for i := len(d.Tasks) - 1; i >= 0; i-- {
		stack = append(stack, frame{node: d.Tasks[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		snap, err := d.toSnapshot(top.node, top.parent)
		if err != nil {
			return nil, err
		}
		if seen[snap.ID] {
			return nil, errs.NewValidation("id", "duplicate task id "+snap.ID.String())
		}
		seen[snap.ID] = true
		flat = append(flat, task.Rehydrate(*snap))

		for i := len(top.node.SubTasks) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: top.node.SubTasks[i], parent: snap})
		}
	}
	return task.NewForest(flat).Roots(), nil
}

func (d Document) toSnapshot(n Task, parent *task.Snapshot) (*task.Snapshot, error) {
	if n.ID == uuid.Nil {
		return nil, errs.NewValidation("id", "must be set")
	}
	title := strings.TrimSpace(n.Title)
	if title == "" || utf8.RuneCountInString(title) > task.MaxTitleLength {
		return nil, errs.NewValidation("title", "task "+n.ID.String()+" has an invalid title")
	}
	if !n.Priority.IsValid() || !n.Status.IsValid() {
		return nil, errs.NewValidation("priority", "task "+n.ID.String()+" has an invalid priority or status")
	}
	if n.SortOrder < 0 {
		return nil, errs.NewValidation("sort_order", "must not be negative")
	}
	if n.DueTime != nil && (n.DueDate == nil || n.DueAtUTC == nil) {
		return nil, errs.NewValidation("due_time", "task "+n.ID.String()+" has a due time without date or instant")
	}
	if n.DueAtUTC != nil && n.DueTime == nil {
		return nil, errs.NewValidation("due_at_utc", "task "+n.ID.String()+" has a due instant without due time")
	}
	tags, err := task.NormalizeTags(n.Tags)
	if err != nil {
		return nil, err
	}

	snap := &task.Snapshot{
		ID:               n.ID,
		SubscriptionID:   d.SubscriptionID,
		ProjectID:        n.ProjectID,
		Title:            title,
		Note:             strings.TrimSpace(n.Note),
		Priority:         n.Priority,
		Status:           n.Status,
		Tags:             tags,
		IsCompleted:      n.IsCompleted,
		CompletedAt:      n.CompletedAt,
		DueDateLocal:     n.DueDate,
		DueTimeLocal:     n.DueTime,
		DueAtUTC:         n.DueAtUTC,
		IsFocused:        n.IsFocused,
		IsImportant:      n.IsImportant,
		IsMarkedForToday: n.IsMarkedForToday,
		SortOrder:        n.SortOrder,
		CreatedAt:        n.CreatedAt,
	}
	if parent != nil {
		parentID := parent.ID
		snap.ParentTaskID = &parentID
		snap.ProjectID = parent.ProjectID
		snap.IsImportant = false
	}

	for _, r := range n.Reminders {
		mode, err := task.ParseReminderMode(r.Mode)
		if err != nil {
			return nil, err
		}
		if r.ID == uuid.Nil {
			return nil, errs.NewValidation("reminder.id", "must be set")
		}
		if r.MinutesBefore < 0 {
			return nil, errs.NewValidation("reminder.minutes_before", "must not be negative")
		}
		snap.Reminders = append(snap.Reminders, task.ReminderSnapshot{
			ID:                r.ID,
			TaskID:            n.ID,
			Mode:              mode,
			MinutesBefore:     r.MinutesBefore,
			FallbackLocalTime: r.FallbackTime,
			TriggerAtUTC:      r.TriggerAtUTC,
			SentAtUTC:         r.SentAtUTC,
		})
	}
	return snap, nil
}

func Encode(w io.Writer, doc Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return errs.NewValidation("format", fmt.Sprintf("unsupported format %q", format))
	}
}

func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	default:
		return doc, errs.NewValidation("format", fmt.Sprintf("unsupported format %q", format))
	}
	if err != nil {
		return doc, fmt.Errorf("decode %s export: %w", format, err)
	}
	return doc, nil
}
