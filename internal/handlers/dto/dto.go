package dto

import (
	"time"

	"taskflow/internal/models/section"
	"taskflow/internal/models/subscription"
	"taskflow/internal/models/task"

	"github.com/google/uuid"
)

type CreateSubscriptionRequest struct {
	Name     string `json:"name"`
	TimeZone string `json:"time_zone"`
}

type UpdateTimeZoneRequest struct {
	TimeZone string `json:"time_zone"`
}

type SubscriptionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	TimeZone  string    `json:"time_zone"`
	CreatedAt time.Time `json:"created_at"`
}

func FromSubscription(s *subscription.Subscription) SubscriptionResponse {
	return SubscriptionResponse{ID: s.ID, Name: s.Name, TimeZone: s.TimeZone, CreatedAt: s.CreatedAt}
}


type CreateProjectRequest struct {
	Name string `json:"name"`
}

type CreateTaskRequest struct {
	Title     string         `json:"title"`
	Note      string         `json:"note"`
	Priority  *task.Priority `json:"priority,omitempty"`
	Status    *task.Status   `json:"status,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	ProjectID *uuid.UUID     `json:"project_id,omitempty"`
}

type UpdateTaskRequest struct {
	Title    *string        `json:"title,omitempty"`
	Note     *string        `json:"note,omitempty"`
	Priority *task.Priority `json:"priority,omitempty"`
	Status   *task.Status   `json:"status,omitempty"`
	Tags     *[]string      `json:"tags,omitempty"`
}

// CreateSubTaskRequest either creates a new subtask from Title or attaches
// the existing top level task TaskID.
type CreateSubTaskRequest struct {
	Title  string     `json:"title,omitempty"`
	TaskID *uuid.UUID `json:"task_id,omitempty"`
}

type TagRequest struct {
	Tag string `json:"tag"`
}

type MarkForTodayRequest struct {
	Marked bool `json:"marked"`
}

// DueRequest carries a local date as YYYY-MM-DD and an optional local time
// as HH:MM or HH:MM:SS.
type DueRequest struct {
	Date string  `json:"date"`
	Time *string `json:"time,omitempty"`
}

type ReminderRequest struct {
	Mode          string `json:"mode"`
	MinutesBefore int    `json:"minutes_before"`
	FallbackTime  string `json:"fallback_time,omitempty"`
}

type AssignProjectRequest struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type ReorderRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type ReminderResponse struct {
	ID            uuid.UUID  `json:"id"`
	Mode          string     `json:"mode"`
	MinutesBefore int        `json:"minutes_before"`
	FallbackTime  string     `json:"fallback_time,omitempty"`
	TriggerAtUTC  time.Time  `json:"trigger_at_utc"`
	SentAtUTC     *time.Time `json:"sent_at_utc,omitempty"`
}

func FromReminder(r *task.Reminder) ReminderResponse {
	out := ReminderResponse{
		ID:            r.ID(),
		Mode:          r.Mode().String(),
		MinutesBefore: r.MinutesBefore(),
		TriggerAtUTC:  r.TriggerAtUTC(),
	}
	if fallback, ok := r.FallbackLocalTime(); ok {
		out.FallbackTime = fallback.String()
	}
	if sent, ok := r.SentAtUTC(); ok {
		out.SentAtUTC = &sent
	}
	return out
}

type TaskResponse struct {
	ID               uuid.UUID          `json:"id"`
	ParentTaskID     *uuid.UUID         `json:"parent_task_id,omitempty"`
	ProjectID        *uuid.UUID         `json:"project_id,omitempty"`
	Title            string             `json:"title"`
	Note             string             `json:"note,omitempty"`
	Priority         task.Priority      `json:"priority"`
	Status           task.Status        `json:"status"`
	Tags             []string           `json:"tags"`
	IsCompleted      bool               `json:"is_completed"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
	DueDate          string             `json:"due_date,omitempty"`
	DueTime          string             `json:"due_time,omitempty"`
	DueAtUTC         *time.Time         `json:"due_at_utc,omitempty"`
	IsFocused        bool               `json:"is_focused"`
	IsImportant      bool               `json:"is_important"`
	IsMarkedForToday bool               `json:"is_marked_for_today"`
	SortOrder        int                `json:"sort_order"`
	CreatedAt        time.Time          `json:"created_at"`
	Version          int                `json:"version"`
	Reminders        []ReminderResponse `json:"reminders"`
	SubTasks         []TaskResponse     `json:"subtasks,omitempty"`
}

func FromTask(t *task.Task) TaskResponse {
	out := TaskResponse{
		ID:               t.ID(),
		Title:            t.Title(),
		Note:             t.Note(),
		Priority:         t.Priority(),
		Status:           t.Status(),
		Tags:             t.Tags(),
		IsCompleted:      t.IsCompleted(),
		IsFocused:        t.IsFocused(),
		IsImportant:      t.IsImportant(),
		IsMarkedForToday: t.IsMarkedForToday(),
		SortOrder:        t.SortOrder(),
		CreatedAt:        t.CreatedAt(),
		Version:          t.Version(),
		Reminders:        []ReminderResponse{},
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if id, ok := t.ParentTaskID(); ok {
		out.ParentTaskID = &id
	}
	if id, ok := t.ProjectID(); ok {
		out.ProjectID = &id
	}
	if at, ok := t.CompletedAt(); ok {
		out.CompletedAt = &at
	}
	if d, ok := t.DueDateLocal(); ok {
		out.DueDate = d.String()
	}
	if c, ok := t.DueTimeLocal(); ok {
		out.DueTime = c.String()
	}
	if at, ok := t.DueAtUTC(); ok {
		out.DueAtUTC = &at
	}
	for _, r := range t.Reminders() {
		out.Reminders = append(out.Reminders, FromReminder(r))
	}
	for _, sub := range t.SubTasks() {
		out.SubTasks = append(out.SubTasks, FromTask(sub))
	}
	return out
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

type RuleDTO struct {
	DueBucket              section.Bucket `json:"due_bucket"`
	IncludeAssignedTasks   bool           `json:"include_assigned_tasks"`
	IncludeUnassignedTasks bool           `json:"include_unassigned_tasks"`
	IncludeDoneTasks       bool           `json:"include_done_tasks"`
	IncludeCancelledTasks  bool           `json:"include_cancelled_tasks"`
}

func (r RuleDTO) ToRule() section.Rule {
	return section.Rule{
		DueBucket:              r.DueBucket,
		IncludeAssignedTasks:   r.IncludeAssignedTasks,
		IncludeUnassignedTasks: r.IncludeUnassignedTasks,
		IncludeDoneTasks:       r.IncludeDoneTasks,
		IncludeCancelledTasks:  r.IncludeCancelledTasks,
	}
}

func FromRule(r section.Rule) RuleDTO {
	return RuleDTO{
		DueBucket:              r.DueBucket,
		IncludeAssignedTasks:   r.IncludeAssignedTasks,
		IncludeUnassignedTasks: r.IncludeUnassignedTasks,
		IncludeDoneTasks:       r.IncludeDoneTasks,
		IncludeCancelledTasks:  r.IncludeCancelledTasks,
	}
}

type CreateSectionRequest struct {
	Name string   `json:"name"`
	Rule *RuleDTO `json:"rule,omitempty"`
}

type RenameSectionRequest struct {
	Name string `json:"name"`
}

type SectionResponse struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	SortOrder     int            `json:"sort_order"`
	IsSystem      bool           `json:"is_system"`
	Rule          RuleDTO        `json:"rule"`
	ManualTaskIDs []uuid.UUID    `json:"manual_task_ids"`
	Version       int            `json:"version"`
	Tasks         []TaskResponse `json:"tasks,omitempty"`
}

func FromSection(s *section.Section) SectionResponse {
	return SectionResponse{
		ID:            s.ID(),
		Name:          s.Name(),
		SortOrder:     s.SortOrder(),
		IsSystem:      s.IsSystemSection(),
		Rule:          FromRule(s.Rule()),
		ManualTaskIDs: s.ManualTaskIDs(),
		Version:       s.Version(),
	}
}
