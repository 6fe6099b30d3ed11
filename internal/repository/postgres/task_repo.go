package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type TaskStorage struct {
	pool *pgxpool.Pool
}

const taskColumns = `id, subscription_id, parent_task_id, project_id, title, note,
	priority, status, tags, is_completed, completed_at,
	due_date_local, due_time_local, due_at_utc,
	is_focused, is_important, is_marked_for_today, sort_order, created_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (task.Snapshot, error) {
	var (
		s                task.Snapshot
		priority, status int16
		dueDate          pgtype.Date
		dueTime          pgtype.Time
	)
	err := row.Scan(
		&s.ID, &s.SubscriptionID, &s.ParentTaskID, &s.ProjectID, &s.Title, &s.Note,
		&priority, &status, &s.Tags, &s.IsCompleted, &s.CompletedAt,
		&dueDate, &dueTime, &s.DueAtUTC,
		&s.IsFocused, &s.IsImportant, &s.IsMarkedForToday, &s.SortOrder, &s.CreatedAt, &s.Version,
	)
	if err != nil {
		return task.Snapshot{}, err
	}
	s.Priority = task.Priority(priority)
	s.Status = task.Status(status)
	s.CompletedAt = utcPtr(s.CompletedAt)
	s.DueDateLocal = dateFromPg(dueDate)
	s.DueTimeLocal = timeFromPg(dueTime)
	s.DueAtUTC = utcPtr(s.DueAtUTC)
	s.CreatedAt = s.CreatedAt.UTC()
	return s, nil
}

// queryTasks runs a task select and attaches reminders in a second query.
func queryTasks(ctx context.Context, q querier, query string, args ...any) ([]*task.Task, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var snapshots []task.Snapshot
	for rows.Next() {
		s, err := scanTask(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snapshots = append(snapshots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return []*task.Task{}, nil
	}

	ids := make([]uuid.UUID, len(snapshots))
	index := make(map[uuid.UUID]int, len(snapshots))
	for i, s := range snapshots {
		ids[i] = s.ID
		index[s.ID] = i
	}
	reminders, err := q.Query(ctx, `SELECT id, task_id, mode, minutes_before, fallback_local_time, trigger_at_utc, sent_at_utc
		FROM task_reminders
		WHERE task_id = ANY($1)
		ORDER BY trigger_at_utc, id`, ids)
	if err != nil {
		return nil, err
	}
	defer reminders.Close()
	for reminders.Next() {
		var (
			r        task.ReminderSnapshot
			mode     int16
			fallback pgtype.Time
		)
		if err := reminders.Scan(&r.ID, &r.TaskID, &mode, &r.MinutesBefore, &fallback, &r.TriggerAtUTC, &r.SentAtUTC); err != nil {
			return nil, err
		}
		r.Mode = task.ReminderMode(mode)
		r.FallbackLocalTime = timeFromPg(fallback)
		r.TriggerAtUTC = r.TriggerAtUTC.UTC()
		r.SentAtUTC = utcPtr(r.SentAtUTC)
		i := index[r.TaskID]
		snapshots[i].Reminders = append(snapshots[i].Reminders, r)
	}
	if err := reminders.Err(); err != nil {
		return nil, err
	}

	out := make([]*task.Task, len(snapshots))
	for i, s := range snapshots {
		out[i] = task.Rehydrate(s)
	}
	return out, nil
}

func insertReminders(ctx context.Context, q querier, s task.Snapshot) error {
	for _, r := range s.Reminders {
		_, err := q.Exec(ctx, `INSERT INTO task_reminders
			(id, task_id, mode, minutes_before, fallback_local_time, trigger_at_utc, sent_at_utc)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, s.ID, int16(r.Mode), r.MinutesBefore, timeToPg(r.FallbackLocalTime), r.TriggerAtUTC, r.SentAtUTC)
		if err != nil {
			return fmt.Errorf("insert reminder: %w", err)
		}
	}
	return nil
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func insertTask(ctx context.Context, tx pgx.Tx, snap task.Snapshot) error {
	_, err := tx.Exec(ctx, `INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, 1)`,
		snap.ID, snap.SubscriptionID, snap.ParentTaskID, snap.ProjectID, snap.Title, snap.Note,
		int16(snap.Priority), int16(snap.Status), tagsOrEmpty(snap.Tags), snap.IsCompleted, snap.CompletedAt,
		dateToPg(snap.DueDateLocal), timeToPg(snap.DueTimeLocal), snap.DueAtUTC,
		snap.IsFocused, snap.IsImportant, snap.IsMarkedForToday, snap.SortOrder, snap.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrAlreadyExists
		}
		return fmt.Errorf("insert task: %w", err)
	}
	return insertReminders(ctx, tx, snap)
}

func (s *TaskStorage) Create(ctx context.Context, taskToCreate *task.Task) error {
	return s.CreateMany(ctx, []*task.Task{taskToCreate})
}

// CreateMany inserts all tasks in one transaction. Parent references are
// checked at commit, so the order of tasks does not matter.
func (s *TaskStorage) CreateMany(ctx context.Context, tasks []*task.Task) error {
	start := time.Now()
	defer warnIfSlow("create tasks", start)

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, t := range tasks {
			if err := insertTask(ctx, tx, t.Snapshot()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repo.ErrAlreadyExists) {
			logger.Error("Repository: Failed to create tasks", err, zap.Int("count", len(tasks)))
		}
		return err
	}
	for _, t := range tasks {
		t.SetVersion(1)
	}
	return nil
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

// updateTask writes one task inside tx and returns its new version.
func updateTask(ctx context.Context, tx pgx.Tx, t *task.Task) (int, error) {
	snap := t.Snapshot()
	var version int
	err := tx.QueryRow(ctx, `UPDATE tasks
		SET parent_task_id = $1,
			project_id = $2,
			title = $3,
			note = $4,
			priority = $5,
			status = $6,
			tags = $7,
			is_completed = $8,
			completed_at = $9,
			due_date_local = $10,
			due_time_local = $11,
			due_at_utc = $12,
			is_focused = $13,
			is_important = $14,
			is_marked_for_today = $15,
			sort_order = $16,
			version = version + 1
		WHERE id = $17 AND subscription_id = $18 AND version = $19
		RETURNING version`,
		snap.ParentTaskID, snap.ProjectID, snap.Title, snap.Note,
		int16(snap.Priority), int16(snap.Status), tagsOrEmpty(snap.Tags), snap.IsCompleted, snap.CompletedAt,
		dateToPg(snap.DueDateLocal), timeToPg(snap.DueTimeLocal), snap.DueAtUTC,
		snap.IsFocused, snap.IsImportant, snap.IsMarkedForToday, snap.SortOrder,
		snap.ID, snap.SubscriptionID, snap.Version,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, missingOrConflict(ctx, tx, "tasks", snap.SubscriptionID, snap.ID, snap.Version)
		}
		return 0, fmt.Errorf("update task: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM task_reminders WHERE task_id = $1`, snap.ID); err != nil {
		return 0, fmt.Errorf("replace reminders: %w", err)
	}
	if err := insertReminders(ctx, tx, snap); err != nil {
		return 0, err
	}
	return version, nil
}

// missingOrConflict tells a row of another tenant or a deleted row apart
// from a stale version after an update matched nothing.
func missingOrConflict(ctx context.Context, q querier, table string, subscriptionID, id uuid.UUID, expected int) error {
	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM `+table+` WHERE id = $1 AND subscription_id = $2)`, id, subscriptionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check %s: %w", table, err)
	}
	if !exists {
		return repo.ErrNotFound
	}
	logger.Warn("Repository: Version conflict",
		zap.String("table", table),
		zap.String("id", id.String()),
		zap.Int("expected_version", expected))
	return repo.ErrVersionConflict
}

func (s *TaskStorage) Update(ctx context.Context, taskToUpdate *task.Task) error {
	return s.UpdateMany(ctx, []*task.Task{taskToUpdate})
}

// UpdateMany writes all tasks in one transaction. Versions on the passed
// tasks change only after commit.
func (s *TaskStorage) UpdateMany(ctx context.Context, tasks []*task.Task) error {
	start := time.Now()
	defer warnIfSlow("update tasks", start)

	unique := make([]*task.Task, 0, len(tasks))
	seen := make(map[uuid.UUID]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID()]; ok {
			continue
		}
		seen[t.ID()] = struct{}{}
		unique = append(unique, t)
	}

	versions := make([]int, len(unique))
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		for i, t := range unique {
			v, err := updateTask(ctx, tx, t)
			if err != nil {
				return err
			}
			versions[i] = v
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, repo.ErrVersionConflict) && !errors.Is(err, repo.ErrNotFound) {
			logger.Error("Repository: Failed to update tasks", err, zap.Int("count", len(unique)))
		}
		return err
	}
	for i, t := range unique {
		t.SetVersion(versions[i])
	}
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("get task", start)

	tasks, err := queryTasks(ctx, s.pool, `SELECT `+taskColumns+` FROM tasks
		WHERE id = $1 AND subscription_id = $2`, id, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to get task", err, zap.String("task_id", id.String()))
		return nil, fmt.Errorf("get task: %w", err)
	}
	if len(tasks) == 0 {
		return nil, repo.ErrNotFound
	}
	return tasks[0], nil
}

func (s *TaskStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list tasks", start)

	tasks, err := queryTasks(ctx, s.pool, `SELECT `+taskColumns+` FROM tasks
		WHERE subscription_id = $1
		ORDER BY created_at, id`, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to list tasks", err)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskStorage) ListSubTasks(ctx context.Context, subscriptionID, parentID uuid.UUID) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list subtasks", start)

	tasks, err := queryTasks(ctx, s.pool, `SELECT `+taskColumns+` FROM tasks
		WHERE subscription_id = $1 AND parent_task_id = $2
		ORDER BY sort_order, created_at, id`, subscriptionID, parentID)
	if err != nil {
		logger.Error("Repository: Failed to list subtasks", err)
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	return tasks, nil
}

// Delete removes all given tasks or none of them.
func (s *TaskStorage) Delete(ctx context.Context, subscriptionID uuid.UUID, ids []uuid.UUID) error {
	start := time.Now()
	defer warnIfSlow("delete tasks", start)

	unique := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		unique[id] = struct{}{}
	}
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM tasks WHERE subscription_id = $1 AND id = ANY($2)`, subscriptionID, ids)
		if err != nil {
			return fmt.Errorf("delete tasks: %w", err)
		}
		if tag.RowsAffected() != int64(len(unique)) {
			return repo.ErrNotFound
		}
		return nil
	})
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		logger.Error("Repository: Failed to delete tasks", err)
	}
	return err
}

// ListWithDueReminders returns tasks with an unsent reminder triggering at
// or before now, oldest pending trigger first. Tasks in skip are left out.
func (s *TaskStorage) ListWithDueReminders(ctx context.Context, now time.Time, skip []uuid.UUID, limit int) ([]*task.Task, error) {
	start := time.Now()
	defer warnIfSlow("list due reminders", start)

	if skip == nil {
		skip = []uuid.UUID{}
	}
	tasks, err := queryTasks(ctx, s.pool, `SELECT `+taskColumns+` FROM tasks t
		JOIN (
			SELECT task_id, min(trigger_at_utc) AS first_due
			FROM task_reminders
			WHERE sent_at_utc IS NULL AND trigger_at_utc <= $1
			GROUP BY task_id
		) d ON d.task_id = t.id
		WHERE NOT (t.id = ANY($2))
		ORDER BY d.first_due, t.id
		LIMIT $3`, now, skip, limit)
	if err != nil {
		logger.Error("Repository: Failed to list due reminders", err)
		return nil, fmt.Errorf("list due reminders: %w", err)
	}
	return tasks, nil
}
