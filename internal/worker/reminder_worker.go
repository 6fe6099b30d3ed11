package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	"taskflow/internal/notifier"
	repo "taskflow/internal/repository"
	"taskflow/internal/service"
	"taskflow/internal/timectx"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(ctx context.Context, n notifier.Notification) error
}

// ReminderWorker periodically delivers reminders whose trigger time has
// passed and records them as sent.
type ReminderWorker struct {
	repo      service.TaskRepository
	notifier  Notifier
	clock     timectx.Clock
	interval  time.Duration
	batchSize int
}

type Option func(*ReminderWorker)

func WithInterval(interval time.Duration) Option {
	return func(w *ReminderWorker) {
		if interval > 0 {
			w.interval = interval
		}
	}
}

func WithBatchSize(size int) Option {
	return func(w *ReminderWorker) {
		if size > 0 {
			w.batchSize = size
		}
	}
}

func WithClock(clock timectx.Clock) Option {
	return func(w *ReminderWorker) {
		w.clock = clock
	}
}

func NewReminderWorker(repo service.TaskRepository, n Notifier, opts ...Option) *ReminderWorker {
	w := &ReminderWorker{
		repo:      repo,
		notifier:  n,
		clock:     timectx.SystemClock{},
		interval:  time.Minute,
		batchSize: 100,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: Reminder worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ticker.C:
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: Reminder check failed", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Reminder worker stopping")
			return
		}
	}
}

// Check runs one delivery pass and returns the number of reminders sent.
// A reminder is marked sent only after the notifier accepted it; failed
// deliveries stay pending for the next pass. Tasks that could not be fully
// delivered are skipped for the rest of the pass, so one failing batch never
// holds back the reminders behind it.
func (w *ReminderWorker) Check(ctx context.Context) (int, error) {
	start := time.Now()
	now := w.clock.Now()

	var skip []uuid.UUID
	sent, seen := 0, 0
	for {
		tasks, err := w.repo.ListWithDueReminders(ctx, now, skip, w.batchSize)
		if err != nil {
			return sent, fmt.Errorf("list tasks with due reminders: %w", err)
		}
		if len(tasks) == 0 {
			break
		}
		seen += len(tasks)

		for _, t := range tasks {
			if ctx.Err() != nil {
				return sent, ctx.Err()
			}
			delivered, failed := w.deliver(ctx, t, now)
			if failed || delivered == 0 {
				skip = append(skip, t.ID())
			}
			if delivered == 0 {
				continue
			}
			if err := w.repo.Update(ctx, t); err != nil {
				if !failed {
					skip = append(skip, t.ID())
				}
				if errors.Is(err, repo.ErrVersionConflict) {
					// The task changed meanwhile; its reminders are picked up again next pass.
					logger.Warn("Worker: Task changed during delivery",
						zap.String("task_id", t.ID().String()))
					continue
				}
				logger.Error("Worker: Failed to persist sent reminders", err,
					zap.String("task_id", t.ID().String()))
				continue
			}
			sent += delivered
		}
	}

	logger.Info("Worker: Reminder check finished",
		zap.Duration("ms", time.Since(start)),
		zap.Int("tasks", seen),
		zap.Int("skipped", len(skip)),
		zap.Int("sent", sent))
	return sent, nil
}

// deliver notifies every due reminder of t and reports how many were sent
// and whether any failed.
func (w *ReminderWorker) deliver(ctx context.Context, t *task.Task, now time.Time) (delivered int, failed bool) {
	for _, r := range t.DueReminders(now) {
		if err := w.notifier.Notify(ctx, notificationFor(t, r)); err != nil {
			logger.Warn("Worker: Reminder delivery failed",
				zap.String("task_id", t.ID().String()),
				zap.String("reminder_id", r.ID().String()),
				zap.Error(err))
			failed = true
			continue
		}
		if err := t.MarkReminderSent(r.ID(), now); err != nil {
			logger.Error("Worker: Failed to mark reminder sent", err)
			failed = true
			continue
		}
		delivered++
	}
	return delivered, failed
}

func notificationFor(t *task.Task, r *task.Reminder) notifier.Notification {
	n := notifier.Notification{
		SubscriptionID: t.SubscriptionID(),
		TaskID:         t.ID(),
		ReminderID:     r.ID(),
		Title:          t.Title(),
		TriggerAtUTC:   r.TriggerAtUTC(),
	}
	if d, ok := t.DueDateLocal(); ok {
		n.DueDate = d.String()
	}
	if at, ok := t.DueAtUTC(); ok {
		n.DueAtUTC = &at
	}
	return n
}
