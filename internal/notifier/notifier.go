package notifier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"taskflow/internal/logger"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notification is the payload delivered when a reminder fires.
type Notification struct {
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	TaskID         uuid.UUID  `json:"task_id"`
	ReminderID     uuid.UUID  `json:"reminder_id"`
	Title          string     `json:"title"`
	DueDate        string     `json:"due_date,omitempty"`
	DueAtUTC       *time.Time `json:"due_at_utc,omitempty"`
	TriggerAtUTC   time.Time  `json:"trigger_at_utc"`
}

// LogNotifier only writes the notification to the log. It is used when no
// webhook is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, n Notification) error {
	logger.Info("Notifier: Reminder due",
		zap.String("subscription_id", n.SubscriptionID.String()),
		zap.String("task_id", n.TaskID.String()),
		zap.String("reminder_id", n.ReminderID.String()),
		zap.String("title", n.Title),
		zap.Time("trigger_at", n.TriggerAtUTC))
	return nil
}

type WebhookOption func(*WebhookNotifier)

func WithTimeout(timeout time.Duration) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client.SetTimeout(timeout)
	}
}

func WithRetries(count int, wait time.Duration) WebhookOption {
	return func(w *WebhookNotifier) {
		w.client.SetRetryCount(count).
			SetRetryWaitTime(wait).
			SetRetryMaxWaitTime(4 * wait)
	}
}

// WebhookNotifier posts every notification as JSON to a fixed url. Server
// errors and transport failures are retried.
type WebhookNotifier struct {
	url    string
	client *resty.Client
}

func NewWebhookNotifier(url string, opts ...WebhookOption) *WebhookNotifier {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "taskflow-reminders").
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})

	w := &WebhookNotifier{url: url, client: client}
	WithRetries(2, 500*time.Millisecond)(w)
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *WebhookNotifier) Notify(ctx context.Context, n Notification) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", n.ReminderID.String()).
		SetBody(n).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post reminder %s: %w", n.ReminderID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post reminder %s: webhook answered %s", n.ReminderID, resp.Status())
	}

	logger.Debug("Notifier: Webhook delivered",
		zap.String("reminder_id", n.ReminderID.String()),
		zap.Int("http_status", resp.StatusCode()),
		zap.Duration("ms", resp.Time()))
	return nil
}
