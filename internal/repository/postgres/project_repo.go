package postgres

import (
	"context"
	"errors"
	"fmt"

	"taskflow/internal/logger"
	"taskflow/internal/models/project"
	"taskflow/internal/models/subscription"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ProjectStorage struct {
	pool *pgxpool.Pool
}

func (s *ProjectStorage) Create(ctx context.Context, p *project.Project) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO projects (id, subscription_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.SubscriptionID, p.Name, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Failed to create project", err)
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *ProjectStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*project.Project, error) {
	p := &project.Project{}
	err := s.pool.QueryRow(ctx, `SELECT id, subscription_id, name, created_at FROM projects
		WHERE id = $1 AND subscription_id = $2`, id, subscriptionID).
		Scan(&p.ID, &p.SubscriptionID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Failed to get project", err)
		return nil, fmt.Errorf("get project: %w", err)
	}
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

func (s *ProjectStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*project.Project, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, subscription_id, name, created_at FROM projects
		WHERE subscription_id = $1 ORDER BY created_at, id`, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to list projects", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := []*project.Project{}
	for rows.Next() {
		p := &project.Project{}
		if err := rows.Scan(&p.ID, &p.SubscriptionID, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt = p.CreatedAt.UTC()
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProjectStorage) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1 AND subscription_id = $2`, id, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to delete project", err)
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type SubscriptionStorage struct {
	pool *pgxpool.Pool
}

func (s *SubscriptionStorage) Create(ctx context.Context, sub *subscription.Subscription) error {
	_, err := s.pool.Exec(ctx, `INSERT INTO subscriptions (id, name, time_zone, created_at) VALUES ($1, $2, $3, $4)`,
		sub.ID, sub.Name, sub.TimeZone, sub.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repo.ErrAlreadyExists
		}
		logger.Error("Repository: Failed to create subscription", err)
		return fmt.Errorf("create subscription: %w", err)
	}
	return nil
}

func (s *SubscriptionStorage) Update(ctx context.Context, sub *subscription.Subscription) error {
	tag, err := s.pool.Exec(ctx, `UPDATE subscriptions SET name = $1, time_zone = $2 WHERE id = $3`,
		sub.Name, sub.TimeZone, sub.ID)
	if err != nil {
		logger.Error("Repository: Failed to update subscription", err)
		return fmt.Errorf("update subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (s *SubscriptionStorage) GetByID(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	sub := &subscription.Subscription{}
	err := s.pool.QueryRow(ctx, `SELECT id, name, time_zone, created_at FROM subscriptions WHERE id = $1`, id).
		Scan(&sub.ID, &sub.Name, &sub.TimeZone, &sub.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Failed to get subscription", err)
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	sub.CreatedAt = sub.CreatedAt.UTC()
	return sub, nil
}

// Delete removes the subscription; its rows in other tables go with it.
func (s *SubscriptionStorage) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		logger.Error("Repository: Failed to delete subscription", err)
		return fmt.Errorf("delete subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
