package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskflow/internal/logger"
	"taskflow/internal/models/section"
	repo "taskflow/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type SectionStorage struct {
	pool *pgxpool.Pool
}

const sectionColumns = `id, subscription_id, name, sort_order, is_system, due_bucket,
	include_assigned_tasks, include_unassigned_tasks, include_done_tasks, include_cancelled_tasks, version`

func writeManualTasks(ctx context.Context, q querier, snap section.Snapshot) error {
	if _, err := q.Exec(ctx, `DELETE FROM section_manual_tasks WHERE section_id = $1`, snap.ID); err != nil {
		return fmt.Errorf("clear manual tasks: %w", err)
	}
	if len(snap.ManualTaskIDs) == 0 {
		return nil
	}
	// ids of deleted tasks are skipped by the join
	_, err := q.Exec(ctx, `INSERT INTO section_manual_tasks (section_id, task_id)
		SELECT $1, t.id FROM tasks t WHERE t.id = ANY($2) AND t.subscription_id = $3`,
		snap.ID, snap.ManualTaskIDs, snap.SubscriptionID)
	if err != nil {
		return fmt.Errorf("insert manual tasks: %w", err)
	}
	return nil
}

func (s *SectionStorage) CreateMany(ctx context.Context, sections []*section.Section) error {
	start := time.Now()
	defer warnIfSlow("create sections", start)

	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, sec := range sections {
			snap := sec.Snapshot()
			_, err := tx.Exec(ctx, `INSERT INTO sections (`+sectionColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)`,
				snap.ID, snap.SubscriptionID, snap.Name, snap.SortOrder, snap.IsSystemSection, int16(snap.Rule.DueBucket),
				snap.Rule.IncludeAssignedTasks, snap.Rule.IncludeUnassignedTasks, snap.Rule.IncludeDoneTasks, snap.Rule.IncludeCancelledTasks,
			)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
					return repo.ErrAlreadyExists
				}
				return fmt.Errorf("insert section: %w", err)
			}
			if err := writeManualTasks(ctx, tx, snap); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Repository: Failed to create sections", err)
		return err
	}
	for _, sec := range sections {
		sec.SetVersion(1)
	}
	return nil
}

func (s *SectionStorage) Create(ctx context.Context, sec *section.Section) error {
	return s.CreateMany(ctx, []*section.Section{sec})
}

func (s *SectionStorage) Update(ctx context.Context, sec *section.Section) error {
	start := time.Now()
	defer warnIfSlow("update section", start)

	snap := sec.Snapshot()
	var version int
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `UPDATE sections
			SET name = $1,
				sort_order = $2,
				due_bucket = $3,
				include_assigned_tasks = $4,
				include_unassigned_tasks = $5,
				include_done_tasks = $6,
				include_cancelled_tasks = $7,
				version = version + 1
			WHERE id = $8 AND subscription_id = $9 AND version = $10
			RETURNING version`,
			snap.Name, snap.SortOrder, int16(snap.Rule.DueBucket),
			snap.Rule.IncludeAssignedTasks, snap.Rule.IncludeUnassignedTasks, snap.Rule.IncludeDoneTasks, snap.Rule.IncludeCancelledTasks,
			snap.ID, snap.SubscriptionID, snap.Version,
		).Scan(&version)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return missingOrConflict(ctx, tx, "sections", snap.SubscriptionID, snap.ID, snap.Version)
			}
			return fmt.Errorf("update section: %w", err)
		}
		return writeManualTasks(ctx, tx, snap)
	})
	if err != nil {
		if !errors.Is(err, repo.ErrVersionConflict) && !errors.Is(err, repo.ErrNotFound) {
			logger.Error("Repository: Failed to update section", err, zap.String("section_id", snap.ID.String()))
		}
		return err
	}
	sec.SetVersion(version)
	return nil
}

func (s *SectionStorage) query(ctx context.Context, where string, args ...any) ([]*section.Section, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+sectionColumns+` FROM sections WHERE `+where+` ORDER BY sort_order, name`, args...)
	if err != nil {
		return nil, err
	}
	var snapshots []section.Snapshot
	for rows.Next() {
		var (
			snap   section.Snapshot
			bucket int16
		)
		err := rows.Scan(&snap.ID, &snap.SubscriptionID, &snap.Name, &snap.SortOrder, &snap.IsSystemSection, &bucket,
			&snap.Rule.IncludeAssignedTasks, &snap.Rule.IncludeUnassignedTasks, &snap.Rule.IncludeDoneTasks, &snap.Rule.IncludeCancelledTasks,
			&snap.Version)
		if err != nil {
			rows.Close()
			return nil, err
		}
		snap.Rule.DueBucket = section.Bucket(bucket)
		snapshots = append(snapshots, snap)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return []*section.Section{}, nil
	}

	ids := make([]uuid.UUID, len(snapshots))
	index := make(map[uuid.UUID]int, len(snapshots))
	for i, snap := range snapshots {
		ids[i] = snap.ID
		index[snap.ID] = i
	}
	manual, err := s.pool.Query(ctx, `SELECT section_id, task_id FROM section_manual_tasks WHERE section_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer manual.Close()
	for manual.Next() {
		var sectionID, taskID uuid.UUID
		if err := manual.Scan(&sectionID, &taskID); err != nil {
			return nil, err
		}
		i := index[sectionID]
		snapshots[i].ManualTaskIDs = append(snapshots[i].ManualTaskIDs, taskID)
	}
	if err := manual.Err(); err != nil {
		return nil, err
	}

	out := make([]*section.Section, len(snapshots))
	for i, snap := range snapshots {
		out[i] = section.Rehydrate(snap)
	}
	return out, nil
}

func (s *SectionStorage) GetByID(ctx context.Context, subscriptionID, id uuid.UUID) (*section.Section, error) {
	sections, err := s.query(ctx, `id = $1 AND subscription_id = $2`, id, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to get section", err)
		return nil, fmt.Errorf("get section: %w", err)
	}
	if len(sections) == 0 {
		return nil, repo.ErrNotFound
	}
	return sections[0], nil
}

func (s *SectionStorage) ListBySubscription(ctx context.Context, subscriptionID uuid.UUID) ([]*section.Section, error) {
	start := time.Now()
	defer warnIfSlow("list sections", start)

	sections, err := s.query(ctx, `subscription_id = $1`, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to list sections", err)
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

func (s *SectionStorage) Delete(ctx context.Context, subscriptionID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sections WHERE id = $1 AND subscription_id = $2`, id, subscriptionID)
	if err != nil {
		logger.Error("Repository: Failed to delete section", err)
		return fmt.Errorf("delete section: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}
	return nil
}
