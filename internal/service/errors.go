package service

import (
	"errors"
	"fmt"

	"taskflow/internal/errs"
	"taskflow/internal/logger"
	rep "taskflow/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// translate turns repository sentinels into business errors and wraps
// everything else with the failed operation.
func translate(err error, op, resource string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	var busErr *errs.BusinessError
	if errors.As(err, &busErr) {
		return err
	}
	switch {
	case errors.Is(err, rep.ErrNotFound):
		logger.Info("Service: Record not found", zap.String("resource", resource), zap.String("target_id", id.String()))
		return errs.NewNotFound(resource, id.String())
	case errors.Is(err, rep.ErrVersionConflict):
		logger.Warn("Service: Version conflict", zap.String("resource", resource), zap.String("target_id", id.String()))
		return errs.NewVersionConflict(resource, id.String())
	case errors.Is(err, rep.ErrAlreadyExists):
		return errs.NewInvalidOperation(op, fmt.Sprintf("%s %s already exists", resource, id))
	}
	return fmt.Errorf("%s: %w", op, err)
}
