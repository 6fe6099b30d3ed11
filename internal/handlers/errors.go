package handlers

import (
	"errors"
	"net/http"

	"taskflow/internal/errs"
	"taskflow/internal/logger"

	"go.uber.org/zap"
)

func handleBusinessError(w http.ResponseWriter, err error) bool {
	var businessErr *errs.BusinessError
	if !errors.As(err, &businessErr) {
		return false
	}
	statusCode := mapBusinessErrorToHTTP(businessErr.Code)

	logger.Warn("HTTP: Business error",
		zap.String("error_code", businessErr.Code),
		zap.String("message", businessErr.Message),
		zap.Int("http_status", statusCode))

	responseWithJSON(w, statusCode,
		toPayload("error", businessErr.Code),
		toPayload("message", businessErr.Message),
		toPayload("details", businessErr.Details),
	)
	return true
}

func mapBusinessErrorToHTTP(code string) int {
	switch code {
	case errs.CodeNotFound:
		return http.StatusNotFound
	case errs.CodeValidation:
		return http.StatusBadRequest
	case errs.CodeTenantMismatch:
		return http.StatusForbidden
	case errs.CodeInvalidOperation, errs.CodeVersionConflict:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// serviceError writes the response for an error returned by a service call.
func serviceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if handleBusinessError(w, err) {
		return
	}
	logger.Error("HTTP: Service failure", err,
		zap.String("operation", op),
		zap.String("path", r.URL.Path))
	responseWithError(w, http.StatusInternalServerError, "internal server error")
}
