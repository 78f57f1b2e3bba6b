package errorhandler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/logger"
	"github.com/goswami-rohit/salesman-cms-sub001/internal/pkg/response"
)

// HandleError logs the failure and sends a formatted error response
func HandleError(ctx context.Context, w http.ResponseWriter, status int, code, message string, err error) {
	HandleErrorWithDetails(ctx, w, status, code, message, nil, err)
}

// HandleErrorWithDetails logs the failure with details and sends them to the client
func HandleErrorWithDetails(ctx context.Context, w http.ResponseWriter, status int, code, message string, details map[string]string, err error) {
	l := logger.FromContext(ctx)
	event := l.Warn()
	if status >= http.StatusInternalServerError {
		event = l.Error()
	}
	event = event.
		Str("error_code", code).
		Int("status_code", status)
	if err != nil {
		event = event.Err(err)
	}
	if details != nil {
		event = event.Interface("error_details", details)
	}
	event.Msg(message)

	response.ErrorWithDetails(w, status, code, message, details)
}

// Internal logs an unexpected error and answers with a generic 500.
func Internal(ctx context.Context, w http.ResponseWriter, op string, err error) {
	logger.FromContext(ctx).Error().
		Err(err).
		Str("operation", op).
		Msg("Unexpected error")
	response.InternalError(w)
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	errJSON, _ := json.Marshal(fieldErrors)
	logger.FromContext(ctx).Warn().
		RawJSON("validation_errors", errJSON).
		Msg("Validation error")
}

// Validation logs and answers a 400 with field-level details.
func Validation(ctx context.Context, w http.ResponseWriter, fieldErrors map[string]string) {
	LogValidationError(ctx, fieldErrors)
	response.ValidationError(w, fieldErrors)
}
