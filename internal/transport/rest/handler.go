// Package rest provides the storefront and admin HTTP handlers.
package rest

import (
	"errors"
	"log/slog"
	"net/http"

	serrors "github.com/abgdnv/storefront/internal/errors"
	"github.com/abgdnv/storefront/pkg/web"
	"github.com/go-chi/chi/v5/middleware"
)

// respondServiceError maps a service error to a status code. Unknown errors become 500
// with the generic message; their detail only goes to the log.
func respondServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error, message string) {
	var vErr *serrors.ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", vErr.Fields)
		web.RespondValidation(w, logger, vErr.Fields)
	case errors.Is(err, serrors.ErrInvalidProductID):
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, serrors.ErrInvalidCategory):
		logger.WarnContext(r.Context(), "Invalid category", "error", err)
		web.RespondError(w, logger, http.StatusBadRequest, err.Error())
	case errors.Is(err, serrors.ErrUnknownSection):
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, serrors.ErrProductNotFound),
		errors.Is(err, serrors.ErrCategoryNotFound),
		errors.Is(err, serrors.ErrOrderNotFound):
		logger.WarnContext(r.Context(), "Resource not found", "error", err)
		web.RespondError(w, logger, http.StatusNotFound, err.Error())
	case errors.Is(err, serrors.ErrEmailMismatch):
		logger.WarnContext(r.Context(), "Order email mismatch")
		web.RespondError(w, logger, http.StatusForbidden, err.Error())
	case errors.Is(err, serrors.ErrEmptyCart):
		web.RespondError(w, logger, http.StatusConflict, err.Error())
	default:
		logger.ErrorContext(r.Context(), message, "error", err)
		web.RespondError(w, logger, http.StatusInternalServerError, message)
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func loggerWithReqID(r *http.Request, logger *slog.Logger) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	if reqID == "" {
		reqID, _ = web.GetRequestID(r.Context())
	}
	return logger.With("request_id", reqID)
}

// HealthCheck is a simple health check endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
