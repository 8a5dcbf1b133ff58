package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/kirillkom/study-library/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrMissingFile),
		domain.IsKind(err, domain.ErrMissingFields),
		domain.IsKind(err, domain.ErrInvalidID),
		domain.IsKind(err, domain.ErrInvalidFileType),
		domain.IsKind(err, domain.ErrSubjectNotFound),
		domain.IsKind(err, domain.ErrCategoryMismatch):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the caller-facing text for err: the message of its kind,
// never the wrapped chain.
func publicMessage(err error) string {
	if kind := domain.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "internal server error"
}

// outcomeLabel turns an error into a bounded metrics label.
func outcomeLabel(err error) string {
	switch kind := domain.KindOf(err); {
	case err == nil:
		return "ok"
	case kind == nil:
		return "internal"
	case kind == domain.ErrMissingFile:
		return "missing_file"
	case kind == domain.ErrMissingFields:
		return "missing_fields"
	case kind == domain.ErrInvalidID:
		return "invalid_id"
	case kind == domain.ErrInvalidFileType:
		return "invalid_file_type"
	case kind == domain.ErrFileTooLarge:
		return "file_too_large"
	case kind == domain.ErrSubjectNotFound:
		return "subject_not_found"
	case kind == domain.ErrCategoryMismatch:
		return "category_mismatch"
	case kind == domain.ErrNotFound:
		return "not_found"
	case kind == domain.ErrUnauthorized:
		return "unauthorized"
	case kind == domain.ErrStore:
		return "store"
	case kind == domain.ErrFileIO:
		return "file_io"
	default:
		return "temporary"
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	writeErrorMessage(w, r, err, publicMessage(err))
}

// writeErrorMessage answers with a fixed message, keeping the status of err's kind.
func writeErrorMessage(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := mapErrorToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, errorResponse{Error: message})
}
