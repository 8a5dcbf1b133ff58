package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// APIError is a non-2xx answer from the server. It unwraps to the domain
// kind implied by the status and message, so callers can use domain.IsKind.
type APIError struct {
	Operation  string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s status: %d %s: %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusRequestEntityTooLarge:
		return domain.ErrFileTooLarge
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return domain.ErrTemporary
	case http.StatusBadRequest:
		return validationKind(e.Message)
	}
	if e.StatusCode >= 500 {
		return domain.ErrStore
	}
	return nil
}

var validationKinds = []error{
	domain.ErrMissingFile,
	domain.ErrMissingFields,
	domain.ErrInvalidID,
	domain.ErrInvalidFileType,
	domain.ErrSubjectNotFound,
	domain.ErrCategoryMismatch,
}

// validationKind recovers the kind from the server's message, which is the
// kind's own text for validation failures.
func validationKind(message string) error {
	for _, kind := range validationKinds {
		if message == kind.Error() {
			return kind
		}
	}
	if strings.HasSuffix(message, " id") {
		return domain.ErrInvalidID
	}
	return domain.ErrMissingFields
}

func errorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return strings.TrimSpace(string(body))
}
