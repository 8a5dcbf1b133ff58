package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile      = errors.New("no PDF file uploaded")
	ErrMissingFields    = errors.New("required fields are missing")
	ErrInvalidID        = errors.New("invalid id")
	ErrInvalidFileType  = errors.New("only PDF files are allowed")
	ErrFileTooLarge     = errors.New("file exceeds upload size limit")
	ErrSubjectNotFound  = errors.New("subject not found")
	ErrCategoryMismatch = errors.New("subject does not belong to the selected category")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrStore            = errors.New("store failure")
	ErrFileIO           = errors.New("file operation failed")
	ErrTemporary        = errors.New("temporary failure")
)

var kinds = []error{
	ErrMissingFile,
	ErrMissingFields,
	ErrInvalidID,
	ErrInvalidFileType,
	ErrFileTooLarge,
	ErrSubjectNotFound,
	ErrCategoryMismatch,
	ErrNotFound,
	ErrUnauthorized,
	ErrStore,
	ErrFileIO,
	ErrTemporary,
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindOf returns the first taxonomy kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
