package ports

import (
	"context"
	"io"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// Catalog is the inbound read/write contract over categories, subjects and documents.
type Catalog interface {
	ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListSubjects(ctx context.Context, categoryID int64) ([]domain.Subject, error)
	GetDocument(ctx context.Context, id int64) (*domain.Document, error)
	DeleteDocument(ctx context.Context, id int64) error
	OpenDocumentFile(ctx context.Context, id int64) (*domain.Document, io.ReadCloser, error)
}

// Annotations is the inbound contract for reader annotations.
type Annotations interface {
	CreateAnnotation(ctx context.Context, annotation domain.Annotation) (*domain.Annotation, error)
	ListAnnotations(ctx context.Context, documentID int64) ([]domain.Annotation, error)
}

// UploadRequest is the raw, unvalidated form of an admin upload.
type UploadRequest struct {
	File       io.Reader
	Filename   string
	MimeType   string
	Name       string
	CategoryID string
	SubjectID  string
}

// DocumentUploader is the inbound contract for upload orchestration.
type DocumentUploader interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Document, error)
}

// Authorizer decides whether a supplied admin code may perform mutations.
type Authorizer interface {
	Authorize(suppliedCode string) bool
}

// PageIndexer fills in the page count of a stored document.
type PageIndexer interface {
	IndexPages(ctx context.Context, documentID int64) error
}
