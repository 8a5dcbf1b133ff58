package ports

import (
	"context"
	"io"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// DocumentRepository persists and reads document rows.
type DocumentRepository interface {
	List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error)
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	Insert(ctx context.Context, doc domain.NewDocument, uploadDate string) (*domain.Document, error)
	Delete(ctx context.Context, id int64) error
	SetPages(ctx context.Context, id int64, pages int) error
}

// TaxonomyRepository reads categories and subjects and seeds them once.
type TaxonomyRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListSubjects(ctx context.Context, categoryID int64) ([]domain.Subject, error)
	GetSubject(ctx context.Context, id int64) (*domain.Subject, error)
	SeedTaxonomy(ctx context.Context, taxonomy domain.Taxonomy) (bool, error)
}

// UserRepository resolves the admin account.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	EnsureAdmin(ctx context.Context, username, password string) (bool, error)
}

// AnnotationRepository persists annotations.
type AnnotationRepository interface {
	Create(ctx context.Context, annotation domain.Annotation) (*domain.Annotation, error)
	ListByDocument(ctx context.Context, documentID int64) ([]domain.Annotation, error)
}

// FileStorage stores uploaded PDFs under paths relative to the service root.
type FileStorage interface {
	Save(ctx context.Context, filename string, data io.Reader) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// DocumentEvents publishes/consumes document lifecycle events.
type DocumentEvents interface {
	PublishDocumentUploaded(ctx context.Context, documentID int64) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, int64) error) error
}

// PageCounter reports the number of pages of a PDF stream.
type PageCounter interface {
	CountPages(ctx context.Context, r io.Reader) (int, error)
}
