package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

type CatalogUseCase struct {
	docs     ports.DocumentRepository
	taxonomy ports.TaxonomyRepository
	storage  ports.FileStorage
}

func NewCatalogUseCase(
	docs ports.DocumentRepository,
	taxonomy ports.TaxonomyRepository,
	storage ports.FileStorage,
) *CatalogUseCase {
	return &CatalogUseCase{
		docs:     docs,
		taxonomy: taxonomy,
		storage:  storage,
	}
}

func (uc *CatalogUseCase) ListDocuments(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	docs, err := uc.docs.List(ctx, filter)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list documents", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (uc *CatalogUseCase) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := uc.taxonomy.ListCategories(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list categories", err)
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

func (uc *CatalogUseCase) ListSubjects(ctx context.Context, categoryID int64) ([]domain.Subject, error) {
	subjects, err := uc.taxonomy.ListSubjects(ctx, categoryID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStore, "list subjects", err)
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}
	return subjects, nil
}

func (uc *CatalogUseCase) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get document", err)
	}
	return doc, nil
}

// DeleteDocument removes the row first and the backing file second. The row is
// the system of record, so a failed file release is logged and swallowed.
func (uc *CatalogUseCase) DeleteDocument(ctx context.Context, id int64) error {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return storeError("find document", err)
	}

	if err := uc.docs.Delete(ctx, id); err != nil {
		return storeError("delete document", err)
	}

	if err := uc.storage.Remove(ctx, doc.FilePath); err != nil {
		slog.Warn("document_file_release_failed",
			"document_id", id,
			"file_path", doc.FilePath,
			"error", err,
		)
	}
	return nil
}

// OpenDocumentFile returns the row alongside the error when only the blob is
// missing, so callers can tell a dangling row from an unknown id.
func (uc *CatalogUseCase) OpenDocumentFile(ctx context.Context, id int64) (*domain.Document, io.ReadCloser, error) {
	doc, err := uc.docs.GetByID(ctx, id)
	if err != nil {
		return nil, nil, storeError("find document", err)
	}

	reader, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			slog.Error("document_file_missing", "document_id", id, "file_path", doc.FilePath)
			return doc, nil, fmt.Errorf("open pdf file: %w", err)
		}
		return nil, nil, domain.WrapError(domain.ErrFileIO, "open pdf file", err)
	}
	return doc, reader, nil
}

// storeError keeps already-classified errors and marks the rest as store failures.
func storeError(operation string, err error) error {
	if domain.KindOf(err) != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	return domain.WrapError(domain.ErrStore, operation, err)
}
