package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

// PageIndexUseCase fills documents.pages after upload. It runs in the worker
// and is idempotent: documents that already carry a page count are skipped.
type PageIndexUseCase struct {
	docs    ports.DocumentRepository
	storage ports.FileStorage
	counter ports.PageCounter
}

func NewPageIndexUseCase(
	docs ports.DocumentRepository,
	storage ports.FileStorage,
	counter ports.PageCounter,
) *PageIndexUseCase {
	return &PageIndexUseCase{
		docs:    docs,
		storage: storage,
		counter: counter,
	}
}

func (uc *PageIndexUseCase) IndexPages(ctx context.Context, documentID int64) error {
	doc, err := uc.loadDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Pages != nil {
		return nil
	}

	pages, err := uc.countPages(ctx, doc)
	if err != nil {
		return err
	}

	if err := uc.docs.SetPages(ctx, doc.ID, pages); err != nil {
		return storeError("save page count", err)
	}
	return nil
}

func (uc *PageIndexUseCase) loadDocument(ctx context.Context, documentID int64) (*domain.Document, error) {
	doc, err := uc.docs.GetByID(ctx, documentID)
	if err != nil {
		return nil, storeError("fetch document by id", err)
	}
	return doc, nil
}

func (uc *PageIndexUseCase) countPages(ctx context.Context, doc *domain.Document) (int, error) {
	reader, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return 0, fmt.Errorf("open stored pdf: %w", err)
	}
	defer reader.Close()

	pages, err := uc.counter.CountPages(ctx, reader)
	if err != nil {
		return 0, domain.WrapError(domain.ErrFileIO, "count pages", err)
	}
	if pages <= 0 {
		return 0, domain.WrapError(domain.ErrFileIO, "count pages", errors.New("pdf reports zero pages"))
	}
	return pages, nil
}
