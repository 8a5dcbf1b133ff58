package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

type AnnotationUseCase struct {
	repo ports.AnnotationRepository
	now  func() time.Time
}

func NewAnnotationUseCase(repo ports.AnnotationRepository) *AnnotationUseCase {
	return &AnnotationUseCase{repo: repo, now: time.Now}
}

func (uc *AnnotationUseCase) CreateAnnotation(ctx context.Context, annotation domain.Annotation) (*domain.Annotation, error) {
	annotation.Type = strings.TrimSpace(annotation.Type)
	if annotation.DocumentID == 0 || annotation.Page == 0 || annotation.Type == "" {
		return nil, domain.WrapError(domain.ErrMissingFields, "create annotation",
			errors.New("document_id, page and type are required"))
	}
	if annotation.DocumentID < 0 || annotation.Page < 0 {
		return nil, domain.WrapError(domain.ErrInvalidID, "create annotation",
			errors.New("document_id and page must be positive"))
	}
	annotation.CreatedAt = uc.now().UTC()

	created, err := uc.repo.Create(ctx, annotation)
	if err != nil {
		return nil, storeError("create annotation", err)
	}
	return created, nil
}

func (uc *AnnotationUseCase) ListAnnotations(ctx context.Context, documentID int64) ([]domain.Annotation, error) {
	annotations, err := uc.repo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, storeError("list annotations", err)
	}
	if annotations == nil {
		annotations = []domain.Annotation{}
	}
	return annotations, nil
}
