package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type AnnotationRepository struct {
	db *sql.DB
}

func NewAnnotationRepository(db *sql.DB) *AnnotationRepository {
	return &AnnotationRepository{db: db}
}

func (r *AnnotationRepository) Create(ctx context.Context, annotation domain.Annotation) (*domain.Annotation, error) {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO annotations (document_id, page, type, content, position_x, position_y, created_at, user_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
RETURNING id
`,
		annotation.DocumentID, annotation.Page, annotation.Type, annotation.Content,
		annotation.PositionX, annotation.PositionY, annotation.CreatedAt, annotation.UserID,
	).Scan(&annotation.ID)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, domain.WrapError(domain.ErrNotFound, "create annotation", err)
		}
		return nil, fmt.Errorf("create annotation: %w", err)
	}
	return &annotation, nil
}

func (r *AnnotationRepository) ListByDocument(ctx context.Context, documentID int64) ([]domain.Annotation, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, document_id, page, type, content, position_x, position_y, created_at, user_id
FROM annotations
WHERE document_id = $1
ORDER BY page, id
`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Annotation, 0)
	for rows.Next() {
		var (
			a      domain.Annotation
			userID sql.NullInt64
		)
		if err := rows.Scan(&a.ID, &a.DocumentID, &a.Page, &a.Type, &a.Content, &a.PositionX, &a.PositionY, &a.CreatedAt, &userID); err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		a.UserID = nullableInt64(userID)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate annotations: %w", err)
	}
	return out, nil
}
