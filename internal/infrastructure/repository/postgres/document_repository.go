package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `
SELECT d.id, d.name, d.file_path, d.pages, d.owner_id, d.upload_date, d.is_public, d.category_id, d.subject_id,
	COALESCE(s.name, ''), COALESCE(c.name, ''), COALESCE(u.username, '')
FROM documents d
LEFT JOIN subjects s ON d.subject_id = s.id
LEFT JOIN categories c ON d.category_id = c.id
LEFT JOIN users u ON d.owner_id = u.id
`

func (r *DocumentRepository) List(ctx context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.SubjectID != nil {
		args = append(args, *filter.SubjectID)
		conditions = append(conditions, fmt.Sprintf("d.subject_id = $%d", len(args)))
	}
	if filter.PublicOnly {
		conditions = append(conditions, "d.is_public = TRUE")
	}

	query := documentColumns
	if len(conditions) > 0 {
		query += "WHERE " + strings.Join(conditions, " AND ") + "\n"
	}
	query += "ORDER BY d.upload_date DESC, d.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return out, nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, documentColumns+"WHERE d.id = $1", id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get document", id)
		}
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Insert(ctx context.Context, doc domain.NewDocument, uploadDate string) (*domain.Document, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (name, file_path, owner_id, upload_date, is_public, category_id, subject_id)
VALUES ($1,$2,$3,$4,$5,$6,$7)
RETURNING id
`, doc.Name, doc.FilePath, doc.OwnerID, uploadDate, doc.IsPublic, doc.CategoryID, doc.SubjectID).Scan(&id)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return nil, domain.WrapError(domain.ErrNotFound, "insert document", err)
		}
		return nil, fmt.Errorf("insert document: %w", err)
	}

	ownerID := doc.OwnerID
	subjectID := doc.SubjectID
	return &domain.Document{
		ID:         id,
		Name:       doc.Name,
		FilePath:   doc.FilePath,
		OwnerID:    &ownerID,
		UploadDate: uploadDate,
		IsPublic:   doc.IsPublic,
		CategoryID: doc.CategoryID,
		SubjectID:  &subjectID,
	}, nil
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("delete document", id)
	}
	return nil
}

func (r *DocumentRepository) SetPages(ctx context.Context, id int64, pages int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET pages = $2 WHERE id = $1`, id, pages)
	if err != nil {
		return fmt.Errorf("update document pages: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document pages rows affected: %w", err)
	}
	if affected == 0 {
		return notFound("update document pages", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var (
		doc        domain.Document
		pages      sql.NullInt64
		ownerID    sql.NullInt64
		subjectID  sql.NullInt64
		uploadDate time.Time
	)
	err := row.Scan(
		&doc.ID, &doc.Name, &doc.FilePath, &pages, &ownerID, &uploadDate, &doc.IsPublic, &doc.CategoryID, &subjectID,
		&doc.SubjectName, &doc.CategoryName, &doc.OwnerName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Document{}, err
		}
		return domain.Document{}, fmt.Errorf("scan document: %w", err)
	}
	doc.Pages = nullableInt(pages)
	doc.OwnerID = nullableInt64(ownerID)
	doc.SubjectID = nullableInt64(subjectID)
	doc.UploadDate = uploadDate.Format(domain.UploadDateLayout)
	return doc, nil
}
