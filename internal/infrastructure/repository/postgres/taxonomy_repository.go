package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// seedLockKey serializes first-start seeding across concurrently booting replicas.
const seedLockKey int64 = 2026101401

type TaxonomyRepository struct {
	db *sql.DB
}

func NewTaxonomyRepository(db *sql.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

func (r *TaxonomyRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, description, icon, color
FROM categories
ORDER BY id
`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

func (r *TaxonomyRepository) ListSubjects(ctx context.Context, categoryID int64) ([]domain.Subject, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, category_id, description, icon, color
FROM subjects
WHERE category_id = $1
ORDER BY id
`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Subject, 0)
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subjects: %w", err)
	}
	return out, nil
}

func (r *TaxonomyRepository) GetSubject(ctx context.Context, id int64) (*domain.Subject, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, category_id, description, icon, color
FROM subjects
WHERE id = $1
`, id)
	s, err := scanSubject(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get subject", id)
		}
		return nil, err
	}
	return &s, nil
}

// SeedTaxonomy inserts every category and then every subject in one
// transaction. It is a no-op returning false when categories already exist.
func (r *TaxonomyRepository) SeedTaxonomy(ctx context.Context, taxonomy domain.Taxonomy) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, seedLockKey); err != nil {
		return false, fmt.Errorf("acquire seed lock: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		return false, fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	categoryIDs, err := insertCategories(ctx, tx, taxonomy.Categories)
	if err != nil {
		return false, err
	}
	if err := insertSubjects(ctx, tx, taxonomy, categoryIDs); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit seed tx: %w", err)
	}
	return true, nil
}

func insertCategories(ctx context.Context, tx *sql.Tx, categories []domain.SeedCategory) ([]int64, error) {
	values := make([]string, 0, len(categories))
	args := make([]any, 0, len(categories)*4)
	for i, c := range categories {
		base := i * 4
		values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4))
		args = append(args, c.Name, c.Description, c.Icon, c.Color)
	}

	rows, err := tx.QueryContext(ctx,
		"INSERT INTO categories (name, description, icon, color) VALUES "+strings.Join(values, ",")+" RETURNING id, name",
		args...)
	if err != nil {
		return nil, fmt.Errorf("insert categories: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]int64, len(categories))
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan category id: %w", err)
		}
		byName[name] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category ids: %w", err)
	}

	ids := make([]int64, 0, len(categories))
	for _, c := range categories {
		id, ok := byName[c.Name]
		if !ok {
			return nil, fmt.Errorf("category %q not returned by insert", c.Name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func insertSubjects(ctx context.Context, tx *sql.Tx, taxonomy domain.Taxonomy, categoryIDs []int64) error {
	if len(taxonomy.Subjects) == 0 {
		return nil
	}
	values := make([]string, 0, len(categoryIDs)*len(taxonomy.Subjects))
	args := make([]any, 0, len(categoryIDs)*len(taxonomy.Subjects)*5)
	for _, categoryID := range categoryIDs {
		for _, s := range taxonomy.Subjects {
			base := len(args)
			values = append(values, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d)", base+1, base+2, base+3, base+4, base+5))
			args = append(args, s.Name, categoryID, s.Description, s.Icon, s.Color)
		}
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO subjects (name, category_id, description, icon, color) VALUES "+strings.Join(values, ","),
		args...); err != nil {
		return fmt.Errorf("insert subjects: %w", err)
	}
	return nil
}

func scanSubject(row rowScanner) (domain.Subject, error) {
	var s domain.Subject
	if err := row.Scan(&s.ID, &s.Name, &s.CategoryID, &s.Description, &s.Icon, &s.Color); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Subject{}, err
		}
		return domain.Subject{}, fmt.Errorf("scan subject: %w", err)
	}
	return s, nil
}
