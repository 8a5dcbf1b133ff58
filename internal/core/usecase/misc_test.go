package usecase

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/kirillkom/study-library/internal/core/domain"
)

func TestAccessGateAuthorize(t *testing.T) {
	gate := NewAccessGate(domain.NewCredential("s3cret"))
	if !gate.Authorize("s3cret") {
		t.Fatalf("expected matching code to authorize")
	}
	if gate.Authorize("S3CRET") || gate.Authorize("") || gate.Authorize("s3cret ") {
		t.Fatalf("expected non-matching codes to be rejected")
	}

	empty := NewAccessGate(domain.NewCredential(""))
	if empty.Authorize("") {
		t.Fatalf("empty credential must never authorize")
	}
}

func TestCreateAnnotationRequiresFields(t *testing.T) {
	uc := NewAnnotationUseCase(&annotationRepoFake{})

	_, err := uc.CreateAnnotation(context.Background(), domain.Annotation{DocumentID: 1, Page: 2})
	if !domain.IsKind(err, domain.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	_, err = uc.CreateAnnotation(context.Background(), domain.Annotation{DocumentID: 1, Page: -2, Type: "note"})
	if !domain.IsKind(err, domain.ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID, got %v", err)
	}
}

func TestCreateAnnotationStampsCreatedAt(t *testing.T) {
	repo := &annotationRepoFake{}
	uc := NewAnnotationUseCase(repo)
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	uc.now = func() time.Time { return fixed }

	created, err := uc.CreateAnnotation(context.Background(), domain.Annotation{
		DocumentID: 4, Page: 3, Type: "highlight", Content: "x", PositionX: 0.5, PositionY: 0.25,
	})
	if err != nil {
		t.Fatalf("CreateAnnotation() error = %v", err)
	}
	if !created.CreatedAt.Equal(fixed) || created.ID == 0 {
		t.Fatalf("unexpected annotation: %+v", created)
	}

	listed, err := uc.ListAnnotations(context.Background(), 4)
	if err != nil {
		t.Fatalf("ListAnnotations() error = %v", err)
	}
	if len(listed) != 1 || listed[0].Type != "highlight" {
		t.Fatalf("unexpected listing: %+v", listed)
	}
}

type annotationRepoFake struct {
	items []domain.Annotation
}

func (f *annotationRepoFake) Create(_ context.Context, annotation domain.Annotation) (*domain.Annotation, error) {
	annotation.ID = int64(len(f.items) + 1)
	f.items = append(f.items, annotation)
	return &annotation, nil
}

func (f *annotationRepoFake) ListByDocument(_ context.Context, documentID int64) ([]domain.Annotation, error) {
	var out []domain.Annotation
	for _, item := range f.items {
		if item.DocumentID == documentID {
			out = append(out, item)
		}
	}
	return out, nil
}

type pageCounterFake struct {
	pages int
	err   error
	calls int
}

func (f *pageCounterFake) CountPages(_ context.Context, r io.Reader) (int, error) {
	f.calls++
	_, _ = io.Copy(io.Discard, r)
	return f.pages, f.err
}

func TestIndexPagesStoresCount(t *testing.T) {
	storage := newStorageFake()
	storage.files["uploads/a.pdf"] = []byte("%PDF")
	docs := newDocRepoFake(domain.Document{ID: 1, FilePath: "uploads/a.pdf"})
	counter := &pageCounterFake{pages: 12}
	uc := NewPageIndexUseCase(docs, storage, counter)

	if err := uc.IndexPages(context.Background(), 1); err != nil {
		t.Fatalf("IndexPages() error = %v", err)
	}
	if docs.pagesSet[1] != 12 {
		t.Fatalf("expected 12 pages, got %v", docs.pagesSet)
	}

	if err := uc.IndexPages(context.Background(), 1); err != nil {
		t.Fatalf("second IndexPages() error = %v", err)
	}
	if counter.calls != 1 {
		t.Fatalf("expected already-indexed document to be skipped, got %d calls", counter.calls)
	}
}

func TestIndexPagesCounterFailure(t *testing.T) {
	storage := newStorageFake()
	storage.files["uploads/a.pdf"] = []byte("junk")
	docs := newDocRepoFake(domain.Document{ID: 1, FilePath: "uploads/a.pdf"})
	uc := NewPageIndexUseCase(docs, storage, &pageCounterFake{err: errors.New("malformed")})

	err := uc.IndexPages(context.Background(), 1)
	if !domain.IsKind(err, domain.ErrFileIO) {
		t.Fatalf("expected ErrFileIO, got %v", err)
	}
	if len(docs.pagesSet) != 0 {
		t.Fatalf("expected no page count stored")
	}
}

func TestIndexPagesMissingDocument(t *testing.T) {
	uc := NewPageIndexUseCase(newDocRepoFake(), newStorageFake(), &pageCounterFake{pages: 1})
	if err := uc.IndexPages(context.Background(), 99); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSeederSeedsOnce(t *testing.T) {
	taxonomy := &taxonomyRepoFake{}
	users := &userRepoFake{}
	seeder := NewSeeder(taxonomy, users)

	if err := seeder.Seed(context.Background(), domain.DefaultTaxonomy(), domain.NewCredential("code")); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if taxonomy.seeded == nil || len(taxonomy.seeded.Categories) != 2 || len(taxonomy.seeded.Subjects) != 11 {
		t.Fatalf("unexpected seeded taxonomy: %+v", taxonomy.seeded)
	}
	if users.ensuredPwd == "code" {
		t.Fatalf("expected admin password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(users.ensuredPwd), []byte("code")); err != nil {
		t.Fatalf("expected stored hash to match the credential: %v", err)
	}

	if err := seeder.Seed(context.Background(), domain.DefaultTaxonomy(), domain.NewCredential("code")); err != nil {
		t.Fatalf("second Seed() error = %v", err)
	}
}

func TestSeederRejectsInvalidInput(t *testing.T) {
	seeder := NewSeeder(&taxonomyRepoFake{}, &userRepoFake{})

	if err := seeder.Seed(context.Background(), domain.DefaultTaxonomy(), domain.NewCredential("")); err == nil {
		t.Fatalf("expected error for empty credential")
	}

	dup := domain.DefaultTaxonomy()
	dup.Subjects = append(dup.Subjects, domain.SeedSubject{Name: "Math"})
	if err := seeder.Seed(context.Background(), dup, domain.NewCredential("code")); err == nil {
		t.Fatalf("expected error for duplicate subject")
	}
}
