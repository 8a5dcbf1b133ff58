package httpadapter

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/kirillkom/study-library/internal/config"
	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
	"github.com/kirillkom/study-library/internal/core/usecase"
)

const testAdminCode = "ONLYME"

type catalogFake struct {
	mu sync.Mutex

	docs       []domain.Document
	categories []domain.Category
	subjects   []domain.Subject
	blobs      map[int64][]byte

	lastFilter domain.DocumentFilter
	deleted    []int64
	err        error
}

func (f *catalogFake) ListDocuments(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Document{}
	for _, doc := range f.docs {
		if filter.SubjectID != nil && !doc.HasSubject(*filter.SubjectID) {
			continue
		}
		if filter.PublicOnly && !doc.IsPublic {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *catalogFake) ListCategories(context.Context) ([]domain.Category, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.categories, nil
}

func (f *catalogFake) ListSubjects(_ context.Context, categoryID int64) ([]domain.Subject, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Subject{}
	for _, s := range f.subjects {
		if s.CategoryID == categoryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *catalogFake) GetDocument(_ context.Context, id int64) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, doc := range f.docs {
		if doc.ID == id {
			doc := doc
			return &doc, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get document", io.EOF)
}

func (f *catalogFake) DeleteDocument(ctx context.Context, id int64) error {
	if _, err := f.GetDocument(ctx, id); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *catalogFake) OpenDocumentFile(ctx context.Context, id int64) (*domain.Document, io.ReadCloser, error) {
	doc, err := f.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	blob, ok := f.blobs[id]
	if !ok {
		return doc, nil, domain.WrapError(domain.ErrNotFound, "open pdf file", io.EOF)
	}
	return doc, io.NopCloser(bytes.NewReader(blob)), nil
}

type uploadCall struct {
	req  ports.UploadRequest
	body []byte
}

type uploaderFake struct {
	calls []uploadCall
	err   error
}

func (f *uploaderFake) Upload(_ context.Context, req ports.UploadRequest) (*domain.Document, error) {
	call := uploadCall{req: req}
	if req.File != nil {
		call.body, _ = io.ReadAll(req.File)
	}
	f.calls = append(f.calls, call)
	if f.err != nil {
		return nil, f.err
	}
	if req.File == nil {
		return nil, domain.WrapError(domain.ErrMissingFile, "upload", io.EOF)
	}
	subjectID := int64(6)
	return &domain.Document{
		ID:          11,
		Name:        req.Name,
		FilePath:    "uploads/x-" + req.Filename,
		UploadDate:  "2026-10-14",
		IsPublic:    true,
		CategoryID:  1,
		SubjectID:   &subjectID,
		SubjectName: "Physics",
	}, nil
}

type annotationsFake struct {
	created []domain.Annotation
	err     error
}

func (f *annotationsFake) CreateAnnotation(_ context.Context, a domain.Annotation) (*domain.Annotation, error) {
	if f.err != nil {
		return nil, f.err
	}
	a.ID = int64(len(f.created) + 1)
	f.created = append(f.created, a)
	return &a, nil
}

func (f *annotationsFake) ListAnnotations(_ context.Context, documentID int64) ([]domain.Annotation, error) {
	out := []domain.Annotation{}
	for _, a := range f.created {
		if a.DocumentID == documentID {
			out = append(out, a)
		}
	}
	return out, nil
}

type testServer struct {
	handler     http.Handler
	catalog     *catalogFake
	uploader    *uploaderFake
	annotations *annotationsFake
}

func int64Ptr(v int64) *int64 { return &v }

func newTestServer(cfg config.Config) *testServer {
	catalog := &catalogFake{
		docs: []domain.Document{
			{ID: 2, Name: "Physics Notes", FilePath: "uploads/b.pdf", UploadDate: "2026-10-14", IsPublic: true, CategoryID: 1, SubjectID: int64Ptr(6)},
			{ID: 1, Name: "Biology Ch1", FilePath: "uploads/a.pdf", UploadDate: "2026-10-01", IsPublic: false, CategoryID: 1, SubjectID: int64Ptr(6)},
		},
		categories: []domain.Category{{ID: 1, Name: "CLASS 9"}, {ID: 2, Name: "CLASS 10"}},
		subjects: []domain.Subject{
			{ID: 6, Name: "Physics", CategoryID: 1},
			{ID: 17, Name: "Physics", CategoryID: 2},
		},
		blobs: map[int64][]byte{2: []byte("%PDF-1.7 physics")},
	}
	uploader := &uploaderFake{}
	annotations := &annotationsFake{}
	gate := usecase.NewAccessGate(domain.NewCredential(testAdminCode))

	return &testServer{
		handler:     NewRouter(cfg, catalog, uploader, annotations, gate).Handler(),
		catalog:     catalog,
		uploader:    uploader,
		annotations: annotations,
	}
}

func newTestHandler(cfg config.Config) http.Handler {
	return newTestServer(cfg).handler
}
