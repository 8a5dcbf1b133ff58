package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type docRepoFake struct {
	docs      map[int64]domain.Document
	nextID    int64
	listErr   error
	insertErr error
	deleteErr error
	getErr    error
	join      func(*domain.Document)
	deleted   []int64
	pagesSet  map[int64]int
	lastList  domain.DocumentFilter
}

func newDocRepoFake(docs ...domain.Document) *docRepoFake {
	f := &docRepoFake{docs: map[int64]domain.Document{}, nextID: 1, pagesSet: map[int64]int{}}
	for _, doc := range docs {
		f.docs[doc.ID] = doc
		if doc.ID >= f.nextID {
			f.nextID = doc.ID + 1
		}
	}
	return f
}

func (f *docRepoFake) List(_ context.Context, filter domain.DocumentFilter) ([]domain.Document, error) {
	f.lastList = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Document
	for _, doc := range f.docs {
		if filter.SubjectID != nil && !doc.HasSubject(*filter.SubjectID) {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (f *docRepoFake) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "get document", fmt.Errorf("id=%d", id))
	}
	if f.join != nil {
		f.join(&doc)
	}
	return &doc, nil
}

func (f *docRepoFake) Insert(_ context.Context, doc domain.NewDocument, uploadDate string) (*domain.Document, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	owner := doc.OwnerID
	subject := doc.SubjectID
	stored := domain.Document{
		ID:         f.nextID,
		Name:       doc.Name,
		FilePath:   doc.FilePath,
		OwnerID:    &owner,
		UploadDate: uploadDate,
		IsPublic:   doc.IsPublic,
		CategoryID: doc.CategoryID,
		SubjectID:  &subject,
	}
	f.docs[stored.ID] = stored
	f.nextID++
	return &stored, nil
}

func (f *docRepoFake) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.docs[id]; !ok {
		return domain.WrapError(domain.ErrNotFound, "delete document", fmt.Errorf("id=%d", id))
	}
	delete(f.docs, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *docRepoFake) SetPages(_ context.Context, id int64, pages int) error {
	doc, ok := f.docs[id]
	if !ok {
		return domain.WrapError(domain.ErrNotFound, "set pages", fmt.Errorf("id=%d", id))
	}
	doc.Pages = &pages
	f.docs[id] = doc
	f.pagesSet[id] = pages
	return nil
}

type taxonomyRepoFake struct {
	categories []domain.Category
	subjects   []domain.Subject
	subjectErr error
	seeded     *domain.Taxonomy
	seedErr    error
}

func (f *taxonomyRepoFake) ListCategories(context.Context) ([]domain.Category, error) {
	return f.categories, nil
}

func (f *taxonomyRepoFake) ListSubjects(_ context.Context, categoryID int64) ([]domain.Subject, error) {
	var out []domain.Subject
	for _, subject := range f.subjects {
		if subject.CategoryID == categoryID {
			out = append(out, subject)
		}
	}
	return out, nil
}

func (f *taxonomyRepoFake) GetSubject(_ context.Context, id int64) (*domain.Subject, error) {
	if f.subjectErr != nil {
		return nil, f.subjectErr
	}
	for _, subject := range f.subjects {
		if subject.ID == id {
			s := subject
			return &s, nil
		}
	}
	return nil, domain.WrapError(domain.ErrNotFound, "get subject", fmt.Errorf("id=%d", id))
}

func (f *taxonomyRepoFake) SeedTaxonomy(_ context.Context, taxonomy domain.Taxonomy) (bool, error) {
	if f.seedErr != nil {
		return false, f.seedErr
	}
	if f.seeded != nil {
		return false, nil
	}
	f.seeded = &taxonomy
	return true, nil
}

type userRepoFake struct {
	admin      *domain.User
	err        error
	ensuredPwd string
}

func (f *userRepoFake) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.admin == nil || f.admin.Username != username {
		return nil, domain.WrapError(domain.ErrNotFound, "get user", errors.New(username))
	}
	u := *f.admin
	return &u, nil
}

func (f *userRepoFake) EnsureAdmin(_ context.Context, username, password string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	if f.admin != nil {
		return false, nil
	}
	f.ensuredPwd = password
	f.admin = &domain.User{ID: 1, Username: username, Password: password, IsAdmin: true}
	return true, nil
}

type storageFake struct {
	files     map[string][]byte
	saveErr   error
	removeErr error
	removed   []string
	seq       int
}

func newStorageFake() *storageFake {
	return &storageFake{files: map[string][]byte{}}
}

func (f *storageFake) Save(_ context.Context, filename string, data io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.seq++
	path := fmt.Sprintf("uploads/%d-%s", f.seq, filename)
	f.files[path] = raw
	return path, nil
}

func (f *storageFake) Open(_ context.Context, path string) (io.ReadCloser, error) {
	raw, ok := f.files[path]
	if !ok {
		return nil, domain.WrapError(domain.ErrNotFound, "open file", errors.New(path))
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (f *storageFake) Remove(_ context.Context, path string) error {
	f.removed = append(f.removed, path)
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.files, path)
	return nil
}

type eventsFake struct {
	published []int64
	err       error
}

func (f *eventsFake) PublishDocumentUploaded(_ context.Context, documentID int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *eventsFake) SubscribeDocumentUploaded(context.Context, func(context.Context, int64) error) error {
	return errors.New("not implemented")
}

func int64Ptr(v int64) *int64 { return &v }

func seededSubjects() []domain.Subject {
	names := []string{"English", "Hindi", "Math", "Biology", "Chemistry", "Physics", "History", "Geography", "Economics", "Politics", "Urdu"}
	var out []domain.Subject
	var id int64 = 1
	for categoryID := int64(1); categoryID <= 2; categoryID++ {
		for _, name := range names {
			out = append(out, domain.Subject{ID: id, Name: name, CategoryID: categoryID})
			id++
		}
	}
	return out
}
