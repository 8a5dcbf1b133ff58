package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

const pdfMimeType = "application/pdf"

// StagedUpload is an upload whose file already sits in storage but whose
// fields have not been checked yet.
type StagedUpload struct {
	FilePath     string
	OriginalName string
	Name         string
	CategoryID   string
	SubjectID    string
}

// PreparedUpload is the validated field set together with the resolved subject.
type PreparedUpload struct {
	Document domain.NewDocument
	Subject  domain.Subject
}

type UploadValidator struct {
	taxonomy ports.TaxonomyRepository
	users    ports.UserRepository
	storage  ports.FileStorage
}

func NewUploadValidator(
	taxonomy ports.TaxonomyRepository,
	users ports.UserRepository,
	storage ports.FileStorage,
) *UploadValidator {
	return &UploadValidator{
		taxonomy: taxonomy,
		users:    users,
		storage:  storage,
	}
}

// ValidateAndPrepareUpload checks a staged upload. Any failure releases the
// staged file before returning.
func (v *UploadValidator) ValidateAndPrepareUpload(ctx context.Context, staged StagedUpload) (*PreparedUpload, error) {
	prepared, err := v.validate(ctx, staged)
	if err != nil {
		v.release(ctx, staged.FilePath)
		return nil, err
	}
	return prepared, nil
}

func (v *UploadValidator) validate(ctx context.Context, staged StagedUpload) (*PreparedUpload, error) {
	if staged.FilePath == "" {
		return nil, domain.WrapError(domain.ErrMissingFile, "validate upload", errors.New("file payload is empty"))
	}

	rawCategory := strings.TrimSpace(staged.CategoryID)
	rawSubject := strings.TrimSpace(staged.SubjectID)
	if rawCategory == "" || rawSubject == "" {
		return nil, domain.WrapError(domain.ErrMissingFields, "validate upload",
			errors.New("category and subject ids are required"))
	}

	categoryID, err := parsePositiveID(rawCategory)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidID, "validate upload", fmt.Errorf("category id: %w", err))
	}
	subjectID, err := parsePositiveID(rawSubject)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidID, "validate upload", fmt.Errorf("subject id: %w", err))
	}

	subject, err := v.taxonomy.GetSubject(ctx, subjectID)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return nil, domain.WrapError(domain.ErrSubjectNotFound, "validate upload", err)
		}
		return nil, domain.WrapError(domain.ErrStore, "validate upload subject", err)
	}
	if subject.CategoryID != categoryID {
		return nil, domain.WrapError(domain.ErrCategoryMismatch, "validate upload",
			fmt.Errorf("subject %d belongs to category %d, not %d", subject.ID, subject.CategoryID, categoryID))
	}

	ownerID, err := v.ownerID(ctx)
	if err != nil {
		return nil, err
	}

	return &PreparedUpload{
		Document: domain.NewDocument{
			Name:       documentName(staged.Name, staged.OriginalName),
			FilePath:   staged.FilePath,
			OwnerID:    ownerID,
			CategoryID: categoryID,
			SubjectID:  subjectID,
			IsPublic:   true,
		},
		Subject: *subject,
	}, nil
}

// ownerID resolves the admin account, falling back to id 1 when it is absent.
func (v *UploadValidator) ownerID(ctx context.Context) (int64, error) {
	user, err := v.users.GetByUsername(ctx, domain.AdminUsername)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			return 1, nil
		}
		return 0, domain.WrapError(domain.ErrStore, "find admin user", err)
	}
	return user.ID, nil
}

func (v *UploadValidator) release(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := v.storage.Remove(ctx, path); err != nil {
		slog.Warn("staged_upload_release_failed", "file_path", path, "error", err)
	}
}

type UploadUseCase struct {
	validator *UploadValidator
	docs      ports.DocumentRepository
	storage   ports.FileStorage
	events    ports.DocumentEvents
	now       func() time.Time
}

func NewUploadUseCase(
	validator *UploadValidator,
	docs ports.DocumentRepository,
	storage ports.FileStorage,
	events ports.DocumentEvents,
) *UploadUseCase {
	return &UploadUseCase{
		validator: validator,
		docs:      docs,
		storage:   storage,
		events:    events,
		now:       time.Now,
	}
}

// Upload stages the file, validates the fields, then inserts the row. A file
// left behind by a crash between staging and insert is an accepted orphan;
// a row without a file is never produced.
func (uc *UploadUseCase) Upload(ctx context.Context, req ports.UploadRequest) (*domain.Document, error) {
	if req.File == nil {
		return nil, domain.WrapError(domain.ErrMissingFile, "upload", errors.New("no file part"))
	}
	if !isPDF(req.MimeType) {
		return nil, domain.WrapError(domain.ErrInvalidFileType, "upload", fmt.Errorf("mime type %q", req.MimeType))
	}

	path, err := uc.storage.Save(ctx, req.Filename, req.File)
	if err != nil {
		if domain.KindOf(err) != nil {
			return nil, fmt.Errorf("stage upload: %w", err)
		}
		return nil, domain.WrapError(domain.ErrFileIO, "stage upload", err)
	}

	prepared, err := uc.validator.ValidateAndPrepareUpload(ctx, StagedUpload{
		FilePath:     path,
		OriginalName: req.Filename,
		Name:         req.Name,
		CategoryID:   req.CategoryID,
		SubjectID:    req.SubjectID,
	})
	if err != nil {
		return nil, err
	}

	uploadDate := uc.now().UTC().Format(domain.UploadDateLayout)
	doc, err := uc.docs.Insert(ctx, prepared.Document, uploadDate)
	if err != nil {
		uc.validator.release(ctx, path)
		return nil, domain.WrapError(domain.ErrStore, "insert document", err)
	}
	doc.SubjectName = prepared.Subject.Name
	if joined, err := uc.docs.GetByID(ctx, doc.ID); err == nil {
		doc = joined
	} else {
		slog.Warn("document_reload_failed", "document_id", doc.ID, "error", err)
	}

	if uc.events != nil {
		if err := uc.events.PublishDocumentUploaded(ctx, doc.ID); err != nil {
			slog.Warn("document_event_publish_failed", "document_id", doc.ID, "error", err)
		}
	}

	return doc, nil
}

func isPDF(mimeType string) bool {
	mediaType, _, err := mime.ParseMediaType(mimeType)
	if err != nil {
		return false
	}
	return mediaType == pdfMimeType
}

func parsePositiveID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%d is not positive", id)
	}
	return id, nil
}

func documentName(name, originalName string) string {
	name = strings.TrimSpace(name)
	if name != "" {
		return name
	}
	base := filepath.Base(originalName)
	if base == "." || base == string(filepath.Separator) {
		return "document"
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if strings.TrimSpace(stem) == "" {
		return "document"
	}
	return stem
}
