package httpadapter

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/study-library/internal/core/domain"
	"github.com/kirillkom/study-library/internal/core/ports"
)

const (
	uploadFileField = "pdf"
	// multipartSlack covers form fields and part headers on top of the file cap.
	multipartSlack  = 1 << 20
	multipartMemory = 8 << 20
)

var errInvalidPathID = domain.WrapError(domain.ErrInvalidID, "parse path", errors.New("path id must be a positive integer"))

type documentsResponse struct {
	Success   bool              `json:"success"`
	Documents []domain.Document `json:"documents"`
}

type documentResponse struct {
	Success  bool             `json:"success"`
	Document *domain.Document `json:"document"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := rt.catalog.ListDocuments(r.Context(), domain.DocumentFilter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsResponse{Success: true, Documents: docs})
}

func (rt *Router) listSubjectDocuments(w http.ResponseWriter, r *http.Request) {
	subjectID, ok := pathID(r, "subjectId")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid subject id")
		return
	}

	docs, err := rt.catalog.ListDocuments(r.Context(), domain.DocumentFilter{
		SubjectID:  &subjectID,
		PublicOnly: true,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentsResponse{Success: true, Documents: docs})
}

func (rt *Router) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid document id")
		return
	}

	doc, err := rt.catalog.GetDocument(r.Context(), id)
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			writeErrorMessage(w, r, err, "document not found")
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Success: true, Document: doc})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, rt.cfg.MaxUploadBytes+multipartSlack)
	req, size, err := rt.readUpload(r)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		rt.metrics.RecordUpload(outcomeLabel(err), 0)
		writeError(w, r, err)
		return
	}

	if closer, ok := req.File.(io.Closer); ok {
		defer closer.Close()
	}

	doc, err := rt.uploader.Upload(r.Context(), req)
	rt.metrics.RecordUpload(outcomeLabel(err), size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{Success: true, Document: doc})
}

// readUpload decodes the multipart form. A missing file is left for the
// uploader to reject so that validation order stays in one place.
func (rt *Router) readUpload(r *http.Request) (ports.UploadRequest, int64, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrFileTooLarge, "read upload", err)
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrMissingFile, "read upload", err)
		}
		return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrMissingFields, "read upload", err)
	}

	req := ports.UploadRequest{
		Name:       r.FormValue("name"),
		CategoryID: r.FormValue("categoryId"),
		SubjectID:  r.FormValue("subjectId"),
	}

	form := r.MultipartForm
	for field, headers := range form.File {
		if field != uploadFileField || len(headers) > 1 {
			return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrInvalidFileType, "read upload",
				fmt.Errorf("unexpected file field %q", field))
		}
	}

	headers := form.File[uploadFileField]
	if len(headers) == 0 {
		return req, 0, nil
	}
	header := headers[0]
	if header.Size > rt.cfg.MaxUploadBytes {
		return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrFileTooLarge, "read upload",
			fmt.Errorf("file is %d bytes, limit %d", header.Size, rt.cfg.MaxUploadBytes))
	}

	file, err := header.Open()
	if err != nil {
		return ports.UploadRequest{}, 0, domain.WrapError(domain.ErrFileIO, "read upload", err)
	}
	req.File = file
	req.Filename = header.Filename
	req.MimeType = header.Header.Get("Content-Type")
	return req, header.Size, nil
}

func (rt *Router) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid document id")
		return
	}

	err := rt.catalog.DeleteDocument(r.Context(), id)
	rt.metrics.RecordDelete(outcomeLabel(err))
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			writeErrorMessage(w, r, err, "document not found")
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "document deleted"})
}

func (rt *Router) streamPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid document id")
		return
	}

	doc, reader, err := rt.catalog.OpenDocumentFile(r.Context(), id)
	if err != nil {
		switch {
		case domain.IsKind(err, domain.ErrNotFound) && doc != nil:
			writeErrorMessage(w, r, err, "PDF file not found")
		case domain.IsKind(err, domain.ErrNotFound):
			writeErrorMessage(w, r, err, "document not found")
		default:
			writeError(w, r, err)
		}
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", downloadName(doc)))

	// Seekable blobs get range support, which PDF viewers use for lazy loading.
	if seeker, ok := reader.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", time.Time{}, seeker)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, reader)
}

func downloadName(doc *domain.Document) string {
	name := strings.Map(func(r rune) rune {
		if r < 0x20 || r == '"' || r == '\\' || r > 0x7e {
			return '_'
		}
		return r
	}, strings.TrimSpace(doc.Name))
	if name == "" {
		name = "document"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
