// Package client talks to the study-library REST API.
package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// AuthCodeHeader carries the admin code on mutating requests.
const AuthCodeHeader = "Auth-Code"

type Client struct {
	baseURL    string
	authCode   string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithAuthCode sets the admin code sent with uploads and deletes.
func WithAuthCode(code string) Option {
	return func(c *Client) {
		c.authCode = strings.TrimSpace(code)
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload describes a document to send. Reader is read to EOF.
type Upload struct {
	Reader     io.Reader
	Filename   string
	Name       string
	CategoryID int64
	SubjectID  int64
}

type NewAnnotation struct {
	DocumentID int64   `json:"document_id"`
	Page       int     `json:"page"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	PositionX  float64 `json:"position_x"`
	PositionY  float64 `json:"position_y"`
	UserID     *int64  `json:"user_id,omitempty"`
}

func (c *Client) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	var out struct {
		Documents []domain.Document `json:"documents"`
	}
	if err := c.getJSON(ctx, "/api/documents", &out, "list documents"); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

// ListSubjectDocuments returns the public documents tagged with subjectID.
func (c *Client) ListSubjectDocuments(ctx context.Context, subjectID int64) ([]domain.Document, error) {
	var out struct {
		Documents []domain.Document `json:"documents"`
	}
	path := "/api/subjects/" + strconv.FormatInt(subjectID, 10) + "/documents"
	if err := c.getJSON(ctx, path, &out, "list subject documents"); err != nil {
		return nil, err
	}
	return out.Documents, nil
}

func (c *Client) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	var out struct {
		Document *domain.Document `json:"document"`
	}
	if err := c.getJSON(ctx, "/api/documents/"+strconv.FormatInt(id, 10), &out, "get document"); err != nil {
		return nil, err
	}
	if out.Document == nil {
		return nil, fmt.Errorf("get document: empty response")
	}
	return out.Document, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := c.getJSON(ctx, "/api/categories", &out, "list categories"); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

func (c *Client) ListSubjects(ctx context.Context, categoryID int64) ([]domain.Subject, error) {
	var out struct {
		Subjects []domain.Subject `json:"subjects"`
	}
	path := "/api/categories/" + strconv.FormatInt(categoryID, 10) + "/subjects"
	if err := c.getJSON(ctx, path, &out, "list subjects"); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

// Authenticate checks code against the server. A wrong code is reported as
// (false, nil); only transport and server failures return an error.
func (c *Client) Authenticate(ctx context.Context, code string) (bool, error) {
	var out struct {
		IsAdmin bool `json:"isAdmin"`
	}
	err := c.sendJSON(ctx, http.MethodPost, "/api/auth", map[string]string{"authCode": code}, &out, "authenticate")
	if domain.IsKind(err, domain.ErrUnauthorized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return out.IsAdmin, nil
}

// Upload streams the file as multipart/form-data without buffering it.
func (c *Client) Upload(ctx context.Context, up Upload) (*domain.Document, error) {
	if up.Reader == nil {
		return nil, domain.WrapError(domain.ErrMissingFile, "upload document", fmt.Errorf("no reader"))
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, up))
	}()
	defer pr.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/documents", pr)
	if err != nil {
		return nil, fmt.Errorf("create upload document request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.authorize(req)

	var out struct {
		Document *domain.Document `json:"document"`
	}
	if err := c.do(req, &out, "upload document"); err != nil {
		return nil, err
	}
	if out.Document == nil {
		return nil, fmt.Errorf("upload document: empty response")
	}
	return out.Document, nil
}

func writeUploadForm(mw *multipart.Writer, up Upload) error {
	fields := [][2]string{
		{"name", up.Name},
		{"categoryId", strconv.FormatInt(up.CategoryID, 10)},
		{"subjectId", strconv.FormatInt(up.SubjectID, 10)},
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return err
		}
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="pdf"; filename=%q`, up.Filename))
	header.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, up.Reader); err != nil {
		return err
	}
	return mw.Close()
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/documents/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return fmt.Errorf("create delete document request: %w", err)
	}
	c.authorize(req)
	return c.do(req, nil, "delete document")
}

// DownloadPDF returns the document body. The caller must close it.
func (c *Client) DownloadPDF(ctx context.Context, id int64) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/pdf/"+strconv.FormatInt(id, 10), nil)
	if err != nil {
		return nil, fmt.Errorf("create download pdf request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "download pdf", err)
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, formatHTTPError("download pdf", resp)
	}
	return resp.Body, nil
}

func (c *Client) CreateAnnotation(ctx context.Context, a NewAnnotation) (*domain.Annotation, error) {
	var out struct {
		Annotation *domain.Annotation `json:"annotation"`
	}
	if err := c.sendJSON(ctx, http.MethodPost, "/api/annotations", a, &out, "create annotation"); err != nil {
		return nil, err
	}
	if out.Annotation == nil {
		return nil, fmt.Errorf("create annotation: empty response")
	}
	return out.Annotation, nil
}

func (c *Client) ListAnnotations(ctx context.Context, documentID int64) ([]domain.Annotation, error) {
	var out struct {
		Annotations []domain.Annotation `json:"annotations"`
	}
	path := "/api/annotations/" + strconv.FormatInt(documentID, 10)
	if err := c.getJSON(ctx, path, &out, "list annotations"); err != nil {
		return nil, err
	}
	return out.Annotations, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.authCode != "" {
		req.Header.Set(AuthCodeHeader, c.authCode)
	}
}
