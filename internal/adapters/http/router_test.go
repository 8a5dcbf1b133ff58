package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/study-library/internal/config"
	"github.com/kirillkom/study-library/internal/core/domain"
)

func doRequest(h http.Handler, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func decodeInto(raw []byte, v any) error {
	return json.Unmarshal(raw, v)
}

func decodeBody(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestHealthzEndpoint(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/healthz", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/healthz", nil, map[string]string{requestIDHeader: "req-42"})
	if got := res.Header().Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected request id req-42, got %q", got)
	}
}

func TestListDocumentsEnvelope(t *testing.T) {
	srv := newTestServer(config.Config{})
	res := doRequest(srv.handler, http.MethodGet, "/api/documents", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var payload documentsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.Success || len(payload.Documents) != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if srv.catalog.lastFilter.SubjectID != nil || srv.catalog.lastFilter.PublicOnly {
		t.Fatalf("expected unfiltered listing, got %+v", srv.catalog.lastFilter)
	}
}

func TestListDocumentsStoreFailureHidesDetail(t *testing.T) {
	srv := newTestServer(config.Config{})
	srv.catalog.err = domain.WrapError(domain.ErrStore, "list documents", errors.New("pq: relation documents does not exist"))

	res := doRequest(srv.handler, http.MethodGet, "/api/documents", nil, nil)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	payload := decodeBody(t, res)
	if payload["success"] != false || payload["error"] != domain.ErrStore.Error() {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestListSubjectDocumentsIsPublicOnly(t *testing.T) {
	srv := newTestServer(config.Config{})
	res := doRequest(srv.handler, http.MethodGet, "/api/subjects/6/documents", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	var payload documentsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Documents) != 1 || payload.Documents[0].ID != 2 {
		t.Fatalf("expected only the public document, got %+v", payload.Documents)
	}
	filter := srv.catalog.lastFilter
	if filter.SubjectID == nil || *filter.SubjectID != 6 || !filter.PublicOnly {
		t.Fatalf("unexpected filter %+v", filter)
	}
}

func TestListSubjectDocumentsUnknownSubjectIsEmpty(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/subjects/999/documents", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	payload := decodeBody(t, res)
	if docs, ok := payload["documents"].([]any); !ok || len(docs) != 0 {
		t.Fatalf("expected empty documents array, got %+v", payload["documents"])
	}
}

func TestInvalidPathIDsReturn400(t *testing.T) {
	handler := newTestHandler(config.Config{})
	for _, target := range []string{
		"/api/subjects/abc/documents",
		"/api/documents/0",
		"/api/pdf/-3",
		"/api/categories/x/subjects",
		"/api/annotations/nope",
	} {
		res := doRequest(handler, http.MethodGet, target, nil, nil)
		if res.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, res.Code)
		}
	}
}

func TestGetDocumentNotFound(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/documents/77", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["error"] != "document not found" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestGetDocumentFound(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/documents/2", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var payload documentResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Document == nil || payload.Document.Name != "Physics Notes" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCategoriesAndSubjects(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := doRequest(handler, http.MethodGet, "/api/categories", nil, nil)
	var categories categoriesResponse
	if err := json.NewDecoder(res.Body).Decode(&categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if len(categories.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %+v", categories)
	}

	res = doRequest(handler, http.MethodGet, "/api/categories/2/subjects", nil, nil)
	var subjects subjectsResponse
	if err := json.NewDecoder(res.Body).Decode(&subjects); err != nil {
		t.Fatalf("decode subjects: %v", err)
	}
	if len(subjects.Subjects) != 1 || subjects.Subjects[0].ID != 17 {
		t.Fatalf("expected only the CLASS 10 subject, got %+v", subjects.Subjects)
	}
}

func TestStreamPDF(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/pdf/2", nil, nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if ct := res.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("expected application/pdf, got %q", ct)
	}
	if cd := res.Header().Get("Content-Disposition"); cd != `inline; filename="Physics Notes.pdf"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if res.Body.String() != "%PDF-1.7 physics" {
		t.Fatalf("unexpected body %q", res.Body.String())
	}
}

func TestStreamPDFMissingBlobAndMissingRow(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := doRequest(handler, http.MethodGet, "/api/pdf/1", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for dangling row, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["error"] != "PDF file not found" {
		t.Fatalf("unexpected payload %+v", payload)
	}

	res = doRequest(handler, http.MethodGet, "/api/pdf/50", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown id, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["error"] != "document not found" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestAuthenticate(t *testing.T) {
	handler := newTestHandler(config.Config{})

	res := doRequest(handler, http.MethodPost, "/api/auth", strings.NewReader(`{"authCode":"ONLYME"}`), nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["success"] != true || payload["isAdmin"] != true {
		t.Fatalf("unexpected payload %+v", payload)
	}

	res = doRequest(handler, http.MethodPost, "/api/auth", strings.NewReader(`{"authCode":"guess"}`), nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["success"] != false {
		t.Fatalf("unexpected payload %+v", payload)
	}

	res = doRequest(handler, http.MethodPost, "/api/auth", strings.NewReader(`{`), nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed json, got %d", res.Code)
	}
}

func TestDeleteDocumentRequiresAdmin(t *testing.T) {
	srv := newTestServer(config.Config{})

	res := doRequest(srv.handler, http.MethodDelete, "/api/documents/2", nil, nil)
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	res = doRequest(srv.handler, http.MethodDelete, "/api/documents/2", nil, map[string]string{AuthCodeHeader: "wrong"})
	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong code, got %d", res.Code)
	}
	if len(srv.catalog.deleted) != 0 {
		t.Fatalf("expected no delete before authorization, got %v", srv.catalog.deleted)
	}
}

func TestDeleteDocument(t *testing.T) {
	srv := newTestServer(config.Config{})
	admin := map[string]string{AuthCodeHeader: testAdminCode}

	res := doRequest(srv.handler, http.MethodDelete, "/api/documents/2", nil, admin)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(srv.catalog.deleted) != 1 || srv.catalog.deleted[0] != 2 {
		t.Fatalf("unexpected deletes %v", srv.catalog.deleted)
	}

	res = doRequest(srv.handler, http.MethodDelete, "/api/documents/404", nil, admin)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestAnnotationsRoundTrip(t *testing.T) {
	srv := newTestServer(config.Config{})

	body := `{"document_id":2,"page":3,"type":"highlight","content":"ohm","position_x":0.25,"position_y":0.5}`
	res := doRequest(srv.handler, http.MethodPost, "/api/annotations", strings.NewReader(body), nil)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if len(srv.annotations.created) != 1 || srv.annotations.created[0].PositionY != 0.5 {
		t.Fatalf("unexpected created annotations %+v", srv.annotations.created)
	}

	res = doRequest(srv.handler, http.MethodGet, "/api/annotations/2", nil, nil)
	var payload annotationsResponse
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode annotations: %v", err)
	}
	if len(payload.Annotations) != 1 || payload.Annotations[0].Type != "highlight" {
		t.Fatalf("unexpected annotations %+v", payload.Annotations)
	}
}

func TestCreateAnnotationMapsValidationErrors(t *testing.T) {
	srv := newTestServer(config.Config{})
	srv.annotations.err = domain.WrapError(domain.ErrMissingFields, "create annotation", errors.New("page"))

	res := doRequest(srv.handler, http.MethodPost, "/api/annotations", strings.NewReader(`{"document_id":2}`), nil)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}

	srv.annotations.err = domain.WrapError(domain.ErrNotFound, "create annotation", errors.New("fk"))
	res = doRequest(srv.handler, http.MethodPost, "/api/annotations", strings.NewReader(`{"document_id":9,"page":1,"type":"note"}`), nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestUnknownAPIRouteIsJSON404(t *testing.T) {
	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/unknown", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["success"] != false {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestStaticFallbackServesIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	handler := newTestHandler(config.Config{StaticDir: dir})

	res := doRequest(handler, http.MethodGet, "/library/class-9", nil, nil)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "app") {
		t.Fatalf("expected index fallback, got %d %q", res.Code, res.Body.String())
	}
	res = doRequest(handler, http.MethodGet, "/app.js", nil, nil)
	if res.Code != http.StatusOK || !strings.Contains(res.Body.String(), "console.log") {
		t.Fatalf("expected asset, got %d %q", res.Code, res.Body.String())
	}
	res = doRequest(handler, http.MethodGet, "/api/missing", nil, nil)
	if res.Code != http.StatusNotFound {
		t.Fatalf("expected API 404 even with static dir, got %d", res.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := newTestHandler(config.Config{CORSAllowedOrigin: "http://localhost:3000"})
	res := doRequest(handler, http.MethodOptions, "/api/documents", nil, map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPost,
	})
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if !strings.Contains(res.Header().Get("Access-Control-Allow-Headers"), AuthCodeHeader) {
		t.Fatalf("expected Auth-Code in allowed headers, got %q", res.Header().Get("Access-Control-Allow-Headers"))
	}

	res = doRequest(handler, http.MethodGet, "/api/documents", nil, map[string]string{"Origin": "http://evil.example"})
	if res.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("expected no CORS grant for foreign origin")
	}
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	handler := newTestHandler(config.Config{CORSAllowedOrigin: "*"})
	res := doRequest(handler, http.MethodGet, "/api/documents", nil, map[string]string{"Origin": "http://any.example"})
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected wildcard grant, got %q", got)
	}
	if got := res.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("expected no credentials header with wildcard origin, got %q", got)
	}

	handler = newTestHandler(config.Config{CORSAllowedOrigin: "http://localhost:3000"})
	res = doRequest(handler, http.MethodGet, "/api/documents", nil, map[string]string{"Origin": "http://localhost:3000"})
	if res.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatalf("expected credentials allowed for an explicit origin")
	}
}

func TestRecoverMiddleware(t *testing.T) {
	handler := recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	res := doRequest(handler, http.MethodGet, "/api/documents", nil, nil)
	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	if payload := decodeBody(t, res); payload["error"] != "internal server error" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestServesValidContract(t *testing.T) {
	doc, err := LoadContract(context.Background())
	if err != nil {
		t.Fatalf("LoadContract() error = %v", err)
	}
	routes := map[string][]string{
		"/api/auth":                             {http.MethodPost},
		"/api/documents":                        {http.MethodGet, http.MethodPost},
		"/api/documents/{id}":                   {http.MethodGet, http.MethodDelete},
		"/api/pdf/{id}":                         {http.MethodGet},
		"/api/subjects/{subjectId}/documents":   {http.MethodGet},
		"/api/categories":                       {http.MethodGet},
		"/api/categories/{categoryId}/subjects": {http.MethodGet},
		"/api/annotations":                      {http.MethodPost},
		"/api/annotations/{documentId}":         {http.MethodGet},
	}
	for path, methods := range routes {
		item := doc.Paths.Find(path)
		if item == nil {
			t.Fatalf("contract is missing %s", path)
		}
		for _, method := range methods {
			if item.GetOperation(method) == nil {
				t.Fatalf("contract is missing %s %s", method, path)
			}
		}
	}

	res := doRequest(newTestHandler(config.Config{}), http.MethodGet, "/api/openapi.yaml", nil, nil)
	if res.Code != http.StatusOK || !bytes.HasPrefix(res.Body.Bytes(), []byte("openapi: 3.0.3")) {
		t.Fatalf("expected raw contract, got %d", res.Code)
	}
}
