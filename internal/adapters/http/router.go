package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/kirillkom/study-library/internal/config"
	"github.com/kirillkom/study-library/internal/core/ports"
)

// Metrics is the subset of the metrics registry the router reports to.
type Metrics interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
	RecordShed(reason string)
	RecordUpload(outcome string, size int64)
	RecordDelete(outcome string)
	RecordAuthCheck(granted bool)
}

type Router struct {
	cfg         config.Config
	catalog     ports.Catalog
	uploader    ports.DocumentUploader
	annotations ports.Annotations
	gate        ports.Authorizer
	metrics     Metrics
}

func NewRouter(
	cfg config.Config,
	catalog ports.Catalog,
	uploader ports.DocumentUploader,
	annotations ports.Annotations,
	gate ports.Authorizer,
) *Router {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 << 20
	}
	return &Router{
		cfg:         cfg,
		catalog:     catalog,
		uploader:    uploader,
		annotations: annotations,
		gate:        gate,
		metrics:     nopMetrics{},
	}
}

// WithMetrics enables /metrics and per-request instrumentation.
func (rt *Router) WithMetrics(m Metrics) *Router {
	if m != nil {
		rt.metrics = m
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.Handle("GET /metrics", rt.metrics.Handler())
	mux.HandleFunc("GET /api/openapi.yaml", rt.openAPISpec)

	mux.HandleFunc("POST /api/auth", rt.authenticate)

	mux.HandleFunc("GET /api/documents", rt.listDocuments)
	mux.Handle("POST /api/documents", rt.requireAdmin(http.HandlerFunc(rt.uploadDocument)))
	mux.HandleFunc("GET /api/documents/{id}", rt.getDocument)
	mux.Handle("DELETE /api/documents/{id}", rt.requireAdmin(http.HandlerFunc(rt.deleteDocument)))
	mux.HandleFunc("GET /api/pdf/{id}", rt.streamPDF)

	mux.HandleFunc("GET /api/categories", rt.listCategories)
	mux.HandleFunc("GET /api/categories/{categoryId}/subjects", rt.listSubjects)
	mux.HandleFunc("GET /api/subjects/{subjectId}/documents", rt.listSubjectDocuments)

	mux.HandleFunc("POST /api/annotations", rt.createAnnotation)
	mux.HandleFunc("GET /api/annotations/{documentId}", rt.listAnnotations)

	mux.Handle("/", rt.staticHandler())

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, rt.cfg.APIBackpressureWait, rt.metrics)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.metrics)
	handler = rt.metrics.Middleware(handler)
	handler = corsMiddleware(handler, rt.cfg.CORSAllowedOrigin)
	handler = recoverMiddleware(handler)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// pathID parses a positive integer path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type nopMetrics struct{}

func (nopMetrics) Middleware(next http.Handler) http.Handler { return next }
func (nopMetrics) Handler() http.Handler                      { return http.NotFoundHandler() }
func (nopMetrics) RecordShed(string)                          {}
func (nopMetrics) RecordUpload(string, int64)                 {}
func (nopMetrics) RecordDelete(string)                        {}
func (nopMetrics) RecordAuthCheck(bool)                       {}
