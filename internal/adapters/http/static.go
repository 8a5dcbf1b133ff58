package httpadapter

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/kirillkom/study-library/internal/core/domain"
)

var errRouteNotFound = domain.WrapError(domain.ErrNotFound, "route", errors.New("no such endpoint"))

// staticHandler serves the built SPA from StaticDir. Unknown non-API paths
// fall back to index.html so client-side routes survive a reload.
func (rt *Router) staticHandler() http.Handler {
	if rt.cfg.StaticDir == "" {
		return http.HandlerFunc(apiNotFound)
	}
	root := os.DirFS(rt.cfg.StaticDir)
	files := http.FileServerFS(root)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			apiNotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
			return
		}

		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name != "" {
			if info, err := fs.Stat(root, name); err == nil && !info.IsDir() {
				files.ServeHTTP(w, r)
				return
			}
		}
		http.ServeFileFS(w, r, root, "index.html")
	})
}

func apiNotFound(w http.ResponseWriter, r *http.Request) {
	writeErrorMessage(w, r, errRouteNotFound, "not found")
}
