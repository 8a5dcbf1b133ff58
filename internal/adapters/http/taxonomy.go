package httpadapter

import (
	"net/http"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type categoriesResponse struct {
	Success    bool              `json:"success"`
	Categories []domain.Category `json:"categories"`
}

type subjectsResponse struct {
	Success  bool             `json:"success"`
	Subjects []domain.Subject `json:"subjects"`
}

func (rt *Router) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := rt.catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categoriesResponse{Success: true, Categories: categories})
}

func (rt *Router) listSubjects(w http.ResponseWriter, r *http.Request) {
	categoryID, ok := pathID(r, "categoryId")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid category id")
		return
	}

	subjects, err := rt.catalog.ListSubjects(r.Context(), categoryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subjectsResponse{Success: true, Subjects: subjects})
}
