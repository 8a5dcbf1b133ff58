package httpadapter

import (
	"encoding/json"
	"net/http"

	"github.com/kirillkom/study-library/internal/core/domain"
)

type createAnnotationRequest struct {
	DocumentID int64   `json:"document_id"`
	Page       int     `json:"page"`
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	PositionX  float64 `json:"position_x"`
	PositionY  float64 `json:"position_y"`
	UserID     *int64  `json:"user_id"`
}

type annotationResponse struct {
	Success    bool               `json:"success"`
	Annotation *domain.Annotation `json:"annotation"`
}

type annotationsResponse struct {
	Success     bool                `json:"success"`
	Annotations []domain.Annotation `json:"annotations"`
}

func (rt *Router) createAnnotation(w http.ResponseWriter, r *http.Request) {
	var req createAnnotationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeErrorMessage(w, r, domain.WrapError(domain.ErrMissingFields, "decode annotation", err), "invalid json")
		return
	}

	created, err := rt.annotations.CreateAnnotation(r.Context(), domain.Annotation{
		DocumentID: req.DocumentID,
		Page:       req.Page,
		Type:       req.Type,
		Content:    req.Content,
		PositionX:  req.PositionX,
		PositionY:  req.PositionY,
		UserID:     req.UserID,
	})
	if err != nil {
		if domain.IsKind(err, domain.ErrNotFound) {
			writeErrorMessage(w, r, err, "document not found")
			return
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, annotationResponse{Success: true, Annotation: created})
}

func (rt *Router) listAnnotations(w http.ResponseWriter, r *http.Request) {
	documentID, ok := pathID(r, "documentId")
	if !ok {
		writeErrorMessage(w, r, errInvalidPathID, "invalid document id")
		return
	}

	annotations, err := rt.annotations.ListAnnotations(r.Context(), documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, annotationsResponse{Success: true, Annotations: annotations})
}
