// Package catalogview keeps the client-side copy of the document catalog and
// derives the visible subset from the active category, subject and search.
//
// The full set is always the last authoritative server state; every mutation
// of the set or of the filter recomputes Visible, so it is never stale.
package catalogview

import (
	"strings"

	"github.com/kirillkom/study-library/internal/core/domain"
)

// Filter is the active selection. A zero Filter shows every document.
type Filter struct {
	CategoryID *int64
	// SubjectID is only honoured together with SubjectCategoryID.
	SubjectID         *int64
	SubjectCategoryID *int64
	Query             string
}

type View struct {
	all     []domain.Document
	filter  Filter
	visible []domain.Document
}

func New(docs []domain.Document) *View {
	v := &View{}
	v.Replace(docs)
	return v
}

// Replace swaps in a fresh server listing and keeps the current filter.
func (v *View) Replace(docs []domain.Document) {
	v.all = append([]domain.Document(nil), docs...)
	v.apply()
}

// SetCategory shows one category. It drops the subject filter and the search.
func (v *View) SetCategory(categoryID int64) {
	v.filter = Filter{CategoryID: &categoryID}
	v.apply()
}

// SetSubject shows documents whose subject and category both match, so a
// subject id reused under another category cannot leak in. It drops the search.
func (v *View) SetSubject(subjectID, categoryID int64) {
	v.filter = Filter{
		SubjectID:         &subjectID,
		SubjectCategoryID: &categoryID,
	}
	v.apply()
}

// Search narrows the current selection by case-insensitive name substring.
// An empty query removes the search without touching the selection.
func (v *View) Search(query string) {
	v.filter.Query = strings.TrimSpace(query)
	v.apply()
}

func (v *View) Clear() {
	v.filter = Filter{}
	v.apply()
}

func (v *View) Filter() Filter {
	return v.filter
}

// Visible returns a copy of the derived sequence, in server order.
func (v *View) Visible() []domain.Document {
	return append([]domain.Document(nil), v.visible...)
}

func (v *View) All() []domain.Document {
	return append([]domain.Document(nil), v.all...)
}

// Add reconciles a server-confirmed insert. The document goes first, matching
// the newest-first listing; an existing id is overwritten in place.
func (v *View) Add(doc domain.Document) {
	for i := range v.all {
		if v.all[i].ID == doc.ID {
			v.all[i] = doc
			v.apply()
			return
		}
	}
	v.all = append([]domain.Document{doc}, v.all...)
	v.apply()
}

// Remove reconciles a server-confirmed delete and reports whether id was cached.
func (v *View) Remove(id int64) bool {
	for i := range v.all {
		if v.all[i].ID == id {
			v.all = append(v.all[:i:i], v.all[i+1:]...)
			v.apply()
			return true
		}
	}
	return false
}

func (v *View) apply() {
	query := strings.ToLower(v.filter.Query)
	visible := make([]domain.Document, 0, len(v.all))
	for _, doc := range v.all {
		if v.matches(doc, query) {
			visible = append(visible, doc)
		}
	}
	v.visible = visible
}

func (v *View) matches(doc domain.Document, query string) bool {
	f := v.filter
	if f.CategoryID != nil && doc.CategoryID != *f.CategoryID {
		return false
	}
	if f.SubjectID != nil {
		if f.SubjectCategoryID == nil || !doc.HasSubject(*f.SubjectID) || doc.CategoryID != *f.SubjectCategoryID {
			return false
		}
	}
	if query != "" && !strings.Contains(strings.ToLower(doc.Name), query) {
		return false
	}
	return true
}
