package domain

import "time"

// UploadDateLayout is the calendar-date form stored in documents.upload_date.
const UploadDateLayout = "2006-01-02"

type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
}

type Subject struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CategoryID  int64  `json:"category_id"`
	Description string `json:"description,omitempty"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
}

type Document struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	FilePath     string `json:"file_path"`
	Pages        *int   `json:"pages"`
	OwnerID      *int64 `json:"owner_id"`
	UploadDate   string `json:"upload_date"`
	IsPublic     bool   `json:"is_public"`
	CategoryID   int64  `json:"category_id"`
	SubjectID    *int64 `json:"subject_id"`
	SubjectName  string `json:"subject_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	OwnerName    string `json:"owner_name,omitempty"`
}

// HasSubject reports whether the document is tagged with the given subject.
func (d Document) HasSubject(subjectID int64) bool {
	return d.SubjectID != nil && *d.SubjectID == subjectID
}

// NewDocument carries the validated fields of an upload ready for insertion.
type NewDocument struct {
	Name       string
	FilePath   string
	OwnerID    int64
	CategoryID int64
	SubjectID  int64
	IsPublic   bool
}

// DocumentFilter narrows ListDocuments. A nil SubjectID lists every document.
type DocumentFilter struct {
	SubjectID  *int64
	PublicOnly bool
}

type Annotation struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	Page       int       `json:"page"`
	Type       string    `json:"type"`
	Content    string    `json:"content"`
	PositionX  float64   `json:"position_x"`
	PositionY  float64   `json:"position_y"`
	CreatedAt  time.Time `json:"created_at"`
	UserID     *int64    `json:"user_id"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
	IsAdmin  bool   `json:"is_admin"`
}

// AdminUsername is the single seeded account that owns uploaded documents.
const AdminUsername = "admin"
