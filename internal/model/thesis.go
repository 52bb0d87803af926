package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ThesisStatus represents the review state of a thesis.
type ThesisStatus string

const (
	ThesisStatusPending  ThesisStatus = "pending"
	ThesisStatusApproved ThesisStatus = "approved"
	ThesisStatusRejected ThesisStatus = "rejected"
)

// NotChecked is the initial plagiarism/grammar result.
const NotChecked = "Not checked"

// Thesis represents an uploaded thesis and its review metadata.
type Thesis struct {
	ID               uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	OwnerID          uuid.UUID      `json:"ownerId" gorm:"type:char(36);not null;index"`
	Title            string         `json:"title" gorm:"size:255;not null"`
	Abstract         string         `json:"abstract" gorm:"type:text;not null"`
	AuthorName       string         `json:"authorName" gorm:"size:255;not null"`
	Department       string         `json:"department" gorm:"size:255;not null;index"`
	SubmissionYear   int            `json:"submissionYear" gorm:"not null"`
	Keywords         datatypes.JSON `json:"keywords" gorm:"type:json"`
	FileLocation     string         `json:"-" gorm:"size:512;not null"`
	FileName         string         `json:"fileName" gorm:"size:255;not null"`
	FileSizeBytes    int64          `json:"fileSize" gorm:"not null"`
	UploadDate       time.Time      `json:"uploadDate" gorm:"not null;index"`
	Status           ThesisStatus   `json:"status" gorm:"type:varchar(20);not null;index"`
	IsPublic         bool           `json:"isPublic" gorm:"not null;index"`
	PlagiarismResult string         `json:"plagiarismResult" gorm:"type:text"`
	GrammarResult    string         `json:"grammarResult" gorm:"type:text"`
	UpdatedAt        time.Time      `json:"updatedAt"`

	// Relations
	Owner *User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Thesis) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// KeywordList decodes the stored keywords.
func (t *Thesis) KeywordList() []string {
	var out []string
	if len(t.Keywords) == 0 {
		return out
	}
	_ = json.Unmarshal(t.Keywords, &out)
	return out
}

// SetKeywords stores keywords in their given order.
func (t *Thesis) SetKeywords(keywords []string) {
	if keywords == nil {
		keywords = []string{}
	}
	payload, _ := json.Marshal(keywords)
	t.Keywords = datatypes.JSON(payload)
}
