package models

import (
	"time"

	"github.com/markdave123-py/Coverly/internal/core/progress"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Phone        string    `db:"phone" json:"phone,omitempty"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Company is one normalized company/job row from an uploaded sheet. Immutable once stored.
type Company struct {
	ID              string    `db:"id" json:"id"`
	UserID          string    `db:"user_id" json:"user_id"`
	Name            string    `db:"name" json:"name"`
	ApplicationLink string    `db:"application_link" json:"application_link"`
	JobDescription  string    `db:"job_description" json:"job_description"`
	JobTitle        string    `db:"job_title" json:"job_title"`
	RowIndex        int       `db:"row_index" json:"row_index"`       // zero-based offset among the sheet's data rows
	UploadBatch     string    `db:"upload_batch" json:"upload_batch"` // shared by every company from one upload
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// UserSession is the per-user progress cursor plus generation settings.
type UserSession struct {
	ID                  string    `db:"id" json:"id"`
	UserID              string    `db:"user_id" json:"user_id"`
	CurrentBatch        string    `db:"current_batch" json:"current_batch"`
	CurrentCompanyIndex int       `db:"current_company_index" json:"current_company_index"`
	CurrentBatchSize    int       `db:"current_batch_size" json:"current_batch_size"`
	PromptTemplate      string    `db:"prompt_template" json:"prompt_template,omitempty"`
	GeminiAPIKey        string    `db:"gemini_api_key" json:"-"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Cursor returns the progress cursor stored on the session. A nil session is the empty cursor.
func (s *UserSession) Cursor() progress.Cursor {
	if s == nil {
		return progress.Cursor{}
	}
	return progress.Cursor{
		BatchID: s.CurrentBatch,
		Index:   s.CurrentCompanyIndex,
		Count:   s.CurrentBatchSize,
	}
}

// PromptTemplate is a named, saved prompt owned by one user.
type PromptTemplate struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Content   string    `db:"content" json:"content"`
	IsDefault bool      `db:"is_default" json:"is_default"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CoverLetter is the stored result of one successful generation call.
type CoverLetter struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	Prompt    string    `db:"prompt" json:"prompt"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
