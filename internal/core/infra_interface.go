package core

import (
	"context"
	"errors"
	"io"

	"github.com/markdave123-py/Coverly/internal/core/progress"
	"github.com/markdave123-py/Coverly/internal/models"
)

// ErrDuplicate is returned when an insert collides with a unique constraint.
var ErrDuplicate = errors.New("duplicate record")

// ErrObjectNotFound is returned by ObjectClient.GetFile when the key does not exist.
var ErrObjectNotFound = errors.New("object not found")

// SessionSettings carries optional updates for a user session. Nil fields are left alone.
type SessionSettings struct {
	PromptTemplate *string
	GeminiAPIKey   *string
}

// DbClient defines all persistence operations your services will need.
// Every read and write is scoped by user id.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error

	// SaveBatch stores every company of one upload and points the user's cursor at
	// the new batch, index 0, in a single transaction.
	SaveBatch(ctx context.Context, userID, batchID string, companies []models.Company) error
	GetCompaniesByBatch(ctx context.Context, userID, batchID string) ([]models.Company, error)
	GetCompany(ctx context.Context, userID, companyID string) (*models.Company, error)

	GetUserSession(ctx context.Context, userID string) (*models.UserSession, error)
	// UpdateCursor runs fn against the locked cursor and stores the result only if fn succeeds.
	UpdateCursor(ctx context.Context, userID string, fn func(c *progress.Cursor) error) (*models.UserSession, error)
	UpdateSessionSettings(ctx context.Context, userID string, s SessionSettings) (*models.UserSession, error)

	CreateCoverLetter(ctx context.Context, letter *models.CoverLetter) error
	ListCoverLettersByUser(ctx context.Context, userID string) ([]models.CoverLetter, error)

	SavePromptTemplate(ctx context.Context, tmpl *models.PromptTemplate) error
	GetPromptTemplateByName(ctx context.Context, userID, name string) (*models.PromptTemplate, error)
	GetDefaultPromptTemplate(ctx context.Context, userID string) (*models.PromptTemplate, error)
	ListPromptTemplates(ctx context.Context, userID string) ([]models.PromptTemplate, error)
	DeletePromptTemplate(ctx context.Context, userID, name string) (bool, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)
}
