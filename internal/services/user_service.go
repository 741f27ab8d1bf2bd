package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

const minPasswordLen = 6

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidUser        = errors.New("invalid user payload")
)

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type UserService struct {
	db       core.DbClient
	log      *logger.Logger
	hashCost int
}

func NewUserService(db core.DbClient, log *logger.Logger) *UserService {
	if log == nil {
		log = logger.Nop()
	}
	return &UserService{db: db, log: log, hashCost: bcrypt.DefaultCost}
}

// Register validates the payload, hashes the password and stores the user.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)

	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, fmt.Errorf("%w: a valid email is required", ErrInvalidUser)
	}
	if len(in.Password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUser, minPasswordLen)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		PasswordHash: string(hash),
	}
	if err := s.db.CreateUser(ctx, u); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	s.log.Info("user registered", "user_id", u.ID)
	return u, nil
}

// Authenticate returns the user whose email and password match.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.db.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("user")
	}
	return u, nil
}

// Delete removes the user together with every company, session, template and letter.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if err := s.db.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.log.Info("user deleted", "user_id", id)
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
