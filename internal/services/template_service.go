package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/core/prompt"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

const maxTemplateNameLen = 100

var ErrInvalidTemplate = errors.New("invalid template")

// TemplateSource says where the active template came from.
type TemplateSource string

const (
	SourceSession TemplateSource = "session"
	SourceSaved   TemplateSource = "saved"
	SourceBuiltin TemplateSource = "builtin"
)

// ActiveTemplate is the template a generation for this user would use right now.
type ActiveTemplate struct {
	Content string         `json:"content"`
	Source  TemplateSource `json:"source"`
	Name    string         `json:"name,omitempty"`
}

type ImportInput struct {
	Name        string
	FileName    string
	ContentType string
	Data        []byte
	IsDefault   bool
}

type TemplateService struct {
	db        core.DbClient
	extractor core.TextExtractor
	log       *logger.Logger
}

func NewTemplateService(db core.DbClient, extractor core.TextExtractor, log *logger.Logger) *TemplateService {
	if log == nil {
		log = logger.Nop()
	}
	return &TemplateService{db: db, extractor: extractor, log: log}
}

// Save creates or replaces the named template. Marking it default clears the old default.
func (s *TemplateService) Save(ctx context.Context, userID, name, content string, isDefault bool) (*models.PromptTemplate, error) {
	name = strings.TrimSpace(name)
	if err := validateTemplate(name, content); err != nil {
		return nil, err
	}
	t := &models.PromptTemplate{
		UserID:    userID,
		Name:      name,
		Content:   content,
		IsDefault: isDefault,
	}
	if err := s.db.SavePromptTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Get(ctx context.Context, userID, name string) (*models.PromptTemplate, error) {
	t, err := s.db.GetPromptTemplateByName(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperr.NotFound("template")
	}
	return t, nil
}

func (s *TemplateService) Delete(ctx context.Context, userID, name string) error {
	removed, err := s.db.DeletePromptTemplate(ctx, userID, strings.TrimSpace(name))
	if err != nil {
		return err
	}
	if !removed {
		return apperr.NotFound("template")
	}
	return nil
}

func (s *TemplateService) List(ctx context.Context, userID string) ([]models.PromptTemplate, error) {
	return s.db.ListPromptTemplates(ctx, userID)
}

// Import extracts the text of an uploaded document and saves it as a template.
// A blank name falls back to the file name without its extension.
func (s *TemplateService) Import(ctx context.Context, userID string, in ImportInput) (*models.PromptTemplate, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("template import: %w", core.ErrUnsupportedFormat)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		base := filepath.Base(in.FileName)
		name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	text, err := s.extractor.ExtractText(ctx, bytes.NewReader(in.Data), in.FileName, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("template import %s: %w", in.FileName, err)
	}
	t, err := s.Save(ctx, userID, name, text, in.IsDefault)
	if err != nil {
		return nil, err
	}
	s.log.Info("template imported", "user_id", userID, "name", t.Name, "file", in.FileName, "chars", len(text))
	return t, nil
}

// Active resolves the template in priority order: the inline session template,
// then the saved default, then the built-in default.
func (s *TemplateService) Active(ctx context.Context, userID string, session *models.UserSession) (ActiveTemplate, error) {
	if session != nil && strings.TrimSpace(session.PromptTemplate) != "" {
		return resolveTemplate(session, nil), nil
	}
	saved, err := s.db.GetDefaultPromptTemplate(ctx, userID)
	if err != nil {
		return ActiveTemplate{}, err
	}
	return resolveTemplate(session, saved), nil
}

func resolveTemplate(session *models.UserSession, saved *models.PromptTemplate) ActiveTemplate {
	if session != nil && strings.TrimSpace(session.PromptTemplate) != "" {
		return ActiveTemplate{Content: session.PromptTemplate, Source: SourceSession}
	}
	if saved != nil && strings.TrimSpace(saved.Content) != "" {
		return ActiveTemplate{Content: saved.Content, Source: SourceSaved, Name: saved.Name}
	}
	return ActiveTemplate{Content: prompt.DefaultTemplate, Source: SourceBuiltin}
}

func validateTemplate(name, content string) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if utf8.RuneCountInString(name) > maxTemplateNameLen {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidTemplate, maxTemplateNameLen)
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("%w: content is required", ErrInvalidTemplate)
	}
	return nil
}
