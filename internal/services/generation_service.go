package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/core/prompt"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

const defaultGenTimeout = 60 * time.Second

type GenerationResult struct {
	ID        string `json:"id"`
	CompanyID string `json:"companyId"`
	Prompt    string `json:"prompt"`
	Content   string `json:"content"`
}

type PromptPreview struct {
	CompanyID      string         `json:"companyId"`
	Prompt         string         `json:"prompt"`
	TemplateSource TemplateSource `json:"templateSource"`
}

type GenerationService struct {
	db        core.DbClient
	llm       core.LLMProvider
	templates *TemplateService
	timeout   time.Duration
	log       *logger.Logger
}

func NewGenerationService(db core.DbClient, llm core.LLMProvider, templates *TemplateService, timeout time.Duration, log *logger.Logger) *GenerationService {
	if timeout <= 0 {
		timeout = defaultGenTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GenerationService{db: db, llm: llm, templates: templates, timeout: timeout, log: log}
}

// Generate writes a cover letter for one of the user's companies and stores it.
// Any provider failure, including the timeout, is a GenerationFailed error and
// nothing is stored. There is no retry.
func (s *GenerationService) Generate(ctx context.Context, userID, companyID string) (*GenerationResult, error) {
	company, session, active, err := s.resolve(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}

	populated := prompt.Populate(active.Content, fieldsOf(company))
	var apiKey string
	if session != nil {
		apiKey = session.GeminiAPIKey
	}

	started := time.Now()
	text, err := s.call(ctx, apiKey, populated)
	if err != nil {
		s.log.Warn("generation failed", "user_id", userID, "company_id", companyID,
			"elapsed", time.Since(started), "error", err)
		return nil, apperr.GenerationFailed(err)
	}

	letter := &models.CoverLetter{
		ID:        uuid.NewString(),
		UserID:    userID,
		CompanyID: company.ID,
		Prompt:    populated,
		Content:   text,
	}
	if err := s.db.CreateCoverLetter(ctx, letter); err != nil {
		return nil, fmt.Errorf("store cover letter: %w", err)
	}

	s.log.Info("cover letter generated", "user_id", userID, "company_id", companyID,
		"template", active.Source, "elapsed", time.Since(started))
	return &GenerationResult{ID: letter.ID, CompanyID: company.ID, Prompt: populated, Content: text}, nil
}

// call bounds the provider by the configured timeout even if it ignores ctx.
func (s *GenerationService) call(ctx context.Context, apiKey, populated string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := s.llm.Generate(genCtx, apiKey, populated)
		done <- reply{text, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
				return "", fmt.Errorf("timed out after %s: %w", s.timeout, r.err)
			}
			return "", r.err
		}
		text := strings.TrimSpace(r.text)
		if text == "" {
			return "", errors.New("no content generated")
		}
		return text, nil
	case <-genCtx.Done():
		if errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out after %s", s.timeout)
		}
		return "", genCtx.Err()
	}
}

// Preview shows the prompt Generate would send, with the description shortened.
func (s *GenerationService) Preview(ctx context.Context, userID, companyID string) (*PromptPreview, error) {
	company, _, active, err := s.resolve(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	return &PromptPreview{
		CompanyID:      company.ID,
		Prompt:         prompt.Preview(active.Content, fieldsOf(company)),
		TemplateSource: active.Source,
	}, nil
}

func (s *GenerationService) History(ctx context.Context, userID string) ([]models.CoverLetter, error) {
	return s.db.ListCoverLettersByUser(ctx, userID)
}

func (s *GenerationService) resolve(ctx context.Context, userID, companyID string) (*models.Company, *models.UserSession, ActiveTemplate, error) {
	company, err := s.db.GetCompany(ctx, userID, companyID)
	if err != nil {
		return nil, nil, ActiveTemplate{}, err
	}
	if company == nil {
		return nil, nil, ActiveTemplate{}, apperr.NotFound("company")
	}
	session, err := s.db.GetUserSession(ctx, userID)
	if err != nil {
		return nil, nil, ActiveTemplate{}, err
	}
	active, err := s.templates.Active(ctx, userID, session)
	if err != nil {
		return nil, nil, ActiveTemplate{}, err
	}
	return company, session, active, nil
}

func fieldsOf(c *models.Company) prompt.Fields {
	return prompt.Fields{Name: c.Name, JobTitle: c.JobTitle, JobDescription: c.JobDescription}
}
