package services

import (
	"context"
	"strings"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/progress"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

// Position is the cursor after a navigation request.
type Position struct {
	BatchID      string `json:"batchId"`
	CurrentIndex int    `json:"currentIndex"`
	Count        int    `json:"count"`
	Moved        bool   `json:"moved"`
	AtEnd        bool   `json:"atEnd"`
}

// Settings are the optional fields of a session update. Nil means unchanged.
type Settings struct {
	CurrentIndex   *int    `json:"currentIndex"`
	PromptTemplate *string `json:"promptTemplate"`
	GeminiAPIKey   *string `json:"geminiApiKey"`
}

type SessionView struct {
	BatchID        string `json:"batchId"`
	CurrentIndex   int    `json:"currentIndex"`
	Count          int    `json:"count"`
	PromptTemplate string `json:"promptTemplate"`
	HasAPIKey      bool   `json:"hasApiKey"`
}

// SessionService moves the per-user cursor. Every change is one locked
// read-modify-write in the store, so concurrent requests never lose an update.
type SessionService struct {
	db  core.DbClient
	log *logger.Logger
}

func NewSessionService(db core.DbClient, log *logger.Logger) *SessionService {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionService{db: db, log: log}
}

func (s *SessionService) Next(ctx context.Context, userID string) (*Position, error) {
	return s.move(ctx, userID, func(c *progress.Cursor) (bool, error) { return c.Next(), nil })
}

func (s *SessionService) Previous(ctx context.Context, userID string) (*Position, error) {
	return s.move(ctx, userID, func(c *progress.Cursor) (bool, error) { return c.Previous(), nil })
}

// Goto jumps to index. Out-of-range indexes fail with an OutOfRange error and the
// stored index is left as it was.
func (s *SessionService) Goto(ctx context.Context, userID string, index int) (*Position, error) {
	return s.move(ctx, userID, func(c *progress.Cursor) (bool, error) {
		before := c.Index
		if err := c.Goto(index); err != nil {
			return false, err
		}
		return c.Index != before, nil
	})
}

func (s *SessionService) move(ctx context.Context, userID string, step func(c *progress.Cursor) (bool, error)) (*Position, error) {
	var moved bool
	session, err := s.db.UpdateCursor(ctx, userID, func(c *progress.Cursor) error {
		m, err := step(c)
		moved = m
		return err
	})
	if err != nil {
		return nil, err
	}
	cur := session.Cursor()
	return &Position{BatchID: cur.BatchID, CurrentIndex: cur.Index, Count: cur.Count, Moved: moved, AtEnd: cur.AtEnd()}, nil
}

// UpdateSettings applies the index first so a bad index rejects the whole update.
func (s *SessionService) UpdateSettings(ctx context.Context, userID string, in Settings) (*SessionView, error) {
	if in.CurrentIndex != nil {
		if _, err := s.Goto(ctx, userID, *in.CurrentIndex); err != nil {
			return nil, err
		}
	}

	if in.PromptTemplate != nil || in.GeminiAPIKey != nil {
		set := core.SessionSettings{PromptTemplate: in.PromptTemplate}
		if in.GeminiAPIKey != nil {
			key := strings.TrimSpace(*in.GeminiAPIKey)
			set.GeminiAPIKey = &key
		}
		if _, err := s.db.UpdateSessionSettings(ctx, userID, set); err != nil {
			return nil, err
		}
		s.log.Info("session settings updated", "user_id", userID,
			"template", in.PromptTemplate != nil, "api_key", in.GeminiAPIKey != nil)
	}

	session, err := s.db.GetUserSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sessionView(session), nil
}

func sessionView(session *models.UserSession) *SessionView {
	cur := session.Cursor()
	v := &SessionView{BatchID: cur.BatchID, CurrentIndex: cur.Index, Count: cur.Count}
	if session != nil {
		v.PromptTemplate = session.PromptTemplate
		v.HasAPIKey = session.GeminiAPIKey != ""
	}
	return v
}
