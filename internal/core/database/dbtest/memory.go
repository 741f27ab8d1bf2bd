// Package dbtest provides an in-memory core.DbClient for service and handler tests.
package dbtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/core/progress"
	"github.com/markdave123-py/Coverly/internal/models"
)

// MemoryClient mirrors the transactional behaviour of the Postgres client with one mutex.
// FailSaveBatch makes the next SaveBatch fail without writing anything.
type MemoryClient struct {
	mu sync.Mutex

	users     map[string]models.User
	companies map[string]models.Company
	sessions  map[string]models.UserSession
	templates map[string]models.PromptTemplate // key: userID + "\x00" + name
	letters   []models.CoverLetter

	FailSaveBatch error
}

var _ core.DbClient = (*MemoryClient)(nil)

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		users:     map[string]models.User{},
		companies: map[string]models.Company{},
		sessions:  map[string]models.UserSession{},
		templates: map[string]models.PromptTemplate{},
	}
}

func (m *MemoryClient) Close() error { return nil }

func (m *MemoryClient) CreateUser(_ context.Context, u *models.User) error {
	if u == nil {
		return errors.New("nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("create user %s: %w", u.Email, core.ErrDuplicate)
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryClient) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MemoryClient) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *MemoryClient) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return apperr.NotFound("user")
	}
	delete(m.users, id)
	delete(m.sessions, id)
	for k, c := range m.companies {
		if c.UserID == id {
			delete(m.companies, k)
		}
	}
	for k, t := range m.templates {
		if t.UserID == id {
			delete(m.templates, k)
		}
	}
	kept := m.letters[:0]
	for _, l := range m.letters {
		if l.UserID != id {
			kept = append(kept, l)
		}
	}
	m.letters = kept
	return nil
}

func (m *MemoryClient) SaveBatch(_ context.Context, userID, batchID string, companies []models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSaveBatch != nil {
		err := m.FailSaveBatch
		m.FailSaveBatch = nil
		return err
	}
	if len(companies) == 0 {
		return errors.New("save batch: no companies")
	}
	for _, c := range companies {
		if c.UserID != userID || c.UploadBatch != batchID {
			return fmt.Errorf("save batch: company %s does not belong to batch %s of user %s", c.ID, batchID, userID)
		}
	}
	for _, c := range companies {
		m.companies[c.ID] = c
	}
	s, ok := m.sessions[userID]
	if !ok {
		s = models.UserSession{ID: uuid.NewString(), UserID: userID}
	}
	s.CurrentBatch = batchID
	s.CurrentCompanyIndex = 0
	s.CurrentBatchSize = len(companies)
	s.UpdatedAt = time.Now()
	m.sessions[userID] = s
	return nil
}

func (m *MemoryClient) GetCompaniesByBatch(_ context.Context, userID, batchID string) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Company{}
	for _, c := range m.companies {
		if c.UserID == userID && c.UploadBatch == batchID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RowIndex < out[j].RowIndex })
	return out, nil
}

func (m *MemoryClient) GetCompany(_ context.Context, userID, companyID string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[companyID]
	if !ok || c.UserID != userID {
		return nil, nil
	}
	return &c, nil
}

func (m *MemoryClient) GetUserSession(_ context.Context, userID string) (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MemoryClient) UpdateCursor(_ context.Context, userID string, fn func(c *progress.Cursor) error) (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		var empty progress.Cursor
		if err := fn(&empty); err != nil {
			return nil, err
		}
		return &models.UserSession{UserID: userID}, nil
	}
	cur := s.Cursor()
	if err := fn(&cur); err != nil {
		return nil, err
	}
	if cur.Index != s.CurrentCompanyIndex {
		s.CurrentCompanyIndex = cur.Index
		s.UpdatedAt = time.Now()
		m.sessions[userID] = s
	}
	return &s, nil
}

func (m *MemoryClient) UpdateSessionSettings(_ context.Context, userID string, set core.SessionSettings) (*models.UserSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = models.UserSession{ID: uuid.NewString(), UserID: userID}
	}
	if set.PromptTemplate != nil {
		s.PromptTemplate = *set.PromptTemplate
	}
	if set.GeminiAPIKey != nil {
		s.GeminiAPIKey = *set.GeminiAPIKey
	}
	s.UpdatedAt = time.Now()
	m.sessions[userID] = s
	return &s, nil
}

func (m *MemoryClient) CreateCoverLetter(_ context.Context, l *models.CoverLetter) error {
	if l == nil {
		return errors.New("nil cover letter")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l.CreatedAt = time.Now()
	m.letters = append(m.letters, *l)
	return nil
}

func (m *MemoryClient) ListCoverLettersByUser(_ context.Context, userID string) ([]models.CoverLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.CoverLetter{}
	for i := len(m.letters) - 1; i >= 0; i-- {
		if m.letters[i].UserID == userID {
			out = append(out, m.letters[i])
		}
	}
	return out, nil
}

func templateKey(userID, name string) string { return userID + "\x00" + name }

func (m *MemoryClient) SavePromptTemplate(_ context.Context, t *models.PromptTemplate) error {
	if t == nil {
		return errors.New("nil prompt template")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if t.IsDefault {
		for k, other := range m.templates {
			if other.UserID == t.UserID && other.Name != t.Name && other.IsDefault {
				other.IsDefault = false
				other.UpdatedAt = now
				m.templates[k] = other
			}
		}
	}
	key := templateKey(t.UserID, t.Name)
	if existing, ok := m.templates[key]; ok {
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
	} else {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	m.templates[key] = *t
	return nil
}

func (m *MemoryClient) GetPromptTemplateByName(_ context.Context, userID, name string) (*models.PromptTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[templateKey(userID, name)]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryClient) GetDefaultPromptTemplate(_ context.Context, userID string) (*models.PromptTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.templates {
		if t.UserID == userID && t.IsDefault {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryClient) ListPromptTemplates(_ context.Context, userID string) ([]models.PromptTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.PromptTemplate{}
	for _, t := range m.templates {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryClient) DeletePromptTemplate(_ context.Context, userID, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := templateKey(userID, name)
	if _, ok := m.templates[key]; !ok {
		return false, nil
	}
	delete(m.templates, key)
	return true, nil
}

// CompanyCount returns how many companies are stored for userID, across all batches.
func (m *MemoryClient) CompanyCount(userID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.companies {
		if c.UserID == userID {
			n++
		}
	}
	return n
}
