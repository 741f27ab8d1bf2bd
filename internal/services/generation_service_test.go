package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/core/database/dbtest"
	"github.com/markdave123-py/Coverly/internal/models"
)

func setupGeneration(t *testing.T, llm *fakeLLM, timeout time.Duration) (*GenerationService, *dbtest.MemoryClient, *models.User, []models.Company) {
	t.Helper()
	db := dbtest.NewMemoryClient()
	u, res := seedUser(t, db)
	companies, err := db.GetCompaniesByBatch(context.Background(), u.ID, res.BatchID)
	require.NoError(t, err)
	svc := NewGenerationService(db, llm, NewTemplateService(db, nil, nil), timeout, nil)
	return svc, db, u, companies
}

func TestGenerateStoresLetter(t *testing.T) {
	llm := &fakeLLM{reply: "  Dear Acme team...  "}
	svc, _, u, companies := setupGeneration(t, llm, time.Second)
	ctx := context.Background()

	_, err := svc.templates.Save(ctx, u.ID, "short", "Dear {COMPANY_NAME}, re: {JOB_TITLE}", true)
	require.NoError(t, err)

	res, err := svc.Generate(ctx, u.ID, companies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Dear Acme, re: Engineer", res.Prompt)
	assert.Equal(t, "Dear Acme team...", res.Content)
	assert.Equal(t, []string{"Dear Acme, re: Engineer"}, llm.prompts)
	assert.Equal(t, []string{""}, llm.keys, "no user key means the server key")

	history, err := svc.History(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, res.ID, history[0].ID)
	assert.Equal(t, companies[0].ID, history[0].CompanyID)
}

func TestGenerateUsesBuiltinTemplateAndUserKey(t *testing.T) {
	llm := &fakeLLM{reply: "letter"}
	svc, db, u, companies := setupGeneration(t, llm, time.Second)
	ctx := context.Background()

	key := "user-key"
	_, err := db.UpdateSessionSettings(ctx, u.ID, coreSettingsKey(&key))
	require.NoError(t, err)

	res, err := svc.Generate(ctx, u.ID, companies[1].ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Prompt, "My name is Max"))
	assert.Contains(t, res.Prompt, "Globex")
	assert.Contains(t, res.Prompt, "Sell things")
	assert.Contains(t, res.Prompt, "Analyst")
	assert.Equal(t, []string{"user-key"}, llm.keys)
}

func TestGenerateNotFound(t *testing.T) {
	llm := &fakeLLM{reply: "letter"}
	svc, db, _, companies := setupGeneration(t, llm, time.Second)
	ctx := context.Background()

	_, err := svc.Generate(ctx, "someone-else", companies[0].ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = svc.Generate(ctx, companies[0].UserID, "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	assert.Zero(t, llm.calls())
	letters, err := db.ListCoverLettersByUser(ctx, companies[0].UserID)
	require.NoError(t, err)
	assert.Empty(t, letters)
}

func TestGenerateFailures(t *testing.T) {
	tests := []struct {
		name    string
		llm     *fakeLLM
		message string
	}{
		{"provider error", &fakeLLM{err: errors.New("API key not valid")}, "API key not valid"},
		{"empty response", &fakeLLM{reply: " \n "}, "no content generated"},
		{"timeout", &fakeLLM{block: true}, "timed out"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, db, u, companies := setupGeneration(t, tt.llm, 20*time.Millisecond)
			ctx := context.Background()

			_, err := svc.Generate(ctx, u.ID, companies[0].ID)
			require.Error(t, err)
			assert.Equal(t, apperr.KindGenerationFailed, apperr.KindOf(err))
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 1, tt.llm.calls(), "no automatic retry")

			letters, err := db.ListCoverLettersByUser(ctx, u.ID)
			require.NoError(t, err)
			assert.Empty(t, letters)
		})
	}
}

func TestPreviewTruncatesDescription(t *testing.T) {
	llm := &fakeLLM{}
	svc, db, u, _ := setupGeneration(t, llm, time.Second)
	ctx := context.Background()

	long := strings.Repeat("a", 250)
	_, err := newCompanyService(db, nil).Upload(ctx, u.ID, csvUpload("h,h,h,h\nAcme,http://a,"+long+",Engineer\n"))
	require.NoError(t, err)
	st, err := newCompanyService(db, nil).State(ctx, u.ID)
	require.NoError(t, err)

	_, err = svc.templates.Save(ctx, u.ID, "d", "{JOB_DESCRIPTION}", true)
	require.NoError(t, err)

	p, err := svc.Preview(ctx, u.ID, st.Companies[0].ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 200)+"...", p.Prompt)
	assert.Equal(t, SourceSaved, p.TemplateSource)
	assert.Zero(t, llm.calls())
}
