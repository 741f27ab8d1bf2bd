package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/database/dbtest"
	ingestor "github.com/markdave123-py/Coverly/internal/core/ingestion_engine"
	"github.com/markdave123-py/Coverly/internal/models"
)

type fakeLLM struct {
	mu      sync.Mutex
	reply   string
	err     error
	block   bool
	prompts []string
	keys    []string
}

func (f *fakeLLM) Generate(ctx context.Context, apiKey, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.keys = append(f.keys, apiKey)
	reply, err, block := f.reply, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeStorage struct {
	mu        sync.Mutex
	uploadErr error
	objects   map[string][]byte
	deleted   []string
}

func newFakeStorage() *fakeStorage { return &fakeStorage{objects: map[string][]byte{}} }

func (f *fakeStorage) UploadFile(_ context.Context, bucket, key string, data io.Reader, _ string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = b
	return "https://" + bucket + ".example/" + key, nil
}

func (f *fakeStorage) DeleteFile(_ context.Context, _, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeStorage) GetFile(_ context.Context, _, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrObjectNotFound, key)
	}
	return b, nil
}

const sampleCSV = "Company,Link,Description,Title\n" +
	"Acme,http://a,Build things,Engineer\n" +
	",x,y,z\n" +
	"Globex,http://g,Sell things,Analyst\n"

func newCompanyService(db *dbtest.MemoryClient, storage *fakeStorage) *CompanyService {
	dec, ing := ingestor.NewSheetDecoder(), ingestor.NewBatchIngestor(nil, nil)
	if storage == nil {
		return NewCompanyService(db, dec, ing, nil, "", nil)
	}
	return NewCompanyService(db, dec, ing, storage, "uploads", nil)
}

// seedUser stores a user and uploads sampleCSV for it.
func seedUser(t *testing.T, db *dbtest.MemoryClient) (*models.User, *UploadResult) {
	t.Helper()
	users := NewUserService(db, nil)
	users.hashCost = bcrypt.MinCost
	u, err := users.Register(context.Background(), RegisterInput{Name: "Max", Email: "max@example.com", Password: "secret1"})
	require.NoError(t, err)

	res, err := newCompanyService(db, nil).Upload(context.Background(), u.ID, UploadInput{
		FileName: "jobs.csv", ContentType: "text/csv", Data: []byte(sampleCSV),
	})
	require.NoError(t, err)
	return u, res
}

func coreSettingsKey(key *string) core.SessionSettings {
	return core.SessionSettings{GeminiAPIKey: key}
}
