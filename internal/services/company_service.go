package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	ingestor "github.com/markdave123-py/Coverly/internal/core/ingestion_engine"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

type UploadResult struct {
	BatchID       string                  `json:"batchId"`
	AcceptedCount int                     `json:"acceptedCount"`
	SkippedCount  int                     `json:"skippedCount"`
	Skipped       []ingestor.RowRejection `json:"skipped"`
	ArchiveURL    string                  `json:"archiveUrl,omitempty"`
}

// State is everything the UI needs to render the current company.
type State struct {
	BatchID        string           `json:"batchId"`
	Companies      []models.Company `json:"companies"`
	CurrentIndex   int              `json:"currentIndex"`
	Current        *models.Company  `json:"current,omitempty"`
	PromptTemplate string           `json:"promptTemplate"`
	TemplateSource TemplateSource   `json:"templateSource"`
	HasAPIKey      bool             `json:"hasApiKey"`
}

// ArchivedUpload is a raw sheet read back from object storage.
type ArchivedUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}

type CompanyService struct {
	db       core.DbClient
	decoder  core.SpreadsheetDecoder
	ingestor ingestor.Ingestor
	storage  core.ObjectClient
	bucket   string
	log      *logger.Logger
}

// NewCompanyService wires the upload pipeline. storage may be nil, or bucket empty,
// to turn archiving of raw uploads off.
func NewCompanyService(db core.DbClient, decoder core.SpreadsheetDecoder, ing ingestor.Ingestor, storage core.ObjectClient, bucket string, log *logger.Logger) *CompanyService {
	if log == nil {
		log = logger.Nop()
	}
	return &CompanyService{db: db, decoder: decoder, ingestor: ing, storage: storage, bucket: bucket, log: log}
}

// Upload decodes the sheet, builds a batch and stores it, moving the user's cursor to
// the first company of the new batch.
func (s *CompanyService) Upload(ctx context.Context, userID string, in UploadInput) (*UploadResult, error) {
	if len(in.Data) == 0 {
		return nil, apperr.EmptyInput()
	}

	rows, err := s.decoder.Decode(ctx, bytes.NewReader(in.Data), in.FileName, in.ContentType)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", in.FileName, err)
	}

	batch, err := s.ingestor.Ingest(userID, rows)
	if err != nil {
		return nil, err
	}

	key, archiveURL := s.archive(ctx, userID, batch.ID, in)

	if err := s.db.SaveBatch(ctx, userID, batch.ID, batch.Companies); err != nil {
		if key != "" {
			if delErr := s.storage.DeleteFile(ctx, s.bucket, key); delErr != nil {
				s.log.Warn("archive cleanup failed", "key", key, "error", delErr)
			}
		}
		return nil, fmt.Errorf("save batch: %w", err)
	}

	s.log.Info("upload stored", "user_id", userID, "batch_id", batch.ID,
		"accepted", len(batch.Companies), "skipped", len(batch.Rejected))

	skipped := batch.Rejected
	if skipped == nil {
		skipped = []ingestor.RowRejection{}
	}
	return &UploadResult{
		BatchID:       batch.ID,
		AcceptedCount: len(batch.Companies),
		SkippedCount:  len(batch.Rejected),
		Skipped:       skipped,
		ArchiveURL:    archiveURL,
	}, nil
}

// archive copies the raw upload to object storage. Failures are logged and ignored.
func (s *CompanyService) archive(ctx context.Context, userID, batchID string, in UploadInput) (key, url string) {
	if s.storage == nil || s.bucket == "" {
		return "", ""
	}
	key = archiveKey(userID, batchID, in.FileName)
	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	url, err := s.storage.UploadFile(ctx, s.bucket, key, bytes.NewReader(in.Data), contentType)
	if err != nil {
		s.log.Warn("upload archive failed", "user_id", userID, "batch_id", batchID, "error", err)
		return "", ""
	}
	return key, url
}

// Archive reads back the raw file a user uploaded for batchID. Keys are scoped
// by userID, so other users' batches are reported as not found.
func (s *CompanyService) Archive(ctx context.Context, userID, batchID, fileName string) (*ArchivedUpload, error) {
	if s.storage == nil || s.bucket == "" || strings.TrimSpace(batchID) == "" {
		return nil, apperr.NotFound("upload")
	}
	key := archiveKey(userID, batchID, fileName)
	data, err := s.storage.GetFile(ctx, s.bucket, key)
	if errors.Is(err, core.ErrObjectNotFound) {
		return nil, apperr.NotFound("upload")
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}
	name := path.Base(key)
	return &ArchivedUpload{FileName: name, ContentType: archiveContentType(name), Data: data}, nil
}

// State loads the active batch and the resolved template for userID.
func (s *CompanyService) State(ctx context.Context, userID string) (*State, error) {
	session, err := s.db.GetUserSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	cur := session.Cursor()

	companies := []models.Company{}
	var saved *models.PromptTemplate

	g, gctx := errgroup.WithContext(ctx)
	if cur.BatchID != "" {
		g.Go(func() error {
			list, err := s.db.GetCompaniesByBatch(gctx, userID, cur.BatchID)
			if err != nil {
				return fmt.Errorf("load companies: %w", err)
			}
			companies = list
			return nil
		})
	}
	g.Go(func() error {
		t, err := s.db.GetDefaultPromptTemplate(gctx, userID)
		if err != nil {
			return fmt.Errorf("load default template: %w", err)
		}
		saved = t
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	active := resolveTemplate(session, saved)
	st := &State{
		BatchID:        cur.BatchID,
		Companies:      companies,
		PromptTemplate: active.Content,
		TemplateSource: active.Source,
		HasAPIKey:      session != nil && session.GeminiAPIKey != "",
	}
	if cur.Index >= 0 && cur.Index < len(companies) {
		st.CurrentIndex = cur.Index
		st.Current = &companies[cur.Index]
	}
	return st, nil
}

func archiveKey(userID, batchID, fileName string) string {
	fileName = strings.TrimSpace(path.Base(strings.ReplaceAll(fileName, "\\", "/")))
	fileName = strings.ReplaceAll(fileName, " ", "_")
	if fileName == "" || fileName == "." || fileName == "/" {
		fileName = "upload"
	}
	return path.Join("users", userID, "uploads", batchID, fileName)
}

func archiveContentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".xlsx":
		return ingestor.MimeXLSX
	case ".xls":
		return ingestor.MimeXLS
	case ".csv":
		return ingestor.MimeCSV
	}
	return "application/octet-stream"
}
