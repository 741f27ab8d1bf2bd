package ingestion_engine

import (
	"time"

	"github.com/google/uuid"

	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

// IngestConfig tunes batch ingestion.
//
// NewID: id generator for batches and companies (defaults to uuid.NewString).
// Now:   clock used for CreatedAt (defaults to time.Now).
type IngestConfig struct {
	NewID func() string
	Now   func() time.Time
}

// Batch is the result of one successful ingestion, ready for a single bulk write.
//
// ID:        fresh batch identifier shared by every company.
// Companies: accepted rows in sheet order, RowIndex set to their data-row offset.
// Rejected:  rows skipped by the normalizer.
// DataRows:  number of rows after the header.
type Batch struct {
	ID        string
	Companies []models.Company
	Rejected  []RowRejection
	DataRows  int
}

// BatchIngestor turns decoded sheet rows into a Batch.
type BatchIngestor struct {
	cfg *IngestConfig
	log *logger.Logger
}

func (c *IngestConfig) withDefaults() *IngestConfig {
	out := IngestConfig{}
	if c != nil {
		out = *c
	}
	if out.NewID == nil {
		out.NewID = uuid.NewString
	}
	if out.Now == nil {
		out.Now = time.Now
	}
	return &out
}
