package ingestion_engine

import "github.com/markdave123-py/Coverly/internal/core"

type Ingestor interface {
	Ingest(userID string, rows []core.Row) (*Batch, error)
}

var _ Ingestor = (*BatchIngestor)(nil)
