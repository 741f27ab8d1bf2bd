package ingestion_engine

import (
	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
	"github.com/markdave123-py/Coverly/internal/models"
	"github.com/markdave123-py/Coverly/internal/platform/logger"
)

// NewBatchIngestor constructs the ingestor. A nil cfg or log uses defaults.
func NewBatchIngestor(cfg *IngestConfig, log *logger.Logger) *BatchIngestor {
	if log == nil {
		log = logger.Nop()
	}
	return &BatchIngestor{cfg: cfg.withDefaults(), log: log}
}

// Ingest validates every data row and builds the batch for userID.
//
// rows[0] is always the header and is skipped. Fewer than two rows is an EmptyInput
// error; a sheet where every data row is rejected is a NoValidRows error. Nothing is
// persisted here: the caller writes Batch.Companies in one transaction and resets
// the user's cursor to the new batch.
func (i *BatchIngestor) Ingest(userID string, rows []core.Row) (*Batch, error) {
	if len(rows) < 2 {
		return nil, apperr.EmptyInput()
	}

	dataRows := len(rows) - 1
	batch := &Batch{
		ID:        i.cfg.NewID(),
		Companies: make([]models.Company, 0, dataRows),
		DataRows:  dataRows,
	}
	now := i.cfg.Now()

	for r := 1; r < len(rows); r++ {
		// sheet row r is 1-based row r+1; its data offset is r-1
		cand, rej := NormalizeRow(rows[r], r+1)
		if rej != nil {
			i.log.Debug("skipping row", "batch_id", batch.ID, "row", rej.Position, "reason", rej.Reason)
			batch.Rejected = append(batch.Rejected, *rej)
			continue
		}

		batch.Companies = append(batch.Companies, models.Company{
			ID:              i.cfg.NewID(),
			UserID:          userID,
			Name:            cand.Name,
			ApplicationLink: cand.ApplicationLink,
			JobDescription:  cand.JobDescription,
			JobTitle:        cand.JobTitle,
			RowIndex:        r - 1,
			UploadBatch:     batch.ID,
			CreatedAt:       now,
		})
	}

	if len(batch.Companies) == 0 {
		i.log.Info("upload rejected: no valid rows", "user_id", userID, "data_rows", dataRows)
		return nil, apperr.NoValidRows(dataRows)
	}

	i.log.Info("batch ingested",
		"user_id", userID,
		"batch_id", batch.ID,
		"accepted", len(batch.Companies),
		"skipped", len(batch.Rejected),
	)
	return batch, nil
}
