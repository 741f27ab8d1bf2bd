package ingestion_engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Coverly/internal/core"
	"github.com/markdave123-py/Coverly/internal/core/apperr"
)

var header = core.Row{"Company", "Link", "Description", "Title"}

func newTestIngestor() *BatchIngestor {
	n := 0
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return NewBatchIngestor(&IngestConfig{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time { return fixed },
	}, nil)
}

func TestIngestScenario(t *testing.T) {
	rows := []core.Row{
		header,
		{"Acme", "http://a", "Build things", "Engineer"},
		{"", "x", "y", "z"},
		{"Globex", "http://g", "Sell things", "Analyst"},
	}

	batch, err := newTestIngestor().Ingest("user-1", rows)
	require.NoError(t, err)

	require.Len(t, batch.Companies, 2)
	assert.Equal(t, 3, batch.DataRows)
	assert.Equal(t, "id-1", batch.ID)

	acme, globex := batch.Companies[0], batch.Companies[1]
	assert.Equal(t, "Acme", acme.Name)
	assert.Equal(t, "http://a", acme.ApplicationLink)
	assert.Equal(t, "Build things", acme.JobDescription)
	assert.Equal(t, "Engineer", acme.JobTitle)
	assert.Equal(t, 0, acme.RowIndex)

	assert.Equal(t, "Globex", globex.Name)
	assert.Equal(t, 2, globex.RowIndex, "row index is not renumbered after a skipped row")

	for _, c := range batch.Companies {
		assert.Equal(t, "user-1", c.UserID)
		assert.Equal(t, batch.ID, c.UploadBatch)
		assert.NotEqual(t, batch.ID, c.ID)
	}

	require.Len(t, batch.Rejected, 1)
	assert.Equal(t, RowRejection{Position: 3, Reason: "missing company name"}, batch.Rejected[0])
}

func TestIngestHeaderOnly(t *testing.T) {
	_, err := newTestIngestor().Ingest("user-1", []core.Row{header})

	assert.Equal(t, apperr.KindEmptyInput, apperr.KindOf(err))
}

func TestIngestNoRows(t *testing.T) {
	_, err := newTestIngestor().Ingest("user-1", nil)

	assert.Equal(t, apperr.KindEmptyInput, apperr.KindOf(err))
}

func TestIngestBlankDataRow(t *testing.T) {
	_, err := newTestIngestor().Ingest("user-1", []core.Row{header, {"", "", "", ""}})

	assert.Equal(t, apperr.KindNoValidRows, apperr.KindOf(err))
}

func TestIngestEveryRowInvalid(t *testing.T) {
	rows := []core.Row{header, {}, {"Acme"}, {"Acme", "x", "y", " "}}

	_, err := newTestIngestor().Ingest("user-1", rows)

	assert.Equal(t, apperr.KindNoValidRows, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "3 data row(s)")
}

func TestIngestRowIndexesStrictlyIncrease(t *testing.T) {
	rows := []core.Row{header}
	for i := 0; i < 20; i++ {
		if i%3 == 0 {
			rows = append(rows, core.Row{"", "", "", ""})
			continue
		}
		rows = append(rows, core.Row{fmt.Sprintf("Co %d", i), "l", "d", "t"})
	}

	batch, err := newTestIngestor().Ingest("u", rows)
	require.NoError(t, err)

	prev := -1
	for _, c := range batch.Companies {
		assert.Greater(t, c.RowIndex, prev)
		assert.Equal(t, fmt.Sprintf("Co %d", c.RowIndex), c.Name)
		prev = c.RowIndex
	}
	assert.Len(t, batch.Companies, 13)
	assert.Len(t, batch.Rejected, 7)
}

func TestIngestDefaultIDs(t *testing.T) {
	batch, err := NewBatchIngestor(nil, nil).Ingest("u", []core.Row{header, {"a", "b", "c", "d"}})
	require.NoError(t, err)

	assert.Len(t, batch.ID, 36)
	assert.False(t, batch.Companies[0].CreatedAt.IsZero())
}
