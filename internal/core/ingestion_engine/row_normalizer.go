package ingestion_engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// requiredColumns is the number of leading cells every company row must fill:
// name, application link, job description, job title.
const requiredColumns = 4

var columnNames = [requiredColumns]string{"company name", "application link", "job description", "job title"}

// RowCandidate is a validated row, ready to become a models.Company.
type RowCandidate struct {
	Name            string
	ApplicationLink string
	JobDescription  string
	JobTitle        string
}

// RowRejection explains why a row was skipped.
//
// Position: 1-based row number in the sheet (the header is row 1).
// Reason:   human readable cause, e.g. "missing job title".
type RowRejection struct {
	Position int    `json:"row"`
	Reason   string `json:"reason"`
}

// NormalizeRow validates one raw row. The first four cells must all be non-blank after
// trimming; extra cells are ignored. It never panics and never returns an error: a
// rejected row is reported so the caller can keep going.
func NormalizeRow(row []any, position int) (RowCandidate, *RowRejection) {
	if len(row) < requiredColumns {
		return RowCandidate{}, &RowRejection{
			Position: position,
			Reason:   fmt.Sprintf("expected at least %d columns, got %d", requiredColumns, len(row)),
		}
	}

	var vals [requiredColumns]string
	for i := 0; i < requiredColumns; i++ {
		vals[i] = strings.TrimSpace(cellText(row[i]))
		if vals[i] == "" {
			return RowCandidate{}, &RowRejection{Position: position, Reason: "missing " + columnNames[i]}
		}
	}

	return RowCandidate{
		Name:            vals[0],
		ApplicationLink: vals[1],
		JobDescription:  vals[2],
		JobTitle:        vals[3],
	}, nil
}

// cellText coerces a loosely typed cell to text. nil is the empty string.
func cellText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
