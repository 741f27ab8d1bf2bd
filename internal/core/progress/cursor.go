// Package progress tracks which company of the active batch a user is looking at.
package progress

import "github.com/markdave123-py/Coverly/internal/core/apperr"

// Cursor points into the active batch. The zero value is the empty cursor.
//
// Invariant: 0 <= Index < Count whenever Count > 0, and Index == 0 when Count == 0.
type Cursor struct {
	BatchID string
	Index   int
	Count   int
}

// Empty reports whether no batch (or an empty one) is active.
func (c Cursor) Empty() bool { return c.Count == 0 }

// Next advances by one. It reports false and leaves the cursor alone at the last position.
func (c *Cursor) Next() bool {
	if c.Empty() || c.Index >= c.Count-1 {
		return false
	}
	c.Index++
	return true
}

// Previous steps back by one. It reports false at position 0.
func (c *Cursor) Previous() bool {
	if c.Empty() || c.Index <= 0 {
		return false
	}
	c.Index--
	return true
}

// Goto jumps to i. Out-of-range positions are rejected and leave the cursor unchanged.
func (c *Cursor) Goto(i int) error {
	if i < 0 || i >= c.Count {
		return apperr.OutOfRange(i, c.Count)
	}
	c.Index = i
	return nil
}

// Reset points the cursor at the first record of a freshly ingested batch.
func (c *Cursor) Reset(batchID string, count int) {
	if count < 0 {
		count = 0
	}
	c.BatchID = batchID
	c.Count = count
	c.Index = 0
}

// AtEnd reports whether the cursor sits on the last record.
func (c Cursor) AtEnd() bool { return !c.Empty() && c.Index == c.Count-1 }
