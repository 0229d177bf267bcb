package testutil

import (
	"context"
	"slices"
	"sync"

	"github.com/roach88/graft/internal/ir"
)

// MemoryJournal records overrides in memory. Like the SQLite journal it
// numbers records from 1 in write order and ignores a duplicate ID.
type MemoryJournal struct {
	mu      sync.Mutex
	records []ir.OverrideRecord
	Err     error // returned by WriteOverride when set
}

// NewMemoryJournal creates an empty journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{}
}

// WriteOverride appends rec with the next sequence number.
func (j *MemoryJournal) WriteOverride(_ context.Context, rec ir.OverrideRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Err != nil {
		return j.Err
	}
	if rec.ID != "" && slices.ContainsFunc(j.records, func(r ir.OverrideRecord) bool { return r.ID == rec.ID }) {
		return nil
	}
	rec.Seq = int64(len(j.records) + 1)
	j.records = append(j.records, rec)
	return nil
}

// Records returns a copy of the recorded overrides in write order.
func (j *MemoryJournal) Records() []ir.OverrideRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return slices.Clone(j.records)
}
