package tx

import (
	"context"
	"sync"
)

type journalKey struct{}

// Journal collects undo steps for an in-process unit of work. Memory stores
// that take part in one register how to revert each write; the owner of the
// unit calls Rollback when it fails.
type Journal struct {
	mu   sync.Mutex
	undo []func()
}

// WithJournal returns ctx carrying a fresh journal.
func WithJournal(ctx context.Context) (context.Context, *Journal) {
	j := &Journal{}
	return context.WithValue(ctx, journalKey{}, j), j
}

// JournalFrom returns the journal in ctx, or nil outside a unit of work.
func JournalFrom(ctx context.Context) *Journal {
	j, _ := ctx.Value(journalKey{}).(*Journal)
	return j
}

// OnRollback registers fn with the journal in ctx. Outside a unit of work
// the write is final and fn is dropped.
func OnRollback(ctx context.Context, fn func()) {
	if j := JournalFrom(ctx); j != nil {
		j.mu.Lock()
		j.undo = append(j.undo, fn)
		j.mu.Unlock()
	}
}

// Rollback runs the registered steps newest first and empties the journal.
// Each step takes whatever lock its store needs.
func (j *Journal) Rollback() {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}
