// Package audit keeps the bounded, append-only operation history.
//
// Log is a fixed-capacity ring: appends are O(1), the oldest entry is evicted
// once the capacity is reached, and snapshots are returned most recent first.
// An optional Journal receives every entry for durable storage and hands out
// the entry ids, so several processes writing one journal never reuse an id.
// Journal failures are logged and never reach the caller.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/subguard/internal/client/models"
	"github.com/dmitrijs2005/subguard/internal/logging"
)

// Journal persists audit entries outside the process.
type Journal interface {
	// NextID allocates an id no other writer of the journal will get.
	NextID(ctx context.Context) (uint64, error)
	Append(ctx context.Context, e models.AuditEntry) error
	// Recent returns up to n entries, most recent first.
	Recent(ctx context.Context, n int) ([]models.AuditEntry, error)
}

type Log struct {
	mu      sync.RWMutex
	buf     []models.AuditEntry
	next    int // slot for the next append
	size    int
	lastID  uint64 // highest id seen, journal-allocated or local
	now     func() time.Time
	journal Journal
	log     logging.Logger
}

type Option func(*Log)

// WithJournal mirrors every appended entry into j.
func WithJournal(j Journal) Option {
	return func(l *Log) { l.journal = j }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Log) { l.now = now }
}

func WithLogger(log logging.Logger) Option {
	return func(l *Log) { l.log = log }
}

// NewLog creates a Log holding at most capacity entries.
func NewLog(capacity int, opts ...Option) *Log {
	if capacity < 1 {
		capacity = 1
	}
	l := &Log{
		buf: make([]models.AuditEntry, capacity),
		now: time.Now,
		log: logging.Discard(),
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Append records an operation and returns the stored entry. It never fails.
func (l *Log) Append(ctx context.Context, category, description string, outcome models.Outcome) models.AuditEntry {
	var (
		id  uint64
		err error
	)
	if l.journal != nil {
		if id, err = l.journal.NextID(ctx); err != nil {
			l.log.Warn(ctx, "audit journal id allocation failed", "error", err)
		}
	}

	l.mu.Lock()
	at := l.now()
	switch {
	case l.journal == nil:
		id = l.lastID + 1
	case err != nil:
		// time-derived so it cannot meet the journal's small sequence
		id = max(uint64(at.UnixNano()), l.lastID+1)
	}
	l.lastID = max(l.lastID, id)
	e := models.AuditEntry{
		ID:          id,
		Category:    category,
		Description: description,
		Timestamp:   at,
		Outcome:     outcome,
	}
	l.push(e)
	l.mu.Unlock()

	if l.journal != nil {
		if err := l.journal.Append(ctx, e); err != nil {
			l.log.Warn(ctx, "audit journal append failed", "id", e.ID, "error", err)
		}
	}
	return e
}

func (l *Log) push(e models.AuditEntry) {
	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.size < len(l.buf) {
		l.size++
	}
}

// Restore seeds the log from the journal, e.g. at startup. Entries already
// in memory are kept; restored ones are older and go behind them. Entries
// the journal holds that are already in memory are not added twice.
func (l *Log) Restore(ctx context.Context) (int, error) {
	if l.journal == nil {
		return 0, nil
	}
	entries, err := l.journal.Recent(ctx, len(l.buf))
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current := l.snapshotLocked()
	seen := make(map[uint64]struct{}, len(current)+len(entries))
	merged := make([]models.AuditEntry, 0, len(l.buf))
	for _, e := range current {
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}
	for _, e := range entries {
		if len(merged) == len(l.buf) {
			break
		}
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		merged = append(merged, e)
	}

	l.next, l.size = 0, 0
	for i := len(merged) - 1; i >= 0; i-- {
		l.push(merged[i])
		if merged[i].ID > l.lastID {
			l.lastID = merged[i].ID
		}
	}
	return len(merged) - len(current), nil
}

// Entries returns a copy of the log, most recent first.
func (l *Log) Entries() []models.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshotLocked()
}

func (l *Log) snapshotLocked() []models.AuditEntry {
	out := make([]models.AuditEntry, 0, l.size)
	for i := 1; i <= l.size; i++ {
		idx := (l.next - i + len(l.buf)) % len(l.buf)
		out = append(out, l.buf[idx])
	}
	return out
}

// Len returns the number of retained entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}
