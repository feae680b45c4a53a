package core

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SystemActor stamps entries produced by background machinery rather than a
// user, e.g. auto-save.
const SystemActor = "System"

// DefaultActivityRetention bounds the in-memory log. The browser original
// kept entries unbounded for the session; a long-lived service needs a cap.
const DefaultActivityRetention = 500

// ActivitySink receives recorded entries for durable storage. Append is
// best-effort: a failing sink never breaks the recording caller.
type ActivitySink interface {
	AppendActivity(ctx context.Context, entry ActivityEntry) error
}

// ActivityLog is an append-only audit record, most recent first. Entries are
// immutable once recorded; no deduplication.
type ActivityLog struct {
	mu      sync.Mutex
	entries []ActivityEntry
	limit   int
	sink    ActivitySink
	now     func() time.Time
}

// NewActivityLog builds a log bounded to limit entries (DefaultActivityRetention
// when limit <= 0). sink may be nil for a memory-only log.
func NewActivityLog(limit int, sink ActivitySink) *ActivityLog {
	if limit <= 0 {
		limit = DefaultActivityRetention
	}
	return &ActivityLog{
		limit: limit,
		sink:  sink,
		now:   time.Now,
	}
}

// Record appends an entry at the head with the wall-clock UTC timestamp.
// Never returns an error: audit recording must not fail a business action.
func (l *ActivityLog) Record(action, actor, details string) {
	entry := ActivityEntry{
		ID:      uuid.NewString(),
		Action:  action,
		Actor:   actor,
		Details: details,
	}

	l.mu.Lock()
	entry.Timestamp = l.now().UTC()
	l.entries = append([]ActivityEntry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
	sink := l.sink
	l.mu.Unlock()

	if sink != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.AppendActivity(ctx, entry); err != nil {
			log.Printf("activity sink: %v", err)
		}
	}
}

// Entries returns a copy of the log, most recent first.
func (l *ActivityLog) Entries() []ActivityEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ActivityEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of retained entries.
func (l *ActivityLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
