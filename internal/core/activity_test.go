package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"proposal-studio/internal/core"
)

func TestActivityLog_MostRecentFirst(t *testing.T) {
	log := core.NewActivityLog(0, nil)

	log.Record("Created proposal", "alice", "PRO-2026-00001")
	log.Record("Added line item", "alice", "Widget A ×2")
	log.Record("Auto-saved", core.SystemActor, "")

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Action != "Auto-saved" || entries[2].Action != "Created proposal" {
		t.Errorf("entries not in reverse chronological order: %q first, %q last",
			entries[0].Action, entries[2].Action)
	}
	for i, e := range entries {
		if e.ID == "" {
			t.Errorf("entry %d has no id", i)
		}
		if e.Timestamp.Location() != time.UTC {
			t.Errorf("entry %d timestamp not UTC", i)
		}
	}
	// Timestamps are monotonic wall-clock: newer entries never predate older ones.
	for i := 0; i < len(entries)-1; i++ {
		if entries[i].Timestamp.Before(entries[i+1].Timestamp) {
			t.Errorf("entry %d predates entry %d", i, i+1)
		}
	}
}

func TestActivityLog_RetentionBound(t *testing.T) {
	log := core.NewActivityLog(3, nil)

	for i := 1; i <= 5; i++ {
		log.Record(fmt.Sprintf("action-%d", i), "bob", "")
	}

	entries := log.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected retention bound of 3, got %d entries", len(entries))
	}
	// Oldest entries fall off the tail; the newest survive.
	if entries[0].Action != "action-5" || entries[2].Action != "action-3" {
		t.Errorf("wrong entries retained: %q..%q", entries[0].Action, entries[2].Action)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	entries []core.ActivityEntry
	fail    bool
}

func (r *recordingSink) AppendActivity(_ context.Context, e core.ActivityEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return fmt.Errorf("sink down")
	}
	r.entries = append(r.entries, e)
	return nil
}

func TestActivityLog_SinkReceivesEntries(t *testing.T) {
	sink := &recordingSink{}
	log := core.NewActivityLog(0, sink)

	log.Record("Saved proposal", "carol", "PRO-2026-00002")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.entries) != 1 {
		t.Fatalf("sink received %d entries, want 1", len(sink.entries))
	}
	if sink.entries[0].Actor != "carol" {
		t.Errorf("sink entry actor = %q", sink.entries[0].Actor)
	}
}

func TestActivityLog_SinkFailureDoesNotBreakRecording(t *testing.T) {
	sink := &recordingSink{fail: true}
	log := core.NewActivityLog(0, sink)

	// Record must not panic or drop the in-memory entry when the sink fails.
	log.Record("Sent proposal", "dave", "")
	if log.Len() != 1 {
		t.Errorf("in-memory entry lost on sink failure")
	}
}
