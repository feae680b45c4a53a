package core_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"proposal-studio/internal/core"
)

// capturingStore records every persisted snapshot and can be told to fail
// the first N calls.
type capturingStore struct {
	mu        sync.Mutex
	snapshots []core.Proposal
	failFirst int
	calls     int
}

func (c *capturingStore) persist(_ context.Context, p core.Proposal) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failFirst {
		return fmt.Errorf("store unavailable")
	}
	c.snapshots = append(c.snapshots, p)
	return nil
}

func (c *capturingStore) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *capturingStore) saved() []core.Proposal {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Proposal, len(c.snapshots))
	copy(out, c.snapshots)
	return out
}

func newSessionWithSaver(t *testing.T, store *capturingStore, cfg core.AutoSaverConfig) (*core.Session, *core.AutoSaver) {
	t.Helper()
	s := core.NewSession("PRO-2026-00007", "tester", testCatalog(), nil)
	saver := core.NewAutoSaver(s.Snapshot, store.persist, cfg)
	s.SetAutoSaver(saver)
	t.Cleanup(saver.Close)
	return s, saver
}

func TestAutoSaver_DebounceCollapsesEdits(t *testing.T) {
	store := &capturingStore{}
	s, saver := newSessionWithSaver(t, store, core.AutoSaverConfig{QuietPeriod: 40 * time.Millisecond})

	// A burst of edits inside the quiet period must collapse into exactly
	// one write carrying the state as of the last edit.
	line, err := s.AddItem(1, core.LineInput{Quantity: 1, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	for qty := 2; qty <= 5; qty++ {
		q := qty
		if _, err := s.UpdateLine(line.ID, core.LinePatch{Quantity: &q}); err != nil {
			t.Fatalf("UpdateLine failed: %v", err)
		}
	}

	if got := saver.State(); got != core.SaveSaving {
		t.Errorf("state while pending = %s, want saving", got)
	}

	waitFor(t, func() bool { return saver.State() == core.SaveSaved }, time.Second)

	saved := store.saved()
	if len(saved) != 1 {
		t.Fatalf("expected exactly one persistence write, got %d", len(saved))
	}
	if saved[0].Lines[0].Quantity != 5 {
		t.Errorf("persisted quantity = %d, want last-edit value 5", saved[0].Lines[0].Quantity)
	}
	if last := saver.LastSaved(); last == nil || last.Lines[0].Quantity != 5 {
		t.Errorf("LastSaved does not hold the persisted snapshot")
	}
}

func TestAutoSaver_CloseCancelsPendingWrite(t *testing.T) {
	store := &capturingStore{}
	s, saver := newSessionWithSaver(t, store, core.AutoSaverConfig{QuietPeriod: 50 * time.Millisecond})

	if _, err := s.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	saver.Close()

	time.Sleep(150 * time.Millisecond)
	if got := store.callCount(); got != 0 {
		t.Errorf("expected no write after Close, got %d", got)
	}
}

func TestAutoSaver_RetriesOnceAfterFailure(t *testing.T) {
	store := &capturingStore{failFirst: 1}
	s, saver := newSessionWithSaver(t, store, core.AutoSaverConfig{
		QuietPeriod: 20 * time.Millisecond,
		RetryDelay:  10 * time.Millisecond,
	})

	if _, err := s.AddItem(1, core.LineInput{Quantity: 3, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	waitFor(t, func() bool { return saver.State() == core.SaveSaved }, time.Second)

	if got := store.callCount(); got != 2 {
		t.Errorf("expected 2 store calls (initial + retry), got %d", got)
	}
	if len(store.saved()) != 1 {
		t.Errorf("expected one successful snapshot, got %d", len(store.saved()))
	}
}

func TestAutoSaver_ErrorStateKeepsLastKnownGood(t *testing.T) {
	store := &capturingStore{}
	var sawErr error
	var mu sync.Mutex
	s, saver := newSessionWithSaver(t, store, core.AutoSaverConfig{
		QuietPeriod: 20 * time.Millisecond,
		RetryDelay:  5 * time.Millisecond,
		OnError: func(err error) {
			mu.Lock()
			sawErr = err
			mu.Unlock()
		},
	})

	// First edit saves fine.
	line, err := s.AddItem(1, core.LineInput{Quantity: 1, Taxable: true})
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	waitFor(t, func() bool { return saver.State() == core.SaveSaved }, time.Second)

	// Then the store starts failing permanently.
	store.mu.Lock()
	store.failFirst = 1 << 30
	store.mu.Unlock()

	qty := 9
	if _, err := s.UpdateLine(line.ID, core.LinePatch{Quantity: &qty}); err != nil {
		t.Fatalf("UpdateLine failed: %v", err)
	}
	waitFor(t, func() bool { return saver.State() == core.SaveError }, time.Second)

	mu.Lock()
	gotErr := sawErr
	mu.Unlock()
	if gotErr == nil {
		t.Errorf("OnError was not invoked")
	}
	// The last-known-good snapshot survives the failed write.
	if last := saver.LastSaved(); last == nil || last.Lines[0].Quantity != 1 {
		t.Errorf("LastSaved must retain the pre-failure snapshot")
	}
}

func TestAutoSaver_OnSavedCallback(t *testing.T) {
	store := &capturingStore{}
	done := make(chan core.Proposal, 1)
	s := core.NewSession("PRO-2026-00008", "tester", testCatalog(), nil)
	saver := core.NewAutoSaver(s.Snapshot, store.persist, core.AutoSaverConfig{
		QuietPeriod: 10 * time.Millisecond,
		OnSaved:     func(p core.Proposal) { done <- p },
	})
	s.SetAutoSaver(saver)
	defer saver.Close()

	if _, err := s.AddItem(2, core.LineInput{Quantity: 2, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	select {
	case p := <-done:
		if len(p.Lines) != 1 {
			t.Errorf("OnSaved snapshot has %d lines, want 1", len(p.Lines))
		}
	case <-time.After(time.Second):
		t.Fatalf("OnSaved was not invoked")
	}
}

func waitFor(t *testing.T, cond func() bool, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", timeout)
}
