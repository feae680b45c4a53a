package core

import (
	"context"
	"sync"
	"time"
)

// SaveState is the observable persistence status of the live proposal.
type SaveState string

const (
	SaveIdle   SaveState = "idle"
	SaveSaving SaveState = "saving"
	SaveSaved  SaveState = "saved"
	SaveError  SaveState = "error"
)

// DefaultQuietPeriod is how long the session must be quiet before a pending
// auto-save fires.
const DefaultQuietPeriod = 2 * time.Second

// PersistFunc writes one proposal snapshot to durable storage.
type PersistFunc func(ctx context.Context, p Proposal) error

// AutoSaverConfig tunes the scheduler. Zero values fall back to defaults.
type AutoSaverConfig struct {
	QuietPeriod  time.Duration // debounce window, default 2s
	WriteTimeout time.Duration // per persistence call, default 10s
	RetryDelay   time.Duration // backoff before the single retry, default 1s

	// OnSaved and OnError observe flush outcomes. Called without internal
	// locks held; safe to re-enter the session.
	OnSaved func(p Proposal)
	OnError func(err error)
}

// AutoSaver is a single-slot debounced persistence scheduler. Each Trigger
// cancels any pending timer and re-arms it, so a burst of edits inside the
// quiet period collapses into exactly one write carrying the state as of the
// last edit. At most one timer is ever pending.
type AutoSaver struct {
	mu        sync.Mutex
	timer     *time.Timer
	state     SaveState
	gen       uint64
	lastSaved *Proposal
	closed    bool

	cfg      AutoSaverConfig
	snapshot func() Proposal
	persist  PersistFunc
}

// NewAutoSaver builds a scheduler over a snapshot source and a persistence
// sink. snapshot is called at fire time, never at trigger time, so the write
// always carries the latest state.
func NewAutoSaver(snapshot func() Proposal, persist PersistFunc, cfg AutoSaverConfig) *AutoSaver {
	if cfg.QuietPeriod <= 0 {
		cfg.QuietPeriod = DefaultQuietPeriod
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &AutoSaver{
		state:    SaveIdle,
		cfg:      cfg,
		snapshot: snapshot,
		persist:  persist,
	}
}

// Trigger notes an edit: status flips to saving immediately, any pending
// timer is cancelled, and a new one is armed for the quiet period.
func (a *AutoSaver) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.state = SaveSaving
	a.gen++
	gen := a.gen

	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.cfg.QuietPeriod, func() { a.flush(gen) })
}

// State returns the current persistence status.
func (a *AutoSaver) State() SaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastSaved returns the most recent successfully persisted snapshot, or nil.
// Retained even when a later write fails, so callers always have a
// last-known-good copy.
func (a *AutoSaver) LastSaved() *Proposal {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastSaved == nil {
		return nil
	}
	p := *a.lastSaved
	return &p
}

// Close cancels any pending save. No write fires after Close returns; a
// flush already in flight may still complete its store call but will not
// update state.
func (a *AutoSaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// flush runs on the timer goroutine. The snapshot and store call happen
// outside the scheduler lock; state only updates if no newer trigger
// superseded this flush.
func (a *AutoSaver) flush(gen uint64) {
	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	p := a.snapshot()
	err := a.persistOnce(p)
	if err != nil {
		// One retry with backoff. The browser original dropped failed
		// writes silently; a headless core should not.
		time.Sleep(a.cfg.RetryDelay)
		err = a.persistOnce(p)
	}

	a.mu.Lock()
	if a.closed || gen != a.gen {
		a.mu.Unlock()
		return
	}
	if err != nil {
		a.state = SaveError
	} else {
		a.state = SaveSaved
		saved := p
		a.lastSaved = &saved
	}
	a.mu.Unlock()

	if err != nil {
		if a.cfg.OnError != nil {
			a.cfg.OnError(err)
		}
		return
	}
	if a.cfg.OnSaved != nil {
		a.cfg.OnSaved(p)
	}
}

func (a *AutoSaver) persistOnce(p Proposal) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.WriteTimeout)
	defer cancel()
	return a.persist(ctx, p)
}
