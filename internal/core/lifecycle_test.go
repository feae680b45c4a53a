package core_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"proposal-studio/internal/core"
)

// memoryStore is an in-memory ProposalStore for lifecycle tests.
type memoryStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]core.Proposal
	byNum  map[string]int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: make(map[int]core.Proposal), byNum: make(map[string]int)}
}

func (m *memoryStore) SaveSnapshot(_ context.Context, p core.Proposal) (*core.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byNum[p.ProposalNumber]
	if !ok {
		m.nextID++
		id = m.nextID
		m.byNum[p.ProposalNumber] = id
		p.CreatedAt = time.Now().UTC()
	} else {
		p.CreatedAt = m.byID[id].CreatedAt
	}
	p.ID = id
	p.UpdatedAt = time.Now().UTC()

	stored := p
	stored.Lines = append([]core.LineItem(nil), p.Lines...)
	m.byID[id] = stored

	out := stored
	return &out, nil
}

func (m *memoryStore) GetSnapshot(_ context.Context, id int) (*core.Proposal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("proposal %d not found", id)
	}
	out := p
	out.Lines = append([]core.LineItem(nil), p.Lines...)
	return &out, nil
}

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	fail  bool
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp unreachable")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestLifecycle(t *testing.T) (*core.Lifecycle, *core.Session, *memoryStore, *fakeMailer, *core.ActivityLog) {
	t.Helper()
	session := core.NewSession("PRO-2026-00042", "tester", testCatalog(), nil)
	store := newMemoryStore()
	mailer := &fakeMailer{}
	log := core.NewActivityLog(0, nil)
	return core.NewLifecycle(session, store, mailer, log), session, store, mailer, log
}

func TestLifecycle_SaveRequiresLineItems(t *testing.T) {
	lc, _, _, _, _ := newTestLifecycle(t)

	if _, err := lc.Save(context.Background()); !errors.Is(err, core.ErrEmptyProposal) {
		t.Errorf("expected ErrEmptyProposal, got %v", err)
	}
}

func TestLifecycle_SaveSnapshotsAndStamps(t *testing.T) {
	lc, session, store, _, log := newTestLifecycle(t)
	ctx := context.Background()

	if _, err := session.AddItem(1, core.LineInput{Quantity: 2, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	saved, err := lc.Save(ctx)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.Status != core.StatusSaved {
		t.Errorf("snapshot status = %s, want saved", saved.Status)
	}
	if session.Header().Status != core.StatusSaved {
		t.Errorf("live status = %s, want saved", session.Header().Status)
	}
	if session.Dirty() {
		t.Errorf("session still dirty after explicit save")
	}
	if !saved.GrandTotal.Equal(dec("1000")) {
		t.Errorf("snapshot grand total = %s, want 1000", saved.GrandTotal)
	}

	// Snapshot independence: later session edits must not leak into the store.
	if _, err := session.AddItem(2, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	stored, err := store.GetSnapshot(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if len(stored.Lines) != 1 {
		t.Errorf("stored snapshot mutated by live edits: %d lines", len(stored.Lines))
	}

	entries := log.Entries()
	if len(entries) == 0 || entries[0].Action != "Saved proposal" {
		t.Errorf("save was not recorded in the activity log")
	}
}

func TestLifecycle_SendGuards(t *testing.T) {
	lc, session, _, mailer, _ := newTestLifecycle(t)
	ctx := context.Background()

	if _, err := lc.Send(ctx); !errors.Is(err, core.ErrEmptyProposal) {
		t.Errorf("empty proposal: expected ErrEmptyProposal, got %v", err)
	}

	if _, err := session.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := lc.Send(ctx); !errors.Is(err, core.ErrMissingClientEmail) {
		t.Errorf("no client email: expected ErrMissingClientEmail, got %v", err)
	}

	email := "billing@acme.test"
	name := "Acme Corp"
	if err := session.UpdateHeader(core.HeaderPatch{ClientEmail: &email, ClientName: &name}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}

	saved, err := lc.Send(ctx)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if saved.Status != core.StatusSent {
		t.Errorf("snapshot status = %s, want sent", saved.Status)
	}
	if len(mailer.sent) != 1 || mailer.sent[0] != email {
		t.Errorf("mailer sent to %v, want [%s]", mailer.sent, email)
	}
}

func TestLifecycle_SendFailureKeepsStatus(t *testing.T) {
	lc, session, _, mailer, log := newTestLifecycle(t)
	ctx := context.Background()

	mailer.fail = true
	email := "billing@acme.test"
	if _, err := session.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if err := session.UpdateHeader(core.HeaderPatch{ClientEmail: &email}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}

	if _, err := lc.Send(ctx); err == nil {
		t.Fatalf("expected send failure")
	}
	if got := session.Header().Status; got == core.StatusSent {
		t.Errorf("status must not advance to sent on mail failure")
	}
	if entries := log.Entries(); len(entries) == 0 || entries[0].Action != "Email send failed" {
		t.Errorf("mail failure was not recorded")
	}
}

func TestLifecycle_ConvertIsOneWay(t *testing.T) {
	lc, session, _, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	if _, err := lc.Convert(ctx); !errors.Is(err, core.ErrEmptyProposal) {
		t.Errorf("expected ErrEmptyProposal, got %v", err)
	}

	if _, err := session.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	saved, err := lc.Convert(ctx)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if saved.Status != core.StatusConverted {
		t.Errorf("snapshot status = %s, want converted", saved.Status)
	}

	// No reverse transition and no further edits.
	if _, err := lc.Convert(ctx); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("second convert: expected ErrInvalidTransition, got %v", err)
	}
	if _, err := session.AddItem(2, core.LineInput{Quantity: 1, Taxable: true}); !errors.Is(err, core.ErrNotEditable) {
		t.Errorf("edit after convert: expected ErrNotEditable, got %v", err)
	}
	if _, err := lc.Send(ctx); err == nil {
		t.Errorf("send after convert must fail")
	}
}

func TestLifecycle_SaveAfterConvertRejected(t *testing.T) {
	lc, session, store, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	if _, err := session.AddItem(1, core.LineInput{Quantity: 2, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	converted, err := lc.Convert(ctx)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	// A save must not restamp a converted proposal back to saved.
	if _, err := lc.Save(ctx); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("save after convert: expected ErrInvalidTransition, got %v", err)
	}
	if got := session.Header().Status; got != core.StatusConverted {
		t.Errorf("live status = %s, want converted", got)
	}
	// The session stays read-only and the stored row keeps its status.
	if _, err := session.AddItem(2, core.LineInput{Quantity: 1, Taxable: true}); !errors.Is(err, core.ErrNotEditable) {
		t.Errorf("edit after rejected save: expected ErrNotEditable, got %v", err)
	}
	stored, err := store.GetSnapshot(ctx, converted.ID)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}
	if stored.Status != core.StatusConverted {
		t.Errorf("stored status = %s, want converted", stored.Status)
	}
}

func TestLifecycle_LoadOverwritesLiveState(t *testing.T) {
	lc, session, _, _, _ := newTestLifecycle(t)
	ctx := context.Background()

	title := "Original"
	if err := session.UpdateHeader(core.HeaderPatch{Title: &title}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}
	if _, err := session.AddItem(1, core.LineInput{Quantity: 3, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	saved, err := lc.Save(ctx)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Unsaved edits in progress...
	scratch := "Scratch edits"
	if err := session.UpdateHeader(core.HeaderPatch{Title: &scratch}); err != nil {
		t.Fatalf("UpdateHeader failed: %v", err)
	}
	if _, err := session.AddItem(2, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if !session.Dirty() {
		t.Fatalf("expected dirty session before load")
	}

	// ...are discarded wholesale by load.
	if err := lc.Load(ctx, saved.ID); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	header := session.Header()
	if header.Title != "Original" {
		t.Errorf("header title = %q, want %q", header.Title, "Original")
	}
	if header.Status != core.StatusDraft {
		t.Errorf("loaded proposal must re-enter draft, got %s", header.Status)
	}
	if lines := session.Lines(); len(lines) != 1 || lines[0].Quantity != 3 {
		t.Errorf("line set not restored from snapshot")
	}
	if session.Dirty() {
		t.Errorf("session must be clean right after load")
	}
}

func TestLifecycle_PreviewRequiresLineItems(t *testing.T) {
	lc, session, _, _, _ := newTestLifecycle(t)

	if _, err := lc.Preview(); !errors.Is(err, core.ErrEmptyProposal) {
		t.Errorf("expected ErrEmptyProposal, got %v", err)
	}

	if _, err := session.AddItem(1, core.LineInput{Quantity: 1, Taxable: true}); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	p, err := lc.Preview()
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if len(p.Lines) != 1 {
		t.Errorf("preview snapshot has %d lines, want 1", len(p.Lines))
	}
}
