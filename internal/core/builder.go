package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session owns the live editable proposal: header, ordered line-item set, and
// the per-catalog-item pending input state. The browser origin of this
// workflow was single-threaded; here concurrent HTTP handlers and the
// auto-save timer are real, so every entry point serializes on the session
// mutex.
type Session struct {
	mu      sync.Mutex
	header  ProposalHeader
	lines   []LineItem
	catalog map[int]CatalogItem
	pending map[int]LineInput
	dirty   bool
	saver   *AutoSaver
	log     *ActivityLog
	actor   string
}

// NewSession opens a fresh draft proposal. The catalog slice is snapshotted
// into a lookup map and treated as immutable for the session lifetime.
func NewSession(proposalNumber, actor string, catalog []CatalogItem, log *ActivityLog) *Session {
	byID := make(map[int]CatalogItem, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	today := time.Now().Format("2006-01-02")
	validUntil := time.Now().AddDate(0, 0, 30).Format("2006-01-02")

	return &Session{
		header: ProposalHeader{
			ProposalNumber: proposalNumber,
			IssueDate:      today,
			ValidUntil:     validUntil,
			Status:         StatusDraft,
		},
		catalog: byID,
		pending: make(map[int]LineInput),
		log:     log,
		actor:   actor,
	}
}

// SetAutoSaver attaches the debounced persistence scheduler. Wired after
// construction because the saver snapshots this session.
func (s *Session) SetAutoSaver(saver *AutoSaver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saver = saver
}

// Actor returns the user this session belongs to.
func (s *Session) Actor() string {
	return s.actor
}

// Header returns a copy of the current proposal header.
func (s *Session) Header() ProposalHeader {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header
}

// Lines returns a copy of the current line-item set in insertion order.
func (s *Session) Lines() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyLines(s.lines)
}

// Totals recomputes and returns the proposal aggregates. Recomputation is
// total and unconditional: the result always reflects the current lines.
func (s *Session) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ComputeTotals(s.lines, s.header.TaxRate)
}

// Dirty reports whether edits exist that have not been persisted (by
// auto-save or explicit save) since the last snapshot.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// CatalogItem looks up an item from the session's catalog snapshot.
func (s *Session) CatalogItem(catalogItemID int) (CatalogItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.catalog[catalogItemID]
	return item, ok
}

// PendingInput returns the transient input state for a catalog item: what the
// add form currently holds. Defaults to quantity 1, catalog price, no
// discount, taxable.
func (s *Session) PendingInput(catalogItemID int) LineInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	if in, ok := s.pending[catalogItemID]; ok {
		return in
	}
	return DefaultLineInput()
}

// StagePendingInput records in-progress form values for a catalog item
// without committing a line. A successful AddItem resets this state.
func (s *Session) StagePendingInput(catalogItemID int, in LineInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[catalogItemID] = in
}

// AddItem commits a catalog item to the proposal. If a line for the same
// catalog item already exists, the quantities merge: the existing line's
// quantity is bumped and its price, discount, and tax flag stay untouched.
// Otherwise a new line is created with the override price or the catalog
// price. On success the pending input for the item resets to defaults.
func (s *Session) AddItem(catalogItemID int, in LineInput) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return LineItem{}, err
	}
	item, ok := s.catalog[catalogItemID]
	if !ok {
		return LineItem{}, fmt.Errorf("catalog item %d: %w", catalogItemID, ErrCatalogItemNotFound)
	}
	if err := validateQuantity(in.Quantity); err != nil {
		return LineItem{}, err
	}
	if err := validateDiscount(in.DiscountPercent); err != nil {
		return LineItem{}, err
	}
	price := item.UnitPrice
	if in.UnitPrice != nil {
		if err := validatePrice(*in.UnitPrice); err != nil {
			return LineItem{}, err
		}
		price = *in.UnitPrice
	}

	// Merge-by-catalog-item: a repeated add bumps the existing quantity.
	for i := range s.lines {
		if s.lines[i].CatalogItemID == catalogItemID {
			s.lines[i].Quantity += in.Quantity
			s.lines[i].LineTotal = ComputeLineTotal(s.lines[i], s.header.TaxRate)
			s.pending[catalogItemID] = DefaultLineInput()
			s.recordLocked("Updated line item", fmt.Sprintf("%s quantity increased to %d", s.lines[i].Name, s.lines[i].Quantity))
			s.markDirtyLocked()
			return s.lines[i], nil
		}
	}

	line := LineItem{
		ID:              uuid.NewString(),
		CatalogItemID:   item.ID,
		Name:            item.Name,
		Category:        item.Category,
		Quantity:        in.Quantity,
		UnitPrice:       price,
		DiscountPercent: in.DiscountPercent,
		Taxable:         in.Taxable,
	}
	line.LineTotal = ComputeLineTotal(line, s.header.TaxRate)
	s.lines = append(s.lines, line)
	s.pending[catalogItemID] = DefaultLineInput()
	s.recordLocked("Added line item", fmt.Sprintf("%s ×%d", line.Name, line.Quantity))
	s.markDirtyLocked()
	return line, nil
}

// UpdateLine applies a partial update to a line item. The line total is
// recomputed before the mutation is considered committed.
func (s *Session) UpdateLine(lineID string, patch LinePatch) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return LineItem{}, err
	}
	idx := s.findLine(lineID)
	if idx < 0 {
		return LineItem{}, fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	if patch.Quantity != nil {
		if err := validateQuantity(*patch.Quantity); err != nil {
			return LineItem{}, err
		}
	}
	if patch.UnitPrice != nil {
		if err := validatePrice(*patch.UnitPrice); err != nil {
			return LineItem{}, err
		}
	}
	if patch.DiscountPercent != nil {
		if err := validateDiscount(*patch.DiscountPercent); err != nil {
			return LineItem{}, err
		}
	}

	line := &s.lines[idx]
	if patch.Name != nil {
		line.Name = *patch.Name
	}
	if patch.Quantity != nil {
		line.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		line.UnitPrice = *patch.UnitPrice
	}
	if patch.DiscountPercent != nil {
		line.DiscountPercent = *patch.DiscountPercent
	}
	if patch.Taxable != nil {
		line.Taxable = *patch.Taxable
	}
	line.LineTotal = ComputeLineTotal(*line, s.header.TaxRate)
	s.markDirtyLocked()
	return *line, nil
}

// RemoveLine deletes a line item. Removing an unknown id is a no-op.
func (s *Session) RemoveLine(lineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return err
	}
	idx := s.findLine(lineID)
	if idx < 0 {
		return nil
	}
	name := s.lines[idx].Name
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.recordLocked("Removed line item", name)
	s.markDirtyLocked()
	return nil
}

// DuplicateLine clones a line item under a fresh id. Unlike AddItem, a
// duplicate never merges with the original even though the catalog item
// matches — the two behaviors are intentionally distinct.
func (s *Session) DuplicateLine(lineID string) (LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return LineItem{}, err
	}
	idx := s.findLine(lineID)
	if idx < 0 {
		return LineItem{}, fmt.Errorf("line %s: %w", lineID, ErrLineNotFound)
	}

	clone := s.lines[idx]
	clone.ID = uuid.NewString()
	s.lines = append(s.lines, clone)
	s.recordLocked("Duplicated line item", clone.Name)
	s.markDirtyLocked()
	return clone, nil
}

// UpdateHeader applies a partial update to the proposal header. A tax rate
// change recomputes every line total, since taxable lines all derive from
// the proposal-level rate.
func (s *Session) UpdateHeader(patch HeaderPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEditable(); err != nil {
		return err
	}
	if patch.TaxRate != nil {
		if err := validateTaxRate(*patch.TaxRate); err != nil {
			return err
		}
	}

	if patch.ClientID != nil {
		s.header.ClientID = patch.ClientID
	}
	if patch.ClientName != nil {
		s.header.ClientName = *patch.ClientName
	}
	if patch.ClientEmail != nil {
		s.header.ClientEmail = *patch.ClientEmail
	}
	if patch.CompanyName != nil {
		s.header.CompanyName = *patch.CompanyName
	}
	if patch.Title != nil {
		s.header.Title = *patch.Title
	}
	if patch.IssueDate != nil {
		s.header.IssueDate = *patch.IssueDate
	}
	if patch.ValidUntil != nil {
		s.header.ValidUntil = *patch.ValidUntil
	}
	if patch.Terms != nil {
		s.header.Terms = *patch.Terms
	}
	if patch.Notes != nil {
		s.header.Notes = *patch.Notes
	}
	if patch.TaxRate != nil {
		s.header.TaxRate = *patch.TaxRate
		for i := range s.lines {
			s.lines[i].LineTotal = ComputeLineTotal(s.lines[i], s.header.TaxRate)
		}
	}
	s.markDirtyLocked()
	return nil
}

// Snapshot produces a point-in-time copy of the proposal with freshly derived
// aggregates, suitable for persistence. The copy is independent of the live
// session.
func (s *Session) Snapshot() Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Proposal {
	totals := ComputeTotals(s.lines, s.header.TaxRate)
	return Proposal{
		ProposalNumber: s.header.ProposalNumber,
		ClientID:       s.header.ClientID,
		ClientName:     s.header.ClientName,
		ClientEmail:    s.header.ClientEmail,
		CompanyName:    s.header.CompanyName,
		Title:          s.header.Title,
		IssueDate:      s.header.IssueDate,
		ValidUntil:     s.header.ValidUntil,
		Terms:          s.header.Terms,
		Notes:          s.header.Notes,
		TaxRate:        s.header.TaxRate,
		Status:         s.header.Status,
		Lines:          copyLines(s.lines),
		Subtotal:       totals.Subtotal,
		TotalDiscount:  totals.TotalDiscount,
		TaxAmount:      totals.TaxAmount,
		GrandTotal:     totals.GrandTotal,
		UpdatedAt:      time.Now().UTC(),
	}
}

// restore overwrites the live editing state from a saved snapshot and
// re-enters draft. Unsaved edits are discarded; callers that want to warn
// first should check Dirty() before loading.
func (s *Session) restore(p Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.header = ProposalHeader{
		ProposalNumber: p.ProposalNumber,
		ClientID:       p.ClientID,
		ClientName:     p.ClientName,
		ClientEmail:    p.ClientEmail,
		CompanyName:    p.CompanyName,
		Title:          p.Title,
		IssueDate:      p.IssueDate,
		ValidUntil:     p.ValidUntil,
		Terms:          p.Terms,
		Notes:          p.Notes,
		TaxRate:        p.TaxRate,
		Status:         StatusDraft,
	}
	s.lines = copyLines(p.Lines)
	for i := range s.lines {
		s.lines[i].LineTotal = ComputeLineTotal(s.lines[i], s.header.TaxRate)
	}
	s.pending = make(map[int]LineInput)
	s.dirty = false
}

// setStatus stamps a lifecycle status on the live header.
func (s *Session) setStatus(status ProposalStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.header.Status = status
}

// clearDirty marks the session persisted. Called after an explicit save.
func (s *Session) clearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// Close cancels any pending auto-save. Call when the session is torn down so
// no orphaned write fires afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	saver := s.saver
	s.mu.Unlock()
	if saver != nil {
		saver.Close()
	}
}

func (s *Session) checkEditable() error {
	if s.header.Status == StatusConverted {
		return ErrNotEditable
	}
	return nil
}

func (s *Session) findLine(lineID string) int {
	for i := range s.lines {
		if s.lines[i].ID == lineID {
			return i
		}
	}
	return -1
}

// markDirtyLocked flags unsaved edits and kicks the debounced auto-save.
// Caller must hold s.mu.
func (s *Session) markDirtyLocked() {
	s.dirty = true
	if s.saver != nil {
		s.saver.Trigger()
	}
}

func (s *Session) recordLocked(action, details string) {
	if s.log != nil {
		s.log.Record(action, s.actor, details)
	}
}

func copyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	copy(out, lines)
	return out
}
