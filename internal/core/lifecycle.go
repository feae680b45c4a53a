package core

import (
	"context"
	"fmt"
)

// ProposalStore persists and retrieves proposal snapshots.
type ProposalStore interface {
	// SaveSnapshot inserts or replaces the snapshot keyed by proposal number
	// and returns the stored copy with ID and timestamps filled in.
	SaveSnapshot(ctx context.Context, p Proposal) (*Proposal, error)
	GetSnapshot(ctx context.Context, id int) (*Proposal, error)
}

// Mailer delivers a proposal to the client. Implementations live outside
// core; the lifecycle controller only needs Send.
type Mailer interface {
	Send(ctx context.Context, to, subject, body, proposalRef string) error
}

// Lifecycle drives the proposal state machine over a live session:
// draft → saved → sent → converted. All guarded actions return real errors
// rather than relying on UI disablement.
type Lifecycle struct {
	session *Session
	store   ProposalStore
	mailer  Mailer
	log     *ActivityLog
}

func NewLifecycle(session *Session, store ProposalStore, mailer Mailer, log *ActivityLog) *Lifecycle {
	return &Lifecycle{session: session, store: store, mailer: mailer, log: log}
}

// Session exposes the underlying builder session.
func (c *Lifecycle) Session() *Session {
	return c.session
}

// Save snapshots the current state into the saved-proposals collection and
// stamps the live proposal saved. Requires at least one line item.
func (c *Lifecycle) Save(ctx context.Context) (*Proposal, error) {
	snapshot := c.session.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyProposal
	}
	// Conversion is terminal: a save must not restamp the proposal back to
	// saved and reopen it for editing.
	if snapshot.Status == StatusConverted {
		return nil, ErrInvalidTransition
	}

	snapshot.Status = StatusSaved
	saved, err := c.store.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("save proposal %s: %w", snapshot.ProposalNumber, err)
	}

	c.session.setStatus(StatusSaved)
	c.session.clearDirty()
	c.record("Saved proposal", snapshot.ProposalNumber)
	return saved, nil
}

// Send emails the proposal to the client and stamps it sent. Requires a
// non-empty line-item set and a client email. The snapshot is persisted with
// the new status so the saved collection reflects the send.
func (c *Lifecycle) Send(ctx context.Context) (*Proposal, error) {
	snapshot := c.session.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyProposal
	}
	if snapshot.ClientEmail == "" {
		return nil, ErrMissingClientEmail
	}
	if snapshot.Status == StatusConverted {
		return nil, ErrInvalidTransition
	}

	subject := fmt.Sprintf("Proposal %s", snapshot.ProposalNumber)
	if snapshot.Title != "" {
		subject += " — " + snapshot.Title
	}
	body := fmt.Sprintf(
		"Dear %s,\n\nPlease find proposal %s attached.\n\nTotal: %s\nValid until: %s\n\n%s",
		snapshot.ClientName, snapshot.ProposalNumber,
		snapshot.GrandTotal.StringFixed(2), snapshot.ValidUntil, snapshot.Terms,
	)

	if err := c.mailer.Send(ctx, snapshot.ClientEmail, subject, body, snapshot.ProposalNumber); err != nil {
		c.record("Email send failed", snapshot.ProposalNumber)
		return nil, fmt.Errorf("send proposal %s to %s: %w", snapshot.ProposalNumber, snapshot.ClientEmail, err)
	}

	snapshot.Status = StatusSent
	saved, err := c.store.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("persist sent proposal %s: %w", snapshot.ProposalNumber, err)
	}

	c.session.setStatus(StatusSent)
	c.session.clearDirty()
	c.record("Sent proposal", fmt.Sprintf("%s to %s", snapshot.ProposalNumber, snapshot.ClientEmail))
	return saved, nil
}

// Convert performs the one-way transition to an invoice. The session becomes
// read-only afterwards; there is no reverse transition.
func (c *Lifecycle) Convert(ctx context.Context) (*Proposal, error) {
	snapshot := c.session.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyProposal
	}
	if snapshot.Status == StatusConverted {
		return nil, ErrInvalidTransition
	}

	snapshot.Status = StatusConverted
	saved, err := c.store.SaveSnapshot(ctx, snapshot)
	if err != nil {
		return nil, fmt.Errorf("convert proposal %s: %w", snapshot.ProposalNumber, err)
	}

	c.session.setStatus(StatusConverted)
	c.session.clearDirty()
	c.record("Converted proposal to invoice", snapshot.ProposalNumber)
	return saved, nil
}

// Load overwrites the live editing state from a saved snapshot and re-enters
// draft. Unsaved edits in progress are discarded; callers wanting a warning
// should consult Session().Dirty() before calling.
func (c *Lifecycle) Load(ctx context.Context, proposalID int) error {
	p, err := c.store.GetSnapshot(ctx, proposalID)
	if err != nil {
		return fmt.Errorf("load proposal %d: %w", proposalID, err)
	}

	c.session.restore(*p)
	c.record("Loaded proposal", p.ProposalNumber)
	return nil
}

// Preview returns the current snapshot for rendering (e.g. a PDF preview).
// Like the other guarded actions it requires a non-empty line-item set.
func (c *Lifecycle) Preview() (*Proposal, error) {
	snapshot := c.session.Snapshot()
	if len(snapshot.Lines) == 0 {
		return nil, ErrEmptyProposal
	}
	return &snapshot, nil
}

func (c *Lifecycle) record(action, details string) {
	if c.log != nil {
		c.log.Record(action, c.session.Actor(), details)
	}
}
