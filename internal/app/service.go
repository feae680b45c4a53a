package app

import (
	"context"

	"proposal-studio/internal/ai"
	"proposal-studio/internal/core"
)

// ApplicationService is the single interface all adapters (Web, CLI) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// AuthenticateUser verifies credentials and returns a session on success.
	AuthenticateUser(ctx context.Context, username, password string) (*UserSession, error)

	// GetUser returns user profile by ID.
	GetUser(ctx context.Context, userID int) (*UserResult, error)

	// GetCatalog returns all active catalog items.
	GetCatalog(ctx context.Context) (*CatalogResult, error)

	// CreateCatalogItem adds a new item to the product/service catalog.
	CreateCatalogItem(ctx context.Context, req CreateCatalogItemRequest) (*core.CatalogItem, error)

	// ListClients returns all clients.
	ListClients(ctx context.Context) (*ClientListResult, error)

	// GetClient returns a single client by ID.
	GetClient(ctx context.Context, id int) (*core.Client, error)

	// CreateClient creates a new client record.
	CreateClient(ctx context.Context, req ClientRequest) (*core.Client, error)

	// UpdateClient overwrites an existing client record.
	UpdateClient(ctx context.Context, id int, req ClientRequest) (*core.Client, error)

	// OpenWorkspace starts a fresh proposal editing session for the actor,
	// reserving the next proposal number and arming auto-save. Returns the
	// workspace id the other editing operations key on.
	OpenWorkspace(ctx context.Context, actor string) (*WorkspaceResult, error)

	// GetWorkspace returns the current state of an editing session.
	GetWorkspace(ctx context.Context, workspaceID string) (*WorkspaceResult, error)

	// CloseWorkspace tears a session down, cancelling any pending auto-save.
	// Closing an unknown id is a no-op.
	CloseWorkspace(ctx context.Context, workspaceID string)

	// AddItem commits a catalog item to the workspace proposal. Repeated adds
	// of the same catalog item merge by bumping the existing line's quantity.
	AddItem(ctx context.Context, workspaceID string, req AddItemRequest) (*WorkspaceResult, error)

	// UpdateItem applies a partial update to a line item and recomputes totals.
	UpdateItem(ctx context.Context, workspaceID, lineID string, req UpdateItemRequest) (*WorkspaceResult, error)

	// RemoveItem deletes a line item. Removing an unknown line id is a no-op.
	RemoveItem(ctx context.Context, workspaceID, lineID string) (*WorkspaceResult, error)

	// DuplicateItem clones a line under a fresh id without merging.
	DuplicateItem(ctx context.Context, workspaceID, lineID string) (*WorkspaceResult, error)

	// StageItemInput records in-progress add-form values for a catalog item
	// without committing a line.
	StageItemInput(ctx context.Context, workspaceID string, catalogItemID int, req AddItemRequest) error

	// UpdateHeader applies a partial update to the proposal header. Selecting
	// a known client id also fills the client name and email.
	UpdateHeader(ctx context.Context, workspaceID string, req UpdateHeaderRequest) (*WorkspaceResult, error)

	// SaveProposal explicitly snapshots the workspace into the saved
	// collection. Requires at least one line item.
	SaveProposal(ctx context.Context, workspaceID string) (*core.Proposal, error)

	// SendProposal emails the proposal to the client and stamps it sent.
	SendProposal(ctx context.Context, workspaceID string) (*core.Proposal, error)

	// ConvertProposal performs the one-way conversion to an invoice; the
	// workspace becomes read-only afterwards.
	ConvertProposal(ctx context.Context, workspaceID string) (*core.Proposal, error)

	// PreviewProposal returns the current snapshot for rendering.
	PreviewProposal(ctx context.Context, workspaceID string) (*core.Proposal, error)

	// LoadProposal replaces the workspace's live state with a saved snapshot,
	// re-entering draft. Unsaved edits are discarded.
	LoadProposal(ctx context.Context, workspaceID string, proposalID int) (*WorkspaceResult, error)

	// ListProposals returns saved proposals, optionally filtered by status.
	ListProposals(ctx context.Context, status *string) (*ProposalListResult, error)

	// GetProposal returns a saved proposal snapshot by ID.
	GetProposal(ctx context.Context, id int) (*core.Proposal, error)

	// RecentActivity returns the newest audit entries, most recent first.
	RecentActivity(ctx context.Context, limit int) (*ActivityResult, error)

	// SuggestContent asks the AI assistant to draft a title, cover note, and
	// terms for the workspace proposal. The suggestion is returned, never
	// applied automatically.
	SuggestContent(ctx context.Context, workspaceID, brief string) (*ai.ContentSuggestion, error)
}
