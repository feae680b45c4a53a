package app

import (
	"proposal-studio/internal/core"
)

// UserSession is returned by AuthenticateUser on success.
type UserSession struct {
	UserID   int
	Username string
	Role     string
}

// UserResult is returned by GetUser.
type UserResult struct {
	ID       int
	Username string
	Email    string
	Role     string
}

// CatalogResult is returned by GetCatalog.
type CatalogResult struct {
	Items []core.CatalogItem
}

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// WorkspaceResult is the observable state of an editing session: the live
// header and lines, freshly derived totals, and the auto-save status.
type WorkspaceResult struct {
	WorkspaceID string
	Header      core.ProposalHeader
	Lines       []core.LineItem
	Totals      core.Totals
	SaveState   core.SaveState
	Dirty       bool
}

// ProposalListResult is returned by ListProposals.
type ProposalListResult struct {
	Proposals []core.Proposal
}

// ActivityResult is returned by RecentActivity.
type ActivityResult struct {
	Entries []core.ActivityEntry
}
