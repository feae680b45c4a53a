package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProposalStatus tracks where a proposal sits in its lifecycle.
// Status progresses through the state machine:
//
//	draft → saved → sent → converted
//	load(snapshot) re-enters draft; converted is terminal.
type ProposalStatus string

const (
	StatusDraft     ProposalStatus = "draft"
	StatusSaved     ProposalStatus = "saved"
	StatusSent      ProposalStatus = "sent"
	StatusConverted ProposalStatus = "converted"
)

// CatalogItem is a purchasable product or service from the catalog.
// The catalog is loaded once per session and treated as immutable.
type CatalogItem struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Client is a counterparty a proposal can be addressed to.
type Client struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	CreatedAt time.Time `json:"created_at"`
}

// LineItem is one priced entry on a proposal. ID is a fresh UUID, distinct
// from CatalogItemID so a duplicated line never collides with its original.
// LineTotal is derived; it is recomputed on every mutation and never trusted
// as independent state.
type LineItem struct {
	ID              string          `json:"id"`
	CatalogItemID   int             `json:"catalog_item_id"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Taxable         bool            `json:"taxable"`
	LineTotal       decimal.Decimal `json:"line_total"`
}

// ProposalHeader holds the editable header fields of the live proposal.
// Dates are YYYY-MM-DD strings.
type ProposalHeader struct {
	ProposalNumber string          `json:"proposal_number"`
	ClientID       *int            `json:"client_id,omitempty"`
	ClientName     string          `json:"client_name"`
	ClientEmail    string          `json:"client_email"`
	CompanyName    string          `json:"company_name"`
	Title          string          `json:"title"`
	IssueDate      string          `json:"issue_date"`
	ValidUntil     string          `json:"valid_until"`
	Terms          string          `json:"terms"`
	Notes          string          `json:"notes"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Status         ProposalStatus  `json:"status"`
}

// Proposal is a point-in-time persisted snapshot: header, lines, and the
// aggregates derived from them. It is independent of the live session after
// save.
type Proposal struct {
	ID             int             `json:"id"`
	ProposalNumber string          `json:"proposal_number"`
	ClientID       *int            `json:"client_id,omitempty"`
	ClientName     string          `json:"client_name"`
	ClientEmail    string          `json:"client_email"`
	CompanyName    string          `json:"company_name"`
	Title          string          `json:"title"`
	IssueDate      string          `json:"issue_date"`
	ValidUntil     string          `json:"valid_until"`
	Terms          string          `json:"terms"`
	Notes          string          `json:"notes"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Status         ProposalStatus  `json:"status"`
	Lines          []LineItem      `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	TotalDiscount  decimal.Decimal `json:"total_discount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ActivityEntry is one append-only audit record. Entries are displayed most
// recent first and are immutable once recorded.
type ActivityEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// LineInput carries the user-entered values when adding a catalog item to the
// proposal. A nil UnitPrice means "use the catalog price".
type LineInput struct {
	Quantity        int
	UnitPrice       *decimal.Decimal
	DiscountPercent decimal.Decimal
	Taxable         bool
}

// DefaultLineInput is the transient per-catalog-item input state restored
// after each successful add: quantity 1, no override, no discount, taxable.
func DefaultLineInput() LineInput {
	return LineInput{Quantity: 1, Taxable: true}
}

// LinePatch is a partial update for a line item. Nil fields are left
// untouched.
type LinePatch struct {
	Name            *string
	Quantity        *int
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
	Taxable         *bool
}

// HeaderPatch is a partial update for the proposal header. Nil fields are
// left untouched.
type HeaderPatch struct {
	ClientID    *int
	ClientName  *string
	ClientEmail *string
	CompanyName *string
	Title       *string
	IssueDate   *string
	ValidUntil  *string
	Terms       *string
	Notes       *string
	TaxRate     *decimal.Decimal
}
