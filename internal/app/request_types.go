package app

import "github.com/shopspring/decimal"

// CreateCatalogItemRequest is the input for adding a catalog item.
type CreateCatalogItemRequest struct {
	Name        string
	UnitPrice   decimal.Decimal
	Category    string
	Description string
}

// ClientRequest is the input for creating or overwriting a client record.
type ClientRequest struct {
	Name    string
	Email   string
	Phone   string
	Company string
}

// AddItemRequest is the input for committing (or staging) a catalog item.
// Zero Quantity means "use the default of 1"; nil UnitPrice means "use the
// catalog price".
type AddItemRequest struct {
	CatalogItemID   int
	Quantity        int
	UnitPrice       *decimal.Decimal
	DiscountPercent decimal.Decimal
	Taxable         *bool // nil means taxable
}

// UpdateItemRequest is a partial line-item update; nil fields stay unchanged.
type UpdateItemRequest struct {
	Name            *string
	Quantity        *int
	UnitPrice       *decimal.Decimal
	DiscountPercent *decimal.Decimal
	Taxable         *bool
}

// UpdateHeaderRequest is a partial proposal-header update; nil fields stay
// unchanged.
type UpdateHeaderRequest struct {
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
