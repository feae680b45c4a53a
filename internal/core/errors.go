package core

import "errors"

// Validation and guard errors returned by the builder session and lifecycle
// controller. Callers match these with errors.Is; the web adapter maps them
// to HTTP status codes.
var (
	// ErrInvalidQuantity is returned when a line quantity is zero or negative.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")

	// ErrInvalidDiscount is returned when a discount percent falls outside [0, 100].
	ErrInvalidDiscount = errors.New("discount percent must be between 0 and 100")

	// ErrInvalidPrice is returned when a unit price is negative.
	ErrInvalidPrice = errors.New("unit price cannot be negative")

	// ErrInvalidTaxRate is returned when the proposal tax rate falls outside [0, 100].
	ErrInvalidTaxRate = errors.New("tax rate must be between 0 and 100")

	// ErrLineNotFound is returned when an update or duplicate references a
	// line item id that is not in the proposal.
	ErrLineNotFound = errors.New("line item not found")

	// ErrCatalogItemNotFound is returned when an add references a catalog
	// item id missing from the session's catalog snapshot.
	ErrCatalogItemNotFound = errors.New("catalog item not found")

	// ErrEmptyProposal guards save, send, convert, and preview: these actions
	// require at least one line item.
	ErrEmptyProposal = errors.New("proposal has no line items")

	// ErrMissingClientEmail guards send: the proposal must name a client email.
	ErrMissingClientEmail = errors.New("proposal has no client email")

	// ErrNotEditable is returned when a mutation is attempted on a converted
	// proposal. Conversion is one-way; the session becomes read-only.
	ErrNotEditable = errors.New("proposal is converted and no longer editable")

	// ErrInvalidTransition is returned for lifecycle actions not permitted
	// from the current status.
	ErrInvalidTransition = errors.New("invalid proposal status transition")
)
