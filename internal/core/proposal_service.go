package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProposalService is the persistence collaborator for proposal snapshots.
// It also owns proposal number generation, so numbers stay unique across
// concurrent sessions.
type ProposalService interface {
	ProposalStore

	GetByNumber(ctx context.Context, proposalNumber string) (*Proposal, error)
	ListProposals(ctx context.Context, status *string) ([]Proposal, error)

	// NextProposalNumber reserves the next gapless per-year number,
	// formatted PRO-YYYY-NNNNN.
	NextProposalNumber(ctx context.Context) (string, error)
}

type proposalService struct {
	pool *pgxpool.Pool
}

func NewProposalService(pool *pgxpool.Pool) ProposalService {
	return &proposalService{pool: pool}
}

// NextProposalNumber generates a concurrency-safe gapless sequence number,
// scoped per calendar year.
func (s *proposalService) NextProposalNumber(ctx context.Context) (string, error) {
	year := time.Now().Year()

	var lastNumber int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO proposal_sequences (year, last_number)
		VALUES ($1, 1)
		ON CONFLICT (year)
		DO UPDATE SET last_number = proposal_sequences.last_number + 1
		RETURNING last_number
	`, year).Scan(&lastNumber)
	if err != nil {
		return "", fmt.Errorf("failed to generate proposal number: %w", err)
	}

	return fmt.Sprintf("PRO-%d-%05d", year, lastNumber), nil
}

// SaveSnapshot inserts or replaces the snapshot keyed by proposal number.
// Header and lines are written in one transaction; lines are replaced
// wholesale since the snapshot is a point-in-time copy, not a diff.
func (s *proposalService) SaveSnapshot(ctx context.Context, p Proposal) (*Proposal, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var proposalID int
	err = tx.QueryRow(ctx, `
		INSERT INTO proposals (
			proposal_number, client_id, client_name, client_email, company_name,
			title, issue_date, valid_until, terms, notes, tax_rate, status,
			subtotal, total_discount, tax_amount, grand_total, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())
		ON CONFLICT (proposal_number) DO UPDATE SET
			client_id      = EXCLUDED.client_id,
			client_name    = EXCLUDED.client_name,
			client_email   = EXCLUDED.client_email,
			company_name   = EXCLUDED.company_name,
			title          = EXCLUDED.title,
			issue_date     = EXCLUDED.issue_date,
			valid_until    = EXCLUDED.valid_until,
			terms          = EXCLUDED.terms,
			notes          = EXCLUDED.notes,
			tax_rate       = EXCLUDED.tax_rate,
			status         = EXCLUDED.status,
			subtotal       = EXCLUDED.subtotal,
			total_discount = EXCLUDED.total_discount,
			tax_amount     = EXCLUDED.tax_amount,
			grand_total    = EXCLUDED.grand_total,
			updated_at     = NOW()
		RETURNING id
	`, p.ProposalNumber, p.ClientID, p.ClientName, p.ClientEmail, p.CompanyName,
		p.Title, nullIfEmpty(p.IssueDate), nullIfEmpty(p.ValidUntil), p.Terms, p.Notes,
		p.TaxRate, string(p.Status),
		p.Subtotal, p.TotalDiscount, p.TaxAmount, p.GrandTotal,
	).Scan(&proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert proposal %s: %w", p.ProposalNumber, err)
	}

	if _, err = tx.Exec(ctx, "DELETE FROM proposal_lines WHERE proposal_id = $1", proposalID); err != nil {
		return nil, fmt.Errorf("failed to clear proposal lines: %w", err)
	}

	for i, line := range p.Lines {
		_, err = tx.Exec(ctx, `
			INSERT INTO proposal_lines (
				id, proposal_id, position, catalog_item_id, name, category,
				quantity, unit_price, discount_percent, taxable, line_total
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, line.ID, proposalID, i+1, line.CatalogItemID, line.Name, line.Category,
			line.Quantity, line.UnitPrice, line.DiscountPercent, line.Taxable, line.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to insert proposal line %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit proposal snapshot: %w", err)
	}

	return s.GetSnapshot(ctx, proposalID)
}

func (s *proposalService) GetSnapshot(ctx context.Context, id int) (*Proposal, error) {
	p, err := s.scanProposal(ctx, "WHERE p.id = $1", id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *proposalService) GetByNumber(ctx context.Context, proposalNumber string) (*Proposal, error) {
	return s.scanProposal(ctx, "WHERE p.proposal_number = $1", proposalNumber)
}

func (s *proposalService) scanProposal(ctx context.Context, where string, arg any) (*Proposal, error) {
	var p Proposal
	err := s.pool.QueryRow(ctx, `
		SELECT p.id, p.proposal_number, p.client_id, p.client_name, p.client_email,
		       p.company_name, p.title,
		       COALESCE(p.issue_date::text, ''), COALESCE(p.valid_until::text, ''),
		       p.terms, p.notes, p.tax_rate, p.status,
		       p.subtotal, p.total_discount, p.tax_amount, p.grand_total,
		       p.created_at, p.updated_at
		FROM proposals p
		`+where, arg,
	).Scan(
		&p.ID, &p.ProposalNumber, &p.ClientID, &p.ClientName, &p.ClientEmail,
		&p.CompanyName, &p.Title, &p.IssueDate, &p.ValidUntil,
		&p.Terms, &p.Notes, &p.TaxRate, &p.Status,
		&p.Subtotal, &p.TotalDiscount, &p.TaxAmount, &p.GrandTotal,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("proposal %v not found", arg)
		}
		return nil, fmt.Errorf("failed to fetch proposal %v: %w", arg, err)
	}

	lines, err := s.fetchLines(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Lines = lines
	return &p, nil
}

func (s *proposalService) fetchLines(ctx context.Context, proposalID int) ([]LineItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, catalog_item_id, name, category, quantity,
		       unit_price, discount_percent, taxable, line_total
		FROM proposal_lines
		WHERE proposal_id = $1
		ORDER BY position
	`, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposal lines: %w", err)
	}
	defer rows.Close()

	var lines []LineItem
	for rows.Next() {
		var l LineItem
		if err := rows.Scan(
			&l.ID, &l.CatalogItemID, &l.Name, &l.Category, &l.Quantity,
			&l.UnitPrice, &l.DiscountPercent, &l.Taxable, &l.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan proposal line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, nil
}

func (s *proposalService) ListProposals(ctx context.Context, status *string) ([]Proposal, error) {
	query := `
		SELECT p.id, p.proposal_number, p.client_id, p.client_name, p.client_email,
		       p.company_name, p.title,
		       COALESCE(p.issue_date::text, ''), COALESCE(p.valid_until::text, ''),
		       p.terms, p.notes, p.tax_rate, p.status,
		       p.subtotal, p.total_discount, p.tax_amount, p.grand_total,
		       p.created_at, p.updated_at
		FROM proposals p
	`
	args := []any{}
	if status != nil {
		query += " WHERE p.status = $1"
		args = append(args, *status)
	}
	query += " ORDER BY p.updated_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []Proposal
	for rows.Next() {
		var p Proposal
		if err := rows.Scan(
			&p.ID, &p.ProposalNumber, &p.ClientID, &p.ClientName, &p.ClientEmail,
			&p.CompanyName, &p.Title, &p.IssueDate, &p.ValidUntil,
			&p.Terms, &p.Notes, &p.TaxRate, &p.Status,
			&p.Subtotal, &p.TotalDiscount, &p.TaxAmount, &p.GrandTotal,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	return proposals, nil
}

// nullIfEmpty maps empty date strings onto SQL NULL for date columns.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
