package core

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService reads the product catalog. The builder session takes one
// snapshot per session and never refreshes it mid-edit.
type CatalogService interface {
	GetCatalog(ctx context.Context) ([]CatalogItem, error)
	CreateItem(ctx context.Context, name string, unitPrice decimal.Decimal, category, description string) (*CatalogItem, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) GetCatalog(ctx context.Context) ([]CatalogItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, unit_price, category, description, is_active, created_at
		FROM catalog_items
		WHERE is_active = true
		ORDER BY category, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	var items []CatalogItem
	for rows.Next() {
		var item CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.UnitPrice, &item.Category,
			&item.Description, &item.IsActive, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *catalogService) CreateItem(ctx context.Context, name string, unitPrice decimal.Decimal, category, description string) (*CatalogItem, error) {
	if err := validatePrice(unitPrice); err != nil {
		return nil, err
	}

	var item CatalogItem
	err := s.pool.QueryRow(ctx, `
		INSERT INTO catalog_items (name, unit_price, category, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, unit_price, category, description, is_active, created_at
	`, name, unitPrice, category, description).Scan(
		&item.ID, &item.Name, &item.UnitPrice, &item.Category,
		&item.Description, &item.IsActive, &item.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return &item, nil
}
