package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientService manages the client directory. Clients are appendable at
// runtime; an edit is a full overwrite of the record, not a field merge.
type ClientService interface {
	GetClients(ctx context.Context) ([]Client, error)
	GetClient(ctx context.Context, id int) (*Client, error)
	CreateClient(ctx context.Context, name, email, phone, company string) (*Client, error)
	UpdateClient(ctx context.Context, c Client) (*Client, error)
}

type clientService struct {
	pool *pgxpool.Pool
}

func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

func (s *clientService) GetClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, phone, company, created_at
		FROM clients
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query clients: %w", err)
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, nil
}

func (s *clientService) GetClient(ctx context.Context, id int) (*Client, error) {
	var c Client
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, company, created_at
		FROM clients
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch client %d: %w", id, err)
	}
	return &c, nil
}

func (s *clientService) CreateClient(ctx context.Context, name, email, phone, company string) (*Client, error) {
	if name == "" {
		return nil, fmt.Errorf("client name is required")
	}

	var c Client
	err := s.pool.QueryRow(ctx, `
		INSERT INTO clients (name, email, phone, company)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, phone, company, created_at
	`, name, email, phone, company).Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Company, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &c, nil
}

// UpdateClient overwrites every editable field of the client record.
func (s *clientService) UpdateClient(ctx context.Context, c Client) (*Client, error) {
	var updated Client
	err := s.pool.QueryRow(ctx, `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, company = $4
		WHERE id = $5
		RETURNING id, name, email, phone, company, created_at
	`, c.Name, c.Email, c.Phone, c.Company, c.ID).Scan(
		&updated.ID, &updated.Name, &updated.Email, &updated.Phone, &updated.Company, &updated.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("client %d not found", c.ID)
		}
		return nil, fmt.Errorf("failed to update client %d: %w", c.ID, err)
	}
	return &updated, nil
}
