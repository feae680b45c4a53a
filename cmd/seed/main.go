// seed loads demo data: a starter catalog, a few clients, and the default
// user accounts. Safe to re-run; existing rows are updated in place.
//
// Usage: go run ./cmd/seed
package main

import (
	"context"
	"log"

	"proposal-studio/internal/db"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	log.Println("Seeding catalog...")
	_, err = tx.Exec(ctx, `
		INSERT INTO catalog_items (name, unit_price, category, description)
		SELECT v.name, v.unit_price::numeric, v.category, v.description
		FROM (VALUES
		    ('Discovery Workshop',       1500.00,  'Services', 'Half-day scoping session'),
		    ('Consulting Day',           1200.00,  'Services', 'Senior consultant, on-site or remote'),
		    ('Implementation Package',   12000.00, 'Services', 'Fixed-scope system rollout'),
		    ('Support Plan (Monthly)',   299.99,   'Support',  'Business-hours support, monthly'),
		    ('Support Plan (Annual)',    2999.00,  'Support',  'Business-hours support, annual'),
		    ('Workstation Bundle',       2450.00,  'Hardware', 'Desktop, monitor, peripherals'),
		    ('Network Switch 24p',       890.00,   'Hardware', 'Managed 24-port gigabit switch'),
		    ('Software License (Seat)',  49.00,    'Licenses', 'Per-seat annual license')
		) AS v(name, unit_price, category, description)
		WHERE NOT EXISTS (SELECT 1 FROM catalog_items c WHERE c.name = v.name);
	`)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	log.Println("Seeding clients...")
	_, err = tx.Exec(ctx, `
		INSERT INTO clients (name, email, phone, company)
		SELECT v.name, v.email, v.phone, v.company
		FROM (VALUES
		    ('Maria Keller',  'maria.keller@northwind.example',  '+49 30 555 0101', 'Northwind GmbH'),
		    ('James Okafor',  'j.okafor@bluefield.example',      '+44 20 555 0188', 'Bluefield Ltd'),
		    ('Anna Lindqvist','anna@polaris-consult.example',    '+46 8 555 0139',  'Polaris Consulting AB')
		) AS v(name, email, phone, company)
		WHERE NOT EXISTS (SELECT 1 FROM clients c WHERE c.email = v.email);
	`)
	if err != nil {
		log.Fatalf("Failed to seed clients: %v", err)
	}

	log.Println("Seeding users...")
	users := []struct {
		username, email, password, role string
	}{
		{"admin", "admin@localhost", "admin123", "admin"},
		{"manager", "manager@localhost", "manager123", "manager"},
		{"sales", "sales@localhost", "sales123", "sales"},
		{"viewer", "viewer@localhost", "viewer123", "viewer"},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", u.username, err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO users (username, email, password_hash, role)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (username) DO UPDATE
			  SET email = EXCLUDED.email,
			      role  = EXCLUDED.role;
		`, u.username, u.email, string(hash), u.role)
		if err != nil {
			log.Fatalf("Failed to seed user %s: %v", u.username, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}

	log.Println("Seed data loaded. Default passwords are for local development only.")
}
