package store

import (
	"context"
	"fmt"
)

// schemaStatements create the four tables in dependency order. Foreign keys
// are declared without ON DELETE actions: cascade and guard rules are
// enforced explicitly inside the owning transaction.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(100) NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT users_email_key UNIQUE (email)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id SERIAL PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		price DOUBLE PRECISION NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT products_name_key UNIQUE (name),
		CONSTRAINT products_price_positive CHECK (price > 0),
		CONSTRAINT products_stock_nonnegative CHECK (stock_quantity >= 0)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		user_id INTEGER NOT NULL REFERENCES users(id),
		total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id SERIAL PRIMARY KEY,
		order_id INTEGER NOT NULL REFERENCES orders(id),
		product_id INTEGER NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL,
		unit_price DOUBLE PRECISION NOT NULL,
		CONSTRAINT order_items_quantity_positive CHECK (quantity > 0)
	)`,
}

// EnsureSchema creates any missing tables. Safe to call on every startup.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// Seed inserts a small sample catalog when the store is empty. Calling it
// against a populated store is a no-op.
func (db *DB) Seed(ctx context.Context) error {
	var userCount, productCount int
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		return fmt.Errorf("failed to inspect users: %w", err)
	}
	if err := db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&productCount); err != nil {
		return fmt.Errorf("failed to inspect products: %w", err)
	}
	if userCount > 0 || productCount > 0 {
		return nil
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	users := []struct {
		name  string
		email string
	}{
		{"Alice Johnson", "alice@example.com"},
		{"Bob Smith", "bob@example.com"},
		{"Carol Diaz", "carol@example.com"},
	}
	for _, u := range users {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (name, email) VALUES ($1, $2)`,
			u.name, u.email,
		); err != nil {
			return fmt.Errorf("failed to seed user %s: %w", u.email, err)
		}
	}

	products := []struct {
		name  string
		price float64
		stock int
	}{
		{"Espresso", 2.50, 100},
		{"Cappuccino", 3.75, 80},
		{"Croissant", 2.25, 40},
		{"Bagel", 1.95, 50},
		{"Orange Juice", 3.20, 30},
	}
	for _, p := range products {
		if _, err := tx.Exec(ctx,
			`INSERT INTO products (name, price, stock_quantity) VALUES ($1, $2, $3)`,
			p.name, p.price, p.stock,
		); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &CommitError{Op: "seed", Err: err}
	}
	return nil
}
