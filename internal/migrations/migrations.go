package migrations

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
            id {{pk}},
            username TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            email TEXT UNIQUE,
            role TEXT NOT NULL,
            password_hash TEXT NOT NULL,
            active BOOLEAN NOT NULL DEFAULT {{true}},
            created_at {{timestamp}} NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,
	`CREATE TABLE IF NOT EXISTS suppliers (
            id {{pk}},
            name TEXT NOT NULL UNIQUE,
            phone TEXT,
            address TEXT
        )`,
	`CREATE TABLE IF NOT EXISTS medicines (
            id {{pk}},
            name TEXT NOT NULL UNIQUE,
            generic_name TEXT,
            batch_number TEXT NOT NULL DEFAULT '',
            expiry_date DATE,
            unit_price {{money}} NOT NULL CHECK (unit_price > 0),
            stock_qty {{int}} NOT NULL DEFAULT 0 CHECK (stock_qty >= 0),
            supplier_id {{int}} REFERENCES suppliers(id)
        )`,
	`CREATE TABLE IF NOT EXISTS purchases (
            id {{pk}},
            purchased_at {{timestamp}} NOT NULL,
            supplier_id {{int}} REFERENCES suppliers(id),
            invoice_number TEXT,
            note TEXT,
            total_amount {{money}} NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS purchase_items (
            id {{pk}},
            purchase_id {{int}} NOT NULL REFERENCES purchases(id) ON DELETE CASCADE,
            medicine_id {{int}} NOT NULL REFERENCES medicines(id),
            quantity {{int}} NOT NULL CHECK (quantity > 0),
            unit_cost {{money}} NOT NULL,
            line_total {{money}} NOT NULL
        )`,
	`CREATE TABLE IF NOT EXISTS sales (
            id {{pk}},
            sold_at {{timestamp}} NOT NULL,
            customer_name TEXT,
            user_id {{int}} REFERENCES users(id) ON DELETE SET NULL,
            total_amount {{money}} NOT NULL DEFAULT 0
        )`,
	`CREATE TABLE IF NOT EXISTS sale_items (
            id {{pk}},
            sale_id {{int}} NOT NULL REFERENCES sales(id) ON DELETE CASCADE,
            medicine_id {{int}} NOT NULL REFERENCES medicines(id),
            quantity {{int}} NOT NULL CHECK (quantity > 0),
            unit_price {{money}} NOT NULL,
            line_total {{money}} NOT NULL
        )`,
	`CREATE INDEX IF NOT EXISTS idx_medicines_supplier ON medicines(supplier_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase ON purchase_items(purchase_id)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_items_medicine ON purchase_items(medicine_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_user ON sales(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_sale ON sale_items(sale_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sale_items_medicine ON sale_items(medicine_id)`,
}

var dialects = map[string]*strings.Replacer{
	"sqlite": strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{int}}", "INTEGER",
		"{{money}}", "REAL",
		"{{timestamp}}", "DATETIME",
		"{{true}}", "1",
	),
	"pgx": strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{int}}", "BIGINT",
		"{{money}}", "DOUBLE PRECISION",
		"{{timestamp}}", "TIMESTAMPTZ",
		"{{true}}", "TRUE",
	),
}

// Statements returns the schema rendered for the given sqlx driver name.
func Statements(driverName string) ([]string, error) {
	replacer, ok := dialects[driverName]
	if !ok {
		return nil, fmt.Errorf("no schema for driver %q", driverName)
	}
	out := make([]string, len(schema))
	for i, stmt := range schema {
		out[i] = replacer.Replace(stmt)
	}
	return out, nil
}

// Run creates the database schema. Every statement is idempotent.
func Run(ctx context.Context, db *sqlx.DB) error {
	stmts, err := Statements(db.DriverName())
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
