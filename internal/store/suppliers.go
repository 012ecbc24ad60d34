package store

import (
	"context"
	"fmt"

	"pharmacy/m/domain"
)

const supplierColumns = `id, name, phone, address`

func (s *Store) GetSupplier(ctx context.Context, q Queryer, id int64) (*domain.Supplier, error) {
	sup, err := get[domain.Supplier](ctx, q, `SELECT `+supplierColumns+` FROM suppliers WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get supplier %d: %w", id, err)
	}
	return sup, nil
}

func (s *Store) FindSupplierByName(ctx context.Context, q Queryer, name string, excludeID int64) (*domain.Supplier, error) {
	return get[domain.Supplier](ctx, q,
		`SELECT `+supplierColumns+` FROM suppliers WHERE name = ? AND id <> ? LIMIT 1`, name, excludeID)
}

func (s *Store) ListSuppliers(ctx context.Context, q Queryer) ([]domain.Supplier, error) {
	return list[domain.Supplier](ctx, q, `SELECT `+supplierColumns+` FROM suppliers ORDER BY name ASC, id ASC`)
}

func (s *Store) InsertSupplier(ctx context.Context, q Queryer, sup *domain.Supplier) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO suppliers (name, phone, address) VALUES (?, ?, ?)`, sup.Name, sup.Phone, sup.Address)
	if err != nil {
		return fmt.Errorf("insert supplier: %w", err)
	}
	sup.ID = id
	return nil
}

func (s *Store) UpdateSupplier(ctx context.Context, q Queryer, sup *domain.Supplier) error {
	_, err := exec(ctx, q, `UPDATE suppliers SET name = ?, phone = ?, address = ? WHERE id = ?`,
		sup.Name, sup.Phone, sup.Address, sup.ID)
	if err != nil {
		return fmt.Errorf("update supplier %d: %w", sup.ID, err)
	}
	return nil
}

func (s *Store) DeleteSupplier(ctx context.Context, q Queryer, id int64) error {
	if _, err := exec(ctx, q, `DELETE FROM suppliers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete supplier %d: %w", id, err)
	}
	return nil
}

// SupplierReferenced reports whether any medicine or purchase points at the supplier.
func (s *Store) SupplierReferenced(ctx context.Context, q Queryer, id int64) (bool, error) {
	found, err := exists(ctx, q,
		`SELECT 1 FROM medicines WHERE supplier_id = ? UNION ALL SELECT 1 FROM purchases WHERE supplier_id = ?`, id, id)
	if err != nil {
		return false, fmt.Errorf("check supplier %d references: %w", id, err)
	}
	return found, nil
}
