package store

import (
	"context"
	"fmt"
	"sort"

	"pharmacy/m/domain"
)

const medicineColumns = `id, name, generic_name, batch_number, expiry_date, unit_price, stock_qty, supplier_id`

func (s *Store) GetMedicine(ctx context.Context, q Queryer, id int64) (*domain.Medicine, error) {
	m, err := get[domain.Medicine](ctx, q, `SELECT `+medicineColumns+` FROM medicines WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get medicine %d: %w", id, err)
	}
	return m, nil
}

func (s *Store) ListMedicines(ctx context.Context, q Queryer) ([]domain.Medicine, error) {
	return list[domain.Medicine](ctx, q, `SELECT `+medicineColumns+` FROM medicines ORDER BY name ASC, id ASC`)
}

// ListLowStock returns medicines whose stock is at or below threshold.
func (s *Store) ListLowStock(ctx context.Context, q Queryer, threshold int64) ([]domain.Medicine, error) {
	return list[domain.Medicine](ctx, q,
		`SELECT `+medicineColumns+` FROM medicines WHERE stock_qty <= ? ORDER BY name ASC, id ASC`, threshold)
}

// ListExpiring returns medicines with an expiry date on or before the given day.
func (s *Store) ListExpiring(ctx context.Context, q Queryer, before domain.Date) ([]domain.Medicine, error) {
	return list[domain.Medicine](ctx, q,
		`SELECT `+medicineColumns+` FROM medicines
                WHERE expiry_date IS NOT NULL AND expiry_date <= ?
                ORDER BY expiry_date ASC, name ASC`, before)
}

// FindMedicineConflict returns another medicine sharing the name, or the batch
// number when batch is not empty.
func (s *Store) FindMedicineConflict(ctx context.Context, q Queryer, name, batch string, excludeID int64) (*domain.Medicine, error) {
	return get[domain.Medicine](ctx, q,
		`SELECT `+medicineColumns+` FROM medicines
                WHERE id <> ? AND (name = ? OR (? <> '' AND batch_number = ?))
                ORDER BY id LIMIT 1`, excludeID, name, batch, batch)
}

// LockMedicines loads the given medicines keyed by id. On PostgreSQL the rows
// are locked in ascending id order for the rest of the transaction.
func (s *Store) LockMedicines(ctx context.Context, q Queryer, ids []int64) (map[int64]*domain.Medicine, error) {
	unique := uniqueSorted(ids)
	rows, err := listIn[domain.Medicine](ctx, q,
		s.forUpdate(`SELECT `+medicineColumns+` FROM medicines WHERE id IN (?) ORDER BY id`), unique)
	if err != nil {
		return nil, fmt.Errorf("lock medicines: %w", err)
	}
	out := make(map[int64]*domain.Medicine, len(rows))
	for i := range rows {
		out[rows[i].ID] = &rows[i]
	}
	return out, nil
}

func (s *Store) InsertMedicine(ctx context.Context, q Queryer, m *domain.Medicine) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO medicines (name, generic_name, batch_number, expiry_date, unit_price, stock_qty, supplier_id)
                VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.Name, m.GenericName, m.BatchNumber, m.ExpiryDate, m.UnitPrice, m.StockQty, m.SupplierID)
	if err != nil {
		return fmt.Errorf("insert medicine: %w", err)
	}
	m.ID = id
	return nil
}

// UpdateMedicine replaces every column of the row.
func (s *Store) UpdateMedicine(ctx context.Context, q Queryer, m *domain.Medicine) error {
	_, err := exec(ctx, q,
		`UPDATE medicines SET name = ?, generic_name = ?, batch_number = ?, expiry_date = ?, unit_price = ?, stock_qty = ?, supplier_id = ?
                WHERE id = ?`,
		m.Name, m.GenericName, m.BatchNumber, m.ExpiryDate, m.UnitPrice, m.StockQty, m.SupplierID, m.ID)
	if err != nil {
		return fmt.Errorf("update medicine %d: %w", m.ID, err)
	}
	return nil
}

// SetStock persists the stock level and supplier of a medicine loaded by LockMedicines.
func (s *Store) SetStock(ctx context.Context, q Queryer, m *domain.Medicine) error {
	_, err := exec(ctx, q, `UPDATE medicines SET stock_qty = ?, supplier_id = ? WHERE id = ?`, m.StockQty, m.SupplierID, m.ID)
	if err != nil {
		return fmt.Errorf("set stock for medicine %d: %w", m.ID, err)
	}
	return nil
}

func (s *Store) DeleteMedicine(ctx context.Context, q Queryer, id int64) error {
	if _, err := exec(ctx, q, `DELETE FROM medicines WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete medicine %d: %w", id, err)
	}
	return nil
}

// MedicineReferenced reports whether any sale or purchase line points at the medicine.
func (s *Store) MedicineReferenced(ctx context.Context, q Queryer, id int64) (bool, error) {
	found, err := exists(ctx, q,
		`SELECT 1 FROM sale_items WHERE medicine_id = ? UNION ALL SELECT 1 FROM purchase_items WHERE medicine_id = ?`, id, id)
	if err != nil {
		return false, fmt.Errorf("check medicine %d references: %w", id, err)
	}
	return found, nil
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
