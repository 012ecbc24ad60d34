package store

import (
	"context"
	"fmt"

	"pharmacy/m/domain"
)

const (
	purchaseColumns     = `id, purchased_at, supplier_id, invoice_number, note, total_amount`
	purchaseItemColumns = `id, purchase_id, medicine_id, quantity, unit_cost, line_total`
)

func (s *Store) GetPurchase(ctx context.Context, q Queryer, id int64) (*domain.Purchase, error) {
	p, err := get[domain.Purchase](ctx, q, `SELECT `+purchaseColumns+` FROM purchases WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get purchase %d: %w", id, err)
	}
	return p, nil
}

// ListPurchases returns purchases newest first, without items.
func (s *Store) ListPurchases(ctx context.Context, q Queryer) ([]domain.Purchase, error) {
	return list[domain.Purchase](ctx, q, `SELECT `+purchaseColumns+` FROM purchases ORDER BY purchased_at DESC, id DESC`)
}

// PurchaseItems loads the items of the given purchases keyed by purchase id, in insertion order.
func (s *Store) PurchaseItems(ctx context.Context, q Queryer, purchaseIDs ...int64) (map[int64][]domain.PurchaseItem, error) {
	rows, err := listIn[domain.PurchaseItem](ctx, q,
		`SELECT `+purchaseItemColumns+` FROM purchase_items WHERE purchase_id IN (?) ORDER BY id`, purchaseIDs)
	if err != nil {
		return nil, fmt.Errorf("load purchase items: %w", err)
	}
	out := make(map[int64][]domain.PurchaseItem, len(purchaseIDs))
	for _, row := range rows {
		out[row.PurchaseID] = append(out[row.PurchaseID], row)
	}
	return out, nil
}

// InsertPurchase writes the purchase header and its items, filling in the generated ids.
func (s *Store) InsertPurchase(ctx context.Context, q Queryer, p *domain.Purchase) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO purchases (purchased_at, supplier_id, invoice_number, note, total_amount) VALUES (?, ?, ?, ?, ?)`,
		p.PurchasedAt, p.SupplierID, p.InvoiceNumber, p.Note, p.TotalAmount)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	p.ID = id
	for i := range p.Items {
		item := &p.Items[i]
		item.PurchaseID = id
		itemID, err := insertReturningID(ctx, q,
			`INSERT INTO purchase_items (purchase_id, medicine_id, quantity, unit_cost, line_total) VALUES (?, ?, ?, ?, ?)`,
			item.PurchaseID, item.MedicineID, item.Quantity, item.UnitCost, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert purchase item: %w", err)
		}
		item.ID = itemID
	}
	return nil
}

func (s *Store) UpdatePurchase(ctx context.Context, q Queryer, p *domain.Purchase) error {
	_, err := exec(ctx, q, `UPDATE purchases SET supplier_id = ?, invoice_number = ?, note = ? WHERE id = ?`,
		p.SupplierID, p.InvoiceNumber, p.Note, p.ID)
	if err != nil {
		return fmt.Errorf("update purchase %d: %w", p.ID, err)
	}
	return nil
}

func (s *Store) DeletePurchase(ctx context.Context, q Queryer, id int64) error {
	if _, err := exec(ctx, q, `DELETE FROM purchase_items WHERE purchase_id = ?`, id); err != nil {
		return fmt.Errorf("delete purchase %d items: %w", id, err)
	}
	if _, err := exec(ctx, q, `DELETE FROM purchases WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete purchase %d: %w", id, err)
	}
	return nil
}
