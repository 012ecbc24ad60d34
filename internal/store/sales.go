package store

import (
	"context"
	"fmt"

	"pharmacy/m/domain"
)

const (
	saleColumns     = `id, sold_at, customer_name, user_id, total_amount`
	saleItemColumns = `id, sale_id, medicine_id, quantity, unit_price, line_total`
)

func (s *Store) GetSale(ctx context.Context, q Queryer, id int64) (*domain.Sale, error) {
	sale, err := get[domain.Sale](ctx, q, `SELECT `+saleColumns+` FROM sales WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get sale %d: %w", id, err)
	}
	return sale, nil
}

// ListSales returns sales newest first, without items.
func (s *Store) ListSales(ctx context.Context, q Queryer) ([]domain.Sale, error) {
	return list[domain.Sale](ctx, q, `SELECT `+saleColumns+` FROM sales ORDER BY sold_at DESC, id DESC`)
}

// SaleItems loads the items of the given sales keyed by sale id, in insertion order.
func (s *Store) SaleItems(ctx context.Context, q Queryer, saleIDs ...int64) (map[int64][]domain.SaleItem, error) {
	rows, err := listIn[domain.SaleItem](ctx, q,
		`SELECT `+saleItemColumns+` FROM sale_items WHERE sale_id IN (?) ORDER BY id`, saleIDs)
	if err != nil {
		return nil, fmt.Errorf("load sale items: %w", err)
	}
	out := make(map[int64][]domain.SaleItem, len(saleIDs))
	for _, row := range rows {
		out[row.SaleID] = append(out[row.SaleID], row)
	}
	return out, nil
}

// InsertSale writes the sale header and its items, filling in the generated ids.
func (s *Store) InsertSale(ctx context.Context, q Queryer, sale *domain.Sale) error {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO sales (sold_at, customer_name, user_id, total_amount) VALUES (?, ?, ?, ?)`,
		sale.SoldAt, sale.CustomerName, sale.UserID, sale.TotalAmount)
	if err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	sale.ID = id
	for i := range sale.Items {
		item := &sale.Items[i]
		item.SaleID = id
		itemID, err := insertReturningID(ctx, q,
			`INSERT INTO sale_items (sale_id, medicine_id, quantity, unit_price, line_total) VALUES (?, ?, ?, ?, ?)`,
			item.SaleID, item.MedicineID, item.Quantity, item.UnitPrice, item.LineTotal)
		if err != nil {
			return fmt.Errorf("insert sale item: %w", err)
		}
		item.ID = itemID
	}
	return nil
}

func (s *Store) UpdateSaleCustomer(ctx context.Context, q Queryer, id int64, customer *string) error {
	if _, err := exec(ctx, q, `UPDATE sales SET customer_name = ? WHERE id = ?`, customer, id); err != nil {
		return fmt.Errorf("update sale %d: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, q Queryer, id int64) error {
	if _, err := exec(ctx, q, `DELETE FROM sale_items WHERE sale_id = ?`, id); err != nil {
		return fmt.Errorf("delete sale %d items: %w", id, err)
	}
	if _, err := exec(ctx, q, `DELETE FROM sales WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete sale %d: %w", id, err)
	}
	return nil
}
