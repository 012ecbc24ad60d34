package domain

// LowStockThreshold is the stock level at or below which a medicine counts as low stock.
const LowStockThreshold = 10

type Medicine struct {
	ID          int64   `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	GenericName *string `db:"generic_name" json:"generic_name"`
	BatchNumber string  `db:"batch_number" json:"batch_number"`
	ExpiryDate  *Date   `db:"expiry_date" json:"expiry_date"`
	UnitPrice   float64 `db:"unit_price" json:"unit_price"`
	StockQty    int64   `db:"stock_qty" json:"stock_qty"`
	SupplierID  *int64  `db:"supplier_id" json:"supplier_id"`
}

func (m Medicine) LowStock() bool {
	return m.StockQty <= LowStockThreshold
}

// AddStock returns qty+delta, or false when the sum overflows int64.
func AddStock(qty, delta int64) (int64, bool) {
	sum := qty + delta
	if (delta > 0 && sum < qty) || (delta < 0 && sum > qty) {
		return 0, false
	}
	return sum, true
}

type Supplier struct {
	ID      int64   `db:"id" json:"id"`
	Name    string  `db:"name" json:"name"`
	Phone   *string `db:"phone" json:"phone"`
	Address *string `db:"address" json:"address"`
}
