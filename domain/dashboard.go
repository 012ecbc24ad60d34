package domain

type DashboardStats struct {
	MedicineCount    int64   `db:"medicine_count" json:"medicine_count"`
	SupplierCount    int64   `db:"supplier_count" json:"supplier_count"`
	TotalSalesAmount float64 `db:"total_sales_amount" json:"total_sales_amount"`
	LowStockCount    int64   `db:"low_stock_count" json:"low_stock_count"`
}
