package domain

import "time"

type Purchase struct {
	ID            int64          `db:"id" json:"id"`
	PurchasedAt   time.Time      `db:"purchased_at" json:"purchased_at"`
	SupplierID    *int64         `db:"supplier_id" json:"supplier_id"`
	InvoiceNumber *string        `db:"invoice_number" json:"invoice_number"`
	Note          *string        `db:"note" json:"note"`
	TotalAmount   float64        `db:"total_amount" json:"total_amount"`
	Items         []PurchaseItem `db:"-" json:"items"`
}

type PurchaseItem struct {
	ID         int64   `db:"id" json:"id"`
	PurchaseID int64   `db:"purchase_id" json:"purchase_id"`
	MedicineID int64   `db:"medicine_id" json:"medicine_id"`
	Quantity   int64   `db:"quantity" json:"quantity"`
	UnitCost   float64 `db:"unit_cost" json:"unit_cost"`
	LineTotal  float64 `db:"line_total" json:"line_total"`
}
