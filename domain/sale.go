package domain

import (
	"fmt"
	"time"
)

type Sale struct {
	ID           int64      `db:"id" json:"id"`
	SoldAt       time.Time  `db:"sold_at" json:"sold_at"`
	CustomerName *string    `db:"customer_name" json:"customer_name"`
	UserID       *int64     `db:"user_id" json:"user_id"`
	TotalAmount  float64    `db:"total_amount" json:"total_amount"`
	Items        []SaleItem `db:"-" json:"items"`
}

type SaleItem struct {
	ID         int64   `db:"id" json:"id"`
	SaleID     int64   `db:"sale_id" json:"sale_id"`
	MedicineID int64   `db:"medicine_id" json:"medicine_id"`
	Quantity   int64   `db:"quantity" json:"quantity"`
	UnitPrice  float64 `db:"unit_price" json:"unit_price"`
	LineTotal  float64 `db:"line_total" json:"line_total"`
}

// SaleRecord is a sale together with the values derived from it for display.
type SaleRecord struct {
	Sale
	SaleCode       string  `json:"sale_code"`
	SellerName     *string `json:"seller_name"`
	SellerUsername *string `json:"seller_username"`
}

// SaleCode renders the receipt code: max(id-1, 0) padded to two digits,
// followed by the sale date as MMDDYYYY.
func SaleCode(s Sale) string {
	seq := s.ID - 1
	if seq < 0 {
		seq = 0
	}
	return fmt.Sprintf("%02d%s", seq, s.SoldAt.Format("01022006"))
}

func SellerName(u *User) *string {
	if u == nil {
		return nil
	}
	name := u.Name
	return &name
}

func SellerUsername(u *User) *string {
	if u == nil {
		return nil
	}
	username := u.Username
	return &username
}

func NewSaleRecord(s Sale, seller *User) SaleRecord {
	if s.Items == nil {
		s.Items = []SaleItem{}
	}
	return SaleRecord{
		Sale:           s,
		SaleCode:       SaleCode(s),
		SellerName:     SellerName(seller),
		SellerUsername: SellerUsername(seller),
	}
}
