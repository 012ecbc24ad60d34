package service

import (
	"context"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
)

type PurchaseItemInput struct {
	MedicineID int64   `json:"medicine_id"`
	Quantity   int64   `json:"quantity"`
	UnitCost   float64 `json:"unit_cost"`
}

type PurchaseInput struct {
	SupplierID    *int64              `json:"supplier_id"`
	InvoiceNumber *string             `json:"invoice_number"`
	Note          *string             `json:"note"`
	Items         []PurchaseItemInput `json:"items"`
}

type PurchaseUpdate struct {
	SupplierID    *int64  `json:"supplier_id"`
	InvoiceNumber *string `json:"invoice_number"`
	Note          *string `json:"note"`
}

func (s *Service) ListPurchases(ctx context.Context) ([]domain.Purchase, error) {
	db := s.store.DB()
	purchases, err := s.store.ListPurchases(ctx, db)
	if err != nil {
		return nil, internal("unable to list purchases", err)
	}
	ids := make([]int64, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}
	items, err := s.store.PurchaseItems(ctx, db, ids...)
	if err != nil {
		return nil, internal("unable to list purchases", err)
	}
	for i := range purchases {
		purchases[i].Items = nonNil(items[purchases[i].ID])
	}
	return purchases, nil
}

func (s *Service) GetPurchase(ctx context.Context, id int64) (*domain.Purchase, error) {
	db := s.store.DB()
	purchase, err := s.store.GetPurchase(ctx, db, id)
	if err != nil {
		return nil, internal("unable to load purchase", err)
	}
	if purchase == nil {
		return nil, apperror.NotFound("purchase %d not found", id)
	}
	items, err := s.store.PurchaseItems(ctx, db, id)
	if err != nil {
		return nil, internal("unable to load purchase", err)
	}
	purchase.Items = nonNil(items[id])
	return purchase, nil
}

// CreatePurchase records stock received from a supplier. Every listed
// medicine gains the purchased quantity and, when a supplier is given, is
// reassigned to that supplier.
func (s *Service) CreatePurchase(ctx context.Context, in PurchaseInput) (*domain.Purchase, error) {
	if len(in.Items) == 0 {
		return nil, apperror.InvalidInput("purchase must include at least one item")
	}
	ids := make([]int64, len(in.Items))
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, apperror.InvalidInput("item %d: quantity must be greater than zero", i+1)
		}
		if item.UnitCost <= 0 {
			return nil, apperror.InvalidInput("item %d: unit_cost must be greater than zero", i+1)
		}
		ids[i] = item.MedicineID
	}

	purchase := &domain.Purchase{
		PurchasedAt:   s.now(),
		SupplierID:    in.SupplierID,
		InvoiceNumber: trimmed(in.InvoiceNumber),
		Note:          trimmed(in.Note),
	}
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.requireSupplier(ctx, tx, in.SupplierID); err != nil {
			return err
		}
		meds, err := s.store.LockMedicines(ctx, tx, ids)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, item := range in.Items {
			med, ok := meds[item.MedicineID]
			if !ok {
				return apperror.InvalidInput("medicine %d not found", item.MedicineID)
			}
			qty, ok := domain.AddStock(med.StockQty, item.Quantity)
			if !ok {
				return apperror.InvalidInput("stock for %s would exceed the maximum quantity", med.Name)
			}
			med.StockQty = qty
			if in.SupplierID != nil && (med.SupplierID == nil || *med.SupplierID != *in.SupplierID) {
				supplierID := *in.SupplierID
				med.SupplierID = &supplierID
			}
			line := domain.LineTotal(item.Quantity, item.UnitCost)
			total = total.Add(line)
			purchase.Items = append(purchase.Items, domain.PurchaseItem{
				MedicineID: med.ID,
				Quantity:   item.Quantity,
				UnitCost:   item.UnitCost,
				LineTotal:  line.InexactFloat64(),
			})
		}
		purchase.TotalAmount = total.Round(2).InexactFloat64()

		if err := s.store.InsertPurchase(ctx, tx, purchase); err != nil {
			return err
		}
		return s.saveStock(ctx, tx, meds)
	})
	if err != nil {
		return nil, internal("unable to create purchase", err)
	}
	s.logger.Info("purchase recorded",
		zap.Int64("purchase_id", purchase.ID),
		zap.Int("items", len(purchase.Items)),
		zap.Float64("total_amount", purchase.TotalAmount))
	return purchase, nil
}

// UpdatePurchase replaces the purchase metadata. Items and stock are untouched.
func (s *Service) UpdatePurchase(ctx context.Context, id int64, in PurchaseUpdate) (*domain.Purchase, error) {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := s.store.GetPurchase(ctx, tx, id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return apperror.NotFound("purchase %d not found", id)
		}
		if err := s.requireSupplier(ctx, tx, in.SupplierID); err != nil {
			return err
		}
		purchase.SupplierID = in.SupplierID
		purchase.InvoiceNumber = trimmed(in.InvoiceNumber)
		purchase.Note = trimmed(in.Note)
		return s.store.UpdatePurchase(ctx, tx, purchase)
	})
	if err != nil {
		return nil, internal("unable to update purchase", err)
	}
	return s.GetPurchase(ctx, id)
}

// DeletePurchase reverses the stock received by the purchase. It refuses when
// any medicine no longer holds enough stock to give back.
func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		purchase, err := s.store.GetPurchase(ctx, tx, id)
		if err != nil {
			return err
		}
		if purchase == nil {
			return apperror.NotFound("purchase %d not found", id)
		}
		items, err := s.store.PurchaseItems(ctx, tx, id)
		if err != nil {
			return err
		}
		lines := items[id]
		ids := make([]int64, len(lines))
		for i, item := range lines {
			ids[i] = item.MedicineID
		}
		meds, err := s.store.LockMedicines(ctx, tx, ids)
		if err != nil {
			return err
		}

		// Validate the whole purchase before touching any row. Quantities of
		// repeated medicines accumulate.
		remaining := make(map[int64]int64, len(meds))
		for medID, med := range meds {
			remaining[medID] = med.StockQty
		}
		for _, item := range lines {
			med, ok := meds[item.MedicineID]
			if !ok {
				return apperror.InvalidInput("medicine %d not found", item.MedicineID)
			}
			if remaining[med.ID] < item.Quantity {
				return apperror.Conflict("cannot delete purchase; stock for %s is lower than purchased quantity", med.Name)
			}
			remaining[med.ID] -= item.Quantity
		}
		for medID, qty := range remaining {
			meds[medID].StockQty = qty
		}

		if err := s.saveStock(ctx, tx, meds); err != nil {
			return err
		}
		return s.store.DeletePurchase(ctx, tx, id)
	})
	if err != nil {
		return internal("unable to delete purchase", err)
	}
	s.logger.Info("purchase deleted", zap.Int64("purchase_id", id))
	return nil
}

// saveStock writes back every locked medicine in ascending id order.
func (s *Service) saveStock(ctx context.Context, tx *sqlx.Tx, meds map[int64]*domain.Medicine) error {
	ids := make([]int64, 0, len(meds))
	for id := range meds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if err := s.store.SetStock(ctx, tx, meds[id]); err != nil {
			return err
		}
	}
	return nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
