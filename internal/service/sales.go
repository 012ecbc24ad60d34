package service

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/store"
)

type SaleItemInput struct {
	MedicineID int64 `json:"medicine_id"`
	Quantity   int64 `json:"quantity"`
}

type SaleInput struct {
	CustomerName *string         `json:"customer_name"`
	Items        []SaleItemInput `json:"items"`
	// SellerID is filled from the authenticated user, never from the request body.
	SellerID *int64 `json:"-"`
}

type SaleUpdate struct {
	CustomerName *string `json:"customer_name"`
}

func (s *Service) ListSales(ctx context.Context) ([]domain.SaleRecord, error) {
	db := s.store.DB()
	sales, err := s.store.ListSales(ctx, db)
	if err != nil {
		return nil, internal("unable to list sales", err)
	}
	records, err := s.saleRecords(ctx, db, sales)
	if err != nil {
		return nil, internal("unable to list sales", err)
	}
	return records, nil
}

func (s *Service) GetSale(ctx context.Context, id int64) (*domain.SaleRecord, error) {
	db := s.store.DB()
	sale, err := s.store.GetSale(ctx, db, id)
	if err != nil {
		return nil, internal("unable to load sale", err)
	}
	if sale == nil {
		return nil, apperror.NotFound("sale %d not found", id)
	}
	records, err := s.saleRecords(ctx, db, []domain.Sale{*sale})
	if err != nil {
		return nil, internal("unable to load sale", err)
	}
	return &records[0], nil
}

// CreateSale sells the listed items. Each line is checked against the stock
// left after the earlier lines of the same sale, priced at the medicine's
// current unit price, and the whole sale commits or fails as one.
func (s *Service) CreateSale(ctx context.Context, in SaleInput) (*domain.SaleRecord, error) {
	if len(in.Items) == 0 {
		return nil, apperror.InvalidInput("sale must include at least one item")
	}
	ids := make([]int64, len(in.Items))
	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return nil, apperror.InvalidInput("item %d: quantity must be greater than zero", i+1)
		}
		ids[i] = item.MedicineID
	}

	sale := &domain.Sale{
		SoldAt:       s.now(),
		CustomerName: trimmed(in.CustomerName),
		UserID:       in.SellerID,
	}
	var seller *domain.User
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		if in.SellerID != nil {
			u, err := s.store.GetUser(ctx, tx, *in.SellerID)
			if err != nil {
				return err
			}
			if u == nil {
				return apperror.InvalidInput("user %d not found", *in.SellerID)
			}
			seller = u
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
			if med.StockQty < item.Quantity {
				return apperror.InvalidInput("insufficient stock for %s", med.Name)
			}
			med.StockQty -= item.Quantity
			line := domain.LineTotal(item.Quantity, med.UnitPrice)
			total = total.Add(line)
			sale.Items = append(sale.Items, domain.SaleItem{
				MedicineID: med.ID,
				Quantity:   item.Quantity,
				UnitPrice:  med.UnitPrice,
				LineTotal:  line.InexactFloat64(),
			})
		}
		sale.TotalAmount = total.Round(2).InexactFloat64()

		if err := s.store.InsertSale(ctx, tx, sale); err != nil {
			return err
		}
		return s.saveStock(ctx, tx, meds)
	})
	if err != nil {
		return nil, internal("unable to create sale", err)
	}
	s.logger.Info("sale recorded",
		zap.Int64("sale_id", sale.ID),
		zap.Int("items", len(sale.Items)),
		zap.Float64("total_amount", sale.TotalAmount))
	record := domain.NewSaleRecord(*sale, seller)
	return &record, nil
}

func (s *Service) UpdateSale(ctx context.Context, id int64, in SaleUpdate) (*domain.SaleRecord, error) {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		sale, err := s.store.GetSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NotFound("sale %d not found", id)
		}
		return s.store.UpdateSaleCustomer(ctx, tx, id, trimmed(in.CustomerName))
	})
	if err != nil {
		return nil, internal("unable to update sale", err)
	}
	return s.GetSale(ctx, id)
}

// DeleteSale voids a sale and returns its quantities to stock.
func (s *Service) DeleteSale(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		sale, err := s.store.GetSale(ctx, tx, id)
		if err != nil {
			return err
		}
		if sale == nil {
			return apperror.NotFound("sale %d not found", id)
		}
		items, err := s.store.SaleItems(ctx, tx, id)
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
		for _, item := range lines {
			med, ok := meds[item.MedicineID]
			if !ok {
				return apperror.InvalidInput("medicine %d not found", item.MedicineID)
			}
			qty, ok := domain.AddStock(med.StockQty, item.Quantity)
			if !ok {
				return apperror.InvalidInput("stock for %s would exceed the maximum quantity", med.Name)
			}
			med.StockQty = qty
		}
		if err := s.saveStock(ctx, tx, meds); err != nil {
			return err
		}
		return s.store.DeleteSale(ctx, tx, id)
	})
	if err != nil {
		return internal("unable to delete sale", err)
	}
	s.logger.Info("sale deleted", zap.Int64("sale_id", id))
	return nil
}

func (s *Service) saleRecords(ctx context.Context, q store.Queryer, sales []domain.Sale) ([]domain.SaleRecord, error) {
	saleIDs := make([]int64, len(sales))
	var userIDs []int64
	for i, sale := range sales {
		saleIDs[i] = sale.ID
		if sale.UserID != nil {
			userIDs = append(userIDs, *sale.UserID)
		}
	}
	items, err := s.store.SaleItems(ctx, q, saleIDs...)
	if err != nil {
		return nil, err
	}
	users, err := s.store.UsersByID(ctx, q, userIDs)
	if err != nil {
		return nil, err
	}
	records := make([]domain.SaleRecord, len(sales))
	for i, sale := range sales {
		sale.Items = items[sale.ID]
		var seller *domain.User
		if sale.UserID != nil {
			seller = users[*sale.UserID]
		}
		records[i] = domain.NewSaleRecord(sale, seller)
	}
	return records, nil
}
