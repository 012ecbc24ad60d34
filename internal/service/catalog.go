package service

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/store"
)

type MedicineInput struct {
	Name        string       `json:"name"`
	GenericName *string      `json:"generic_name"`
	BatchNumber string       `json:"batch_number"`
	ExpiryDate  *domain.Date `json:"expiry_date"`
	UnitPrice   float64      `json:"unit_price"`
	StockQty    int64        `json:"stock_qty"`
	SupplierID  *int64       `json:"supplier_id"`
}

func (in MedicineInput) normalize() (MedicineInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	in.GenericName = trimmed(in.GenericName)
	if in.Name == "" {
		return in, apperror.InvalidInput("name is required")
	}
	if in.UnitPrice <= 0 {
		return in, apperror.InvalidInput("unit_price must be greater than zero")
	}
	if in.StockQty < 0 {
		return in, apperror.InvalidInput("stock_qty cannot be negative")
	}
	return in, nil
}

type SupplierInput struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

func (in SupplierInput) normalize() (SupplierInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = trimmed(in.Phone)
	in.Address = trimmed(in.Address)
	if in.Name == "" {
		return in, apperror.InvalidInput("name is required")
	}
	return in, nil
}

func (s *Service) ListMedicines(ctx context.Context) ([]domain.Medicine, error) {
	meds, err := s.store.ListMedicines(ctx, s.store.DB())
	if err != nil {
		return nil, internal("unable to list medicines", err)
	}
	return meds, nil
}

func (s *Service) GetMedicine(ctx context.Context, id int64) (*domain.Medicine, error) {
	med, err := s.store.GetMedicine(ctx, s.store.DB(), id)
	if err != nil {
		return nil, internal("unable to load medicine", err)
	}
	if med == nil {
		return nil, apperror.NotFound("medicine %d not found", id)
	}
	return med, nil
}

func (s *Service) ListLowStock(ctx context.Context) ([]domain.Medicine, error) {
	meds, err := s.store.ListLowStock(ctx, s.store.DB(), domain.LowStockThreshold)
	if err != nil {
		return nil, internal("unable to list low stock medicines", err)
	}
	return meds, nil
}

// ListExpiring returns medicines expiring within the given number of days,
// including those already expired. Non-positive values mean 30 days.
func (s *Service) ListExpiring(ctx context.Context, days int) ([]domain.Medicine, error) {
	if days <= 0 {
		days = 30
	}
	cutoff := domain.NewDate(s.now().AddDate(0, 0, days))
	meds, err := s.store.ListExpiring(ctx, s.store.DB(), cutoff)
	if err != nil {
		return nil, internal("unable to list expiring medicines", err)
	}
	return meds, nil
}

func (s *Service) CreateMedicine(ctx context.Context, in MedicineInput) (*domain.Medicine, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	med := &domain.Medicine{
		Name:        in.Name,
		GenericName: in.GenericName,
		BatchNumber: in.BatchNumber,
		ExpiryDate:  in.ExpiryDate,
		UnitPrice:   in.UnitPrice,
		StockQty:    in.StockQty,
		SupplierID:  in.SupplierID,
	}
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.store.FindMedicineConflict(ctx, tx, in.Name, "", 0)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("medicine %q already exists", in.Name)
		}
		if err := s.requireSupplier(ctx, tx, in.SupplierID); err != nil {
			return err
		}
		return s.store.InsertMedicine(ctx, tx, med)
	})
	if err != nil {
		return nil, internal("unable to create medicine", err)
	}
	s.logger.Info("medicine created", zap.Int64("medicine_id", med.ID), zap.String("name", med.Name))
	return med, nil
}

// UpdateMedicine replaces every field of the medicine, stock included.
func (s *Service) UpdateMedicine(ctx context.Context, id int64, in MedicineInput) (*domain.Medicine, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var med *domain.Medicine
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.store.LockMedicines(ctx, tx, []int64{id})
		if err != nil {
			return err
		}
		med = locked[id]
		if med == nil {
			return apperror.NotFound("medicine %d not found", id)
		}
		duplicate, err := s.store.FindMedicineConflict(ctx, tx, in.Name, in.BatchNumber, id)
		if err != nil {
			return err
		}
		if duplicate != nil {
			return apperror.Conflict("medicine with same name or batch already exists")
		}
		if err := s.requireSupplier(ctx, tx, in.SupplierID); err != nil {
			return err
		}
		med.Name = in.Name
		med.GenericName = in.GenericName
		med.BatchNumber = in.BatchNumber
		med.ExpiryDate = in.ExpiryDate
		med.UnitPrice = in.UnitPrice
		med.StockQty = in.StockQty
		med.SupplierID = in.SupplierID
		return s.store.UpdateMedicine(ctx, tx, med)
	})
	if err != nil {
		return nil, internal("unable to update medicine", err)
	}
	return med, nil
}

// AdjustStock applies delta to the medicine's stock under a row lock.
func (s *Service) AdjustStock(ctx context.Context, id int64, delta int64) (*domain.Medicine, error) {
	var med *domain.Medicine
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		locked, err := s.store.LockMedicines(ctx, tx, []int64{id})
		if err != nil {
			return err
		}
		med = locked[id]
		if med == nil {
			return apperror.NotFound("medicine %d not found", id)
		}
		qty, ok := domain.AddStock(med.StockQty, delta)
		if !ok {
			return apperror.InvalidInput("stock for %s would exceed the maximum quantity", med.Name)
		}
		if qty < 0 {
			return apperror.InvalidInput("stock cannot be negative")
		}
		med.StockQty = qty
		return s.store.SetStock(ctx, tx, med)
	})
	if err != nil {
		return nil, internal("unable to adjust stock", err)
	}
	s.logger.Info("stock adjusted",
		zap.Int64("medicine_id", id), zap.Int64("delta", delta), zap.Int64("stock_qty", med.StockQty))
	return med, nil
}

func (s *Service) DeleteMedicine(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		med, err := s.store.GetMedicine(ctx, tx, id)
		if err != nil {
			return err
		}
		if med == nil {
			return apperror.NotFound("medicine %d not found", id)
		}
		referenced, err := s.store.MedicineReferenced(ctx, tx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperror.Conflict("cannot delete medicine linked to sales or purchases")
		}
		return s.store.DeleteMedicine(ctx, tx, id)
	})
	if err != nil {
		return internal("unable to delete medicine", err)
	}
	return nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	suppliers, err := s.store.ListSuppliers(ctx, s.store.DB())
	if err != nil {
		return nil, internal("unable to list suppliers", err)
	}
	return suppliers, nil
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (*domain.Supplier, error) {
	sup, err := s.store.GetSupplier(ctx, s.store.DB(), id)
	if err != nil {
		return nil, internal("unable to load supplier", err)
	}
	if sup == nil {
		return nil, apperror.NotFound("supplier %d not found", id)
	}
	return sup, nil
}

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*domain.Supplier, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	sup := &domain.Supplier{Name: in.Name, Phone: in.Phone, Address: in.Address}
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.store.FindSupplierByName(ctx, tx, in.Name, 0)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("supplier %q already exists", in.Name)
		}
		return s.store.InsertSupplier(ctx, tx, sup)
	})
	if err != nil {
		return nil, internal("unable to create supplier", err)
	}
	return sup, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, in SupplierInput) (*domain.Supplier, error) {
	in, err := in.normalize()
	if err != nil {
		return nil, err
	}
	var sup *domain.Supplier
	err = s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		sup, err = s.store.GetSupplier(ctx, tx, id)
		if err != nil {
			return err
		}
		if sup == nil {
			return apperror.NotFound("supplier %d not found", id)
		}
		existing, err := s.store.FindSupplierByName(ctx, tx, in.Name, id)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.Conflict("supplier %q already exists", in.Name)
		}
		sup.Name, sup.Phone, sup.Address = in.Name, in.Phone, in.Address
		return s.store.UpdateSupplier(ctx, tx, sup)
	})
	if err != nil {
		return nil, internal("unable to update supplier", err)
	}
	return sup, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(tx *sqlx.Tx) error {
		sup, err := s.store.GetSupplier(ctx, tx, id)
		if err != nil {
			return err
		}
		if sup == nil {
			return apperror.NotFound("supplier %d not found", id)
		}
		referenced, err := s.store.SupplierReferenced(ctx, tx, id)
		if err != nil {
			return err
		}
		if referenced {
			return apperror.Conflict("cannot delete supplier linked to medicines or purchases")
		}
		return s.store.DeleteSupplier(ctx, tx, id)
	})
	if err != nil {
		return internal("unable to delete supplier", err)
	}
	return nil
}

func (s *Service) requireSupplier(ctx context.Context, q store.Queryer, id *int64) error {
	if id == nil {
		return nil
	}
	sup, err := s.store.GetSupplier(ctx, q, *id)
	if err != nil {
		return err
	}
	if sup == nil {
		return apperror.InvalidInput("supplier %d not found", *id)
	}
	return nil
}
