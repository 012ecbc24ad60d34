package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"pharmacy/m/domain"
	"pharmacy/m/internal/store"
)

// Catalog columns, in order. The supplier column is optional.
const (
	colName = iota
	colGenericName
	colBatchNumber
	colExpiryDate
	colUnitPrice
	colStockQty
	colSupplier
)

// LoadMedicines ingests a catalog CSV into the medicines table in one
// transaction. Rows whose name already exists are skipped, suppliers are
// created on first mention. It returns the number of medicines inserted.
func LoadMedicines(ctx context.Context, st *store.Store, csvPath string, logger *zap.Logger) (int, error) {
	file, err := os.Open(csvPath)
	if err != nil {
		return 0, fmt.Errorf("open medicine catalog %s: %w", csvPath, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	// Skip header
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read medicine header: %w", err)
	}

	rows := 0
	err = st.WithTx(ctx, func(tx *sqlx.Tx) error {
		suppliers := map[string]int64{}
		line := 1
		for {
			record, err := reader.Read()
			line++
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				logger.Warn("unable to read medicine row", zap.Int("line", line), zap.Error(err))
				continue
			}
			med, supplierName, err := parseMedicine(record)
			if err != nil {
				logger.Warn("skipping medicine row", zap.Int("line", line), zap.Error(err))
				continue
			}

			existing, err := st.FindMedicineConflict(ctx, tx, med.Name, "", 0)
			if err != nil {
				return err
			}
			if existing != nil {
				continue
			}
			if supplierName != "" {
				id, err := supplierID(ctx, st, tx, suppliers, supplierName)
				if err != nil {
					return err
				}
				med.SupplierID = &id
			}
			if err := st.InsertMedicine(ctx, tx, med); err != nil {
				return fmt.Errorf("insert medicine %s: %w", med.Name, err)
			}
			rows++
		}
	})
	if err != nil {
		return 0, err
	}
	logger.Info("seeded medicine catalog", zap.String("path", csvPath), zap.Int("rows", rows))
	return rows, nil
}

func parseMedicine(record []string) (*domain.Medicine, string, error) {
	if len(record) <= colStockQty {
		return nil, "", fmt.Errorf("expected at least %d columns, got %d", colStockQty+1, len(record))
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	med := &domain.Medicine{
		Name:        record[colName],
		BatchNumber: record[colBatchNumber],
	}
	if med.Name == "" {
		return nil, "", errors.New("name is empty")
	}
	if record[colGenericName] != "" {
		generic := record[colGenericName]
		med.GenericName = &generic
	}
	if record[colExpiryDate] != "" {
		expiry, err := domain.ParseDate(record[colExpiryDate])
		if err != nil {
			return nil, "", fmt.Errorf("expiry_date: %w", err)
		}
		med.ExpiryDate = &expiry
	}
	price, err := strconv.ParseFloat(record[colUnitPrice], 64)
	if err != nil || price <= 0 {
		return nil, "", fmt.Errorf("unit_price %q must be a positive number", record[colUnitPrice])
	}
	med.UnitPrice = price
	stock, err := strconv.ParseInt(record[colStockQty], 10, 64)
	if err != nil || stock < 0 {
		return nil, "", fmt.Errorf("stock_qty %q must be a non-negative integer", record[colStockQty])
	}
	med.StockQty = stock

	supplier := ""
	if len(record) > colSupplier {
		supplier = record[colSupplier]
	}
	return med, supplier, nil
}

func supplierID(ctx context.Context, st *store.Store, q store.Queryer, cache map[string]int64, name string) (int64, error) {
	if id, ok := cache[name]; ok {
		return id, nil
	}
	sup, err := st.FindSupplierByName(ctx, q, name, 0)
	if err != nil {
		return 0, err
	}
	if sup == nil {
		sup = &domain.Supplier{Name: name}
		if err := st.InsertSupplier(ctx, q, sup); err != nil {
			return 0, fmt.Errorf("insert supplier %s: %w", name, err)
		}
	}
	cache[name] = sup.ID
	return sup.ID, nil
}
