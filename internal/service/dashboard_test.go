package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/domain"
	"pharmacy/m/internal/service"
)

func TestDashboardStats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.DashboardStats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.DashboardStats{}, stats)

	f.supplier(t, "Acme")
	a := f.medicine(t, "Aspirin", 0.1, 12)
	f.medicine(t, "Ibuprofen", 4, 50)
	f.medicine(t, "Zinc", 1, 3)

	_, err = f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: a.ID, Quantity: 1}}})
	require.NoError(t, err)
	_, err = f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: a.ID, Quantity: 2}}})
	require.NoError(t, err)

	stats, err = f.svc.DashboardStats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.MedicineCount)
	assert.Equal(t, int64(1), stats.SupplierCount)
	assert.Equal(t, 0.3, stats.TotalSalesAmount)
	// Aspirin dropped to 9 and Zinc holds 3.
	assert.Equal(t, int64(2), stats.LowStockCount)
}
