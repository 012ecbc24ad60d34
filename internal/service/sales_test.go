package service_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/service"
)

func TestCreateSaleDecrementsStockAndSnapshotsPrice(t *testing.T) {
	f := newFixture(t)
	a := f.medicine(t, "Aspirin", 2.5, 10)
	b := f.medicine(t, "Ibuprofen", 4.2, 3)
	cashier := f.user(t, "cashier", domain.RoleCashier)

	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		CustomerName: ptr("Jane"),
		SellerID:     &cashier.ID,
		Items: []service.SaleItemInput{
			{MedicineID: a.ID, Quantity: 4},
			{MedicineID: b.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 22.6, sale.TotalAmount)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, 2.5, sale.Items[0].UnitPrice)
	assert.Equal(t, 10.0, sale.Items[0].LineTotal)
	assert.Equal(t, 12.6, sale.Items[1].LineTotal)
	assert.Equal(t, "0003052024", sale.SaleCode)
	assert.Equal(t, "User cashier", *sale.SellerName)
	assert.Equal(t, "cashier", *sale.SellerUsername)

	assert.Equal(t, int64(6), f.stock(t, a.ID))
	assert.Equal(t, int64(0), f.stock(t, b.ID))

	// Later price changes do not rewrite history.
	_, err = f.svc.UpdateMedicine(f.ctx, a.ID, service.MedicineInput{Name: "Aspirin", BatchNumber: "B-Aspirin", UnitPrice: 9.99, StockQty: 6})
	require.NoError(t, err)
	got, err := f.svc.GetSale(f.ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.5, got.Items[0].UnitPrice)
	assert.Equal(t, 22.6, got.TotalAmount)
	assert.Equal(t, "Jane", *got.CustomerName)
	assert.Equal(t, "0003052024", got.SaleCode)
	assert.Equal(t, "User cashier", *got.SellerName)
}

func TestCreateSaleRoundsOnlyTheTotal(t *testing.T) {
	f := newFixture(t)
	a := f.medicine(t, "Aspirin", 0.125, 5)
	b := f.medicine(t, "Ibuprofen", 0.125, 5)

	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		Items: []service.SaleItemInput{{MedicineID: a.ID, Quantity: 1}, {MedicineID: b.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.Len(t, sale.Items, 2)
	assert.Equal(t, 0.125, sale.Items[0].LineTotal)
	assert.Equal(t, 0.125, sale.Items[1].LineTotal)
	assert.Equal(t, 0.25, sale.TotalAmount)

	got, err := f.svc.GetSale(f.ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.125, got.Items[0].LineTotal)
	assert.Equal(t, 0.25, got.TotalAmount)
}

func TestCreateSaleInsufficientStockIsAtomic(t *testing.T) {
	f := newFixture(t)
	a := f.medicine(t, "Aspirin", 1, 10)
	b := f.medicine(t, "Ibuprofen", 1, 1)

	_, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		Items: []service.SaleItemInput{
			{MedicineID: a.ID, Quantity: 5},
			{MedicineID: b.ID, Quantity: 2},
		},
	})
	assertKind(t, err, apperror.KindInvalidInput)
	assert.Equal(t, "insufficient stock for Ibuprofen", apperror.Message(err))

	assert.Equal(t, int64(10), f.stock(t, a.ID))
	assert.Equal(t, int64(1), f.stock(t, b.ID))
	sales, err := f.svc.ListSales(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCreateSaleCountsRepeatedLines(t *testing.T) {
	f := newFixture(t)
	med := f.medicine(t, "Aspirin", 1, 5)

	_, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		Items: []service.SaleItemInput{
			{MedicineID: med.ID, Quantity: 3},
			{MedicineID: med.ID, Quantity: 3},
		},
	})
	assertKind(t, err, apperror.KindInvalidInput)
	assert.Equal(t, int64(5), f.stock(t, med.ID))

	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		Items: []service.SaleItemInput{
			{MedicineID: med.ID, Quantity: 2},
			{MedicineID: med.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)
	assert.Len(t, sale.Items, 2)
	assert.Equal(t, int64(0), f.stock(t, med.ID))
}

func TestCreateSaleRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	med := f.medicine(t, "Aspirin", 1, 5)

	_, err := f.svc.CreateSale(f.ctx, service.SaleInput{})
	assertKind(t, err, apperror.KindInvalidInput)

	_, err = f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: med.ID, Quantity: -1}}})
	assertKind(t, err, apperror.KindInvalidInput)

	_, err = f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: 404, Quantity: 1}}})
	assertKind(t, err, apperror.KindInvalidInput)
	assert.Equal(t, "medicine 404 not found", apperror.Message(err))

	_, err = f.svc.CreateSale(f.ctx, service.SaleInput{
		SellerID: ptr(int64(404)),
		Items:    []service.SaleItemInput{{MedicineID: med.ID, Quantity: 1}},
	})
	assertKind(t, err, apperror.KindInvalidInput)
	assert.Equal(t, int64(5), f.stock(t, med.ID))
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	f := newFixture(t)
	a := f.medicine(t, "Aspirin", 1, 10)
	b := f.medicine(t, "Ibuprofen", 1, 4)

	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		Items: []service.SaleItemInput{
			{MedicineID: a.ID, Quantity: 7},
			{MedicineID: b.ID, Quantity: 4},
			{MedicineID: a.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.stock(t, a.ID))

	require.NoError(t, f.svc.DeleteSale(f.ctx, sale.ID))
	assert.Equal(t, int64(10), f.stock(t, a.ID))
	assert.Equal(t, int64(4), f.stock(t, b.ID))

	_, err = f.svc.GetSale(f.ctx, sale.ID)
	assertKind(t, err, apperror.KindNotFound)
	assertKind(t, f.svc.DeleteSale(f.ctx, sale.ID), apperror.KindNotFound)
}

func TestUpdateSaleCustomerOnly(t *testing.T) {
	f := newFixture(t)
	med := f.medicine(t, "Aspirin", 1, 10)
	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: med.ID, Quantity: 2}}})
	require.NoError(t, err)
	assert.Nil(t, sale.SellerName)

	updated, err := f.svc.UpdateSale(f.ctx, sale.ID, service.SaleUpdate{CustomerName: ptr("Walk-in")})
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", *updated.CustomerName)
	assert.Equal(t, sale.TotalAmount, updated.TotalAmount)
	assert.Equal(t, int64(8), f.stock(t, med.ID))

	_, err = f.svc.UpdateSale(f.ctx, 999, service.SaleUpdate{})
	assertKind(t, err, apperror.KindNotFound)
}

func TestListSalesNewestFirstWithCodes(t *testing.T) {
	f := newFixture(t)
	med := f.medicine(t, "Aspirin", 1, 10)
	for i := 0; i < 3; i++ {
		_, err := f.svc.CreateSale(f.ctx, service.SaleInput{Items: []service.SaleItemInput{{MedicineID: med.ID, Quantity: 1}}})
		require.NoError(t, err)
	}

	sales, err := f.svc.ListSales(f.ctx)
	require.NoError(t, err)
	require.Len(t, sales, 3)
	assert.Equal(t, "0203052024", sales[0].SaleCode)
	assert.Equal(t, "0103052024", sales[1].SaleCode)
	assert.Equal(t, "0003052024", sales[2].SaleCode)
	for _, s := range sales {
		assert.Len(t, s.Items, 1)
	}
}

func TestConcurrentSalesNeverOversell(t *testing.T) {
	f := newFixture(t)
	const (
		stock    = 50
		perSale  = 3
		sellers  = 20
		expected = stock / perSale
	)
	med := f.medicine(t, "Aspirin", 1, stock)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		rejected  atomic.Int64
	)
	for i := 0; i < sellers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateSale(f.ctx, service.SaleInput{
				Items: []service.SaleItemInput{{MedicineID: med.ID, Quantity: perSale}},
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case apperror.Is(err, apperror.KindInvalidInput):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(expected), succeeded.Load())
	assert.Equal(t, int64(sellers-expected), rejected.Load())
	assert.Equal(t, int64(stock-expected*perSale), f.stock(t, med.ID))
}
