//go:build integration
// +build integration

package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/config"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/migrations"
	"pharmacy/m/internal/service"
)

// setupPostgres starts a PostgreSQL container and returns a migrated fixture on it.
func setupPostgres(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("pharmacy"),
		postgres.WithUsername("pharmacy"),
		postgres.WithPassword("pharmacy"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := database.Connect(ctx, config.DatabaseConfig{
		Driver:       config.DriverPostgres,
		DSN:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db))
	// Migrations must be repeatable.
	require.NoError(t, migrations.Run(ctx, db))

	return fixtureOn(db)
}

func TestPostgresSaleAndPurchaseFlow(t *testing.T) {
	f := setupPostgres(t)
	sup := f.supplier(t, "Acme")
	med := f.medicine(t, "Napa", 1.5, 5)
	seller := f.user(t, "cashier", domain.RoleCashier)

	_, err := f.svc.CreatePurchase(f.ctx, service.PurchaseInput{
		SupplierID: &sup.ID,
		Items:      []service.PurchaseItemInput{{MedicineID: med.ID, Quantity: 20, UnitCost: 0.9}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(25), f.stock(t, med.ID))

	sale, err := f.svc.CreateSale(f.ctx, service.SaleInput{
		SellerID: &seller.ID,
		Items:    []service.SaleItemInput{{MedicineID: med.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.Equal(t, 4.5, sale.TotalAmount)
	assert.Equal(t, "0003052024", sale.SaleCode)

	_, err = f.svc.CreateMedicine(f.ctx, service.MedicineInput{Name: "Napa", UnitPrice: 1})
	assertKind(t, err, apperror.KindConflict)

	stats, err := f.svc.DashboardStats(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4.5, stats.TotalSalesAmount)
	assert.Equal(t, int64(1), stats.SupplierCount)
}

func TestPostgresConcurrentSalesNeverOversell(t *testing.T) {
	f := setupPostgres(t)
	a := f.medicine(t, "A", 1, 50)
	b := f.medicine(t, "B", 1, 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		// Alternate item order so lock ordering is exercised.
		items := []service.SaleItemInput{{MedicineID: a.ID, Quantity: 3}, {MedicineID: b.ID, Quantity: 3}}
		if i%2 == 1 {
			items[0], items[1] = items[1], items[0]
		}
		go func() {
			defer wg.Done()
			if _, err := f.svc.CreateSale(f.ctx, service.SaleInput{Items: items}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, succeeded)
	assert.Equal(t, int64(2), f.stock(t, a.ID))
	assert.Equal(t, int64(2), f.stock(t, b.ID))
}
