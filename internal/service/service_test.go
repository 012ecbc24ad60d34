package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmacy/m/domain"
	"pharmacy/m/internal/apperror"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/service"
	"pharmacy/m/internal/store"
	"pharmacy/m/internal/testutil"
)

var fixedNow = time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC)

type fixture struct {
	svc   *service.Service
	store *store.Store
	ctx   context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return fixtureOn(testutil.NewDB(t))
}

func fixtureOn(db *sqlx.DB) *fixture {
	st := store.New(db)
	svc := service.New(st, auth.NewPasswords(bcrypt.MinCost), zap.NewNop(), service.Options{
		DefaultUserPassword: "changeme",
		Now:                 func() time.Time { return fixedNow },
	})
	return &fixture{svc: svc, store: st, ctx: context.Background()}
}

func (f *fixture) medicine(t *testing.T, name string, price float64, stock int64) *domain.Medicine {
	t.Helper()
	med, err := f.svc.CreateMedicine(f.ctx, service.MedicineInput{
		Name:        name,
		BatchNumber: "B-" + name,
		UnitPrice:   price,
		StockQty:    stock,
	})
	require.NoError(t, err)
	return med
}

func (f *fixture) supplier(t *testing.T, name string) *domain.Supplier {
	t.Helper()
	sup, err := f.svc.CreateSupplier(f.ctx, service.SupplierInput{Name: name})
	require.NoError(t, err)
	return sup
}

func (f *fixture) user(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u, err := f.svc.CreateUser(f.ctx, service.UserInput{
		Username: &username,
		Name:     "User " + username,
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) stock(t *testing.T, id int64) int64 {
	t.Helper()
	med, err := f.svc.GetMedicine(f.ctx, id)
	require.NoError(t, err)
	return med.StockQty
}

func assertKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperror.KindOf(err), "error: %v", err)
}

func ptr[T any](v T) *T {
	return &v
}
