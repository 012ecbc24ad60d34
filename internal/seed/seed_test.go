package seed_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmacy/m/domain"
	"pharmacy/m/internal/auth"
	"pharmacy/m/internal/config"
	"pharmacy/m/internal/seed"
	"pharmacy/m/internal/store"
	"pharmacy/m/internal/testutil"
)

func TestReconcileAdmins(t *testing.T) {
	ctx := context.Background()
	st := store.New(testutil.NewDB(t))
	hasher := auth.NewPasswords(bcrypt.MinCost)
	accounts := []config.AdminAccount{
		{Username: "admin", Role: domain.RoleSuperAdmin},
		{Username: "ops", Role: domain.RoleAdmin, Email: "ops@example.com"},
	}

	require.NoError(t, seed.ReconcileAdmins(ctx, st, hasher, accounts, "admin123", zap.NewNop()))

	admin, err := st.GetUserByUsername(ctx, st.DB(), "admin")
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, domain.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.True(t, hasher.Verify("admin123", admin.PasswordHash))

	ops, err := st.GetUserByUsername(ctx, st.DB(), "ops")
	require.NoError(t, err)
	require.NotNil(t, ops.Email)
	assert.Equal(t, "ops@example.com", *ops.Email)

	// Demote and deactivate, then reconcile again.
	admin.Role, admin.Active = domain.RoleCashier, false
	require.NoError(t, st.UpdateUser(ctx, st.DB(), admin))
	require.NoError(t, st.SetPassword(ctx, st.DB(), admin.ID, "kept"))

	require.NoError(t, seed.ReconcileAdmins(ctx, st, hasher, accounts, "admin123", zap.NewNop()))

	admin, err = st.GetUserByUsername(ctx, st.DB(), "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSuperAdmin, admin.Role)
	assert.True(t, admin.Active)
	assert.Equal(t, "kept", admin.PasswordHash, "existing password must not be reset")

	count, err := st.CountUsers(ctx, st.DB())
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestReconcileAdminsRejectsUnknownRole(t *testing.T) {
	st := store.New(testutil.NewDB(t))
	err := seed.ReconcileAdmins(context.Background(), st, auth.NewPasswords(bcrypt.MinCost),
		[]config.AdminAccount{{Username: "x", Role: "Owner"}}, "admin123", zap.NewNop())
	assert.Error(t, err)
}

const catalog = `name,generic_name,batch_number,expiry_date,unit_price,stock_qty,supplier
Napa,Paracetamol,NP-01,2027-06-30,1.5,200,Beximco
Seclo,Omeprazole,SC-11,,6.25,40,Square
Ace,Paracetamol,AC-02,2027-01-31,1.2,80,Square
Broken,,,not-a-date,1,1,
Napa,Paracetamol,NP-02,2028-01-01,1.5,10,Beximco
Free,,,,0,10,
Plain,,,,3,5
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalog), 0o600))
	return path
}

func TestLoadMedicines(t *testing.T) {
	ctx := context.Background()
	st := store.New(testutil.NewDB(t))
	path := writeCatalog(t)

	rows, err := seed.LoadMedicines(ctx, st, path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 4, rows)

	meds, err := st.ListMedicines(ctx, st.DB())
	require.NoError(t, err)
	names := make([]string, 0, len(meds))
	for _, m := range meds {
		names = append(names, m.Name)
	}
	assert.ElementsMatch(t, []string{"Napa", "Seclo", "Ace", "Plain"}, names)

	suppliers, err := st.ListSuppliers(ctx, st.DB())
	require.NoError(t, err)
	assert.Len(t, suppliers, 2)

	napa, err := st.FindMedicineConflict(ctx, st.DB(), "Napa", "", 0)
	require.NoError(t, err)
	require.NotNil(t, napa.ExpiryDate)
	assert.Equal(t, "2027-06-30", napa.ExpiryDate.String())
	assert.Equal(t, "NP-01", napa.BatchNumber)
	assert.Equal(t, int64(200), napa.StockQty)
	require.NotNil(t, napa.SupplierID)

	// A second load finds every name already present.
	rows, err = seed.LoadMedicines(ctx, st, path, zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, rows)
}

func TestLoadMedicinesMissingFile(t *testing.T) {
	st := store.New(testutil.NewDB(t))
	_, err := seed.LoadMedicines(context.Background(), st, filepath.Join(t.TempDir(), "nope.csv"), zap.NewNop())
	assert.Error(t, err)
}
