package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pharmacy/m/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("DATABASE_DRIVER", "")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("BOOTSTRAP_ADMINS", "")
	t.Setenv("LOGIN_RATE", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "pharmacy.db", cfg.Database.DSN)
	assert.Equal(t, 1, cfg.Database.MaxOpenConns)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "20-M", cfg.LoginRate)
	require.Len(t, cfg.Accounts.BootstrapAdmins, 1)
	assert.Equal(t, domain.RoleSuperAdmin, cfg.Accounts.BootstrapAdmins[0].Role)
	assert.Empty(t, cfg.Warnings)
}

func TestLoadFallsBackOnInvalidValues(t *testing.T) {
	t.Setenv("HTTP_PORT", "http")
	t.Setenv("TOKEN_TTL", "forever")
	t.Setenv("DATABASE_DRIVER", "oracle")
	t.Setenv("LOGIN_RATE", "lots")
	t.Setenv("BOOTSTRAP_ADMINS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "20-M", cfg.LoginRate)
	assert.Len(t, cfg.Warnings, 4)
}

func TestLoadPostgresDriver(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PASSWORD", "secret")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "@db:5432/")
	assert.Contains(t, cfg.Database.DSN, "postgres:secret@")
	assert.Greater(t, cfg.Database.MaxOpenConns, 1)
}

func TestParseAdminAccounts(t *testing.T) {
	accounts, err := ParseAdminAccounts("root:Super Admin, alice:Admin:alice@example.com")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, AdminAccount{Username: "root", Role: domain.RoleSuperAdmin}, accounts[0])
	assert.Equal(t, AdminAccount{Username: "alice", Role: domain.RoleAdmin, Email: "alice@example.com"}, accounts[1])

	_, err = ParseAdminAccounts("bob:admin")
	assert.Error(t, err)

	_, err = ParseAdminAccounts("justaname")
	assert.Error(t, err)
}
