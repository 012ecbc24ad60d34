package migrations

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestRunIsIdempotent(t *testing.T) {
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, Run(ctx, db))
	require.NoError(t, Run(ctx, db))

	var tables []string
	require.NoError(t, db.Select(&tables, `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	assert.Equal(t, []string{"medicines", "purchase_items", "purchases", "sale_items", "sales", "suppliers", "users"}, tables)
}

func TestStatementsPerDialect(t *testing.T) {
	pg, err := Statements("pgx")
	require.NoError(t, err)
	assert.Contains(t, pg[0], "BIGSERIAL PRIMARY KEY")
	assert.NotContains(t, pg[0], "{{")

	lite, err := Statements("sqlite")
	require.NoError(t, err)
	assert.Contains(t, lite[0], "AUTOINCREMENT")

	_, err = Statements("mysql")
	assert.Error(t, err)
}
