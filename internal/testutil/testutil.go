// Package testutil provides an in-memory database and HTTP helpers for tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"pharmacy/m/internal/config"
	"pharmacy/m/internal/database"
	"pharmacy/m/internal/migrations"
)

// NewDB opens a migrated in-memory SQLite database that is closed when the test ends.
func NewDB(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Connect(ctx, config.DatabaseConfig{Driver: config.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { db.Close() })
	require.NoError(t, migrations.Run(ctx, db), "failed to migrate test database")
	return db
}

// PerformRequest executes an HTTP request against the router
func PerformRequest(r http.Handler, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer

	if body != nil {
		jsonBody, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBody)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// AuthHeaders returns headers with Authorization token
func AuthHeaders(token string) map[string]string {
	return map[string]string{
		"Authorization": fmt.Sprintf("Bearer %s", token),
	}
}

// DecodeJSON unmarshals the recorded response body into dest.
func DecodeJSON(t testing.TB, w *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), "body: %s", w.Body.String())
}
