package postgres

import (
	"database/sql"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMigration(t *testing.T, name string) string {
	t.Helper()
	body, err := fs.ReadFile(Migrations(), name)
	require.NoError(t, err)
	return string(body)
}

func TestMigratorListsSourcesInOrder(t *testing.T) {
	// sql.Open does not dial; the provider only needs a handle.
	db, err := sql.Open("pgx", "postgres://localhost:1/unused")
	require.NoError(t, err)
	defer db.Close()

	migrator, err := NewMigrator(db)
	require.NoError(t, err)

	sources := migrator.ListSources()
	require.Len(t, sources, 2)
	assert.EqualValues(t, 1, sources[0].Version)
	assert.EqualValues(t, 2, sources[1].Version)
	assert.True(t, strings.HasSuffix(sources[0].Path, "0001_schema.sql"), sources[0].Path)
}

func TestMigrationsAreAnnotated(t *testing.T) {
	for _, name := range []string{"0001_schema.sql", "0002_catalog.sql"} {
		body := readMigration(t, name)
		assert.True(t, strings.HasPrefix(body, "-- +goose Up\n"), name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
	assert.Contains(t, readMigration(t, "0001_schema.sql"), "CREATE TABLE slot_counters")
}

func TestSchemaCascadesAppointmentChildren(t *testing.T) {
	schema := readMigration(t, "0001_schema.sql")

	for _, table := range []string{"appointment_pets", "appointment_services", "medical_records", "inventory_usage"} {
		start := strings.Index(schema, "CREATE TABLE "+table)
		require.NotEqual(t, -1, start, table)
		body := schema[start:]
		body = body[:strings.Index(body, ");")]
		assert.Contains(t, body, "REFERENCES appointments (id) ON DELETE CASCADE", table)
	}
}
