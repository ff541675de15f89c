package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
)

func ptr(s string) *string { return &s }

// seedRun builds a database and its export the way cmd/etl leaves them.
func seedRun(t *testing.T) (dbPath, outDir string) {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "datosgob.db")
	outDir = filepath.Join(dir, "data")

	store, err := sqlite.Open(ctx, dbPath)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.ResetSchema(ctx))
	_, err = store.SeedTaxonomy(ctx, domain.GeoTaxonomy())
	require.NoError(t, err)

	require.NoError(t, store.LoadBatch(ctx, []domain.Record{
		{
			Dataset: domain.Dataset{ID: "ds-1", Title: ptr("Calidad del aire, Madrid"), RawJSON: "{}"},
			Distributions: []domain.Distribution{
				{ID: ptr("dist-1"), DatasetID: "ds-1", Format: ptr("text/csv"), RawJSON: "{}"},
				{DatasetID: "ds-1", Format: ptr("application/xml"), RawJSON: "{}"},
			},
		},
		{Dataset: domain.Dataset{ID: "ds-2", Title: ptr("Padrón de Sevilla"), RawJSON: "{}"}},
	}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	_, err = csvexport.NewExporter(store, logger).ExportAll(ctx, outDir)
	require.NoError(t, err)
	return dbPath, outDir
}

func TestRun_ConsistentExportPasses(t *testing.T) {
	dbPath, outDir := seedRun(t)
	assert.Equal(t, 0, run(context.Background(), dbPath, outDir))
}

func TestRun_EditedCSVFails(t *testing.T) {
	dbPath, outDir := seedRun(t)

	path := filepath.Join(outDir, "datasets.csv")
	require.NoError(t, os.WriteFile(path, []byte(
		"id,title,description,issued,modified,publisher\n"+
			"ds-1,Calidad del aire,,,,\n"+
			"ds-2,Padrón de Sevilla,,,,\n"), 0o600))

	assert.Equal(t, 1, run(context.Background(), dbPath, outDir))
}

func TestRun_MissingFileFails(t *testing.T) {
	dbPath, outDir := seedRun(t)
	require.NoError(t, os.Remove(filepath.Join(outDir, "geo_taxonomy.csv")))

	assert.Equal(t, 1, run(context.Background(), dbPath, outDir))
}

func TestRun_MissingDatabaseFails(t *testing.T) {
	assert.Equal(t, 1, run(context.Background(), filepath.Join(t.TempDir(), "none.db"), t.TempDir()))
}

func TestValidateTaxonomy(t *testing.T) {
	header := []string{"id", "level", "name", "uri"}
	rows := [][]string{header}
	for i, e := range domain.GeoTaxonomy() {
		rows = append(rows, []string{string(rune('1' + i)), string(e.Level), e.Name, e.URI})
	}
	assert.True(t, validateTaxonomy(rows).passed())

	bad := append([][]string{}, rows...)
	bad = append(bad, []string{"9", "Municipality", "Dos Hermanas", "urn:x"})
	p := validateTaxonomy(bad)
	assert.False(t, p.passed())
	assert.Len(t, p.errors, 2)

	assert.False(t, validateTaxonomy(rows[:3]).passed())
}

func TestValidateRowParity(t *testing.T) {
	stored := map[string]sqlite.Table{
		sqlite.TableDatasets: {Rows: [][]string{{"a", "x"}, {"b", "y"}}},
	}
	exported := map[string][][]string{
		sqlite.TableDatasets:      {{"id", "title"}, {"b", "y"}, {"a", "x"}},
		sqlite.TableDistributions: {{"id"}},
		sqlite.TableGeoTaxonomy:   {{"id"}},
	}
	assert.True(t, validateRowParity(stored, exported).passed())

	exported[sqlite.TableDatasets] = [][]string{{"id", "title"}, {"a", "x"}, {"a", "x"}}
	p := validateRowParity(stored, exported)
	assert.False(t, p.passed())
	assert.Len(t, p.errors, 2)
}
