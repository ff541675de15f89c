package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := Open(ctx, filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.InitSchema(ctx))
	return s
}

func ptr(s string) *string { return &s }

func record(id, title string, distIDs ...*string) domain.Record {
	rec := domain.Record{Dataset: domain.Dataset{
		ID:      id,
		Title:   ptr(title),
		RawJSON: `{"identifier":"` + id + `"}`,
	}}
	for _, did := range distIDs {
		rec.Distributions = append(rec.Distributions, domain.Distribution{
			ID:        did,
			DatasetID: id,
			Format:    ptr("text/csv"),
			RawJSON:   "{}",
		})
	}
	return rec
}

func TestStore_LoadBatch_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{record("ds-1", "Primer título")}))
	require.NoError(t, s.LoadBatch(ctx, []domain.Record{record("ds-1", "Segundo título")}))

	n, err := s.Count(ctx, TableDatasets)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	title, ok, err := s.DatasetTitle(ctx, "ds-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Segundo título", *title)
}

func TestStore_LoadBatch_SameIDWithinBatchLastWins(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{
		record("ds-1", "first"),
		record("ds-2", "other"),
		record("ds-1", "second"),
	}))

	n, err := s.Count(ctx, TableDatasets)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	title, _, err := s.DatasetTitle(ctx, "ds-1")
	require.NoError(t, err)
	assert.Equal(t, "second", *title)
}

func TestStore_LoadBatch_Distributions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{
		record("ds-1", "a", ptr("dist-1"), ptr("dist-2")),
		record("ds-2", "b", ptr("dist-1")),
	}))

	tbl, err := s.Export(ctx, TableDistributions)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)

	owners := map[string]string{}
	for _, row := range tbl.Rows {
		owners[row[0]] = row[1]
	}
	assert.Equal(t, map[string]string{"dist-1": "ds-2", "dist-2": "ds-1"}, owners)
}

func TestStore_LoadBatch_DistributionsWithoutIDAreKept(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	rec := record("ds-1", "a", nil, nil)
	require.NoError(t, s.LoadBatch(ctx, []domain.Record{rec}))
	require.NoError(t, s.LoadBatch(ctx, []domain.Record{rec}))

	tbl, err := s.Export(ctx, TableDistributions)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 4)
	for _, row := range tbl.Rows {
		assert.Equal(t, "", row[0])
		assert.Equal(t, "ds-1", row[1])
	}
}

func TestStore_LoadBatch_Empty(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, nil))

	n, err := s.Count(ctx, TableDatasets)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_LoadBatch_CancelledContext(t *testing.T) {
	s := openTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.LoadBatch(ctx, []domain.Record{record("ds-1", "a")})
	require.Error(t, err)

	n, err := s.Count(context.Background(), TableDatasets)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_SeedTaxonomy_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	entities := domain.GeoTaxonomy()

	inserted, err := s.SeedTaxonomy(ctx, entities)
	require.NoError(t, err)
	assert.Equal(t, len(entities), inserted)

	inserted, err = s.SeedTaxonomy(ctx, entities)
	require.NoError(t, err)
	assert.Zero(t, inserted)

	n, err := s.Count(ctx, TableGeoTaxonomy)
	require.NoError(t, err)
	assert.Equal(t, len(entities), n)
}

func TestStore_SeedTaxonomy_DuplicateURIKeepsFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	inserted, err := s.SeedTaxonomy(ctx, []domain.GeoEntity{
		{Level: domain.LevelProvince, Name: "Madrid", URI: "urn:madrid"},
		{Level: domain.LevelProvince, Name: "Madrid (dup)", URI: "urn:madrid"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	tbl, err := s.Export(ctx, TableGeoTaxonomy)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"1", "Province", "Madrid", "urn:madrid"}, tbl.Rows[0])
}

func TestStore_Export_HeadersAndNulls(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{{
		Dataset: domain.Dataset{
			ID:       "ds-1",
			Title:    ptr("Población de Andalucía"),
			Modified: ptr("2024-05-01T00:00:00Z"),
			RawJSON:  "{}",
		},
	}}))

	tbl, err := s.Export(ctx, TableDatasets)
	require.NoError(t, err)
	assert.Equal(t, TableDatasets, tbl.Name)
	assert.Equal(t, []string{"id", "title", "description", "issued", "modified", "publisher"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"ds-1", "Población de Andalucía", "", "", "2024-05-01T00:00:00Z", ""}, tbl.Rows[0])
}

func TestStore_Export_UnknownTable(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Export(context.Background(), "sqlite_master")
	require.Error(t, err)

	_, err = s.Count(context.Background(), "sqlite_master")
	require.Error(t, err)
}

func TestStore_ResetSchema_ClearsData(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{record("ds-1", "a", ptr("dist-1"))}))
	_, err := s.SeedTaxonomy(ctx, domain.GeoTaxonomy())
	require.NoError(t, err)

	require.NoError(t, s.ResetSchema(ctx))

	for _, table := range ExportTables {
		n, err := s.Count(ctx, table)
		require.NoError(t, err)
		assert.Zero(t, n, table)
	}

	inserted, err := s.SeedTaxonomy(ctx, domain.GeoTaxonomy())
	require.NoError(t, err)
	assert.Equal(t, len(domain.GeoTaxonomy()), inserted)
}

func TestStore_InitSchema_KeepsData(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.LoadBatch(ctx, []domain.Record{record("ds-1", "a")}))
	require.NoError(t, s.InitSchema(ctx))

	n, err := s.Count(ctx, TableDatasets)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStore_OrphanDistributions(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	orphan := domain.Record{Dataset: domain.Dataset{ID: "ds-1", RawJSON: "{}"}}
	orphan.Distributions = []domain.Distribution{{ID: ptr("dist-x"), DatasetID: "ds-missing", RawJSON: "{}"}}
	require.NoError(t, s.LoadBatch(ctx, []domain.Record{orphan, record("ds-2", "b", ptr("dist-ok"))}))

	ids, err := s.OrphanDistributions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dist-x"}, ids)
}

func TestStore_DatasetTitle_Missing(t *testing.T) {
	s := openTestStore(t)

	title, ok, err := s.DatasetTitle(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, title)
}

func TestStore_CheckReadiness(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.CheckReadiness(context.Background()))

	require.NoError(t, s.Close())
	require.Error(t, s.CheckReadiness(context.Background()))
}

func TestExportColumns_ReturnsCopy(t *testing.T) {
	cols := ExportColumns(TableDatasets)
	cols[0] = "mutated"
	assert.Equal(t, "id", ExportColumns(TableDatasets)[0])
	assert.Nil(t, ExportColumns("unknown"))
}
