package sqlite

// Table names.
const (
	TableDatasets      = "datasets"
	TableDistributions = "distributions"
	TableGeoTaxonomy   = "geo_taxonomy"
)

const schemaDDL = `
CREATE TABLE IF NOT EXISTS datasets (
    id          TEXT PRIMARY KEY,
    title       TEXT,
    description TEXT,
    issued      TEXT,
    modified    TEXT,
    publisher   TEXT,
    raw_json    TEXT
);

CREATE TABLE IF NOT EXISTS distributions (
    id           TEXT PRIMARY KEY,
    dataset_id   TEXT,
    title        TEXT,
    format       TEXT,
    access_url   TEXT,
    download_url TEXT,
    raw_json     TEXT,
    FOREIGN KEY (dataset_id) REFERENCES datasets (id)
);

CREATE TABLE IF NOT EXISTS geo_taxonomy (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    level TEXT NOT NULL,
    name  TEXT NOT NULL,
    uri   TEXT NOT NULL UNIQUE
);
`

// Dropped children first so the foreign key never dangles.
var dropOrder = []string{TableDistributions, TableDatasets, TableGeoTaxonomy}

// exportColumns lists, per table, the columns written on export in declared
// order. Raw snapshots stay in the database only.
var exportColumns = map[string][]string{
	TableDatasets:      {"id", "title", "description", "issued", "modified", "publisher"},
	TableDistributions: {"id", "dataset_id", "title", "format", "access_url", "download_url"},
	TableGeoTaxonomy:   {"id", "level", "name", "uri"},
}

// ExportTables is the fixed export order.
var ExportTables = []string{TableDatasets, TableDistributions, TableGeoTaxonomy}

// ExportColumns returns the export header for table, or nil for an unknown table.
func ExportColumns(table string) []string {
	cols, ok := exportColumns[table]
	if !ok {
		return nil
	}
	return append([]string(nil), cols...)
}

const (
	upsertDataset = `INSERT OR REPLACE INTO datasets
    (id, title, description, issued, modified, publisher, raw_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	upsertDistribution = `INSERT OR REPLACE INTO distributions
    (id, dataset_id, title, format, access_url, download_url, raw_json)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	insertGeoEntity = `INSERT OR IGNORE INTO geo_taxonomy (level, name, uri) VALUES (?, ?, ?)`
)
