// Command validate checks a finished ingestion run: the SQLite database and
// the CSV files exported from it. It verifies export headers, row counts,
// dataset/distribution references, the geo taxonomy seed, and that every
// exported row matches the stored one.
//
// Usage:
//
//	go run ./cmd/validate -db datosgob.db -out-dir data
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/csvexport"
	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dbPath := flag.String("db", "datosgob.db", "path to the SQLite database")
	outDir := flag.String("out-dir", "data", "directory containing the exported CSV files")
	flag.Parse()

	if code := run(context.Background(), *dbPath, *outDir); code != 0 {
		os.Exit(code)
	}
}

func run(ctx context.Context, dbPath, outDir string) int {
	fmt.Println("=== Catalog Export Validation ===")
	fmt.Println()

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: database: %v\n", err)
		return 1
	}
	store, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	defer store.Close()

	stored := make(map[string]sqlite.Table, len(sqlite.ExportTables))
	exported := make(map[string][][]string, len(sqlite.ExportTables))
	for _, table := range sqlite.ExportTables {
		tbl, err := store.Export(ctx, table)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
			return 1
		}
		stored[table] = tbl

		rows, err := loadCSV(filepath.Join(outDir, csvexport.FileName(table)))
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load %s: %v\n", csvexport.FileName(table), err)
			return 1
		}
		exported[table] = rows
	}

	// ── Run validation phases ──
	phases := []*phase{
		validateHeaders(exported),
		validateCounts(ctx, store, exported),
		validateReferences(ctx, store, exported),
		validateTaxonomy(exported[sqlite.TableGeoTaxonomy]),
		validateRowParity(stored, exported),
	}

	// ── Report results ──
	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d datasets, %d distributions, %d geo taxonomy\n",
		len(stored[sqlite.TableDatasets].Rows),
		len(stored[sqlite.TableDistributions].Rows),
		len(stored[sqlite.TableGeoTaxonomy].Rows))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

// loadCSV returns every record of a CSV file, header included.
func loadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, fmt.Errorf("no header row in %s", path)
	}
	return all, nil
}

func dataRows(all [][]string) [][]string {
	if len(all) == 0 {
		return nil
	}
	return all[1:]
}

// ── Phase 1: Headers ──

func validateHeaders(exported map[string][][]string) *phase {
	p := &phase{name: "Phase 1: Export headers"}
	for _, table := range sqlite.ExportTables {
		want := sqlite.ExportColumns(table)
		got := exported[table][0]
		if !slices.Equal(want, got) {
			p.errorf("%s: header %v, want %v", csvexport.FileName(table), got, want)
		}
	}
	return p
}

// ── Phase 2: Row counts ──

func validateCounts(ctx context.Context, store *sqlite.Store, exported map[string][][]string) *phase {
	p := &phase{name: "Phase 2: Row counts (CSV vs SQLite)"}
	for _, table := range sqlite.ExportTables {
		n, err := store.Count(ctx, table)
		if err != nil {
			p.errorf("%s: %v", table, err)
			continue
		}
		if got := len(dataRows(exported[table])); got != n {
			p.errorf("%s: %d CSV rows, %d stored rows", table, got, n)
		}
	}
	return p
}

// ── Phase 3: References ──
// Dataset ids are present and unique; every distribution points at a dataset.

func validateReferences(ctx context.Context, store *sqlite.Store, exported map[string][][]string) *phase {
	p := &phase{name: "Phase 3: Dataset/distribution references"}

	ids := make(map[string]bool)
	for i, row := range dataRows(exported[sqlite.TableDatasets]) {
		id := row[0]
		switch {
		case id == "":
			p.errorf("datasets.csv line %d: empty id", i+2)
		case ids[id]:
			p.errorf("datasets.csv line %d: duplicate id %s", i+2, id)
		}
		ids[id] = true
	}

	missingID := 0
	for i, row := range dataRows(exported[sqlite.TableDistributions]) {
		if len(row) < 2 {
			p.errorf("distributions.csv line %d: %d columns", i+2, len(row))
			continue
		}
		if row[0] == "" {
			missingID++
		}
		if !ids[row[1]] {
			p.errorf("distributions.csv line %d: dataset_id %q not in datasets.csv", i+2, row[1])
		}
	}
	if missingID > 0 {
		fmt.Printf("  note: %d distributions have no identifier\n", missingID)
	}

	orphans, err := store.OrphanDistributions(ctx)
	if err != nil {
		p.errorf("orphan query: %v", err)
	}
	for _, id := range orphans {
		p.errorf("stored distribution %q has no dataset row", id)
	}
	return p
}

// ── Phase 4: Geo taxonomy ──

func validateTaxonomy(all [][]string) *phase {
	p := &phase{name: "Phase 4: Geo taxonomy seed"}

	want := make(map[string]domain.GeoEntity)
	for _, e := range domain.GeoTaxonomy() {
		want[e.URI] = e
	}

	seen := make(map[string]bool)
	for i, row := range dataRows(all) {
		if len(row) != 4 {
			p.errorf("geo_taxonomy.csv line %d: %d columns", i+2, len(row))
			continue
		}
		level, name, uri := domain.GeoLevel(row[1]), row[2], row[3]
		if !level.Valid() {
			p.errorf("geo_taxonomy.csv line %d: unknown level %q", i+2, level)
		}
		if seen[uri] {
			p.errorf("geo_taxonomy.csv line %d: duplicate uri %s", i+2, uri)
		}
		seen[uri] = true

		e, ok := want[uri]
		if !ok {
			p.errorf("geo_taxonomy.csv line %d: uri %s not in taxonomy %s", i+2, uri, domain.TaxonomyVersion)
			continue
		}
		if e.Level != level || e.Name != name {
			p.errorf("geo_taxonomy.csv line %d: got (%s, %s), want (%s, %s)", i+2, level, name, e.Level, e.Name)
		}
	}
	for uri := range want {
		if !seen[uri] {
			p.errorf("geo_taxonomy.csv: missing %s", uri)
		}
	}
	return p
}

// ── Phase 5: Row parity ──
// Row order is not guaranteed, so rows are compared as multisets.

func validateRowParity(stored map[string]sqlite.Table, exported map[string][][]string) *phase {
	p := &phase{name: "Phase 5: Row parity (CSV vs SQLite)"}
	for _, table := range sqlite.ExportTables {
		counts := make(map[string]int)
		for _, row := range stored[table].Rows {
			counts[rowKey(row)]++
		}
		for i, row := range dataRows(exported[table]) {
			k := rowKey(row)
			if counts[k] == 0 {
				p.errorf("%s line %d: row not in database: %v", csvexport.FileName(table), i+2, row)
				continue
			}
			counts[k]--
		}
		for k, n := range counts {
			if n > 0 {
				p.errorf("%s: %d stored row(s) missing from export: %s", csvexport.FileName(table), n, k)
			}
		}
	}
	return p
}

func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
