// Package csvexport writes stored catalog tables to CSV files.
package csvexport

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/opendata-catalog-etl/internal/adapter/sqlite"
)

// TableSource reads one table back in export column order.
type TableSource interface {
	Export(ctx context.Context, table string) (sqlite.Table, error)
}

// Exporter dumps every catalog table to <dir>/<table>.csv.
type Exporter struct {
	source TableSource
	tables []string
	logger *slog.Logger
}

// NewExporter returns an exporter for the fixed table set.
func NewExporter(source TableSource, logger *slog.Logger) *Exporter {
	return &Exporter{
		source: source,
		tables: sqlite.ExportTables,
		logger: logger,
	}
}

// ExportAll creates dir if needed and writes one CSV file per table, header
// first. It returns the number of data rows written per file name.
func (e *Exporter) ExportAll(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	counts := make(map[string]int, len(e.tables))
	for _, table := range e.tables {
		tbl, err := e.source.Export(ctx, table)
		if err != nil {
			return nil, fmt.Errorf("read %s for export: %w", table, err)
		}

		name := FileName(table)
		path := filepath.Join(dir, name)
		if err := writeFile(path, tbl); err != nil {
			return nil, err
		}
		counts[name] = len(tbl.Rows)
		e.logger.Info("table exported", "file", path, "rows", len(tbl.Rows))
	}
	return counts, nil
}

// FileName is the CSV file name a table is exported to.
func FileName(table string) string {
	return table + ".csv"
}

func writeFile(path string, tbl sqlite.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(tbl.Header); err != nil {
		return fmt.Errorf("write %s header: %w", path, err)
	}
	if err := w.WriteAll(tbl.Rows); err != nil {
		return fmt.Errorf("write %s rows: %w", path, err)
	}
	return nil
}
