package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/opendata-catalog-etl/internal/domain"

	_ "modernc.org/sqlite"
)

// Store persists catalog records in a single SQLite file. It holds one
// connection: the run has exactly one writer.
type Store struct {
	db *sql.DB
}

// Table is one exported table: its header and every row as text, NULL as "".
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Open opens (creating if needed) the SQLite database at path and checks it
// is reachable. The schema is not touched; call InitSchema or ResetSchema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CheckReadiness reports whether the database still answers.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite not ready: %w", err)
	}
	return nil
}

// InitSchema creates the three tables when they do not exist yet.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// ResetSchema drops and recreates every table, discarding all stored rows.
func (s *Store) ResetSchema(ctx context.Context) error {
	for _, table := range dropOrder {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return s.InitSchema(ctx)
}

// LoadBatch upserts every record and its distributions in one transaction.
// A colliding id replaces the whole row, raw snapshot included.
func (s *Store) LoadBatch(ctx context.Context, records []domain.Record) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	dsStmt, err := tx.PrepareContext(ctx, upsertDataset)
	if err != nil {
		return fmt.Errorf("prepare dataset upsert: %w", err)
	}
	defer dsStmt.Close()

	distStmt, err := tx.PrepareContext(ctx, upsertDistribution)
	if err != nil {
		return fmt.Errorf("prepare distribution upsert: %w", err)
	}
	defer distStmt.Close()

	for _, rec := range records {
		ds := rec.Dataset
		if _, err = dsStmt.ExecContext(ctx,
			ds.ID, nullable(ds.Title), nullable(ds.Description),
			nullable(ds.Issued), nullable(ds.Modified), nullable(ds.Publisher),
			ds.RawJSON,
		); err != nil {
			return fmt.Errorf("upsert dataset %s: %w", ds.ID, err)
		}

		for _, dist := range rec.Distributions {
			if _, err = distStmt.ExecContext(ctx,
				nullable(dist.ID), dist.DatasetID, nullable(dist.Title), nullable(dist.Format),
				nullable(dist.AccessURL), nullable(dist.DownloadURL), dist.RawJSON,
			); err != nil {
				return fmt.Errorf("upsert distribution of dataset %s: %w", ds.ID, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

// SeedTaxonomy inserts the entities, ignoring any whose URI is already
// stored, and returns how many rows were actually added.
func (s *Store) SeedTaxonomy(ctx context.Context, entities []domain.GeoEntity) (inserted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin taxonomy seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertGeoEntity)
	if err != nil {
		return 0, fmt.Errorf("prepare taxonomy insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		res, err := stmt.ExecContext(ctx, string(e.Level), e.Name, e.URI)
		if err != nil {
			return 0, fmt.Errorf("insert taxonomy %s: %w", e.URI, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("taxonomy rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit taxonomy seed: %w", err)
	}
	return inserted, nil
}

// Export reads every row of table in its export column order. Row order is
// whatever SQLite returns.
func (s *Store) Export(ctx context.Context, table string) (Table, error) {
	cols, ok := exportColumns[table]
	if !ok {
		return Table{}, fmt.Errorf("export: unknown table %q", table)
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM " + table
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return Table{}, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	out := Table{Name: table, Header: ExportColumns(table)}
	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return Table{}, fmt.Errorf("scan %s: %w", table, err)
		}

		row := make([]string, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("read %s: %w", table, err)
	}
	return out, nil
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if _, ok := exportColumns[table]; !ok {
		return 0, fmt.Errorf("count: unknown table %q", table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// OrphanDistributions returns the ids of distributions whose dataset_id has
// no matching dataset row. Distributions without an id are reported as "".
func (s *Store) OrphanDistributions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT COALESCE(d.id, '')
FROM distributions d
LEFT JOIN datasets ds ON ds.id = d.dataset_id
WHERE ds.id IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("query orphan distributions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan orphan distribution: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DatasetTitle returns the stored title of dataset id. ok is false when the
// dataset does not exist; a NULL title yields ok with a nil title.
func (s *Store) DatasetTitle(ctx context.Context, id string) (title *string, ok bool, err error) {
	var t sql.NullString
	err = s.db.QueryRowContext(ctx, "SELECT title FROM datasets WHERE id = ?", id).Scan(&t)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query dataset %s: %w", id, err)
	}
	if t.Valid {
		return &t.String, true, nil
	}
	return nil, true, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
