package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/graft/internal/ir"
)

const selectOverrides = `
	SELECT seq, id, identifier, origin_hint, resolved_path, resolution, original_digest, transformed_digest
	FROM overrides
`

// ReadOverrides returns every override in journal order.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC COLLATE BINARY.
//
// Returns an empty slice (not nil) if the journal is empty.
func (s *Store) ReadOverrides(ctx context.Context) ([]ir.OverrideRecord, error) {
	return s.queryOverrides(ctx, selectOverrides+`
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadOverridesForPath returns the overrides installed at one resolved path,
// in journal order.
func (s *Store) ReadOverridesForPath(ctx context.Context, path string) ([]ir.OverrideRecord, error) {
	return s.queryOverrides(ctx, selectOverrides+`
		WHERE resolved_path = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, path)
}

// CountOverrides returns the number of journal records.
func (s *Store) CountOverrides(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM overrides`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count overrides: %w", err)
	}
	return n, nil
}

func (s *Store) queryOverrides(ctx context.Context, query string, args ...any) ([]ir.OverrideRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query overrides: %w", err)
	}
	defer rows.Close()

	records := []ir.OverrideRecord{}
	for rows.Next() {
		rec, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate overrides: %w", err)
	}
	return records, nil
}

func scanOverride(rows *sql.Rows) (ir.OverrideRecord, error) {
	var rec ir.OverrideRecord
	var resolution string
	if err := rows.Scan(
		&rec.Seq,
		&rec.ID,
		&rec.Identifier,
		&rec.OriginHint,
		&rec.ResolvedPath,
		&resolution,
		&rec.OriginalDigest,
		&rec.TransformedDigest,
	); err != nil {
		return ir.OverrideRecord{}, fmt.Errorf("scan override: %w", err)
	}
	rec.Resolution = ir.Resolution(resolution)
	return rec, nil
}
