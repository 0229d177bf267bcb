package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/graft/internal/ir"
)

// WriteOverride appends an override record to the journal.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// A record without an ID gets a fresh UUIDv7. The record's Seq is ignored;
// SQLite assigns it.
func (s *Store) WriteOverride(ctx context.Context, rec ir.OverrideRecord) error {
	if rec.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("write override: %w", err)
		}
		rec.ID = id.String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO overrides
		(id, identifier, origin_hint, resolved_path, resolution, original_digest, transformed_digest, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID,
		rec.Identifier,
		rec.OriginHint,
		rec.ResolvedPath,
		string(rec.Resolution),
		rec.OriginalDigest,
		rec.TransformedDigest,
		ir.SchemaVersion,
	)
	if err != nil {
		return fmt.Errorf("write override %s: %w", rec.ID, err)
	}
	return nil
}
