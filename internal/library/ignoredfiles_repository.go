package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lyra/internal/catalog"
)

// IgnoredFileRepository persists the set of paths that failed metadata
// extraction. The scanner loads it at scan start and replaces it after
// every reconciliation that changed it.
type IgnoredFileRepository struct {
	db *sql.DB
}

func NewIgnoredFileRepository(database *sql.DB) *IgnoredFileRepository {
	return &IgnoredFileRepository{db: database}
}

func (r *IgnoredFileRepository) Load(ctx context.Context) ([]catalog.IgnoredFile, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT path, reason, last_seen_at FROM ignored_files ORDER BY path",
	)
	if err != nil {
		return nil, fmt.Errorf("load ignored files: %w", err)
	}
	defer rows.Close()

	entries := make([]catalog.IgnoredFile, 0)
	for rows.Next() {
		var entry catalog.IgnoredFile
		var reason string
		var lastSeenAt string
		if err := rows.Scan(&entry.Path, &reason, &lastSeenAt); err != nil {
			return nil, fmt.Errorf("scan ignored file row: %w", err)
		}
		entry.Reason = catalog.IgnoreReason(reason)
		if parsed, parseErr := time.Parse(time.RFC3339, lastSeenAt); parseErr == nil {
			entry.LastSeenAt = parsed
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ignored file rows: %w", err)
	}

	return entries, nil
}

func (r *IgnoredFileRepository) ReplaceAll(ctx context.Context, entries []catalog.IgnoredFile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ignored files tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM ignored_files"); err != nil {
		return fmt.Errorf("clear ignored files: %w", err)
	}

	for _, entry := range entries {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO ignored_files(path, reason, last_seen_at) VALUES (?, ?, ?)",
			entry.Path,
			string(entry.Reason),
			entry.LastSeenAt.UTC().Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("insert ignored file %s: %w", entry.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ignored files: %w", err)
	}
	tx = nil

	return nil
}
