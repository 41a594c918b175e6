package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrRootFolderNotFound = errors.New("root folder not found")

// RootFolder is one user-selected library root. Changes take effect at
// the next scan start, never mid-scan.
type RootFolder struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"createdAt"`
}

type RootFolderRepository struct {
	db *sql.DB
}

func NewRootFolderRepository(database *sql.DB) *RootFolderRepository {
	return &RootFolderRepository{db: database}
}

func (r *RootFolderRepository) List(ctx context.Context) ([]RootFolder, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id, path, enabled, created_at FROM root_folders ORDER BY path COLLATE NOCASE",
	)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}
	defer rows.Close()

	folders := make([]RootFolder, 0)
	for rows.Next() {
		var folder RootFolder
		var enabledInt int
		if err := rows.Scan(&folder.ID, &folder.Path, &enabledInt, &folder.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan root folder row: %w", err)
		}
		folder.Enabled = enabledInt == 1
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate root folder rows: %w", err)
	}

	return folders, nil
}

// ListEnabled returns the folders the next scan should walk.
func (r *RootFolderRepository) ListEnabled(ctx context.Context) ([]RootFolder, error) {
	folders, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	enabled := make([]RootFolder, 0, len(folders))
	for _, folder := range folders {
		if folder.Enabled {
			enabled = append(enabled, folder)
		}
	}

	return enabled, nil
}

func (r *RootFolderRepository) Add(ctx context.Context, path string) (RootFolder, error) {
	if strings.TrimSpace(path) == "" {
		return RootFolder{}, errors.New("path is required")
	}

	result, err := r.db.ExecContext(
		ctx,
		"INSERT INTO root_folders(path, enabled) VALUES (?, 1)",
		path,
	)
	if err != nil {
		return RootFolder{}, fmt.Errorf("insert root folder: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return RootFolder{}, fmt.Errorf("read root folder id: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *RootFolderRepository) GetByID(ctx context.Context, id int64) (RootFolder, error) {
	var folder RootFolder
	var enabledInt int
	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, path, enabled, created_at FROM root_folders WHERE id = ?",
		id,
	).Scan(&folder.ID, &folder.Path, &enabledInt, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return RootFolder{}, ErrRootFolderNotFound
		}
		return RootFolder{}, fmt.Errorf("get root folder %d: %w", id, err)
	}

	folder.Enabled = enabledInt == 1
	return folder, nil
}

func (r *RootFolderRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	enabledInt := 0
	if enabled {
		enabledInt = 1
	}

	result, err := r.db.ExecContext(
		ctx,
		"UPDATE root_folders SET enabled = ? WHERE id = ?",
		enabledInt,
		id,
	)
	if err != nil {
		return fmt.Errorf("update root folder %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read updated root folder count: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRootFolderNotFound
	}

	return nil
}

func (r *RootFolderRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM root_folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete root folder %d: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read deleted root folder count: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRootFolderNotFound
	}

	return nil
}
