package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lyra/internal/catalog"
)

var ErrPlaylistNotFound = errors.New("playlist not found")

var ErrPlaylistFolderNotFound = errors.New("playlist folder not found")

// Playlist references catalog tracks by stable id. References are weak:
// a track that left the catalog stays in the playlist and renders as
// unavailable, so nothing the user built is ever silently erased.
type Playlist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FolderID *string  `json:"folderId,omitempty"`
	TrackIDs []string `json:"trackIds"`
}

type PlaylistFolder struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	PlaylistIDs []string `json:"playlistIds"`
}

type PlaylistRepository struct {
	db *sql.DB
}

func NewPlaylistRepository(database *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: database}
}

func (r *PlaylistRepository) List(ctx context.Context) ([]Playlist, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id, name, folder_id FROM playlists ORDER BY name COLLATE NOCASE, id",
	)
	if err != nil {
		return nil, fmt.Errorf("list playlists: %w", err)
	}
	defer rows.Close()

	playlists := make([]Playlist, 0)
	for rows.Next() {
		var playlist Playlist
		var folderID sql.NullString
		if err := rows.Scan(&playlist.ID, &playlist.Name, &folderID); err != nil {
			return nil, fmt.Errorf("scan playlist row: %w", err)
		}
		if folderID.Valid {
			value := folderID.String
			playlist.FolderID = &value
		}
		playlists = append(playlists, playlist)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist rows: %w", err)
	}

	for index := range playlists {
		trackIDs, err := r.listTrackIDs(ctx, playlists[index].ID)
		if err != nil {
			return nil, err
		}
		playlists[index].TrackIDs = trackIDs
	}

	return playlists, nil
}

func (r *PlaylistRepository) Get(ctx context.Context, id string) (Playlist, error) {
	var playlist Playlist
	var folderID sql.NullString
	err := r.db.QueryRowContext(
		ctx,
		"SELECT id, name, folder_id FROM playlists WHERE id = ?",
		id,
	).Scan(&playlist.ID, &playlist.Name, &folderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Playlist{}, ErrPlaylistNotFound
		}
		return Playlist{}, fmt.Errorf("get playlist %s: %w", id, err)
	}
	if folderID.Valid {
		value := folderID.String
		playlist.FolderID = &value
	}

	trackIDs, err := r.listTrackIDs(ctx, playlist.ID)
	if err != nil {
		return Playlist{}, err
	}
	playlist.TrackIDs = trackIDs

	return playlist, nil
}

func (r *PlaylistRepository) Create(ctx context.Context, name string, folderID *string) (Playlist, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return Playlist{}, errors.New("playlist name is required")
	}

	id := uuid.NewString()
	if _, err := r.db.ExecContext(
		ctx,
		"INSERT INTO playlists(id, name, folder_id) VALUES (?, ?, ?)",
		id,
		trimmed,
		nullableFolderID(folderID),
	); err != nil {
		return Playlist{}, fmt.Errorf("insert playlist %q: %w", trimmed, err)
	}

	return r.Get(ctx, id)
}

func (r *PlaylistRepository) Rename(ctx context.Context, id string, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("playlist name is required")
	}

	result, err := r.db.ExecContext(ctx, "UPDATE playlists SET name = ? WHERE id = ?", trimmed, id)
	if err != nil {
		return fmt.Errorf("rename playlist %s: %w", id, err)
	}

	return requireAffected(result, ErrPlaylistNotFound)
}

func (r *PlaylistRepository) SetFolder(ctx context.Context, id string, folderID *string) error {
	result, err := r.db.ExecContext(
		ctx,
		"UPDATE playlists SET folder_id = ? WHERE id = ?",
		nullableFolderID(folderID),
		id,
	)
	if err != nil {
		return fmt.Errorf("move playlist %s: %w", id, err)
	}

	return requireAffected(result, ErrPlaylistNotFound)
}

func (r *PlaylistRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM playlists WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete playlist %s: %w", id, err)
	}

	return requireAffected(result, ErrPlaylistNotFound)
}

// SetTracks replaces the playlist's track list with the given ordered
// ids. Validation against the live catalog is the caller's concern;
// the store happily keeps ids the catalog no longer knows.
func (r *PlaylistRepository) SetTracks(ctx context.Context, id string, trackIDs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin playlist tracks tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err := tx.QueryRowContext(
		ctx,
		"SELECT COUNT(1) FROM playlists WHERE id = ?",
		id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("check playlist %s: %w", id, err)
	}
	if exists == 0 {
		return ErrPlaylistNotFound
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE playlist_id = ?", id); err != nil {
		return fmt.Errorf("clear playlist tracks %s: %w", id, err)
	}

	for position, trackID := range trackIDs {
		if _, err := tx.ExecContext(
			ctx,
			"INSERT INTO playlist_tracks(playlist_id, position, track_id) VALUES (?, ?, ?)",
			id,
			position,
			trackID,
		); err != nil {
			return fmt.Errorf("insert playlist track %s at %d: %w", id, position, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit playlist tracks %s: %w", id, err)
	}
	tx = nil

	return nil
}

func (r *PlaylistRepository) ListFolders(ctx context.Context) ([]PlaylistFolder, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id, name FROM playlist_folders ORDER BY name COLLATE NOCASE, id",
	)
	if err != nil {
		return nil, fmt.Errorf("list playlist folders: %w", err)
	}
	defer rows.Close()

	folders := make([]PlaylistFolder, 0)
	for rows.Next() {
		var folder PlaylistFolder
		if err := rows.Scan(&folder.ID, &folder.Name); err != nil {
			return nil, fmt.Errorf("scan playlist folder row: %w", err)
		}
		folders = append(folders, folder)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist folder rows: %w", err)
	}

	for index := range folders {
		playlistIDs, err := r.listFolderPlaylistIDs(ctx, folders[index].ID)
		if err != nil {
			return nil, err
		}
		folders[index].PlaylistIDs = playlistIDs
	}

	return folders, nil
}

func (r *PlaylistRepository) CreateFolder(ctx context.Context, name string) (PlaylistFolder, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return PlaylistFolder{}, errors.New("folder name is required")
	}

	id := uuid.NewString()
	if _, err := r.db.ExecContext(
		ctx,
		"INSERT INTO playlist_folders(id, name) VALUES (?, ?)",
		id,
		trimmed,
	); err != nil {
		return PlaylistFolder{}, fmt.Errorf("insert playlist folder %q: %w", trimmed, err)
	}

	return PlaylistFolder{ID: id, Name: trimmed, PlaylistIDs: []string{}}, nil
}

func (r *PlaylistRepository) RenameFolder(ctx context.Context, id string, name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return errors.New("folder name is required")
	}

	result, err := r.db.ExecContext(ctx, "UPDATE playlist_folders SET name = ? WHERE id = ?", trimmed, id)
	if err != nil {
		return fmt.Errorf("rename playlist folder %s: %w", id, err)
	}

	return requireAffected(result, ErrPlaylistFolderNotFound)
}

// DeleteFolder removes the folder; its playlists survive and move back
// to the top level.
func (r *PlaylistRepository) DeleteFolder(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete folder tx: %w", err)
	}
	defer func() {
		if tx != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, "UPDATE playlists SET folder_id = NULL WHERE folder_id = ?", id); err != nil {
		return fmt.Errorf("detach playlists from folder %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM playlist_folders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete playlist folder %s: %w", id, err)
	}
	if err := requireAffected(result, ErrPlaylistFolderNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete folder %s: %w", id, err)
	}
	tx = nil

	return nil
}

// Refs projects all playlists into the slim shape reconciliation needs.
func (r *PlaylistRepository) Refs(ctx context.Context) ([]catalog.PlaylistRefs, error) {
	playlists, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	refs := make([]catalog.PlaylistRefs, 0, len(playlists))
	for _, playlist := range playlists {
		refs = append(refs, catalog.PlaylistRefs{
			PlaylistID: playlist.ID,
			TrackIDs:   playlist.TrackIDs,
		})
	}

	return refs, nil
}

func (r *PlaylistRepository) listTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position",
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("list playlist tracks %s: %w", playlistID, err)
	}
	defer rows.Close()

	trackIDs := make([]string, 0)
	for rows.Next() {
		var trackID string
		if err := rows.Scan(&trackID); err != nil {
			return nil, fmt.Errorf("scan playlist track %s: %w", playlistID, err)
		}
		trackIDs = append(trackIDs, trackID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist tracks %s: %w", playlistID, err)
	}

	return trackIDs, nil
}

func (r *PlaylistRepository) listFolderPlaylistIDs(ctx context.Context, folderID string) ([]string, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT id FROM playlists WHERE folder_id = ? ORDER BY name COLLATE NOCASE, id",
		folderID,
	)
	if err != nil {
		return nil, fmt.Errorf("list folder playlists %s: %w", folderID, err)
	}
	defer rows.Close()

	playlistIDs := make([]string, 0)
	for rows.Next() {
		var playlistID string
		if err := rows.Scan(&playlistID); err != nil {
			return nil, fmt.Errorf("scan folder playlist %s: %w", folderID, err)
		}
		playlistIDs = append(playlistIDs, playlistID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folder playlists %s: %w", folderID, err)
	}

	return playlistIDs, nil
}

func nullableFolderID(folderID *string) any {
	if folderID == nil || strings.TrimSpace(*folderID) == "" {
		return nil
	}
	return *folderID
}

func requireAffected(result sql.Result, missing error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("read affected row count: %w", err)
	}
	if rowsAffected == 0 {
		return missing
	}
	return nil
}
