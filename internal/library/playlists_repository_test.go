package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lyra/internal/db"
)

func testDatabase(t *testing.T) *PlaylistRepository {
	t.Helper()

	database, err := db.Bootstrap(filepath.Join(t.TempDir(), "library.db"))
	if err != nil {
		t.Fatalf("bootstrap db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewPlaylistRepository(database)
}

func TestPlaylistCreateAndGet(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "  Road Trip  ", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Name != "Road Trip" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	if created.FolderID != nil {
		t.Fatalf("expected top-level playlist, got folder %v", *created.FolderID)
	}

	loaded, err := repo.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Name != "Road Trip" || len(loaded.TrackIDs) != 0 {
		t.Fatalf("unexpected playlist: %+v", loaded)
	}
}

func TestPlaylistCreateRejectsEmptyName(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	if _, err := repo.Create(context.Background(), "   ", nil); err == nil {
		t.Fatal("expected empty name rejected")
	}
}

func TestPlaylistSetTracksPreservesOrder(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	playlist, err := repo.Create(ctx, "Ordered", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	want := []string{"t_03", "t_01", "t_02"}
	if err := repo.SetTracks(ctx, playlist.ID, want); err != nil {
		t.Fatalf("set tracks: %v", err)
	}

	loaded, err := repo.Get(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(loaded.TrackIDs) != len(want) {
		t.Fatalf("expected %d tracks, got %d", len(want), len(loaded.TrackIDs))
	}
	for index, trackID := range want {
		if loaded.TrackIDs[index] != trackID {
			t.Fatalf("order lost at %d: got %s, want %s", index, loaded.TrackIDs[index], trackID)
		}
	}
}

func TestPlaylistSetTracksUnknownPlaylist(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	err := repo.SetTracks(context.Background(), "no-such-playlist", []string{"t_01"})
	if !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
	}
}

func TestPlaylistDelete(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	playlist, err := repo.Create(ctx, "Doomed", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetTracks(ctx, playlist.ID, []string{"t_01"}); err != nil {
		t.Fatalf("set tracks: %v", err)
	}

	if err := repo.Delete(ctx, playlist.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, playlist.ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("expected ErrPlaylistNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, playlist.ID); !errors.Is(err, ErrPlaylistNotFound) {
		t.Fatalf("double delete should report missing, got %v", err)
	}
}

func TestPlaylistFoldersGroupPlaylists(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	folder, err := repo.CreateFolder(ctx, "Moods")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}

	inside, err := repo.Create(ctx, "Calm", &folder.ID)
	if err != nil {
		t.Fatalf("create playlist in folder: %v", err)
	}
	if _, err := repo.Create(ctx, "Loose", nil); err != nil {
		t.Fatalf("create top-level playlist: %v", err)
	}

	folders, err := repo.ListFolders(ctx)
	if err != nil {
		t.Fatalf("list folders: %v", err)
	}
	if len(folders) != 1 {
		t.Fatalf("expected 1 folder, got %d", len(folders))
	}
	if len(folders[0].PlaylistIDs) != 1 || folders[0].PlaylistIDs[0] != inside.ID {
		t.Fatalf("unexpected folder contents: %v", folders[0].PlaylistIDs)
	}
}

func TestDeleteFolderKeepsPlaylists(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	folder, err := repo.CreateFolder(ctx, "Temp")
	if err != nil {
		t.Fatalf("create folder: %v", err)
	}
	playlist, err := repo.Create(ctx, "Survivor", &folder.ID)
	if err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := repo.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("delete folder: %v", err)
	}

	loaded, err := repo.Get(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("playlist must survive its folder: %v", err)
	}
	if loaded.FolderID != nil {
		t.Fatalf("expected playlist detached, got folder %v", *loaded.FolderID)
	}
}

func TestPlaylistRefsProjection(t *testing.T) {
	t.Parallel()

	repo := testDatabase(t)
	ctx := context.Background()

	playlist, err := repo.Create(ctx, "Refs", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetTracks(ctx, playlist.ID, []string{"t_a", "t_b"}); err != nil {
		t.Fatalf("set tracks: %v", err)
	}

	refs, err := repo.Refs(ctx)
	if err != nil {
		t.Fatalf("refs: %v", err)
	}
	if len(refs) != 1 || refs[0].PlaylistID != playlist.ID || len(refs[0].TrackIDs) != 2 {
		t.Fatalf("unexpected refs: %+v", refs)
	}
}
