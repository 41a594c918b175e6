package main

import (
	"context"
	"errors"
	"fmt"

	"lyra/internal/catalog"
	"lyra/internal/library"
)

// PlaylistEntry pairs a stored track reference with its current catalog
// state. Entries whose track left the catalog stay in place and render
// as unavailable.
type PlaylistEntry struct {
	TrackID   string         `json:"trackId"`
	Available bool           `json:"available"`
	Track     *catalog.Track `json:"track,omitempty"`
}

type PlaylistView struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	FolderID *string         `json:"folderId,omitempty"`
	Entries  []PlaylistEntry `json:"entries"`
}

type PlaylistService struct {
	playlists *library.PlaylistRepository
	query     *catalog.QueryService
}

func NewPlaylistService(playlists *library.PlaylistRepository, query *catalog.QueryService) *PlaylistService {
	return &PlaylistService{playlists: playlists, query: query}
}

func (s *PlaylistService) ListPlaylists() ([]PlaylistView, error) {
	playlists, err := s.playlists.List(context.Background())
	if err != nil {
		return nil, err
	}

	views := make([]PlaylistView, 0, len(playlists))
	for _, playlist := range playlists {
		views = append(views, s.buildView(playlist))
	}

	return views, nil
}

func (s *PlaylistService) GetPlaylist(id string) (PlaylistView, error) {
	playlist, err := s.playlists.Get(context.Background(), id)
	if err != nil {
		return PlaylistView{}, err
	}

	return s.buildView(playlist), nil
}

func (s *PlaylistService) CreatePlaylist(name string, folderID string) (PlaylistView, error) {
	var folder *string
	if folderID != "" {
		folder = &folderID
	}

	playlist, err := s.playlists.Create(context.Background(), name, folder)
	if err != nil {
		return PlaylistView{}, err
	}

	return s.buildView(playlist), nil
}

func (s *PlaylistService) RenamePlaylist(id string, name string) error {
	return s.playlists.Rename(context.Background(), id, name)
}

func (s *PlaylistService) DeletePlaylist(id string) error {
	return s.playlists.Delete(context.Background(), id)
}

func (s *PlaylistService) MovePlaylist(id string, folderID string) error {
	var folder *string
	if folderID != "" {
		folder = &folderID
	}
	return s.playlists.SetFolder(context.Background(), id, folder)
}

// SetTracks replaces a playlist's contents. New track ids are validated
// against the snapshot published right now, not whatever was live when
// the frontend rendered; ids the playlist already held may stay even if
// their track is currently gone.
func (s *PlaylistService) SetTracks(id string, trackIDs []string) error {
	ctx := context.Background()

	existing, err := s.playlists.Get(ctx, id)
	if err != nil {
		return err
	}

	known := make(map[string]struct{}, len(existing.TrackIDs))
	for _, trackID := range existing.TrackIDs {
		known[trackID] = struct{}{}
	}

	for _, trackID := range trackIDs {
		if _, held := known[trackID]; held {
			continue
		}
		if _, err := s.query.GetTrack(trackID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return fmt.Errorf("track %s is not in the library", trackID)
			}
			return err
		}
	}

	return s.playlists.SetTracks(ctx, id, trackIDs)
}

func (s *PlaylistService) AppendTracks(id string, trackIDs []string) error {
	existing, err := s.playlists.Get(context.Background(), id)
	if err != nil {
		return err
	}

	return s.SetTracks(id, append(existing.TrackIDs, trackIDs...))
}

func (s *PlaylistService) ListFolders() ([]library.PlaylistFolder, error) {
	return s.playlists.ListFolders(context.Background())
}

func (s *PlaylistService) CreateFolder(name string) (library.PlaylistFolder, error) {
	return s.playlists.CreateFolder(context.Background(), name)
}

func (s *PlaylistService) RenameFolder(id string, name string) error {
	return s.playlists.RenameFolder(context.Background(), id, name)
}

func (s *PlaylistService) DeleteFolder(id string) error {
	return s.playlists.DeleteFolder(context.Background(), id)
}

func (s *PlaylistService) buildView(playlist library.Playlist) PlaylistView {
	view := PlaylistView{
		ID:       playlist.ID,
		Name:     playlist.Name,
		FolderID: playlist.FolderID,
		Entries:  make([]PlaylistEntry, 0, len(playlist.TrackIDs)),
	}

	for _, trackID := range playlist.TrackIDs {
		entry := PlaylistEntry{TrackID: trackID}
		if track, err := s.query.GetTrack(trackID); err == nil {
			entry.Available = true
			entry.Track = &track
		}
		view.Entries = append(view.Entries, entry)
	}

	return view
}
