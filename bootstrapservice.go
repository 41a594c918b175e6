package main

import (
	"context"

	"lyra/internal/catalog"
	"lyra/internal/library"
	"lyra/internal/scanner"
)

type StartupSnapshot struct {
	ScanStatus  scanner.Status       `json:"scanStatus"`
	RootFolders []library.RootFolder `json:"rootFolders"`
	Playlists   []PlaylistView       `json:"playlists"`
	Artists     []catalog.Artist     `json:"artists"`
}

type BootstrapService struct {
	query     *catalog.QueryService
	roots     *library.RootFolderRepository
	playlists *PlaylistService
	scanner   *scanner.Service
}

func NewBootstrapService(
	query *catalog.QueryService,
	roots *library.RootFolderRepository,
	playlists *PlaylistService,
	scanService *scanner.Service,
) *BootstrapService {
	return &BootstrapService{
		query:     query,
		roots:     roots,
		playlists: playlists,
		scanner:   scanService,
	}
}

func (s *BootstrapService) GetInitialState() (StartupSnapshot, error) {
	rootFolders, err := s.roots.List(context.Background())
	if err != nil {
		return StartupSnapshot{}, err
	}

	playlists, err := s.playlists.ListPlaylists()
	if err != nil {
		return StartupSnapshot{}, err
	}

	return StartupSnapshot{
		ScanStatus:  s.scanner.GetStatus(),
		RootFolders: rootFolders,
		Playlists:   playlists,
		Artists:     s.query.ListArtists(),
	}, nil
}
