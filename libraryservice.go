package main

import (
	"lyra/internal/catalog"
)

// LibraryService is the read-only query surface the frontend uses. All
// answers come from the currently published snapshot and are value
// copies; the snapshot itself is never handed out.
type LibraryService struct {
	query *catalog.QueryService
}

func NewLibraryService(query *catalog.QueryService) *LibraryService {
	return &LibraryService{query: query}
}

func (s *LibraryService) GetTrack(id string) (catalog.Track, error) {
	return s.query.GetTrack(id)
}

func (s *LibraryService) GetAlbum(id string) (catalog.Album, error) {
	return s.query.GetAlbum(id)
}

func (s *LibraryService) GetArtist(id string) (catalog.Artist, error) {
	return s.query.GetArtist(id)
}

func (s *LibraryService) ListArtists() []catalog.Artist {
	return s.query.ListArtists()
}

func (s *LibraryService) ListAlbums() []catalog.Album {
	return s.query.ListAlbums()
}

func (s *LibraryService) ListGenres() []catalog.Genre {
	return s.query.ListGenres()
}

func (s *LibraryService) ListYears() []catalog.YearBucket {
	return s.query.ListYears()
}

func (s *LibraryService) AlbumTracks(albumID string) ([]catalog.Track, error) {
	return s.query.AlbumTracks(albumID)
}

func (s *LibraryService) ArtistAlbums(artistID string) ([]catalog.Album, error) {
	return s.query.ArtistAlbums(artistID)
}

func (s *LibraryService) Search(query string) catalog.SearchResults {
	return s.query.Search(query)
}

func (s *LibraryService) JumpTo(kind string, letter string) (catalog.JumpTarget, error) {
	return s.query.JumpTo(catalog.EntityKind(kind), letter)
}
