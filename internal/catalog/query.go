package catalog

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrNotFound is an expected condition, not a failure: playlist entries
// keep referencing tracks that left the catalog, and callers render
// those as unavailable.
var ErrNotFound = errors.New("not found in catalog")

const searchGroupLimit = 25

type EntityKind string

const (
	KindArtist EntityKind = "artist"
	KindAlbum  EntityKind = "album"
	KindGenre  EntityKind = "genre"
)

type SearchResults struct {
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
	Tracks  []Track  `json:"tracks"`
}

type JumpTarget struct {
	Kind  EntityKind `json:"kind"`
	ID    string     `json:"id"`
	Index int        `json:"index"`
}

// QueryService is the read-only surface over the published snapshot.
// Every call loads the current snapshot once and answers entirely from
// it; results are value copies, never references into the live graph.
type QueryService struct {
	store *Store
}

func NewQueryService(store *Store) *QueryService {
	return &QueryService{store: store}
}

func (q *QueryService) GetTrack(id string) (Track, error) {
	track, ok := q.store.Current().Tracks[id]
	if !ok {
		return Track{}, ErrNotFound
	}
	return track, nil
}

func (q *QueryService) GetAlbum(id string) (Album, error) {
	album, ok := q.store.Current().Albums[id]
	if !ok {
		return Album{}, ErrNotFound
	}
	return album, nil
}

func (q *QueryService) GetArtist(id string) (Artist, error) {
	artist, ok := q.store.Current().Artists[id]
	if !ok {
		return Artist{}, ErrNotFound
	}
	return artist, nil
}

func (q *QueryService) ListArtists() []Artist {
	snapshot := q.store.Current()
	artists := make([]Artist, 0, len(snapshot.ArtistOrder))
	for _, id := range snapshot.ArtistOrder {
		artists = append(artists, snapshot.Artists[id])
	}
	return artists
}

func (q *QueryService) ListAlbums() []Album {
	snapshot := q.store.Current()
	albums := make([]Album, 0, len(snapshot.AlbumOrder))
	for _, id := range snapshot.AlbumOrder {
		albums = append(albums, snapshot.Albums[id])
	}
	return albums
}

func (q *QueryService) ListGenres() []Genre {
	snapshot := q.store.Current()
	genres := make([]Genre, 0, len(snapshot.GenreOrder))
	for _, id := range snapshot.GenreOrder {
		genres = append(genres, snapshot.Genres[id])
	}
	return genres
}

func (q *QueryService) ListYears() []YearBucket {
	snapshot := q.store.Current()
	buckets := make([]YearBucket, 0, len(snapshot.YearOrder))
	for _, year := range snapshot.YearOrder {
		buckets = append(buckets, snapshot.Years[year])
	}
	return buckets
}

// AlbumTracks returns the album's tracks in disc/track order, the order
// fixed at build time.
func (q *QueryService) AlbumTracks(albumID string) ([]Track, error) {
	snapshot := q.store.Current()
	album, ok := snapshot.Albums[albumID]
	if !ok {
		return nil, ErrNotFound
	}

	tracks := make([]Track, 0, len(album.TrackIDs))
	for _, trackID := range album.TrackIDs {
		tracks = append(tracks, snapshot.Tracks[trackID])
	}
	return tracks, nil
}

func (q *QueryService) ArtistAlbums(artistID string) ([]Album, error) {
	snapshot := q.store.Current()
	artist, ok := snapshot.Artists[artistID]
	if !ok {
		return nil, ErrNotFound
	}

	albums := make([]Album, 0, len(artist.AlbumIDs))
	for _, albumID := range artist.AlbumIDs {
		albums = append(albums, snapshot.Albums[albumID])
	}
	return albums, nil
}

// Search matches the folded query as a substring of track titles, album
// titles and artist names. Within each group, matches at the start of
// the name rank above matches in the middle.
func (q *QueryService) Search(query string) SearchResults {
	folded := GroupKey(query)
	if folded == "" {
		return SearchResults{Artists: []Artist{}, Albums: []Album{}, Tracks: []Track{}}
	}

	snapshot := q.store.Current()
	results := SearchResults{Artists: []Artist{}, Albums: []Album{}, Tracks: []Track{}}

	type scored struct {
		id   string
		rank int
		key  string
	}

	scoreKey := func(key string) (int, bool) {
		if strings.HasPrefix(key, folded) {
			return 0, true
		}
		if strings.Contains(key, folded) {
			return 1, true
		}
		return 0, false
	}

	collect := func(ids []string, keyOf func(string) string) []scored {
		matches := make([]scored, 0)
		for _, id := range ids {
			key := keyOf(id)
			rank, ok := scoreKey(key)
			if !ok {
				continue
			}
			matches = append(matches, scored{id: id, rank: rank, key: key})
		}
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].rank != matches[j].rank {
				return matches[i].rank < matches[j].rank
			}
			return matches[i].key < matches[j].key
		})
		if len(matches) > searchGroupLimit {
			matches = matches[:searchGroupLimit]
		}
		return matches
	}

	for _, match := range collect(snapshot.ArtistOrder, func(id string) string {
		return GroupKey(snapshot.Artists[id].Name)
	}) {
		results.Artists = append(results.Artists, snapshot.Artists[match.id])
	}

	for _, match := range collect(snapshot.AlbumOrder, func(id string) string {
		return GroupKey(snapshot.Albums[id].Title)
	}) {
		results.Albums = append(results.Albums, snapshot.Albums[match.id])
	}

	trackIDs := make([]string, 0, len(snapshot.Tracks))
	for id := range snapshot.Tracks {
		trackIDs = append(trackIDs, id)
	}
	sort.Strings(trackIDs)
	for _, match := range collect(trackIDs, func(id string) string {
		return GroupKey(snapshot.Tracks[id].Title)
	}) {
		results.Tracks = append(results.Tracks, snapshot.Tracks[match.id])
	}

	return results
}

// JumpTo finds the first entity of the kind whose sort key falls in the
// requested letter bucket. Digits and anything non-alphabetic share the
// "#" bucket.
func (q *QueryService) JumpTo(kind EntityKind, letter string) (JumpTarget, error) {
	bucket := letterBucket(letter)
	if bucket == "" {
		return JumpTarget{}, errors.New("letter is required")
	}

	snapshot := q.store.Current()

	var order []string
	var keyOf func(string) string
	switch kind {
	case KindArtist:
		order = snapshot.ArtistOrder
		keyOf = func(id string) string { return snapshot.Artists[id].SortKey }
	case KindAlbum:
		order = snapshot.AlbumOrder
		keyOf = func(id string) string { return snapshot.Albums[id].SortKey }
	case KindGenre:
		order = snapshot.GenreOrder
		keyOf = func(id string) string { return GroupKey(snapshot.Genres[id].Name) }
	default:
		return JumpTarget{}, errors.New("unknown entity kind")
	}

	for index, id := range order {
		if letterBucket(keyOf(id)) == bucket {
			return JumpTarget{Kind: kind, ID: id, Index: index}, nil
		}
	}

	return JumpTarget{}, ErrNotFound
}

func letterBucket(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	first := []rune(strings.ToLower(trimmed))[0]
	if first >= 'a' && first <= 'z' {
		return string(first)
	}
	if unicode.IsDigit(first) {
		return "#"
	}
	return "#"
}
