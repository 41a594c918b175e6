package catalog

import (
	"fmt"
	"hash/fnv"
	"time"
)

// FileDescriptor identifies one candidate audio file found during a walk.
// It is transient: produced by the walker, consumed by extraction, not
// retained in the catalog.
type FileDescriptor struct {
	Path       string
	SizeBytes  int64
	ModifiedAt time.Time
}

// RawTagBag holds the tag values read from one file. Any field may be
// absent; absence is a regular value, not an error.
type RawTagBag struct {
	Title            string
	ArtistNames      []string
	AlbumTitle       string
	AlbumArtist      string
	TrackNumber      *int
	DiscNumber       *int
	Year             *int
	GenreNames       []string
	DurationMS       *int
	SampleRate       *int
	Bitrate          *int
	HasEmbeddedCover bool
}

type Track struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ArtistID    string   `json:"artistId"`
	AlbumID     string   `json:"albumId"`
	GenreIDs    []string `json:"genreIds,omitempty"`
	ArtistNames []string `json:"artistNames"`
	Year        *int     `json:"year,omitempty"`
	TrackNumber *int     `json:"trackNo,omitempty"`
	DiscNumber  *int     `json:"discNo,omitempty"`
	DurationMS  *int     `json:"durationMs,omitempty"`
	SampleRate  *int     `json:"sampleRate,omitempty"`
	Bitrate     *int     `json:"bitrate,omitempty"`
	Path        string   `json:"path"`
	ModifiedAt  int64    `json:"modifiedAt"`
	SizeBytes   int64    `json:"sizeBytes"`
	HasCover    bool     `json:"hasCover"`
}

type Artist struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	SortKey  string   `json:"sortKey"`
	AlbumIDs []string `json:"albumIds"`
	TrackIDs []string `json:"trackIds"`
}

type Album struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	SortKey  string   `json:"sortKey"`
	ArtistID string   `json:"artistId"`
	Year     *int     `json:"year,omitempty"`
	TrackIDs []string `json:"trackIds"`
}

type Genre struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	TrackIDs []string `json:"trackIds"`
}

// YearBucket is a derived view over the snapshot, never persisted.
type YearBucket struct {
	Year     int      `json:"year"`
	TrackIDs []string `json:"trackIds"`
}

// Snapshot is the full catalog graph at one point in time. It is
// immutable once built; the live catalog is always exactly one
// published Snapshot, swapped atomically by the store.
type Snapshot struct {
	Tracks  map[string]Track
	Artists map[string]Artist
	Albums  map[string]Album
	Genres  map[string]Genre

	// Sorted orders, fixed at build time so readers never sort.
	ArtistOrder []string
	AlbumOrder  []string
	GenreOrder  []string
	YearOrder   []int
	Years       map[int]YearBucket
}

// EmptySnapshot is the state before any scan has published.
func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Tracks:  map[string]Track{},
		Artists: map[string]Artist{},
		Albums:  map[string]Album{},
		Genres:  map[string]Genre{},
		Years:   map[int]YearBucket{},
	}
}

// TrackID derives the stable track identity from the file's absolute
// path, size and modification time. Unchanged files reproduce the same
// id on every scan; playlists depend on that.
func TrackID(path string, sizeBytes int64, modifiedAt time.Time) string {
	return hashID("t", fmt.Sprintf("%s|%d|%d", path, sizeBytes, modifiedAt.UnixNano()))
}

func ArtistID(groupKey string) string {
	return hashID("ar", groupKey)
}

func AlbumID(artistID string, albumKey string, yearBucket int) string {
	return hashID("al", fmt.Sprintf("%s|%s|%d", artistID, albumKey, yearBucket))
}

func GenreID(genreKey string) string {
	return hashID("g", genreKey)
}

func hashID(prefix string, value string) string {
	digest := fnv.New64a()
	digest.Write([]byte(value))
	return fmt.Sprintf("%s_%016x", prefix, digest.Sum64())
}
