package catalog

import (
	"errors"
	"testing"
)

func queryFixture(t *testing.T) *QueryService {
	t.Helper()

	store := NewStore()
	store.Publish(Build(recordsFor(t, []testTrack{
		{title: "Another Brick in the Wall", artist: "Pink Floyd", album: "The Wall", year: intRef(1979), trackNo: intRef(3), genre: "Rock", path: "/m/pf/wall/03.flac"},
		{title: "Mother", artist: "Pink Floyd", album: "The Wall", year: intRef(1979), trackNo: intRef(5), genre: "Rock", path: "/m/pf/wall/05.flac"},
		{title: "Wallflower", artist: "Diana Krall", album: "Wallflower", year: intRef(2015), trackNo: intRef(5), genre: "Jazz", path: "/m/dk/wf/05.flac"},
		{title: "99 Luftballons", artist: "Nena", album: "Nena", year: intRef(1983), trackNo: intRef(2), genre: "Pop", path: "/m/n/n/02.mp3"},
	})))

	return NewQueryService(store)
}

func TestGetTrackUnknownIDReturnsErrNotFound(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)
	if _, err := query.GetTrack("t_0000000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAlbumTracksComeBackInAlbumOrder(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)

	var wall Album
	for _, album := range query.ListAlbums() {
		if album.Title == "The Wall" {
			wall = album
		}
	}
	if wall.ID == "" {
		t.Fatal("fixture album not found")
	}

	tracks, err := query.AlbumTracks(wall.ID)
	if err != nil {
		t.Fatalf("album tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	if tracks[0].Title != "Another Brick in the Wall" || tracks[1].Title != "Mother" {
		t.Fatalf("unexpected track order: %q, %q", tracks[0].Title, tracks[1].Title)
	}
}

func TestSearchRanksPrefixAboveSubstring(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)
	results := query.Search("wall")

	if len(results.Albums) != 2 {
		t.Fatalf("expected both albums matching, got %d", len(results.Albums))
	}
	// "Wallflower" starts with the query; "The Wall" only contains it.
	if results.Albums[0].Title != "Wallflower" {
		t.Fatalf("expected prefix match first, got %q", results.Albums[0].Title)
	}

	if len(results.Tracks) != 2 {
		t.Fatalf("expected matching tracks, got %d", len(results.Tracks))
	}
	if results.Tracks[0].Title != "Wallflower" {
		t.Fatalf("expected prefix track first, got %q", results.Tracks[0].Title)
	}
}

func TestSearchEmptyQueryReturnsNothing(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)
	results := query.Search("   ")

	if len(results.Artists)+len(results.Albums)+len(results.Tracks) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestSearchFoldsDiacritics(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Publish(Build(recordsFor(t, []testTrack{
		{title: "Jóga", artist: "Björk", album: "Homogenic", year: intRef(1997), path: "/m/bj/h/joga.flac"},
	})))
	query := NewQueryService(store)

	results := query.Search("bjork")
	if len(results.Artists) != 1 || results.Artists[0].Name != "Björk" {
		t.Fatalf("expected folded artist match, got %+v", results.Artists)
	}

	results = query.Search("joga")
	if len(results.Tracks) != 1 {
		t.Fatalf("expected folded track match, got %+v", results.Tracks)
	}
}

func TestJumpToLetterFindsFirstEntity(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)

	target, err := query.JumpTo(KindArtist, "p")
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	artist, err := query.GetArtist(target.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if artist.Name != "Pink Floyd" {
		t.Fatalf("expected Pink Floyd under 'p', got %q", artist.Name)
	}
}

func TestJumpToHashBucketsDigits(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Publish(Build(recordsFor(t, []testTrack{
		{title: "x", artist: "A", album: "22, A Million", year: intRef(2016), path: "/m/a/22/x.mp3"},
		{title: "y", artist: "A", album: "Blue", year: intRef(1971), path: "/m/a/blue/y.mp3"},
	})))
	query := NewQueryService(store)

	target, err := query.JumpTo(KindAlbum, "#")
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	album, err := query.GetAlbum(target.ID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if album.Title != "22, A Million" {
		t.Fatalf("expected digit-led album in # bucket, got %q", album.Title)
	}
}

func TestJumpToMissingLetterReturnsErrNotFound(t *testing.T) {
	t.Parallel()

	query := queryFixture(t)
	if _, err := query.JumpTo(KindGenre, "q"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
