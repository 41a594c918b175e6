package catalog

import (
	"testing"
	"time"
)

func descriptorForTest(path string) FileDescriptor {
	return FileDescriptor{
		Path:       path,
		SizeBytes:  1024,
		ModifiedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNormalizeFallsBackToFilenameTitle(t *testing.T) {
	t.Parallel()

	record := Normalize(RawTagBag{}, descriptorForTest("/music/Neil Young/Harvest/03 - Out on the Weekend.flac"))

	if record.Title != "Out on the Weekend" {
		t.Fatalf("unexpected title fallback: %q", record.Title)
	}
	if record.TrackNumber == nil || *record.TrackNumber != 3 {
		t.Fatalf("expected track number 3 from filename, got %v", record.TrackNumber)
	}
}

func TestNormalizeFallsBackToParentFolderAlbum(t *testing.T) {
	t.Parallel()

	record := Normalize(RawTagBag{Title: "Song"}, descriptorForTest("/music/Someone/Live at Leeds/song.mp3"))

	if record.AlbumTitle != "Live at Leeds" {
		t.Fatalf("unexpected album fallback: %q", record.AlbumTitle)
	}
}

func TestNormalizeSynthesizesUnknownArtist(t *testing.T) {
	t.Parallel()

	record := Normalize(RawTagBag{Title: "Song"}, descriptorForTest("/music/a/b/song.mp3"))

	if len(record.ArtistNames) != 1 || record.ArtistNames[0] != UnknownArtistName {
		t.Fatalf("expected synthetic unknown artist, got %v", record.ArtistNames)
	}
	if record.AlbumArtist != UnknownArtistName {
		t.Fatalf("expected album artist fallback, got %q", record.AlbumArtist)
	}
}

func TestNormalizePreservesMultipleArtistsFirstIsPrimary(t *testing.T) {
	t.Parallel()

	bag := RawTagBag{
		Title:       "Duet",
		ArtistNames: []string{"Alice Artist", "Bob Guest"},
	}
	record := Normalize(bag, descriptorForTest("/music/a/b/duet.mp3"))

	if len(record.ArtistNames) != 2 {
		t.Fatalf("expected both artists preserved, got %v", record.ArtistNames)
	}
	if record.ArtistKey != GroupKey("Alice Artist") {
		t.Fatalf("expected first artist as grouping key, got %q", record.ArtistKey)
	}
}

func TestNormalizeClampsImplausibleYears(t *testing.T) {
	t.Parallel()

	tooOld := 1492
	tooNew := time.Now().Year() + 5
	fine := 1979

	if record := Normalize(RawTagBag{Title: "x", Year: &tooOld}, descriptorForTest("/m/a/x.mp3")); record.Year != nil {
		t.Fatalf("expected pre-1850 year dropped, got %d", *record.Year)
	}
	if record := Normalize(RawTagBag{Title: "x", Year: &tooNew}, descriptorForTest("/m/a/x.mp3")); record.Year != nil {
		t.Fatalf("expected far-future year dropped, got %d", *record.Year)
	}
	if record := Normalize(RawTagBag{Title: "x", Year: &fine}, descriptorForTest("/m/a/x.mp3")); record.Year == nil || *record.Year != 1979 {
		t.Fatalf("expected plausible year kept, got %v", record.Year)
	}
}

func TestGroupKeyFoldsCaseAndDiacritics(t *testing.T) {
	t.Parallel()

	if GroupKey("Björk") != GroupKey("BJORK") {
		t.Fatalf("expected diacritic folding to match: %q vs %q", GroupKey("Björk"), GroupKey("BJORK"))
	}
	if GroupKey("AC/DC") != GroupKey("ac dc") {
		t.Fatalf("expected punctuation collapse: %q vs %q", GroupKey("AC/DC"), GroupKey("ac dc"))
	}
}

func TestGroupKeyKeepsLeadingArticles(t *testing.T) {
	t.Parallel()

	if GroupKey("The Beatles") == GroupKey("Beatles") {
		t.Fatal("grouping must keep leading articles so tag variants stay distinct")
	}
}

func TestSortKeyStripsLeadingArticles(t *testing.T) {
	t.Parallel()

	if SortKey("The Beatles") != "beatles" {
		t.Fatalf("unexpected sort key: %q", SortKey("The Beatles"))
	}
	if SortKey("A Tribe Called Quest") != "tribe called quest" {
		t.Fatalf("unexpected sort key: %q", SortKey("A Tribe Called Quest"))
	}
	if SortKey("Therapy?") != "therapy" {
		t.Fatalf("article stripping must match whole words only, got %q", SortKey("Therapy?"))
	}
}

func TestNormalizeDeduplicatesGenres(t *testing.T) {
	t.Parallel()

	bag := RawTagBag{
		Title:      "x",
		GenreNames: []string{"Rock", "rock", " Electronic "},
	}
	record := Normalize(bag, descriptorForTest("/m/a/x.mp3"))

	if len(record.GenreNames) != 2 {
		t.Fatalf("expected case-folded genre dedup, got %v", record.GenreNames)
	}
}
