package catalog

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const UnknownArtistName = "Unknown Artist"

const minPlausibleYear = 1850

var trackPrefixPattern = regexp.MustCompile(`^\s*(\d{1,2})[\s._-]+(.+)$`)

var leadingArticles = []string{"the ", "an ", "a "}

// TrackRecord is the normalized shape of one file, before ids and
// parent links are resolved by the builder.
type TrackRecord struct {
	Title       string
	ArtistNames []string
	AlbumTitle  string
	AlbumArtist string
	TrackNumber *int
	DiscNumber  *int
	Year        *int
	GenreNames  []string
	DurationMS  *int
	SampleRate  *int
	Bitrate     *int
	HasCover    bool

	Path       string
	SizeBytes  int64
	ModifiedAt time.Time

	// Canonical keys derived once here so grouping and sorting agree
	// everywhere downstream.
	ArtistKey       string
	ArtistSort      string
	AlbumArtistKey  string
	AlbumArtistSort string
	AlbumKey        string
	AlbumSort       string
	GenreKeys       []string
	TitleSort       string
}

// Normalize canonicalizes one raw tag bag into a TrackRecord, filling
// absent fields from the file path. It is a pure function of its inputs.
func Normalize(bag RawTagBag, file FileDescriptor) TrackRecord {
	record := TrackRecord{
		TrackNumber: bag.TrackNumber,
		DiscNumber:  bag.DiscNumber,
		Year:        clampYear(bag.Year),
		DurationMS:  bag.DurationMS,
		SampleRate:  bag.SampleRate,
		Bitrate:     bag.Bitrate,
		HasCover:    bag.HasEmbeddedCover,
		Path:        file.Path,
		SizeBytes:   file.SizeBytes,
		ModifiedAt:  file.ModifiedAt,
	}

	record.Title = strings.TrimSpace(bag.Title)
	if record.Title == "" {
		trackNo, title := parseTrackPrefix(baseNameWithoutExt(file.Path))
		record.Title = title
		if record.TrackNumber == nil {
			record.TrackNumber = trackNo
		}
	}

	record.ArtistNames = cleanNames(bag.ArtistNames)
	if len(record.ArtistNames) == 0 {
		record.ArtistNames = []string{UnknownArtistName}
	}

	record.AlbumArtist = strings.TrimSpace(bag.AlbumArtist)
	if record.AlbumArtist == "" {
		record.AlbumArtist = record.ArtistNames[0]
	}

	record.AlbumTitle = strings.TrimSpace(bag.AlbumTitle)
	if record.AlbumTitle == "" {
		record.AlbumTitle = parentFolderName(file.Path)
	}

	record.GenreNames = cleanNames(bag.GenreNames)

	record.ArtistKey = GroupKey(record.ArtistNames[0])
	record.ArtistSort = SortKey(record.ArtistNames[0])
	record.AlbumArtistKey = GroupKey(record.AlbumArtist)
	record.AlbumArtistSort = SortKey(record.AlbumArtist)
	record.AlbumKey = GroupKey(record.AlbumTitle)
	record.AlbumSort = SortKey(record.AlbumTitle)
	record.TitleSort = SortKey(record.Title)
	record.GenreKeys = make([]string, 0, len(record.GenreNames))
	for _, name := range record.GenreNames {
		record.GenreKeys = append(record.GenreKeys, GroupKey(name))
	}

	return record
}

// GroupKey folds a display name into the canonical key used for entity
// identity. Leading articles are kept: "The Beatles" and "Beatles" stay
// distinct artists unless the tags agree exactly.
func GroupKey(value string) string {
	return collapseSeparators(foldCaseAndMarks(value))
}

// SortKey is the article-stripped variant used purely for display
// ordering, never for grouping.
func SortKey(value string) string {
	key := GroupKey(value)
	for _, article := range leadingArticles {
		if strings.HasPrefix(key, article) {
			return strings.TrimSpace(key[len(article):])
		}
	}
	return key
}

// YearBucketOf maps an optional year to the album grouping bucket.
// Zero means "no year", which is its own bucket.
func YearBucketOf(year *int) int {
	if year == nil {
		return 0
	}
	return *year
}

var foldTransformer = transform.Chain(
	norm.NFKD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

func foldCaseAndMarks(value string) string {
	folded, _, err := transform.String(foldTransformer, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}

func collapseSeparators(value string) string {
	var builder strings.Builder
	builder.Grow(len(value))

	pendingSpace := false
	for _, char := range value {
		if unicode.IsLetter(char) || unicode.IsNumber(char) {
			if pendingSpace && builder.Len() > 0 {
				builder.WriteByte(' ')
			}
			pendingSpace = false
			builder.WriteRune(char)
			continue
		}
		pendingSpace = true
	}

	return builder.String()
}

func clampYear(year *int) *int {
	if year == nil {
		return nil
	}
	if *year < minPlausibleYear || *year > time.Now().Year()+1 {
		return nil
	}
	copied := *year
	return &copied
}

func cleanNames(names []string) []string {
	cleaned := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		key := GroupKey(trimmed)
		if _, duplicate := seen[key]; duplicate {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, trimmed)
	}
	return cleaned
}

func baseNameWithoutExt(path string) string {
	fileName := filepath.Base(path)
	return strings.TrimSuffix(fileName, filepath.Ext(fileName))
}

func parentFolderName(path string) string {
	parent := filepath.Base(filepath.Dir(path))
	if parent == "." || parent == string(filepath.Separator) || parent == "/" {
		return "Unknown Album"
	}
	return parent
}

func parseTrackPrefix(baseName string) (*int, string) {
	match := trackPrefixPattern.FindStringSubmatch(baseName)
	if len(match) != 3 {
		return nil, strings.TrimSpace(baseName)
	}

	number := 0
	for _, ch := range match[1] {
		number = (number * 10) + int(ch-'0')
	}
	if number <= 0 {
		return nil, strings.TrimSpace(baseName)
	}

	return &number, strings.TrimSpace(match[2])
}
