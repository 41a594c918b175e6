package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.senan.xyz/taglib"

	"lyra/internal/catalog"
)

var leadingIntegerPattern = regexp.MustCompile(`\d+`)

var yearPattern = regexp.MustCompile(`\b(1[89]|20)\d{2}\b`)

type ExtractErrorKind string

const (
	ExtractUnreadable        ExtractErrorKind = "unreadable"
	ExtractUnsupportedFormat ExtractErrorKind = "unsupported-format"
	ExtractCorruptTag        ExtractErrorKind = "corrupt-tag"
)

// ExtractError reports why one file's metadata could not be read. It is
// always scoped to a single file; callers fold it into the ignored set
// and keep scanning.
type ExtractError struct {
	Path string
	Kind ExtractErrorKind
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("extract %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("extract %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// TagReader abstracts the tag parsing backend so tests can feed
// synthetic tags without real audio files on disk.
type TagReader interface {
	ReadTags(path string) (map[string][]string, error)
	ReadProperties(path string) (taglib.Properties, error)
}

type taglibReader struct{}

func (taglibReader) ReadTags(path string) (map[string][]string, error) {
	return taglib.ReadTags(path)
}

func (taglibReader) ReadProperties(path string) (taglib.Properties, error) {
	return taglib.ReadProperties(path)
}

// Extractor turns one file into a raw tag bag. It reads only the tag
// container, never the audio stream, and holds no file handle past the
// call.
type Extractor struct {
	reader TagReader
}

func NewExtractor() *Extractor {
	return &Extractor{reader: taglibReader{}}
}

func NewExtractorWithReader(reader TagReader) *Extractor {
	return &Extractor{reader: reader}
}

func (e *Extractor) Extract(file catalog.FileDescriptor) (catalog.RawTagBag, error) {
	extension := strings.ToLower(filepath.Ext(file.Path))
	if _, supported := supportedExtensions[extension]; !supported {
		return catalog.RawTagBag{}, &ExtractError{Path: file.Path, Kind: ExtractUnsupportedFormat}
	}

	if err := probeReadable(file.Path); err != nil {
		return catalog.RawTagBag{}, &ExtractError{Path: file.Path, Kind: ExtractUnreadable, Err: err}
	}

	tags, tagsErr := e.reader.ReadTags(file.Path)
	if tagsErr != nil {
		return catalog.RawTagBag{}, &ExtractError{Path: file.Path, Kind: ExtractCorruptTag, Err: tagsErr}
	}

	bag := catalog.RawTagBag{
		Title:       firstTagValue(tags, taglib.Title, "TITLE"),
		ArtistNames: allTagValues(tags, taglib.Artist, "ARTIST", "ARTISTS"),
		AlbumTitle:  firstTagValue(tags, taglib.Album, "ALBUM"),
		AlbumArtist: firstTagValue(tags, taglib.AlbumArtist, "ALBUMARTIST"),
		GenreNames:  allTagValues(tags, taglib.Genre, "GENRE"),
		TrackNumber: parseNumericTag(firstTagValue(tags, taglib.TrackNumber, "TRACKNUMBER", "TRCK")),
		DiscNumber:  parseNumericTag(firstTagValue(tags, taglib.DiscNumber, "DISCNUMBER", "TPOS")),
		Year:        parseYearTag(firstTagValue(tags, taglib.Date, "DATE", "YEAR", "ORIGINALDATE", "RELEASEDATE")),
	}

	properties, propertiesErr := e.reader.ReadProperties(file.Path)
	if propertiesErr == nil {
		if properties.Length > 0 {
			durationMS := int(properties.Length.Milliseconds())
			if durationMS > 0 {
				bag.DurationMS = &durationMS
			}
		}
		if properties.SampleRate > 0 {
			sampleRate := int(properties.SampleRate)
			bag.SampleRate = &sampleRate
		}
		if properties.Bitrate > 0 {
			bitrate := int(properties.Bitrate)
			bag.Bitrate = &bitrate
		}
		bag.HasEmbeddedCover = len(properties.Images) > 0
	}

	return bag, nil
}

// probeReadable opens and immediately closes the file so unreadable
// paths are classified before the tag parser touches them.
func probeReadable(path string) error {
	handle, err := os.Open(path)
	if err != nil {
		return err
	}
	return handle.Close()
}

func firstTagValue(tags map[string][]string, keys ...string) string {
	for _, key := range keys {
		values, ok := tags[key]
		if !ok {
			continue
		}
		for _, value := range values {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return trimmed
			}
		}
	}

	return ""
}

func allTagValues(tags map[string][]string, keys ...string) []string {
	for _, key := range keys {
		values, ok := tags[key]
		if !ok {
			continue
		}

		collected := make([]string, 0, len(values))
		for _, value := range values {
			for _, part := range strings.Split(value, ";") {
				trimmed := strings.TrimSpace(part)
				if trimmed != "" {
					collected = append(collected, trimmed)
				}
			}
		}
		if len(collected) > 0 {
			return collected
		}
	}

	return nil
}

func parseNumericTag(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	match := leadingIntegerPattern.FindString(trimmed)
	if match == "" {
		return nil
	}

	parsed, err := strconv.Atoi(match)
	if err != nil || parsed <= 0 {
		return nil
	}

	return &parsed
}

func parseYearTag(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	match := yearPattern.FindString(trimmed)
	if match == "" {
		if fallback := parseNumericTag(trimmed); fallback != nil {
			return fallback
		}
		return nil
	}

	parsed, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}

	return &parsed
}
