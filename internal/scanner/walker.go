package scanner

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"lyra/internal/catalog"
)

var supportedExtensions = map[string]struct{}{
	".aac":  {},
	".aif":  {},
	".aiff": {},
	".alac": {},
	".flac": {},
	".m4a":  {},
	".mp3":  {},
	".ogg":  {},
	".opus": {},
	".wav":  {},
	".wma":  {},
}

// WalkFilter narrows which files a walk yields.
type WalkFilter struct {
	// Extensions overrides the supported set when non-empty. Keys are
	// lowercase including the dot.
	Extensions map[string]struct{}

	// MaxDepth limits directory nesting below each root. Zero means
	// unlimited.
	MaxDepth int

	// FollowSymlinks admits symlinked files. Symlinked directories are
	// never descended into, which keeps walks finite on cyclic links.
	FollowSymlinks bool
}

// WalkReport collects what happened during one walk. It is complete
// only after the file sequence has been fully consumed.
type WalkReport struct {
	FilesSeen    int
	Skipped      int
	MissingRoots []string
}

// Walker enumerates candidate audio files under a set of root folders.
// It holds no cross-walk state: every Walk call re-enumerates from
// scratch, so the sequence is restartable by calling Walk again.
type Walker struct {
	roots  []string
	filter WalkFilter
}

func NewWalker(roots []string, filter WalkFilter) *Walker {
	return &Walker{roots: roots, filter: filter}
}

// Walk returns a lazy sequence of file descriptors plus the report that
// fills in as the sequence is drained. A root that no longer exists
// yields nothing and lands in the report's MissingRoots; per-entry
// errors are absorbed as skips and never abort the walk.
func (w *Walker) Walk(ctx context.Context) (iter.Seq[catalog.FileDescriptor], *WalkReport) {
	report := &WalkReport{}

	sequence := func(yield func(catalog.FileDescriptor) bool) {
		for _, root := range w.roots {
			if ctx.Err() != nil {
				return
			}

			info, statErr := os.Stat(root)
			if statErr != nil || !info.IsDir() {
				report.MissingRoots = append(report.MissingRoots, root)
				continue
			}

			stopped := false
			_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
				if ctx.Err() != nil {
					stopped = true
					return filepath.SkipAll
				}
				if walkErr != nil {
					report.Skipped++
					return nil
				}

				if entry.IsDir() {
					if path != root && strings.HasPrefix(entry.Name(), ".") {
						return filepath.SkipDir
					}
					if w.filter.MaxDepth > 0 && depthBelow(root, path) > w.filter.MaxDepth {
						return filepath.SkipDir
					}
					return nil
				}

				if strings.HasPrefix(entry.Name(), ".") {
					return nil
				}
				isSymlink := entry.Type()&fs.ModeSymlink != 0
				if isSymlink && !w.filter.FollowSymlinks {
					report.Skipped++
					return nil
				}
				if !w.allowsExtension(filepath.Ext(path)) {
					return nil
				}

				var fileInfo fs.FileInfo
				var infoErr error
				if isSymlink {
					// The descriptor must carry the target's size and
					// mtime, not the link's, or the track id changes
					// whenever the link is recreated.
					fileInfo, infoErr = os.Stat(path)
				} else {
					fileInfo, infoErr = entry.Info()
				}
				if infoErr != nil || fileInfo.IsDir() {
					report.Skipped++
					return nil
				}

				report.FilesSeen++
				if !yield(catalog.FileDescriptor{
					Path:       filepath.Clean(path),
					SizeBytes:  fileInfo.Size(),
					ModifiedAt: fileInfo.ModTime(),
				}) {
					stopped = true
					return filepath.SkipAll
				}

				return nil
			})
			if stopped {
				return
			}
		}
	}

	return sequence, report
}

func (w *Walker) allowsExtension(ext string) bool {
	lowered := strings.ToLower(ext)
	if len(w.filter.Extensions) > 0 {
		_, ok := w.filter.Extensions[lowered]
		return ok
	}
	_, ok := supportedExtensions[lowered]
	return ok
}

func depthBelow(root string, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}
