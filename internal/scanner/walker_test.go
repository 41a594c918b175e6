package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"lyra/internal/catalog"
)

func writeTestFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func drainWalk(t *testing.T, walker *Walker) ([]catalog.FileDescriptor, *WalkReport) {
	t.Helper()

	files, report := walker.Walk(context.Background())
	collected := make([]catalog.FileDescriptor, 0)
	for file := range files {
		collected = append(collected, file)
	}
	return collected, report
}

func TestWalkYieldsOnlySupportedExtensions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a", "song.mp3"))
	writeTestFile(t, filepath.Join(root, "a", "song.FLAC"))
	writeTestFile(t, filepath.Join(root, "a", "cover.jpg"))
	writeTestFile(t, filepath.Join(root, "a", "notes.txt"))

	files, report := drainWalk(t, NewWalker([]string{root}, WalkFilter{}))

	if len(files) != 2 {
		t.Fatalf("expected 2 audio files, got %d", len(files))
	}
	if report.FilesSeen != 2 {
		t.Fatalf("report disagrees with yield count: %d", report.FilesSeen)
	}
	for _, file := range files {
		if file.SizeBytes == 0 {
			t.Fatalf("descriptor for %s is missing its size", file.Path)
		}
		if file.ModifiedAt.IsZero() {
			t.Fatalf("descriptor for %s is missing its mtime", file.Path)
		}
	}
}

func TestWalkSkipsHiddenFilesAndDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "visible", "song.mp3"))
	writeTestFile(t, filepath.Join(root, ".hidden", "song.mp3"))
	writeTestFile(t, filepath.Join(root, "visible", ".song.mp3"))

	files, _ := drainWalk(t, NewWalker([]string{root}, WalkFilter{}))

	if len(files) != 1 {
		t.Fatalf("expected only the visible file, got %d", len(files))
	}
}

func TestWalkReportsMissingRootAndContinues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "song.mp3"))
	gone := filepath.Join(root, "does-not-exist")

	files, report := drainWalk(t, NewWalker([]string{gone, root}, WalkFilter{}))

	if len(files) != 1 {
		t.Fatalf("a missing root must not abort the walk, got %d files", len(files))
	}
	if len(report.MissingRoots) != 1 || report.MissingRoots[0] != gone {
		t.Fatalf("unexpected missing roots: %v", report.MissingRoots)
	}
}

func TestWalkRespectsMaxDepth(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "shallow.mp3"))
	writeTestFile(t, filepath.Join(root, "one", "two", "three", "deep.mp3"))

	files, _ := drainWalk(t, NewWalker([]string{root}, WalkFilter{MaxDepth: 2}))

	if len(files) != 1 {
		t.Fatalf("expected only the shallow file within depth 2, got %d", len(files))
	}
}

func TestWalkFollowedSymlinkCarriesTargetMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "real-song.mp3")
	payload := []byte("sixteen-plus bytes of fake audio payload")
	if err := os.WriteFile(target, payload, 0o644); err != nil {
		t.Fatalf("write target: %v", err)
	}
	link := filepath.Join(root, "linked.mp3")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	files, _ := drainWalk(t, NewWalker([]string{root}, WalkFilter{FollowSymlinks: true}))

	if len(files) != 1 {
		t.Fatalf("expected the linked file, got %d", len(files))
	}
	// Size and mtime must describe the target, not the link itself,
	// since the track id is derived from them.
	if files[0].SizeBytes != int64(len(payload)) {
		t.Fatalf("expected target size %d, got %d", len(payload), files[0].SizeBytes)
	}
	targetInfo, err := os.Stat(target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if !files[0].ModifiedAt.Equal(targetInfo.ModTime()) {
		t.Fatalf("expected target mtime %v, got %v", targetInfo.ModTime(), files[0].ModifiedAt)
	}

	skipped, report := drainWalk(t, NewWalker([]string{root}, WalkFilter{}))
	if len(skipped) != 0 || report.Skipped != 1 {
		t.Fatalf("expected the link skipped without FollowSymlinks, got %d files, %d skipped", len(skipped), report.Skipped)
	}
}

func TestWalkIsRestartable(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.mp3"))
	writeTestFile(t, filepath.Join(root, "b.mp3"))

	walker := NewWalker([]string{root}, WalkFilter{})

	// Abandon the first walk after one file, then walk again in full.
	files, _ := walker.Walk(context.Background())
	for range files {
		break
	}

	second, report := drainWalk(t, walker)
	if len(second) != 2 {
		t.Fatalf("expected a fresh full walk, got %d files", len(second))
	}
	if report.FilesSeen != 2 {
		t.Fatalf("fresh report expected, got %d files seen", report.FilesSeen)
	}
}

func TestWalkStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeTestFile(t, filepath.Join(root, "a.mp3"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files, _ := NewWalker([]string{root}, WalkFilter{}).Walk(ctx)
	count := 0
	for range files {
		count++
	}
	if count != 0 {
		t.Fatalf("cancelled walk must yield nothing, got %d", count)
	}
}
