package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
)

const watchDebounceInterval = 2 * time.Second

// StartWatching begins observing the enabled root folders and triggers
// a rescan shortly after the filesystem settles down. Event bursts from
// large copies collapse into a single scan. Safe to call when no roots
// are configured; watching simply covers nothing until the next
// StartWatching call.
func (s *Service) StartWatching() error {
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		return errors.New("watcher already running")
	}
	s.mu.Unlock()

	rootPaths, err := s.loadRootPaths(context.Background())
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	for _, root := range rootPaths {
		addWatchTree(watcher, root)
	}

	// Re-check under the lock: a concurrent StartWatching may have won
	// the race since the first check, and the loser's watcher must be
	// closed, not leaked.
	s.mu.Lock()
	if s.watcher != nil {
		s.mu.Unlock()
		watcher.Close()
		return errors.New("watcher already running")
	}
	s.watcher = watcher
	s.mu.Unlock()

	go s.watchLoop(watcher)
	return nil
}

func (s *Service) StopWatching() {
	s.mu.Lock()
	watcher := s.watcher
	s.watcher = nil
	s.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}
}

func (s *Service) watchLoop(watcher *fsnotify.Watcher) {
	debounced := debounce.New(watchDebounceInterval)

	rescan := func() {
		// A scan already in flight will pick up these changes on the
		// next trigger; losing the race here is fine.
		_ = s.TriggerScan()
	}

	for {
		select {
		case event, open := <-watcher.Events:
			if !open {
				return
			}
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(event.Name); statErr == nil && info.IsDir() {
					addWatchTree(watcher, event.Name)
				}
			}
			if isRelevantEvent(event) {
				debounced(rescan)
			}
		case _, open := <-watcher.Errors:
			if !open {
				return
			}
		}
	}
}

func isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return !strings.HasPrefix(name, ".")
}

// addWatchTree registers the directory and everything below it.
// fsnotify watches are not recursive, so each subdirectory needs its
// own watch; failures on individual directories are absorbed.
func addWatchTree(watcher *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(entry.Name(), ".") {
			return filepath.SkipDir
		}
		_ = watcher.Add(path)
		return nil
	})
}
