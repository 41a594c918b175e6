package scanner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"lyra/internal/catalog"
	"lyra/internal/library"
)

const EventProgress = "scanner:progress"

const EventCatalogPublished = "scanner:published"

var ErrScanInProgress = errors.New("scan already in progress")

var errScanCancelled = errors.New("scan cancelled")

type State string

const (
	StateIdle        State = "idle"
	StateScanning    State = "scanning"
	StateReconciling State = "reconciling"
	StateReady       State = "ready"
	StateError       State = "error"
)

type Progress struct {
	Phase   string `json:"phase"`
	Message string `json:"message"`
	Percent int    `json:"percent"`
	Status  string `json:"status"`
	At      string `json:"at"`
}

type Status struct {
	State         State  `json:"state"`
	Running       bool   `json:"running"`
	LastRunAt     string `json:"lastRunAt"`
	LastError     string `json:"lastError,omitempty"`
	LastFilesSeen int    `json:"lastFilesSeen"`
	LastIndexed   int    `json:"lastIndexed"`
	LastFailed    int    `json:"lastFailed"`
	LastAdded     int    `json:"lastAdded"`
	LastRemoved   int    `json:"lastRemoved"`
	LastUpdated   int    `json:"lastUpdated"`
}

type Emitter func(eventName string, payload any)

// Config bounds the pipeline. Workers caps simultaneously open file
// handles; QueueDepth bounds the walker's lead over extraction so huge
// libraries cannot balloon memory.
type Config struct {
	Workers        int
	QueueDepth     int
	MaxDepth       int
	FollowSymlinks bool
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
		if c.Workers > 8 {
			c.Workers = 8
		}
	}
	if c.QueueDepth <= 0 {
		c.QueueDepth = c.Workers * 2
	}
	return c
}

type scanTotals struct {
	filesSeen int
	indexed   int
	failed    int
}

// Service drives the scan pipeline: walk, extract concurrently, build
// the candidate snapshot, reconcile against the live one, publish
// atomically. Exactly one scan runs at a time; a second trigger is
// rejected, and CancelScan stops the running one cooperatively without
// ever publishing a partial candidate.
type Service struct {
	mu            sync.Mutex
	state         State
	running       bool
	cancelRunning context.CancelFunc
	lastRun       time.Time
	lastError     string
	lastTotals    scanTotals
	lastChanges   catalog.ChangeSet
	emit          Emitter
	watcher       *fsnotify.Watcher

	store     *catalog.Store
	roots     *library.RootFolderRepository
	playlists *library.PlaylistRepository
	ignored   *library.IgnoredFileRepository
	extractor *Extractor
	config    Config
}

func NewService(
	store *catalog.Store,
	roots *library.RootFolderRepository,
	playlists *library.PlaylistRepository,
	ignored *library.IgnoredFileRepository,
	config Config,
) *Service {
	return &Service{
		state:     StateIdle,
		store:     store,
		roots:     roots,
		playlists: playlists,
		ignored:   ignored,
		extractor: NewExtractor(),
		config:    config.withDefaults(),
	}
}

func (s *Service) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// SetExtractor swaps the tag reading backend. Meant for tests.
func (s *Service) SetExtractor(extractor *Extractor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.extractor = extractor
}

func (s *Service) TriggerScan() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScanInProgress
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.running = true
	s.cancelRunning = cancel
	s.state = StateScanning
	s.lastError = ""
	s.mu.Unlock()

	go s.runScan(ctx)
	return nil
}

func (s *Service) CancelScan() {
	s.mu.Lock()
	cancel := s.cancelRunning
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (s *Service) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := Status{
		State:         s.state,
		Running:       s.running,
		LastError:     s.lastError,
		LastFilesSeen: s.lastTotals.filesSeen,
		LastIndexed:   s.lastTotals.indexed,
		LastFailed:    s.lastTotals.failed,
		LastAdded:     len(s.lastChanges.AddedTrackIDs),
		LastRemoved:   len(s.lastChanges.RemovedTrackIDs),
		LastUpdated:   len(s.lastChanges.UpdatedTrackIDs),
	}
	if !s.lastRun.IsZero() {
		status.LastRunAt = s.lastRun.UTC().Format(time.RFC3339)
	}

	return status
}

// ScanOnce runs a scan synchronously on the caller's goroutine. The
// trigger surface uses TriggerScan; this exists for the watcher and for
// tests that need completion before asserting.
func (s *Service) ScanOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrScanInProgress
	}
	scanCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancelRunning = cancel
	s.state = StateScanning
	s.lastError = ""
	s.mu.Unlock()

	s.runScan(scanCtx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastError != "" {
		return errors.New(s.lastError)
	}
	return nil
}

func (s *Service) runScan(ctx context.Context) {
	totals, changes, err := s.performScan(ctx)

	s.mu.Lock()
	s.running = false
	s.cancelRunning = nil
	switch {
	case errors.Is(err, errScanCancelled), errors.Is(err, context.Canceled):
		// A cancelled scan changes nothing; report the state the
		// catalog is actually in.
		s.lastError = ""
		if s.lastRun.IsZero() {
			s.state = StateIdle
		} else {
			s.state = StateReady
		}
	case err != nil:
		s.lastError = err.Error()
		s.state = StateError
	default:
		s.lastError = ""
		s.lastRun = time.Now().UTC()
		s.lastTotals = totals
		s.lastChanges = changes
		s.state = StateReady
	}
	s.mu.Unlock()

	switch {
	case errors.Is(err, errScanCancelled), errors.Is(err, context.Canceled):
		s.emitProgress("cancelled", "Scan cancelled", 100, "cancelled")
	case err != nil:
		s.emitProgress("failed", err.Error(), 100, "failed")
	default:
		s.emitProgress("done", fmt.Sprintf(
			"Scan complete: %d files seen, %d indexed, %d failed, +%d/-%d/~%d tracks",
			totals.filesSeen,
			totals.indexed,
			totals.failed,
			len(changes.AddedTrackIDs),
			len(changes.RemovedTrackIDs),
			len(changes.UpdatedTrackIDs),
		), 100, "completed")
		s.emitEvent(EventCatalogPublished, changes)
	}
}

func (s *Service) performScan(ctx context.Context) (scanTotals, catalog.ChangeSet, error) {
	if ctx.Err() != nil {
		return scanTotals{}, catalog.ChangeSet{}, errScanCancelled
	}

	s.emitProgress("start", "Starting scan", 5, "running")

	rootPaths, err := s.loadRootPaths(ctx)
	if err != nil {
		return scanTotals{}, catalog.ChangeSet{}, err
	}
	if len(rootPaths) == 0 {
		s.emitProgress("walk", "No enabled library folders configured", 50, "running")
	}

	records, failures, report, err := s.extractAll(ctx, rootPaths)
	if err != nil {
		return scanTotals{}, catalog.ChangeSet{}, err
	}

	if len(rootPaths) > 0 && len(report.MissingRoots) == len(rootPaths) {
		return scanTotals{}, catalog.ChangeSet{}, fmt.Errorf(
			"all %d library folders are unreachable", len(rootPaths),
		)
	}

	s.setState(StateReconciling)
	s.emitProgress("reconcile", "Reconciling catalog", 85, "running")

	playlistRefs, err := s.playlists.Refs(ctx)
	if err != nil {
		return scanTotals{}, catalog.ChangeSet{}, fmt.Errorf("load playlists: %w", err)
	}
	previousIgnored, err := s.ignored.Load(ctx)
	if err != nil {
		return scanTotals{}, catalog.ChangeSet{}, fmt.Errorf("load ignored files: %w", err)
	}

	candidate := catalog.Build(records)
	published, changes, updatedIgnored, err := catalog.Reconcile(
		candidate,
		s.store.Current(),
		playlistRefs,
		previousIgnored,
		failures,
	)
	if err != nil {
		return scanTotals{}, catalog.ChangeSet{}, err
	}

	if ctx.Err() != nil {
		return scanTotals{}, catalog.ChangeSet{}, errScanCancelled
	}

	// The ignored set is saved first: the swap cannot fail, so anything
	// that can still fail must happen while the live snapshot is intact.
	if err := s.ignored.ReplaceAll(ctx, updatedIgnored); err != nil {
		return scanTotals{}, catalog.ChangeSet{}, fmt.Errorf("save ignored files: %w", err)
	}

	// The swap is the single publication point. Readers either see the
	// old snapshot or the complete new one, never anything in between.
	s.store.Publish(published)

	totals := scanTotals{
		filesSeen: report.FilesSeen,
		indexed:   len(published.Tracks),
		failed:    len(failures),
	}

	return totals, changes, nil
}

// loadRootPaths reads the configured folders and rejects malformed
// configuration before any filesystem I/O happens.
func (s *Service) loadRootPaths(ctx context.Context) ([]string, error) {
	enabledRoots, err := s.roots.ListEnabled(ctx)
	if err != nil {
		return nil, fmt.Errorf("list root folders: %w", err)
	}

	paths := make([]string, 0, len(enabledRoots))
	for _, root := range enabledRoots {
		if !filepath.IsAbs(root.Path) {
			return nil, fmt.Errorf("root folder %q is not an absolute path", root.Path)
		}
		paths = append(paths, filepath.Clean(root.Path))
	}

	return paths, nil
}

type extractOutcome struct {
	record  catalog.TrackRecord
	failure *catalog.IgnoredFile
}

// extractAll runs the bounded worker pool over the walker's sequence.
// The jobs channel is the backpressure point: when every worker is busy
// and the buffer is full, the walker blocks instead of racing ahead.
func (s *Service) extractAll(ctx context.Context, rootPaths []string) ([]catalog.TrackRecord, []catalog.IgnoredFile, *WalkReport, error) {
	s.emitProgress("walk", fmt.Sprintf("Scanning %d folders", len(rootPaths)), 15, "running")

	walker := NewWalker(rootPaths, WalkFilter{
		MaxDepth:       s.config.MaxDepth,
		FollowSymlinks: s.config.FollowSymlinks,
	})
	files, report := walker.Walk(ctx)

	jobs := make(chan catalog.FileDescriptor, s.config.QueueDepth)
	results := make(chan extractOutcome, s.config.QueueDepth)

	s.mu.Lock()
	extractor := s.extractor
	s.mu.Unlock()

	var workers sync.WaitGroup
	for range s.config.Workers {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for file := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results <- extractFile(extractor, file)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for file := range files {
			select {
			case jobs <- file:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		workers.Wait()
		close(results)
	}()

	records := make([]catalog.TrackRecord, 0)
	failures := make([]catalog.IgnoredFile, 0)
	for outcome := range results {
		if outcome.failure != nil {
			failures = append(failures, *outcome.failure)
			continue
		}
		records = append(records, outcome.record)
	}

	if ctx.Err() != nil {
		return nil, nil, nil, errScanCancelled
	}

	return records, failures, report, nil
}

func extractFile(extractor *Extractor, file catalog.FileDescriptor) extractOutcome {
	bag, err := extractor.Extract(file)
	if err != nil {
		return extractOutcome{failure: &catalog.IgnoredFile{
			Path:       file.Path,
			Reason:     ignoreReasonFor(err),
			LastSeenAt: time.Now().UTC(),
		}}
	}

	return extractOutcome{record: catalog.Normalize(bag, file)}
}

func ignoreReasonFor(err error) catalog.IgnoreReason {
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		switch extractErr.Kind {
		case ExtractUnsupportedFormat:
			return catalog.IgnoreUnsupportedFormat
		case ExtractCorruptTag:
			return catalog.IgnoreCorruptTag
		}
	}
	return catalog.IgnoreUnreadable
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Service) emitProgress(phase string, message string, percent int, status string) {
	s.emitEvent(EventProgress, Progress{
		Phase:   phase,
		Message: message,
		Percent: percent,
		Status:  status,
		At:      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Service) emitEvent(eventName string, payload any) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(eventName, payload)
	}
}
