package scanner

import (
	"testing"
)

func TestStartWatchingIsSingleInstance(t *testing.T) {
	t.Parallel()

	fixture := newScanFixture(t)

	if err := fixture.service.StartWatching(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer fixture.service.StopWatching()

	if err := fixture.service.StartWatching(); err == nil {
		t.Fatal("expected the second start to be rejected")
	}
}

func TestStopWatchingAllowsRestart(t *testing.T) {
	t.Parallel()

	fixture := newScanFixture(t)

	if err := fixture.service.StartWatching(); err != nil {
		t.Fatalf("start: %v", err)
	}
	fixture.service.StopWatching()

	if err := fixture.service.StartWatching(); err != nil {
		t.Fatalf("restart after stop: %v", err)
	}
	fixture.service.StopWatching()

	// Stop with no watcher running is a no-op.
	fixture.service.StopWatching()
}
