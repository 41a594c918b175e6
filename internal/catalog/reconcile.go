package catalog

import (
	"errors"
	"sort"
	"time"
)

// ErrEmptyCandidate guards the live snapshot: a scan that finds nothing
// while the previous catalog was non-empty is treated as a failed scan
// (unmounted drive, misconfigured roots), never as a real mass delete.
var ErrEmptyCandidate = errors.New("candidate snapshot is empty while live catalog is not")

type IgnoreReason string

const (
	IgnoreUnreadable        IgnoreReason = "unreadable"
	IgnoreUnsupportedFormat IgnoreReason = "unsupported-format"
	IgnoreCorruptTag        IgnoreReason = "corrupt-tag"
)

// IgnoredFile records one path whose metadata could not be extracted.
// Entries heal themselves: a path that extracts successfully on a later
// scan is dropped from the set.
type IgnoredFile struct {
	Path       string       `json:"path"`
	Reason     IgnoreReason `json:"reason"`
	LastSeenAt time.Time    `json:"lastSeenAt"`
}

// PlaylistRefs is the slice of the playlist model reconciliation needs:
// which track ids each playlist points at. Playlists themselves are
// owned by the persistence layer and are never mutated here.
type PlaylistRefs struct {
	PlaylistID string
	TrackIDs   []string
}

// ChangeSet summarizes one reconciliation for the presentation layer.
type ChangeSet struct {
	AddedTrackIDs   []string `json:"addedTrackIds"`
	RemovedTrackIDs []string `json:"removedTrackIds"`
	UpdatedTrackIDs []string `json:"updatedTrackIds"`
	KeptTrackCount  int      `json:"keptTrackCount"`

	// Playlist entries that now point at absent tracks. They stay in
	// their playlists as dangling references and render as unavailable.
	DanglingPlaylistTracks map[string][]string `json:"danglingPlaylistTracks,omitempty"`
}

// Reconcile diffs a freshly built candidate against the live snapshot
// and decides what gets published. The returned snapshot is the one to
// swap in; on error the caller must keep serving the live snapshot.
func Reconcile(
	candidate *Snapshot,
	live *Snapshot,
	playlists []PlaylistRefs,
	ignored []IgnoredFile,
	failures []IgnoredFile,
) (*Snapshot, ChangeSet, []IgnoredFile, error) {
	if len(candidate.Tracks) == 0 && len(live.Tracks) > 0 {
		return nil, ChangeSet{}, nil, ErrEmptyCandidate
	}

	changes := ChangeSet{}

	for id, track := range candidate.Tracks {
		previous, existed := live.Tracks[id]
		if !existed {
			changes.AddedTrackIDs = append(changes.AddedTrackIDs, id)
			continue
		}
		changes.KeptTrackCount++
		if trackFieldsDiffer(previous, track) {
			changes.UpdatedTrackIDs = append(changes.UpdatedTrackIDs, id)
		}
	}

	for id := range live.Tracks {
		if _, stillThere := candidate.Tracks[id]; !stillThere {
			changes.RemovedTrackIDs = append(changes.RemovedTrackIDs, id)
		}
	}

	sort.Strings(changes.AddedTrackIDs)
	sort.Strings(changes.RemovedTrackIDs)
	sort.Strings(changes.UpdatedTrackIDs)

	for _, playlist := range playlists {
		for _, trackID := range playlist.TrackIDs {
			if _, present := candidate.Tracks[trackID]; present {
				continue
			}
			if changes.DanglingPlaylistTracks == nil {
				changes.DanglingPlaylistTracks = map[string][]string{}
			}
			changes.DanglingPlaylistTracks[playlist.PlaylistID] = append(
				changes.DanglingPlaylistTracks[playlist.PlaylistID],
				trackID,
			)
		}
	}

	return candidate, changes, reconcileIgnored(candidate, ignored, failures), nil
}

// reconcileIgnored folds this scan's extraction failures into the
// ignored set and drops entries whose path produced a track this time.
func reconcileIgnored(candidate *Snapshot, ignored []IgnoredFile, failures []IgnoredFile) []IgnoredFile {
	extractedPaths := make(map[string]struct{}, len(candidate.Tracks))
	for _, track := range candidate.Tracks {
		extractedPaths[track.Path] = struct{}{}
	}

	merged := make(map[string]IgnoredFile, len(ignored)+len(failures))
	for _, entry := range ignored {
		if _, healed := extractedPaths[entry.Path]; healed {
			continue
		}
		merged[entry.Path] = entry
	}
	for _, failure := range failures {
		merged[failure.Path] = failure
	}

	updated := make([]IgnoredFile, 0, len(merged))
	for _, entry := range merged {
		updated = append(updated, entry)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i].Path < updated[j].Path })

	return updated
}

func trackFieldsDiffer(previous Track, current Track) bool {
	if previous.Title != current.Title ||
		previous.ArtistID != current.ArtistID ||
		previous.AlbumID != current.AlbumID ||
		numberOrZero(previous.Year) != numberOrZero(current.Year) ||
		numberOrZero(previous.TrackNumber) != numberOrZero(current.TrackNumber) ||
		numberOrZero(previous.DiscNumber) != numberOrZero(current.DiscNumber) ||
		numberOrZero(previous.DurationMS) != numberOrZero(current.DurationMS) ||
		previous.HasCover != current.HasCover {
		return true
	}
	if len(previous.GenreIDs) != len(current.GenreIDs) {
		return true
	}
	for index := range previous.GenreIDs {
		if previous.GenreIDs[index] != current.GenreIDs[index] {
			return true
		}
	}
	return false
}
