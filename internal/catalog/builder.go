package catalog

import (
	"sort"
)

// Build folds one scan's normalized records into a fresh Snapshot. It
// always starts from empty and rebuilds the whole graph, so a missed
// filesystem event can never accumulate drift past a single scan.
//
// Records may arrive in any completion order; they are re-sorted by
// path so two scans of an unchanged library assign identical ids and
// identical orderings.
func Build(records []TrackRecord) *Snapshot {
	sorted := make([]TrackRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	snapshot := EmptySnapshot()

	for _, record := range sorted {
		track := Track{
			ID:          TrackID(record.Path, record.SizeBytes, record.ModifiedAt),
			Title:       record.Title,
			ArtistNames: record.ArtistNames,
			Year:        record.Year,
			TrackNumber: record.TrackNumber,
			DiscNumber:  record.DiscNumber,
			DurationMS:  record.DurationMS,
			SampleRate:  record.SampleRate,
			Bitrate:     record.Bitrate,
			Path:        record.Path,
			ModifiedAt:  record.ModifiedAt.UnixNano(),
			SizeBytes:   record.SizeBytes,
			HasCover:    record.HasCover,
		}
		if _, duplicate := snapshot.Tracks[track.ID]; duplicate {
			continue
		}

		// The album is owned by the album artist, so a compilation with
		// one ALBUMARTIST and varying track artists stays one album. The
		// track keeps its own artist; the two are often the same entity,
		// which is why every link below re-reads from the snapshot.
		trackArtist := resolveArtist(snapshot, record.ArtistKey, record.ArtistNames[0], record.ArtistSort)
		snapshot.Artists[trackArtist.ID] = trackArtist
		albumArtist := resolveArtist(snapshot, record.AlbumArtistKey, record.AlbumArtist, record.AlbumArtistSort)
		snapshot.Artists[albumArtist.ID] = albumArtist

		album := resolveAlbum(snapshot, albumArtist.ID, record)

		track.ArtistID = trackArtist.ID
		track.AlbumID = album.ID

		for index, genreKey := range record.GenreKeys {
			genre := resolveGenre(snapshot, genreKey, record.GenreNames[index])
			track.GenreIDs = appendUnique(track.GenreIDs, genre.ID)
			genre.TrackIDs = appendUnique(genre.TrackIDs, track.ID)
			snapshot.Genres[genre.ID] = genre
		}

		album.TrackIDs = appendUnique(album.TrackIDs, track.ID)
		snapshot.Albums[album.ID] = album

		albumArtist = snapshot.Artists[album.ArtistID]
		albumArtist.AlbumIDs = appendUnique(albumArtist.AlbumIDs, album.ID)
		snapshot.Artists[albumArtist.ID] = albumArtist

		trackArtist = snapshot.Artists[track.ArtistID]
		trackArtist.TrackIDs = appendUnique(trackArtist.TrackIDs, track.ID)
		snapshot.Artists[trackArtist.ID] = trackArtist

		snapshot.Tracks[track.ID] = track

		if track.Year != nil {
			bucket := snapshot.Years[*track.Year]
			bucket.Year = *track.Year
			bucket.TrackIDs = appendUnique(bucket.TrackIDs, track.ID)
			snapshot.Years[*track.Year] = bucket
		}
	}

	finalizeOrders(snapshot)
	return snapshot
}

func resolveArtist(snapshot *Snapshot, groupKey string, name string, sortKey string) Artist {
	id := ArtistID(groupKey)
	if existing, ok := snapshot.Artists[id]; ok {
		return existing
	}
	return Artist{
		ID:      id,
		Name:    name,
		SortKey: sortKey,
	}
}

func resolveAlbum(snapshot *Snapshot, artistID string, record TrackRecord) Album {
	id := AlbumID(artistID, record.AlbumKey, YearBucketOf(record.Year))
	if existing, ok := snapshot.Albums[id]; ok {
		return existing
	}
	return Album{
		ID:       id,
		Title:    record.AlbumTitle,
		SortKey:  record.AlbumSort,
		ArtistID: artistID,
		Year:     record.Year,
	}
}

func resolveGenre(snapshot *Snapshot, genreKey string, name string) Genre {
	id := GenreID(genreKey)
	if existing, ok := snapshot.Genres[id]; ok {
		return existing
	}
	return Genre{ID: id, Name: name}
}

func finalizeOrders(snapshot *Snapshot) {
	snapshot.ArtistOrder = make([]string, 0, len(snapshot.Artists))
	for id := range snapshot.Artists {
		snapshot.ArtistOrder = append(snapshot.ArtistOrder, id)
	}
	sort.Slice(snapshot.ArtistOrder, func(i, j int) bool {
		left := snapshot.Artists[snapshot.ArtistOrder[i]]
		right := snapshot.Artists[snapshot.ArtistOrder[j]]
		if left.SortKey != right.SortKey {
			return left.SortKey < right.SortKey
		}
		return left.Name < right.Name
	})

	snapshot.AlbumOrder = make([]string, 0, len(snapshot.Albums))
	for id := range snapshot.Albums {
		snapshot.AlbumOrder = append(snapshot.AlbumOrder, id)
	}
	sort.Slice(snapshot.AlbumOrder, func(i, j int) bool {
		left := snapshot.Albums[snapshot.AlbumOrder[i]]
		right := snapshot.Albums[snapshot.AlbumOrder[j]]
		if left.SortKey != right.SortKey {
			return left.SortKey < right.SortKey
		}
		return yearOrZero(left.Year) < yearOrZero(right.Year)
	})

	snapshot.GenreOrder = make([]string, 0, len(snapshot.Genres))
	for id := range snapshot.Genres {
		snapshot.GenreOrder = append(snapshot.GenreOrder, id)
	}
	sort.Slice(snapshot.GenreOrder, func(i, j int) bool {
		return snapshot.Genres[snapshot.GenreOrder[i]].Name < snapshot.Genres[snapshot.GenreOrder[j]].Name
	})

	snapshot.YearOrder = make([]int, 0, len(snapshot.Years))
	for year := range snapshot.Years {
		snapshot.YearOrder = append(snapshot.YearOrder, year)
	}
	sort.Ints(snapshot.YearOrder)

	for id, album := range snapshot.Albums {
		sortAlbumTrackIDs(snapshot, album.TrackIDs)
		snapshot.Albums[id] = album
	}
	for id, artist := range snapshot.Artists {
		sortAlbumIDs(snapshot, artist.AlbumIDs)
		sortTrackIDs(snapshot, artist.TrackIDs)
		snapshot.Artists[id] = artist
	}
	for id, genre := range snapshot.Genres {
		sortTrackIDs(snapshot, genre.TrackIDs)
		snapshot.Genres[id] = genre
	}
	for year, bucket := range snapshot.Years {
		sortTrackIDs(snapshot, bucket.TrackIDs)
		snapshot.Years[year] = bucket
	}
}

// sortTrackIDs orders tracks the way they are listed: by artist, album,
// disc, track number, then title.
func sortTrackIDs(snapshot *Snapshot, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		left := snapshot.Tracks[ids[i]]
		right := snapshot.Tracks[ids[j]]

		leftArtist := snapshot.Artists[left.ArtistID].SortKey
		rightArtist := snapshot.Artists[right.ArtistID].SortKey
		if leftArtist != rightArtist {
			return leftArtist < rightArtist
		}

		leftAlbum := snapshot.Albums[left.AlbumID].SortKey
		rightAlbum := snapshot.Albums[right.AlbumID].SortKey
		if leftAlbum != rightAlbum {
			return leftAlbum < rightAlbum
		}

		if numberOrZero(left.DiscNumber) != numberOrZero(right.DiscNumber) {
			return numberOrZero(left.DiscNumber) < numberOrZero(right.DiscNumber)
		}
		if numberOrZero(left.TrackNumber) != numberOrZero(right.TrackNumber) {
			return numberOrZero(left.TrackNumber) < numberOrZero(right.TrackNumber)
		}
		if left.Title != right.Title {
			return left.Title < right.Title
		}
		return left.Path < right.Path
	})
}

// sortAlbumTrackIDs orders one album's tracks by disc and track number
// alone. Track artists may differ within a compilation and must not
// influence the running order.
func sortAlbumTrackIDs(snapshot *Snapshot, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		left := snapshot.Tracks[ids[i]]
		right := snapshot.Tracks[ids[j]]

		if numberOrZero(left.DiscNumber) != numberOrZero(right.DiscNumber) {
			return numberOrZero(left.DiscNumber) < numberOrZero(right.DiscNumber)
		}
		if numberOrZero(left.TrackNumber) != numberOrZero(right.TrackNumber) {
			return numberOrZero(left.TrackNumber) < numberOrZero(right.TrackNumber)
		}
		if left.Title != right.Title {
			return left.Title < right.Title
		}
		return left.Path < right.Path
	})
}

func sortAlbumIDs(snapshot *Snapshot, ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		left := snapshot.Albums[ids[i]]
		right := snapshot.Albums[ids[j]]
		if left.SortKey != right.SortKey {
			return left.SortKey < right.SortKey
		}
		return yearOrZero(left.Year) < yearOrZero(right.Year)
	})
}

func appendUnique(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func numberOrZero(value *int) int {
	if value == nil {
		return 0
	}
	return *value
}

func yearOrZero(year *int) int {
	if year == nil {
		return 0
	}
	return *year
}
