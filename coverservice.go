package main

import (
	"net/http"
	"strings"

	"go.senan.xyz/taglib"

	"lyra/internal/catalog"
)

// CoverService serves embedded cover art for a track over the asset
// server. The image is read from the audio file's tag container on
// demand; nothing is cached on disk.
type CoverService struct {
	query *catalog.QueryService
}

func NewCoverService(query *catalog.QueryService) *CoverService {
	return &CoverService{query: query}
}

func (s *CoverService) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		rw.Header().Set("Allow", "GET, HEAD")
		http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	trackID := strings.TrimSpace(req.URL.Query().Get("track"))
	if trackID == "" {
		http.Error(rw, "missing track id", http.StatusBadRequest)
		return
	}

	track, err := s.query.GetTrack(trackID)
	if err != nil || !track.HasCover {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	imageData, readErr := taglib.ReadImage(track.Path)
	if readErr != nil || len(imageData) == 0 {
		http.Error(rw, "cover not found", http.StatusNotFound)
		return
	}

	// Track ids change whenever the file does, so covers can be cached
	// for as long as the id stays valid.
	rw.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	rw.Header().Set("Content-Type", http.DetectContentType(imageData))

	if req.Method == http.MethodHead {
		return
	}

	_, _ = rw.Write(imageData)
}
