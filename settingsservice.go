package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"lyra/internal/library"
)

type SettingsService struct {
	roots *library.RootFolderRepository
}

func NewSettingsService(roots *library.RootFolderRepository) *SettingsService {
	return &SettingsService{roots: roots}
}

func (s *SettingsService) ListRootFolders() ([]library.RootFolder, error) {
	return s.roots.List(context.Background())
}

// AddRootFolder registers a new library root. It takes effect on the
// next scan, not mid-scan.
func (s *SettingsService) AddRootFolder(path string) (library.RootFolder, error) {
	cleaned, err := normalizePath(path)
	if err != nil {
		return library.RootFolder{}, err
	}

	return s.roots.Add(context.Background(), cleaned)
}

func (s *SettingsService) RemoveRootFolder(id int64) error {
	err := s.roots.Delete(context.Background(), id)
	if errors.Is(err, library.ErrRootFolderNotFound) {
		return fmt.Errorf("root folder %d does not exist", id)
	}
	return err
}

func (s *SettingsService) SetRootFolderEnabled(id int64, enabled bool) error {
	err := s.roots.SetEnabled(context.Background(), id, enabled)
	if errors.Is(err, library.ErrRootFolderNotFound) {
		return fmt.Errorf("root folder %d does not exist", id)
	}
	return err
}

func normalizePath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", errors.New("path is required")
	}

	absPath, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}

	return filepath.Clean(absPath), nil
}
