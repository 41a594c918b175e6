package config

import (
	"fmt"
	"os"
	"path/filepath"
)

type Paths struct {
	BaseDir string
	DBPath  string
}

func ResolvePaths(appSlug string) (Paths, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("resolve user config dir: %w", err)
	}

	baseDir := filepath.Join(configDir, appSlug)
	dbPath := filepath.Join(baseDir, "library.db")

	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create app config dir: %w", err)
	}

	return Paths{
		BaseDir: baseDir,
		DBPath:  dbPath,
	}, nil
}
