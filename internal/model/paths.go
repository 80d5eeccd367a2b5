package model

import (
	"os"
	"path/filepath"
)

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".veridoc-cache"
	}
	return filepath.Join(home, ".veridoc", "cache")
}
