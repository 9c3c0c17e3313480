package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const appDirPerm os.FileMode = 0o750

// EnsureDir creates the directory if it does not exist.
func EnsureDir(dirPath string) error {
	if dirPath == "" {
		return errors.New("empty dir path")
	}
	if err := os.MkdirAll(dirPath, appDirPerm); err != nil { //nolint:gosec // app-owned download dir
		return fmt.Errorf("ensure dir: %w", err)
	}
	return nil
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// FindNewest returns the most recently modified regular file in dir whose
// extension matches ext (case-insensitive), ignoring temp artifacts. The
// second value is false when nothing matches or the directory cannot be read.
func FindNewest(dir, ext string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	ext = strings.ToLower(ext)

	var (
		newestPath string
		newestTime time.Time
	)
	for _, entry := range entries {
		if entry.IsDir() || IsTempArtifact(entry.Name()) || strings.ToLower(filepath.Ext(entry.Name())) != ext {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if newestPath == "" || info.ModTime().After(newestTime) {
			newestPath = filepath.Join(dir, entry.Name())
			newestTime = info.ModTime()
		}
	}
	return newestPath, newestPath != ""
}
