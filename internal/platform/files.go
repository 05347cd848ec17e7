package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// File permissions
const (
	DefaultDirPermissions = 0755
)

// File extensions to skip
var (
	SkippedExtensions = []string{".part", ".ytdl", ".temp", ".json"}
)

// CreateDirectoryIfNotExists creates directory if it doesn't exist
func CreateDirectoryIfNotExists(dirPath string) error {
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		return os.MkdirAll(dirPath, DefaultDirPermissions)
	}
	return nil
}

// FindDownloadedFile returns the finished file yt-dlp left in dir. Temporary
// and metadata files are ignored; when several files remain the largest wins,
// ties broken by name.
func FindDownloadedFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	type candidate struct {
		path string
		size int64
	}
	var candidates []candidate

	for _, entry := range entries {
		if entry.IsDir() || isTemporaryFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{path: filepath.Join(dir, entry.Name()), size: info.Size()})
	}

	if len(candidates) == 0 {
		return "", fmt.Errorf("no downloaded file in %s", dir)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].size != candidates[j].size {
			return candidates[i].size > candidates[j].size
		}
		return candidates[i].path < candidates[j].path
	})
	return candidates[0].path, nil
}

// isTemporaryFile checks if a filename belongs to an unfinished or auxiliary download
func isTemporaryFile(filename string) bool {
	for _, ext := range SkippedExtensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// RemoveWorkDir removes the directory holding path, provided it lies
// strictly inside root
func RemoveWorkDir(root, path string) error {
	if path == "" {
		return fmt.Errorf("file path is empty")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	rel, err := filepath.Rel(absRoot, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("refusing to remove %s outside of %s", dir, absRoot)
	}
	return os.RemoveAll(dir)
}
