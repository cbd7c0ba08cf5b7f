package cache

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClearDir removes the directory and recreates it empty.
func ClearDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("empty dir")
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// PurgeByAge removes cache entries older than maxAge. HTTP entries are aged by
// the SavedAt stamp in their metadata (meta and body go together); LLM
// replies by file modification time, which Get refreshes on every hit.
func PurgeByAge(dir string, maxAge time.Duration) (int, error) {
	if maxAge <= 0 || strings.TrimSpace(dir) == "" {
		return 0, nil
	}
	now := time.Now().UTC()
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case strings.HasSuffix(name, ".meta.json"):
			b, err := os.ReadFile(path)
			if err != nil {
				return nil
			}
			var e HTTPEntry
			if err := json.Unmarshal(b, &e); err != nil || now.Sub(e.SavedAt) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
			_ = os.Remove(strings.TrimSuffix(path, ".meta.json") + ".body")
		case strings.HasSuffix(name, ".json"):
			info, err := d.Info()
			if err != nil || now.Sub(info.ModTime().UTC()) <= maxAge {
				return nil
			}
			removed++
			_ = os.Remove(path)
		}
		return nil
	})
	return removed, err
}
