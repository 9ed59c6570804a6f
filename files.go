package aerialqc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// ImageExtensions are the file extensions considered for sorting (lowercase).
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".dng", ".tiff"}

// IsImageFile reports whether name has one of the ImageExtensions (case-insensitive).
func IsImageFile(name string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name)))
}

// isWithin reports whether path is dir itself or lies inside it.
func isWithin(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// CollectImages lists candidate image files under base, sorted by path.
// Files inside any of the excluded directories are skipped so already sorted
// output is never processed again. Subdirectories are only visited when
// recursive is set.
func CollectImages(base string, recursive bool, exclude ...string) ([]string, error) {
	base = filepath.Clean(base)
	cleaned := make([]string, 0, len(exclude))
	for _, e := range exclude {
		if e != "" {
			cleaned = append(cleaned, filepath.Clean(e))
		}
	}
	excluded := func(p string) bool {
		return slices.ContainsFunc(cleaned, func(dir string) bool { return isWithin(p, dir) })
	}

	var files []string
	err := filepath.WalkDir(base, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == base {
				return err
			}
			return nil // unreadable entry: skip
		}
		if d.IsDir() {
			if p == base {
				return nil
			}
			if !recursive || excluded(p) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || !IsImageFile(d.Name()) || excluded(p) {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", base, err)
	}

	slices.Sort(files)
	return files, nil
}

// ensureDir creates dir (and parents) if missing.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd // standard dir perms
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
