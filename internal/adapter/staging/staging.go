package staging

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Area hands out one fresh working directory per run below a base path.
type Area struct {
	basePath string
}

func New(basePath string) *Area {
	return &Area{basePath: basePath}
}

// Prepare creates the run directory and any missing parents. An existing run
// directory is reported as a collision rather than reused.
func (a *Area) Prepare(runID string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", fmt.Errorf("invalid run identifier %q", runID)
	}

	if err := os.MkdirAll(a.basePath, 0755); err != nil {
		return "", fmt.Errorf("failed to create staging base %s: %w", a.basePath, err)
	}

	dir := filepath.Join(a.basePath, runID)
	if err := os.Mkdir(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return dir, nil
}

// Populated reports whether dir holds at least one regular file.
func (a *Area) Populated(dir string) (bool, error) {
	found := false
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			found = true
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s: %w", dir, err)
	}
	return found, nil
}

func (a *Area) Cleanup(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}
