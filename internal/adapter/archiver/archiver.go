package archiver

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

// New returns the archiver for the configured format.
func New(format string) (domain.Archiver, error) {
	switch format {
	case "zip", "":
		return NewZip(), nil
	case "tar.gz", "tgz":
		return NewTarGz(), nil
	default:
		return nil, fmt.Errorf("unsupported archive format: %s", format)
	}
}

type entry struct {
	path string // absolute
	name string // slash separated, relative to the root
	info fs.FileInfo
}

// collect lists the regular files below root in lexical order.
func collect(root string) ([]entry, error) {
	var entries []entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		entries = append(entries, entry{path: path, name: filepath.ToSlash(rel), info: info})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })
	return entries, nil
}
