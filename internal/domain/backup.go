package domain

import (
	"path"
	"time"
)

// Object is a backup object as reported by the storage backend.
type Object struct {
	Key          string
	LastModified time.Time
	Size         int64
}

// ObjectKey joins the key prefix, run identifier and archive extension.
func ObjectKey(prefix, runID, ext string) string {
	return path.Join(prefix, runID+ext)
}

// ListPrefix returns the prefix used to list the backup set.
func ListPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	return path.Clean(prefix) + "/"
}
