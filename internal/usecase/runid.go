package usecase

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/semmidev/phylax-mongo/internal/infrastructure/timefmt"
)

// NewRunID builds "<base>_<timestamp>" and appends "_<suffix>" when suffix is
// non-empty. Characters that are unsafe in file names or object keys are
// replaced with '-'.
func NewRunID(base, pattern string, now time.Time, suffix string) string {
	if pattern == "" {
		pattern = timefmt.DefaultPattern
	}

	id := base + "_" + timefmt.Format(now, pattern)
	if suffix != "" {
		id += "_" + suffix
	}
	return sanitize(id)
}

// RandomSuffix returns eight hex characters.
func RandomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_' || r == '-' || r == '.':
			return r
		default:
			return '-'
		}
	}, id)
}
