// Package timefmt formats timestamps with dayjs/moment style patterns such as
// "YYYYMMDD_HHmmss", the form backup file names have always been configured in.
package timefmt

import (
	"time"

	"github.com/nleeper/goment"
)

const DefaultPattern = "YYYYMMDD_HHmmss"

// fallbackLayout is DefaultPattern as a Go layout.
const fallbackLayout = "20060102_150405"

// Format renders t according to pattern in t's location. Text inside square
// brackets is copied literally.
func Format(t time.Time, pattern string) string {
	if pattern == "" {
		pattern = DefaultPattern
	}

	g, err := goment.New(t)
	if err != nil {
		return t.Format(fallbackLayout)
	}
	return g.Format(pattern)
}
