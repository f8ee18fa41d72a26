// Package scheduler understands the cron expression the external trigger
// runs the backup on. Nothing is scheduled in-process.
package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

type Schedule interface {
	Next(time.Time) time.Time
}

var parser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Parse accepts standard five field expressions and descriptors such as
// "@daily" or "@every 6h".
func Parse(expr string) (Schedule, error) {
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return sched, nil
}
