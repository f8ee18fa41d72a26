package domain

import "context"

// Notifier delivers a human readable status message. Delivery is advisory:
// callers log the returned error and carry on.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}
