package notifier

import (
	"context"
	"errors"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

// Multi delivers every message to all of its channels and joins their errors.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, message string) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
