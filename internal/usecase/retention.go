package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

// Retention keeps the newest backups under a prefix and deletes the rest.
type Retention struct {
	store  domain.ObjectStore
	logger Logger
	keep   int
}

func NewRetention(store domain.ObjectStore, logger Logger, keep int) *Retention {
	if keep < 0 {
		keep = 0
	}
	return &Retention{
		store:  store,
		logger: logger,
		keep:   keep,
	}
}

// Enforce lists the backup set under prefix and deletes everything beyond
// the newest keep objects in one batch. It returns the deleted keys; no
// delete is issued when nothing is expired.
func (r *Retention) Enforce(ctx context.Context, prefix string) ([]string, error) {
	r.logger.Infof("Listing backups under prefix %q", prefix)

	objects, err := r.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	backups := backupObjects(objects)
	_, expired := SelectExpired(backups, r.keep)
	if len(expired) == 0 {
		r.logger.Infof("No old backups to delete (%d found, retaining %d)", len(backups), r.keep)
		return nil, nil
	}

	keys := make([]string, 0, len(expired))
	for _, obj := range expired {
		keys = append(keys, obj.Key)
	}

	r.logger.Infof("Deleting %d old backup(s), retaining %d", len(keys), r.keep)
	if err := r.store.DeleteObjects(ctx, keys); err != nil {
		return nil, fmt.Errorf("failed to delete old backups: %w", err)
	}

	return keys, nil
}

// SelectExpired orders objects newest first and splits them after the first
// keep entries. Objects with equal modification times are ordered by key,
// the lexically greater key counting as newer, so the split is deterministic.
func SelectExpired(objects []domain.Object, keep int) (retained, expired []domain.Object) {
	sorted := make([]domain.Object, len(objects))
	copy(sorted, objects)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].LastModified.Equal(sorted[j].LastModified) {
			return sorted[i].LastModified.After(sorted[j].LastModified)
		}
		return sorted[i].Key > sorted[j].Key
	})

	if keep < 0 {
		keep = 0
	}
	if keep >= len(sorted) {
		return sorted, nil
	}
	return sorted[:keep], sorted[keep:]
}

// backupObjects drops folder placeholder keys.
func backupObjects(objects []domain.Object) []domain.Object {
	out := make([]domain.Object, 0, len(objects))
	for _, obj := range objects {
		if obj.Key == "" || strings.HasSuffix(obj.Key, "/") {
			continue
		}
		out = append(out, obj)
	}
	return out
}
