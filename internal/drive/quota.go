package drive

import (
	"context"
	"fmt"
)

const bytesPerGiB = 1 << 30

// Quota answers admission questions against the bytes actually present in
// the owner's storage region. Usage is measured on disk rather than summed
// from node metadata, so blobs manipulated out-of-band still count.
type Quota struct {
	store   NodeStore
	backend Backend
}

func NewQuota(store NodeStore, backend Backend) *Quota {
	return &Quota{store: store, backend: backend}
}

// CurrentUsage reports the owner's physical footprint. An owner without a
// storage region has used nothing.
func (q *Quota) CurrentUsage(ctx context.Context, ownerID int64) (int64, error) {
	return q.backend.MeasureUserBytes(ownerID)
}

// Limit returns the owner's configured ceiling in bytes.
func (q *Quota) Limit(ctx context.Context, ownerID int64) (int64, error) {
	user, err := q.store.GetUserByID(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return 0, fmt.Errorf("owner %d: %w", ownerID, ErrNotFound)
	}
	return user.StorageLimitGiB * bytesPerGiB, nil
}

// CanAdmit reports whether additionalBytes still fit, along with the
// remaining headroom (never negative).
func (q *Quota) CanAdmit(ctx context.Context, ownerID int64, additionalBytes int64) (bool, int64, error) {
	used, err := q.CurrentUsage(ctx, ownerID)
	if err != nil {
		return false, 0, err
	}
	limit, err := q.Limit(ctx, ownerID)
	if err != nil {
		return false, 0, err
	}

	available := limit - used
	if available < 0 {
		available = 0
	}

	return used+additionalBytes <= limit, available, nil
}
