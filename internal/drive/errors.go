package drive

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both a missing node and, deliberately, a node
	// owned by someone else when the lookup is owner-scoped.
	ErrNotFound = errors.New("node not found")

	// ErrForbidden is returned where a selection explicitly names a node
	// that exists but belongs to a different owner.
	ErrForbidden = errors.New("access to node denied")

	// ErrInvalidStructure rejects self-parenting, cycle-inducing moves
	// and non-folder move targets. The tree is left unchanged.
	ErrInvalidStructure = errors.New("invalid tree structure")

	// ErrEmptySelection is returned when a batch operation resolves to
	// no usable nodes at all.
	ErrEmptySelection = errors.New("selection contains no usable nodes")
)

// QuotaExceededError carries the remaining headroom so callers can tell the
// user how much still fits.
type QuotaExceededError struct {
	AvailableBytes int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage limit exceeded; %d bytes available", e.AvailableBytes)
}
