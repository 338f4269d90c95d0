package market

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shiftwise/marketd/internal/models"
	"github.com/shiftwise/marketd/internal/store"
)

// Detector answers whether a worker already holds an active assignment whose
// window intersects a candidate window. The check is advisory: it exists to
// fail fast with ErrTimeConflict before the commit, while the storage
// constraint remains the source of truth for assignment uniqueness.
type Detector struct {
	assignments store.AssignmentStore
}

// NewDetector creates an overlap detector over the given assignment store.
func NewDetector(assignments store.AssignmentStore) *Detector {
	return &Detector{assignments: assignments}
}

// HasConflict reports whether the worker holds any active assignment whose
// half-open window intersects w. Assignments for excludePostID are ignored
// when it is non-nil, so re-accepting the same post never conflicts with
// itself. Touching windows (back-to-back shifts) are not conflicts.
func (d *Detector) HasConflict(ctx context.Context, tenantID, workerUserID uuid.UUID, w models.Window, excludePostID *uuid.UUID) (bool, error) {
	overlapping, err := d.assignments.ListActiveOverlapping(ctx, tenantID, workerUserID, w, excludePostID)
	if err != nil {
		return false, fmt.Errorf("failed to query overlapping assignments: %w", err)
	}

	return len(overlapping) > 0, nil
}
