// Package request orchestrates the drive-request lifecycle: creation with
// reviewer assignment, engine-validated transitions under optimistic
// concurrency, and the unconditional audit trail.
package request

import (
	"context"

	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
)

// Store persists request snapshots. The engine core never blocks on network
// or disk; every suspension point lives behind this interface.
//
// Update is a compare-and-set: it persists the snapshot only if the stored
// revision still equals expectedRevision, bumping the revision on success and
// returning sentinel.ErrConflict otherwise. This is the per-request
// serialization mechanism; stores make no further isolation promises.
type Store interface {
	Create(ctx context.Context, req *workflow.Request) error
	Get(ctx context.Context, id domain.RequestID) (*workflow.Request, error)
	Update(ctx context.Context, req *workflow.Request, expectedRevision uint64) (*workflow.Request, error)
	ListByParty(ctx context.Context, partyID domain.PartyID) ([]*workflow.Request, error)
}
