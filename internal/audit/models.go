// Package audit is the append-only trail of workflow actions. Entries are
// emitted from the orchestrator, never mutated or removed, and exported
// read-only for compliance reporting.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"driveflow/pkg/domain"
)

// Entry captures one workflow action. Keep it transport-agnostic so stores
// and sinks can fan out.
type Entry struct {
	ID        uuid.UUID        `json:"id"`
	RequestID domain.RequestID `json:"request_id"`
	Action    string           `json:"action"`
	ActorID   domain.PartyID   `json:"actor_id"`
	Role      domain.Role      `json:"role"`
	Timestamp time.Time        `json:"timestamp"`
	// Change is the action payload: state moved, schedule proposed,
	// reviewer overridden. Values must be JSON-serializable.
	Change map[string]any `json:"change,omitempty"`
}

// Store persists entries append-only.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByRequest(ctx context.Context, requestID domain.RequestID) ([]Entry, error)
}

// Sink receives entries for out-of-process delivery (the Kafka publisher).
type Sink interface {
	Publish(ctx context.Context, entry Entry) error
}
