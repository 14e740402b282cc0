package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"driveflow/pkg/domain"
)

// Recorder captures structured audit entries. The store append is synchronous
// and unconditional; when an inbox is configured the entry is also handed to
// the delivery Worker after the append. The handoff never blocks: a full
// inbox is logged and the out-of-process delivery skipped, so the trail in
// the store stays authoritative.
type Recorder struct {
	store  Store
	inbox  chan<- Entry
	logger *slog.Logger
}

func NewRecorder(store Store, inbox chan<- Entry, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, inbox: inbox, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, entry Entry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}
	if r.inbox != nil {
		select {
		case r.inbox <- entry:
		default:
			if r.logger != nil {
				r.logger.WarnContext(ctx, "audit inbox full, skipping sink delivery",
					"request_id", entry.RequestID.String(),
					"action", entry.Action,
				)
			}
		}
	}
	return nil
}

func (r *Recorder) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]Entry, error) {
	return r.store.ListByRequest(ctx, requestID)
}
