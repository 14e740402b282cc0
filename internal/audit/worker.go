package audit

import (
	"context"
	"log/slog"
)

// Worker drains recorded entries from the inbox and forwards them to the
// sink. Delivery is best-effort: a failed publish is logged and the entry
// dropped, since the store append already happened on the record path.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil && w.logger != nil {
				w.logger.WarnContext(ctx, "audit sink publish failed",
					"request_id", entry.RequestID.String(),
					"action", entry.Action,
					"error", err,
				)
			}
		}
	}
}
