package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/pkg/domain"
)

type chanSink struct {
	published chan Entry
}

func (c *chanSink) Publish(_ context.Context, entry Entry) error {
	c.published <- entry
	return nil
}

// flakySink rejects entries for the "reject" action and delivers the rest.
type flakySink struct {
	published chan Entry
}

func (f *flakySink) Publish(_ context.Context, entry Entry) error {
	if entry.Action == "reject" {
		return errors.New("broker unreachable")
	}
	f.published <- entry
	return nil
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("fills ID and timestamp defaults", func(t *testing.T) {
		store := NewInMemoryStore()
		rec := NewRecorder(store, nil, logger)
		requestID := domain.NewRequestID()

		require.NoError(t, rec.Record(ctx, Entry{RequestID: requestID, Action: "accept"}))

		entries, err := rec.ListByRequest(ctx, requestID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.NotEqual(t, uuid.Nil, entries[0].ID)
		assert.False(t, entries[0].Timestamp.IsZero())
	})

	t.Run("hands the entry to the inbox after the store append", func(t *testing.T) {
		store := NewInMemoryStore()
		inbox := make(chan Entry, 1)
		rec := NewRecorder(store, inbox, logger)
		requestID := domain.NewRequestID()

		require.NoError(t, rec.Record(ctx, Entry{RequestID: requestID, Action: "reschedule"}))

		require.Len(t, inbox, 1)
		assert.Equal(t, "reschedule", (<-inbox).Action)
	})

	t.Run("full inbox never blocks or surfaces", func(t *testing.T) {
		store := NewInMemoryStore()
		inbox := make(chan Entry, 1)
		inbox <- Entry{} // occupy the only slot
		rec := NewRecorder(store, inbox, logger)
		requestID := domain.NewRequestID()

		require.NoError(t, rec.Record(ctx, Entry{RequestID: requestID, Action: "confirm"}))

		entries, err := rec.ListByRequest(ctx, requestID)
		require.NoError(t, err)
		assert.Len(t, entries, 1, "store append still happened")
	})
}

func TestInMemoryStore_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	requestID := domain.NewRequestID()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Append(ctx, Entry{
			ID:        uuid.New(),
			RequestID: requestID,
			Action:    "view",
			Timestamp: time.Now(),
		}))
	}

	entries, err := store.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// The returned slice is a copy; callers cannot mutate the trail.
	entries[0].Action = "tampered"
	again, err := store.ListByRequest(ctx, requestID)
	require.NoError(t, err)
	assert.Equal(t, "view", again[0].Action)
}

func TestWorker_DrainsInbox(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &chanSink{published: make(chan Entry, 2)}
	inbox := make(chan Entry, 2)
	worker := NewWorker(sink, inbox, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	requestID := domain.NewRequestID()
	inbox <- Entry{ID: uuid.New(), RequestID: requestID, Action: "accept"}
	inbox <- Entry{ID: uuid.New(), RequestID: requestID, Action: "confirm"}

	first := <-sink.published
	second := <-sink.published
	assert.Equal(t, "accept", first.Action)
	assert.Equal(t, "confirm", second.Action)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWorker_PublishFailureKeepsDraining(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sink := &flakySink{published: make(chan Entry, 1)}
	inbox := make(chan Entry, 2)
	worker := NewWorker(sink, inbox, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Entry{ID: uuid.New(), RequestID: domain.NewRequestID(), Action: "reject"}
	inbox <- Entry{ID: uuid.New(), RequestID: domain.NewRequestID(), Action: "close"}

	assert.Equal(t, "close", (<-sink.published).Action)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}
