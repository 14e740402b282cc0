package request

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
)

func TestPostgresStore_UnmarshalNormalizesLegacyState(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	store := &PostgresStore{logger: slog.New(slog.NewTextHandler(&logs, nil))}

	req := &workflow.Request{
		ID:    domain.NewRequestID(),
		State: workflow.State("Re-Scheduled"),
	}
	snapshot, err := json.Marshal(req)
	require.NoError(t, err)

	decoded, err := store.unmarshalRequest(ctx, snapshot)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateReviewRescheduled, decoded.State)
	assert.Contains(t, logs.String(), "normalized legacy request state")
	assert.Contains(t, logs.String(), "Re-Scheduled")
}

func TestPostgresStore_UnmarshalCanonicalStateIsSilent(t *testing.T) {
	ctx := context.Background()
	var logs bytes.Buffer
	store := &PostgresStore{logger: slog.New(slog.NewTextHandler(&logs, nil))}

	req := &workflow.Request{
		ID:    domain.NewRequestID(),
		State: workflow.StateApproved,
	}
	snapshot, err := json.Marshal(req)
	require.NoError(t, err)

	decoded, err := store.unmarshalRequest(ctx, snapshot)
	require.NoError(t, err)
	assert.Equal(t, workflow.StateApproved, decoded.State)
	assert.Empty(t, logs.String())
}
