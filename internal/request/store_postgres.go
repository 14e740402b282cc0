package request

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"driveflow/internal/workflow"
	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
)

// PostgresStore persists requests as JSONB snapshots with a revision column
// enforcing the compare-and-set contract. The party columns are denormalized
// out of the snapshot so ListByParty stays an indexed query.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Schema is the DDL for the requests table; applied by deployment tooling and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS requests (
    id             UUID PRIMARY KEY,
    state          TEXT NOT NULL,
    requester_id   UUID NOT NULL,
    reviewer_id    UUID NOT NULL,
    coordinator_id UUID,
    beneficiary_id UUID,
    snapshot       JSONB NOT NULL,
    revision       BIGINT NOT NULL,
    created_at     TIMESTAMPTZ NOT NULL,
    updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS requests_requester_idx ON requests (requester_id);
CREATE INDEX IF NOT EXISTS requests_reviewer_idx ON requests (reviewer_id);
`

func (s *PostgresStore) Create(ctx context.Context, req *workflow.Request) error {
	stored := req.Clone()
	stored.Revision = 1
	snapshot, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("marshal request snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO requests (id, state, requester_id, reviewer_id, coordinator_id, beneficiary_id, snapshot, revision, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.UUID(stored.ID), string(stored.State),
		uuid.UUID(stored.Requester.ID), uuid.UUID(stored.Reviewer.ID),
		optionalID(stored.CoordinatorID), optionalID(stored.BeneficiaryID),
		snapshot, stored.Revision, stored.CreatedAt, stored.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.RequestID) (*workflow.Request, error) {
	var snapshot []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot FROM requests WHERE id = $1`,
		uuid.UUID(id),
	).Scan(&snapshot)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return s.unmarshalRequest(ctx, snapshot)
}

func (s *PostgresStore) Update(ctx context.Context, req *workflow.Request, expectedRevision uint64) (*workflow.Request, error) {
	next := req.Clone()
	next.Revision = expectedRevision + 1
	snapshot, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("marshal request snapshot: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE requests
		SET state = $3, reviewer_id = $4, snapshot = $5, revision = $6, updated_at = $7
		WHERE id = $1 AND revision = $2`,
		uuid.UUID(next.ID), expectedRevision,
		string(next.State), uuid.UUID(next.Reviewer.ID),
		snapshot, next.Revision, next.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the row is gone or another writer won the revision race;
		// distinguish so callers retry only on real contention.
		var exists bool
		if probeErr := s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM requests WHERE id = $1)`,
			uuid.UUID(next.ID),
		).Scan(&exists); probeErr != nil {
			return nil, fmt.Errorf("probe request: %w", probeErr)
		}
		if !exists {
			return nil, sentinel.ErrNotFound
		}
		return nil, sentinel.ErrConflict
	}
	return next, nil
}

func (s *PostgresStore) ListByParty(ctx context.Context, partyID domain.PartyID) ([]*workflow.Request, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT snapshot FROM requests
		WHERE requester_id = $1 OR reviewer_id = $1 OR coordinator_id = $1 OR beneficiary_id = $1
		ORDER BY created_at`,
		uuid.UUID(partyID),
	)
	if err != nil {
		return nil, fmt.Errorf("list requests by party: %w", err)
	}
	defer rows.Close()

	var out []*workflow.Request
	for rows.Next() {
		var snapshot []byte
		if err := rows.Scan(&snapshot); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		req, err := s.unmarshalRequest(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (s *PostgresStore) unmarshalRequest(ctx context.Context, snapshot []byte) (*workflow.Request, error) {
	var req workflow.Request
	if err := json.Unmarshal(snapshot, &req); err != nil {
		return nil, fmt.Errorf("unmarshal request snapshot: %w", err)
	}
	// Stored states may predate the canonical set.
	stored := string(req.State)
	req.State = workflow.NormalizeState(stored)
	if string(req.State) != stored && s.logger != nil {
		s.logger.WarnContext(ctx, "normalized legacy request state",
			"request_id", req.ID.String(),
			"stored_state", stored,
			"state", string(req.State),
		)
	}
	return &req, nil
}

func optionalID(id *domain.PartyID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := uuid.UUID(*id)
	return &v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
