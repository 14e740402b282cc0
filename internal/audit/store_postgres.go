package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"driveflow/pkg/domain"
)

// PostgresStore implements Store using the transactional outbox pattern:
// entries land in the audit_outbox table and the Kafka publisher drains new
// rows to the audit topic. The table, not the broker, is the durability
// boundary for the unconditional-append contract.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the DDL for the outbox table; applied by deployment tooling and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_outbox (
    id         UUID PRIMARY KEY,
    request_id UUID NOT NULL,
    payload    JSONB NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    published  BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS audit_outbox_request_idx ON audit_outbox (request_id, created_at);
`

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_outbox (id, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4)`,
		entry.ID, uuid.UUID(entry.RequestID), payload, entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByRequest(ctx context.Context, requestID domain.RequestID) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM audit_outbox
		WHERE request_id = $1
		ORDER BY created_at, id`,
		uuid.UUID(requestID),
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		var entry Entry
		if err := json.Unmarshal(payload, &entry); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
