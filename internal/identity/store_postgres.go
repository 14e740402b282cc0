package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
)

// PostgresStore backs the directory with the parties table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema is the DDL for the parties table; applied by deployment tooling and
// by integration tests.
const Schema = `
CREATE TABLE IF NOT EXISTS parties (
    id             UUID PRIMARY KEY,
    name           TEXT NOT NULL,
    role           TEXT NOT NULL,
    counterpart_id UUID
);
CREATE INDEX IF NOT EXISTS parties_role_idx ON parties (role);
`

func (s *PostgresStore) Put(ctx context.Context, identity *Identity) error {
	var counterpart *uuid.UUID
	if identity.CounterpartID != nil {
		v := uuid.UUID(*identity.CounterpartID)
		counterpart = &v
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO parties (id, name, role, counterpart_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, role = EXCLUDED.role, counterpart_id = EXCLUDED.counterpart_id`,
		uuid.UUID(identity.ID), identity.Name, string(identity.Role), counterpart,
	)
	if err != nil {
		return fmt.Errorf("put party: %w", err)
	}
	return nil
}

func (s *PostgresStore) Resolve(ctx context.Context, id domain.PartyID) (*Identity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, role, counterpart_id FROM parties WHERE id = $1`,
		uuid.UUID(id),
	)
	identity, err := scanIdentity(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("resolve party: %w", err)
	}
	return identity, nil
}

func (s *PostgresStore) ListByRole(ctx context.Context, role domain.Role) ([]*Identity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, role, counterpart_id FROM parties WHERE role = $1 ORDER BY id`,
		string(role),
	)
	if err != nil {
		return nil, fmt.Errorf("list parties by role: %w", err)
	}
	defer rows.Close()

	var out []*Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		out = append(out, identity)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner) (*Identity, error) {
	var (
		id          uuid.UUID
		name, role  string
		counterpart *uuid.UUID
	)
	if err := row.Scan(&id, &name, &role, &counterpart); err != nil {
		return nil, err
	}
	identity := &Identity{
		ID:   domain.PartyID(id),
		Name: name,
		Role: domain.Role(role),
	}
	if counterpart != nil {
		v := domain.PartyID(*counterpart)
		identity.CounterpartID = &v
	}
	return identity, nil
}
