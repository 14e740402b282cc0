//go:build integration

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"driveflow/internal/identity"
	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
	"driveflow/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *identity.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = identity.NewPostgres(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "parties"))
}

func (s *PostgresStoreSuite) TestPutResolve() {
	ctx := context.Background()
	counterpart := domain.NewPartyID()
	entry := &identity.Identity{
		ID:            domain.NewPartyID(),
		Name:          "Sam Stakeholder",
		Role:          domain.RoleStakeholder,
		CounterpartID: &counterpart,
	}

	s.Require().NoError(s.store.Put(ctx, entry))

	got, err := s.store.Resolve(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal(entry.Name, got.Name)
	s.Equal(domain.RoleStakeholder, got.Role)
	s.Require().NotNil(got.CounterpartID)
	s.Equal(counterpart, *got.CounterpartID)

	// Upsert replaces in place.
	entry.Name = "Sam S."
	entry.CounterpartID = nil
	s.Require().NoError(s.store.Put(ctx, entry))
	got, err = s.store.Resolve(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal("Sam S.", got.Name)
	s.Nil(got.CounterpartID)

	_, err = s.store.Resolve(ctx, domain.NewPartyID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListByRole() {
	ctx := context.Background()
	for _, role := range []domain.Role{domain.RoleCoordinator, domain.RoleCoordinator, domain.RoleAdministrator} {
		s.Require().NoError(s.store.Put(ctx, &identity.Identity{
			ID: domain.NewPartyID(), Name: "x", Role: role,
		}))
	}

	coordinators, err := s.store.ListByRole(ctx, domain.RoleCoordinator)
	s.Require().NoError(err)
	s.Len(coordinators, 2)

	stakeholders, err := s.store.ListByRole(ctx, domain.RoleStakeholder)
	s.Require().NoError(err)
	s.Empty(stakeholders)
}

type CachedDirectorySuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	store    *identity.PostgresStore
	cached   *identity.CachedDirectory
}

func TestCachedDirectorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CachedDirectorySuite))
}

func (s *CachedDirectorySuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.store = identity.NewPostgres(s.postgres.Pool)
	s.cached = identity.NewCachedDirectory(s.store, s.redis.Client, time.Minute)
}

func (s *CachedDirectorySuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "parties"))
	s.Require().NoError(s.redis.FlushAll(ctx))
}

func (s *CachedDirectorySuite) TestReadThrough() {
	ctx := context.Background()
	entry := &identity.Identity{ID: domain.NewPartyID(), Name: "Cory", Role: domain.RoleCoordinator}
	s.Require().NoError(s.store.Put(ctx, entry))

	got, err := s.cached.Resolve(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal("Cory", got.Name)

	// A second read is served from cache: deleting the row underneath does
	// not change the answer until invalidation.
	s.Require().NoError(s.postgres.TruncateTables(ctx, "parties"))
	got, err = s.cached.Resolve(ctx, entry.ID)
	s.Require().NoError(err)
	s.Equal("Cory", got.Name)

	s.Require().NoError(s.cached.Invalidate(ctx, entry.ID))
	_, err = s.cached.Resolve(ctx, entry.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
