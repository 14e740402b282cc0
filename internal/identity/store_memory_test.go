package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"driveflow/pkg/domain"
	"driveflow/pkg/platform/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	t.Run("Resolve for missing party returns ErrNotFound", func(t *testing.T) {
		_, err := store.Resolve(ctx, domain.NewPartyID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("Put then Resolve round-trips", func(t *testing.T) {
		coordinator := &Identity{ID: domain.NewPartyID(), Name: "Dana", Role: domain.RoleCoordinator}
		require.NoError(t, store.Put(ctx, coordinator))

		got, err := store.Resolve(ctx, coordinator.ID)
		require.NoError(t, err)
		assert.Equal(t, coordinator, got)
		assert.Equal(t, 2, got.Authority())
	})

	t.Run("Resolve hands out copies", func(t *testing.T) {
		id := domain.NewPartyID()
		require.NoError(t, store.Put(ctx, &Identity{ID: id, Name: "Sam", Role: domain.RoleStakeholder}))

		got, err := store.Resolve(ctx, id)
		require.NoError(t, err)
		got.Name = "mutated"

		again, err := store.Resolve(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Sam", again.Name)
	})

	t.Run("ListByRole is ordered by ID", func(t *testing.T) {
		fresh := NewInMemoryStore()
		for i := 0; i < 5; i++ {
			require.NoError(t, fresh.Put(ctx, &Identity{ID: domain.NewPartyID(), Role: domain.RoleCoordinator}))
		}
		require.NoError(t, fresh.Put(ctx, &Identity{ID: domain.NewPartyID(), Role: domain.RoleAdministrator}))

		coordinators, err := fresh.ListByRole(ctx, domain.RoleCoordinator)
		require.NoError(t, err)
		require.Len(t, coordinators, 5)
		for i := 1; i < len(coordinators); i++ {
			assert.Less(t, coordinators[i-1].ID.String(), coordinators[i].ID.String())
		}
	})
}
