package sync

import (
	"context"
	"testing"

	"builders-pos/internal/config"
	"builders-pos/internal/product"
	"builders-pos/internal/store"
	"builders-pos/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMirror_RefreshKeepsMissingKeys(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	m := NewMirror(s)

	require.NoError(t, s.Write(ctx, store.KeyProducts, []product.Product{{ID: 1, Name: "Cement 50kg", Stock: 200}}))
	require.NoError(t, m.Refresh(ctx, []string{store.KeyProducts, store.KeyOrders}))

	snap := m.Snapshot()
	require.Len(t, snap.Products, 1)
	assert.Empty(t, snap.Orders)
	assert.False(t, snap.RefreshedAt.IsZero())

	require.NoError(t, s.Delete(ctx, store.KeyProducts))
	require.NoError(t, m.Refresh(ctx, []string{store.KeyProducts}))
	assert.Len(t, m.Snapshot().Products, 1, "absent key leaves the mirror alone")
}

func TestMirror_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())
	m := NewMirror(s)
	require.NoError(t, s.Write(ctx, store.KeyProducts, []product.Product{{ID: 1, Stock: 200}}))
	require.NoError(t, m.Refresh(ctx, []string{store.KeyProducts}))

	snap := m.Snapshot()
	snap.Products[0].Stock = 0

	assert.Equal(t, 200, m.Snapshot().Products[0].Stock)
}

func TestMirror_UnknownKey(t *testing.T) {
	m := NewMirror(store.New(store.NewMemoryBackend()))
	assert.Error(t, m.Refresh(context.Background(), []string{store.KeyFeedbacks}))
}

func TestProfileFor(t *testing.T) {
	poll := config.Default().Poll

	manager, err := ProfileFor(user.RoleManager, poll)
	require.NoError(t, err)
	assert.Equal(t, poll.Manager, manager.Interval)
	assert.True(t, manager.Watches(store.KeySuppliers))
	assert.False(t, manager.Watches(store.KeyNotifications))

	staff, err := ProfileFor(user.RoleStaff, poll)
	require.NoError(t, err)
	assert.True(t, staff.Watches(store.KeyNotifications))

	auditor, err := ProfileFor(user.RoleAuditor, poll)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{store.KeyOrders, store.KeyProducts}, auditor.Keys)

	_, err = ProfileFor(user.Role("guest"), poll)
	assert.Error(t, err)
}
