package sync

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"builders-pos/internal/notification"
	"builders-pos/internal/order"
	"builders-pos/internal/product"
	"builders-pos/internal/store"
	"builders-pos/internal/supplier"
)

// Snapshot is a dashboard's view of the store at one point in time.
type Snapshot struct {
	Products      []product.Product
	Orders        []order.Order
	Suppliers     []supplier.Supplier
	Notifications []notification.Notification
	RefreshedAt   time.Time
}

func (s Snapshot) clone() Snapshot {
	s.Products = slices.Clone(s.Products)
	s.Orders = slices.Clone(s.Orders)
	s.Suppliers = slices.Clone(s.Suppliers)
	s.Notifications = slices.Clone(s.Notifications)
	return s
}

// Mirror holds the latest Snapshot. Refreshes replace whole collections, so
// the last full read wins.
type Mirror struct {
	store *store.Store
	now   func() time.Time
	snap  atomic.Pointer[Snapshot]
}

func NewMirror(s *store.Store) *Mirror {
	m := &Mirror{store: s, now: time.Now}
	m.snap.Store(&Snapshot{})
	return m
}

// Refresh re-reads each key in full. A key that is absent from the store
// leaves the mirrored collection as it was.
func (m *Mirror) Refresh(ctx context.Context, keys []string) error {
	next := m.snap.Load().clone()
	for _, key := range keys {
		var err error
		switch key {
		case store.KeyProducts:
			err = readInto(ctx, m.store, key, &next.Products)
		case store.KeyOrders:
			err = readInto(ctx, m.store, key, &next.Orders)
		case store.KeySuppliers:
			err = readInto(ctx, m.store, key, &next.Suppliers)
		case store.KeyNotifications:
			err = readInto(ctx, m.store, key, &next.Notifications)
		default:
			err = fmt.Errorf("mirror does not hold %q", key)
		}
		if err != nil {
			return err
		}
	}
	next.RefreshedAt = m.now()
	m.snap.Store(&next)
	return nil
}

// Snapshot returns a copy the caller may keep.
func (m *Mirror) Snapshot() Snapshot {
	return m.snap.Load().clone()
}

func readInto[T any](ctx context.Context, s *store.Store, key string, dst *[]T) error {
	var fresh []T
	found, err := s.Read(ctx, key, &fresh)
	if err != nil {
		return err
	}
	if found {
		*dst = fresh
	}
	return nil
}
