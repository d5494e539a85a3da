// Package sync keeps a dashboard's in-memory mirror in step with the shared
// store. One Poller per dashboard re-reads the collections its role watches
// on a timer and whenever another handle writes one of them.
package sync

import (
	"fmt"
	"slices"
	"time"

	"builders-pos/internal/config"
	"builders-pos/internal/store"
	"builders-pos/internal/user"
)

// Profile is what one role's dashboard watches and how often it polls.
type Profile struct {
	Role     user.Role
	Interval time.Duration
	Keys     []string
}

func (p Profile) Watches(key string) bool {
	return slices.Contains(p.Keys, key)
}

// ProfileFor returns the role's watch set with the interval from poll.
// Admins get the manager's view.
func ProfileFor(role user.Role, poll config.PollConfig) (Profile, error) {
	switch role {
	case user.RoleManager, user.RoleAdmin:
		return Profile{
			Role:     role,
			Interval: poll.Manager,
			Keys:     []string{store.KeyOrders, store.KeyProducts, store.KeySuppliers},
		}, nil
	case user.RoleAuditor:
		return Profile{
			Role:     role,
			Interval: poll.Auditor,
			Keys:     []string{store.KeyOrders, store.KeyProducts},
		}, nil
	case user.RoleStaff:
		return Profile{
			Role:     role,
			Interval: poll.Staff,
			Keys:     []string{store.KeyOrders, store.KeyProducts, store.KeyNotifications},
		}, nil
	case user.RoleCustomer:
		return Profile{
			Role:     role,
			Interval: poll.Customer,
			Keys:     []string{store.KeyOrders, store.KeyProducts},
		}, nil
	default:
		return Profile{}, fmt.Errorf("no sync profile for role %q", role)
	}
}
