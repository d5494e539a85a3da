package store

import (
	"context"
	"regexp"
	"strconv"
)

// AnyRevision makes Set unconditional (last write wins).
const AnyRevision int64 = -1

// eventBuffer is the per-subscriber change channel size.
const eventBuffer = 64

// Collection keys shared by every dashboard.
const (
	KeyProducts      = "products"
	KeyOrders        = "orders"
	KeySuppliers     = "suppliers"
	KeyNotifications = "notifications"
	KeyFeedbacks     = "feedbacks"
	KeyQuotations    = "quotations"
	KeyUsers         = "users"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-][A-Za-z0-9_.-]*$`)

// CartKey is the per-customer cart collection key.
func CartKey(customerID int64) string {
	return "cart_" + strconv.FormatInt(customerID, 10)
}

// Entry is one stored blob. A missing key behaves as revision 0.
type Entry struct {
	Data     []byte
	Revision int64
	Origin   string
}

// Change is the cross-context signal emitted after a write or delete.
type Change struct {
	Key      string
	Origin   string
	Revision int64
	Deleted  bool
}

// Backend is the synchronous key -> JSON blob persistence collaborator.
type Backend interface {
	Get(key string) (Entry, error)
	// Set stores data when the current revision equals expected, or always
	// when expected is AnyRevision. It returns the new revision.
	Set(key string, data []byte, origin string, expected int64) (int64, error)
	Delete(key string, origin string) error
	Keys() ([]string, error)
	// Watch streams changes until ctx is done.
	Watch(ctx context.Context) (<-chan Change, error)
	Close() error
}

func validateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return ErrInvalidKey
	}
	return nil
}
