package store

import (
	"context"
	"errors"
	"time"

	"canteen/internal/model"
)

var (
	// ErrDuplicateOrder means the device already has an active order for the
	// day. Callers recover by returning the existing order, not by failing.
	ErrDuplicateOrder = errors.New("active order already exists for device and day")

	ErrNotFound = errors.New("order not found")
)

// Store is the single ledger handle every request goes through. Any
// read-then-write sequence that establishes an invariant (queue-number
// uniqueness, one active order per device per day) runs inside one atomic
// unit behind these methods.
type Store interface {
	// SeedMenu inserts the starter catalog once; it is a no-op when any
	// menu item already exists.
	SeedMenu(ctx context.Context, items []model.MenuItem) error
	ListAvailableItems(ctx context.Context) ([]model.MenuItem, error)

	// CreateOrder checks for an existing active order, assigns the next
	// queue number for the day and inserts, all atomically. Returns
	// ErrDuplicateOrder when the device already ordered that day.
	CreateOrder(ctx context.Context, deviceID, day, items, notes string, createdAt time.Time) (*model.Order, error)

	// ActiveOrder returns the order for (deviceID, day) or ErrNotFound.
	ActiveOrder(ctx context.Context, deviceID, day string) (*model.Order, error)

	// DeleteOrder removes the active order for (deviceID, day); deleting a
	// device with no order is not an error.
	DeleteOrder(ctx context.Context, deviceID, day string) error

	// OrdersForDay lists a day's orders in queue-number order.
	OrdersForDay(ctx context.Context, day string) ([]model.Order, error)

	// Order returns a single order by id or ErrNotFound.
	Order(ctx context.Context, id int64) (*model.Order, error)

	// SetStatus overwrites an order's status; ErrNotFound when the order is
	// gone, e.g. cleared by its owner while the dashboard was open.
	SetStatus(ctx context.Context, id int64, status model.Status) error

	// MinServing returns the lowest queue number among the day's orders in
	// status preparing or ready; ok is false when none qualifies.
	MinServing(ctx context.Context, day string) (int, bool, error)
}
