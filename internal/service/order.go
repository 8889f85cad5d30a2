package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"canteen/internal/model"
	"canteen/internal/resolver"
	"canteen/internal/store"
)

var (
	ErrNoActiveOrder     = errors.New("no active order for device today")
	ErrBadItems          = errors.New("invalid order items")
	ErrInvalidStatus     = errors.New("unknown order status")
	ErrInvalidTransition = errors.New("status transition not allowed")
)

// OrderService orchestrates the order flow: resolve the caller's device
// identity, then go through the ledger. The clock is injected so tests can
// roll the calendar day deterministically.
type OrderService struct {
	store    store.Store
	resolver *resolver.Resolver
	now      func() time.Time
	strict   bool
}

func NewOrderService(st store.Store, res *resolver.Resolver, now func() time.Time, strict bool) *OrderService {
	if now == nil {
		now = time.Now
	}
	return &OrderService{store: st, resolver: res, now: now, strict: strict}
}

// Submit places the order for the device behind address. Resubmission on the
// same day is not an error: the existing order comes back with
// alreadyOrdered set, so the customer page can show the original queue
// number.
func (s *OrderService) Submit(ctx context.Context, address string, items []model.OrderItem, notes string) (*model.Order, bool, error) {
	if err := validateItems(items); err != nil {
		return nil, false, err
	}

	deviceID := s.resolver.Resolve(address)
	now := s.now()
	day := model.DayOf(now)

	existing, err := s.store.ActiveOrder(ctx, deviceID, day)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("check active order: %w", err)
	}

	encoded, err := model.EncodeItems(items)
	if err != nil {
		return nil, false, err
	}

	order, err := s.store.CreateOrder(ctx, deviceID, day, encoded, notes, now)
	if errors.Is(err, store.ErrDuplicateOrder) {
		// Lost the race to a concurrent submission from the same device;
		// the winner's order is the customer's order.
		existing, err := s.store.ActiveOrder(ctx, deviceID, day)
		if err != nil {
			return nil, false, fmt.Errorf("fetch winning order: %w", err)
		}
		return existing, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("create order: %w", err)
	}

	slog.Info("order created", "device", deviceID, "day", day, "queue_number", order.QueueNumber)
	return order, false, nil
}

// Status returns the caller's active order for today, or ErrNoActiveOrder.
func (s *OrderService) Status(ctx context.Context, address string) (*model.Order, error) {
	deviceID := s.resolver.Resolve(address)
	day := model.DayOf(s.now())

	order, err := s.store.ActiveOrder(ctx, deviceID, day)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoActiveOrder
	}
	if err != nil {
		return nil, fmt.Errorf("get active order: %w", err)
	}
	return order, nil
}

// Clear deletes the caller's active order so a new one can be placed.
// Clearing with nothing to clear is a no-op.
func (s *OrderService) Clear(ctx context.Context, address string) error {
	deviceID := s.resolver.Resolve(address)
	day := model.DayOf(s.now())

	if err := s.store.DeleteOrder(ctx, deviceID, day); err != nil {
		return fmt.Errorf("clear order: %w", err)
	}
	slog.Info("order cleared", "device", deviceID, "day", day)
	return nil
}

// ListToday returns today's orders for the staff dashboard, queue order.
func (s *OrderService) ListToday(ctx context.Context) ([]model.Order, error) {
	return s.store.OrdersForDay(ctx, model.DayOf(s.now()))
}

// UpdateStatus sets an order's status from the dashboard. The baseline
// allows any value so staff can correct mistakes; with strict mode on, only
// forward steps of pending→preparing→ready→completed pass.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, status model.Status) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}

	if s.strict {
		current, err := s.store.Order(ctx, orderID)
		if err != nil {
			return err
		}
		if !status.CanFollow(current.Status) {
			slog.Warn("rejected status transition", "order_id", orderID, "from", current.Status, "to", status)
			return ErrInvalidTransition
		}
	}

	if err := s.store.SetStatus(ctx, orderID, status); err != nil {
		return err
	}
	slog.Info("order status updated", "order_id", orderID, "status", status)
	return nil
}

// CurrentlyServing computes the number shown on the portal: the lowest queue
// number being actively worked or ready for pickup. ok is false when the
// queue has nothing in those states.
func (s *OrderService) CurrentlyServing(ctx context.Context) (int, bool, error) {
	return s.store.MinServing(ctx, model.DayOf(s.now()))
}

func validateItems(items []model.OrderItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: empty", ErrBadItems)
	}
	for _, item := range items {
		if item.Name == "" || item.Quantity <= 0 {
			return fmt.Errorf("%w: %q x%d", ErrBadItems, item.Name, item.Quantity)
		}
	}
	return nil
}
