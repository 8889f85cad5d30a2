package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"canteen/internal/model"
	"canteen/internal/resolver"
	"canteen/internal/store"
)

// fakeClock lets tests roll the calendar day without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 8, 30, 12, 0, 0, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestService(strict bool) (*OrderService, *fakeClock) {
	clock := newFakeClock()
	res := resolver.New(resolver.Static{
		"10.0.0.2": "AA:BB:CC:00:00:02",
		"10.0.0.3": "AA:BB:CC:00:00:03",
	})
	svc := NewOrderService(store.NewMemory(), res, clock.Now, strict)
	return svc, clock
}

func pizza() []model.OrderItem {
	return []model.OrderItem{{Name: "Margherita Pizza", Quantity: 1}}
}

func TestSubmitAssignsSequentialNumbers(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	orderA, already, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil || already {
		t.Fatalf("Submit(A) = (already=%v, err=%v)", already, err)
	}
	if orderA.QueueNumber != 1 || orderA.Status != model.StatusPending {
		t.Errorf("first order = #%d %q, want #1 pending", orderA.QueueNumber, orderA.Status)
	}

	orderB, already, err := svc.Submit(ctx, "10.0.0.3", []model.OrderItem{{Name: "Caesar Salad", Quantity: 2}}, "")
	if err != nil || already {
		t.Fatalf("Submit(B) = (already=%v, err=%v)", already, err)
	}
	if orderB.QueueNumber != 2 {
		t.Errorf("second order queue number = %d, want 2", orderB.QueueNumber)
	}
}

func TestSubmitResolvedIdentityIsStable(t *testing.T) {
	svc, _ := newTestService(false)

	order, _, err := svc.Submit(context.Background(), "10.0.0.2", pizza(), "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if order.DeviceID != "aa:bb:cc:00:00:02" {
		t.Errorf("DeviceID = %q, want lowercased hardware id", order.DeviceID)
	}
}

func TestResubmitReturnsExistingOrder(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	first, _, err := svc.Submit(ctx, "10.0.0.2", pizza(), "extra basil")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	second, already, err := svc.Submit(ctx, "10.0.0.2", []model.OrderItem{{Name: "Brownie", Quantity: 3}}, "")
	if err != nil {
		t.Fatalf("resubmit error = %v", err)
	}
	if !already {
		t.Error("resubmit should flag already_ordered")
	}
	if second.QueueNumber != first.QueueNumber || second.ID != first.ID {
		t.Errorf("resubmit returned order #%d (id %d), want original #%d (id %d)",
			second.QueueNumber, second.ID, first.QueueNumber, first.ID)
	}
	if second.Notes != "extra basil" {
		t.Errorf("resubmit must not alter the original order, notes = %q", second.Notes)
	}

	orders, err := svc.ListToday(ctx)
	if err != nil {
		t.Fatalf("ListToday() error = %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("resubmission created a second record, have %d orders", len(orders))
	}
}

func TestSubmitRejectsBadItems(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	tests := []struct {
		name  string
		items []model.OrderItem
	}{
		{"empty", nil},
		{"zeroQuantity", []model.OrderItem{{Name: "Espresso", Quantity: 0}}},
		{"negativeQuantity", []model.OrderItem{{Name: "Espresso", Quantity: -1}}},
		{"unnamed", []model.OrderItem{{Name: "", Quantity: 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Submit(ctx, "10.0.0.2", tt.items, "")
			if !errors.Is(err, ErrBadItems) {
				t.Errorf("Submit() error = %v, want ErrBadItems", err)
			}
		})
	}
}

func TestStatusNoActiveOrder(t *testing.T) {
	svc, _ := newTestService(false)

	_, err := svc.Status(context.Background(), "10.0.0.2")
	if !errors.Is(err, ErrNoActiveOrder) {
		t.Errorf("Status() error = %v, want ErrNoActiveOrder", err)
	}
}

// TestQueueScenario walks the full flow: two devices order, staff advance
// the first order, the first device clears and orders again.
func TestQueueScenario(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	orderA, _, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil {
		t.Fatalf("Submit(A) error = %v", err)
	}
	if orderA.QueueNumber != 1 {
		t.Fatalf("A got #%d, want #1", orderA.QueueNumber)
	}

	orderB, _, err := svc.Submit(ctx, "10.0.0.3", []model.OrderItem{{Name: "Caesar Salad", Quantity: 2}}, "")
	if err != nil {
		t.Fatalf("Submit(B) error = %v", err)
	}
	if orderB.QueueNumber != 2 {
		t.Fatalf("B got #%d, want #2", orderB.QueueNumber)
	}

	if _, ok, _ := svc.CurrentlyServing(ctx); ok {
		t.Error("nothing is being prepared yet, serving should be empty")
	}

	if err := svc.UpdateStatus(ctx, orderA.ID, model.StatusPreparing); err != nil {
		t.Fatalf("UpdateStatus(preparing) error = %v", err)
	}
	if number, ok, _ := svc.CurrentlyServing(ctx); !ok || number != 1 {
		t.Errorf("serving = (%d, %v), want (1, true)", number, ok)
	}

	if err := svc.UpdateStatus(ctx, orderA.ID, model.StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus(completed) error = %v", err)
	}
	if _, ok, _ := svc.CurrentlyServing(ctx); ok {
		t.Error("order 1 completed and order 2 still pending, serving should be empty")
	}

	if err := svc.Clear(ctx, "10.0.0.2"); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	resubmitted, already, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil || already {
		t.Fatalf("resubmit after clear = (already=%v, err=%v)", already, err)
	}
	if resubmitted.QueueNumber != 3 {
		t.Errorf("resubmit after clear got #%d, want #3 (numbers are never reused)", resubmitted.QueueNumber)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	if err := svc.Clear(ctx, "10.0.0.2"); err != nil {
		t.Errorf("Clear() with no active order error = %v", err)
	}
}

func TestDayRolloverResetsQueue(t *testing.T) {
	svc, clock := newTestService(false)
	ctx := context.Background()

	if _, _, err := svc.Submit(ctx, "10.0.0.2", pizza(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if _, _, err := svc.Submit(ctx, "10.0.0.3", pizza(), ""); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	clock.Advance(24 * time.Hour)

	// Yesterday's order no longer blocks the device, and numbering restarts.
	if _, err := svc.Status(ctx, "10.0.0.2"); !errors.Is(err, ErrNoActiveOrder) {
		t.Errorf("Status() after rollover error = %v, want ErrNoActiveOrder", err)
	}
	order, already, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil || already {
		t.Fatalf("Submit() after rollover = (already=%v, err=%v)", already, err)
	}
	if order.QueueNumber != 1 {
		t.Errorf("first order of new day got #%d, want #1", order.QueueNumber)
	}

	orders, _ := svc.ListToday(ctx)
	if len(orders) != 1 {
		t.Errorf("ListToday() after rollover returned %d orders, want 1", len(orders))
	}
}

func TestUpdateStatusValidation(t *testing.T) {
	svc, _ := newTestService(false)
	ctx := context.Background()

	order, _, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.UpdateStatus(ctx, order.ID, model.Status("burnt")); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("UpdateStatus(burnt) error = %v, want ErrInvalidStatus", err)
	}
	if err := svc.UpdateStatus(ctx, order.ID+99, model.StatusReady); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("UpdateStatus() on missing order error = %v, want store.ErrNotFound", err)
	}

	// Baseline mode: staff may jump anywhere, including backwards.
	if err := svc.UpdateStatus(ctx, order.ID, model.StatusCompleted); err != nil {
		t.Errorf("UpdateStatus(completed) error = %v", err)
	}
	if err := svc.UpdateStatus(ctx, order.ID, model.StatusPending); err != nil {
		t.Errorf("baseline UpdateStatus(back to pending) error = %v", err)
	}
}

func TestUpdateStatusStrictMode(t *testing.T) {
	svc, _ := newTestService(true)
	ctx := context.Background()

	order, _, err := svc.Submit(ctx, "10.0.0.2", pizza(), "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if err := svc.UpdateStatus(ctx, order.ID, model.StatusReady); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("strict UpdateStatus(pending→ready) error = %v, want ErrInvalidTransition", err)
	}

	for _, status := range []model.Status{model.StatusPreparing, model.StatusReady, model.StatusCompleted} {
		if err := svc.UpdateStatus(ctx, order.ID, status); err != nil {
			t.Fatalf("strict UpdateStatus(%s) error = %v", status, err)
		}
	}

	if err := svc.UpdateStatus(ctx, order.ID, model.StatusPending); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("strict UpdateStatus(completed→pending) error = %v, want ErrInvalidTransition", err)
	}
}

func TestConcurrentSubmissions(t *testing.T) {
	clock := newFakeClock()
	leases := resolver.Static{}
	const devices = 20
	for i := 0; i < devices; i++ {
		leases[fmt.Sprintf("10.0.1.%d", i)] = fmt.Sprintf("AA:BB:CC:DD:00:%02X", i)
	}
	svc := NewOrderService(store.NewMemory(), resolver.New(leases), clock.Now, false)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < devices; i++ {
		addr := fmt.Sprintf("10.0.1.%d", i)
		// Each device submits twice, concurrently with everyone else.
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, _, err := svc.Submit(ctx, addr, pizza(), ""); err != nil {
					t.Errorf("Submit(%s) error = %v", addr, err)
				}
			}()
		}
	}
	wg.Wait()

	orders, err := svc.ListToday(ctx)
	if err != nil {
		t.Fatalf("ListToday() error = %v", err)
	}
	if len(orders) != devices {
		t.Fatalf("have %d orders, want one per device (%d)", len(orders), devices)
	}

	seenNumbers := make(map[int]bool)
	seenDevices := make(map[string]bool)
	for _, o := range orders {
		if seenNumbers[o.QueueNumber] {
			t.Errorf("queue number %d assigned twice", o.QueueNumber)
		}
		seenNumbers[o.QueueNumber] = true
		if seenDevices[o.DeviceID] {
			t.Errorf("device %s has two active orders", o.DeviceID)
		}
		seenDevices[o.DeviceID] = true
	}
	for n := 1; n <= devices; n++ {
		if !seenNumbers[n] {
			t.Errorf("queue number %d missing, numbers must be contiguous from 1", n)
		}
	}
}
