package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"canteen/internal/model"
)

// Memory keeps the ledger in process memory behind one mutex, which gives it
// the same atomicity guarantees as the Postgres store. It backs the service
// and handler tests and is handy for development without a database.
type Memory struct {
	mu     sync.Mutex
	menu   []model.MenuItem
	orders map[int64]*model.Order
	nextID int64
}

func NewMemory() *Memory {
	return &Memory{orders: make(map[int64]*model.Order), nextID: 1}
}

func (s *Memory) SeedMenu(_ context.Context, items []model.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.menu) > 0 {
		return nil
	}
	for i, item := range items {
		item.ID = int64(i + 1)
		s.menu = append(s.menu, item)
	}
	return nil
}

func (s *Memory) ListAvailableItems(_ context.Context) ([]model.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []model.MenuItem
	for _, item := range s.menu {
		if item.Available {
			items = append(items, item)
		}
	}
	return items, nil
}

func (s *Memory) CreateOrder(_ context.Context, deviceID, day, items, notes string, createdAt time.Time) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxNumber := 0
	for _, o := range s.orders {
		if o.Day != day {
			continue
		}
		if o.DeviceID == deviceID {
			return nil, ErrDuplicateOrder
		}
		if o.QueueNumber > maxNumber {
			maxNumber = o.QueueNumber
		}
	}

	decoded, err := model.DecodeItems(items)
	if err != nil {
		return nil, err
	}

	order := &model.Order{
		ID:          s.nextID,
		QueueNumber: maxNumber + 1,
		DeviceID:    deviceID,
		Day:         day,
		Items:       decoded,
		Status:      model.StatusPending,
		Notes:       notes,
		CreatedAt:   createdAt,
	}
	s.nextID++
	s.orders[order.ID] = order

	copied := *order
	return &copied, nil
}

func (s *Memory) ActiveOrder(_ context.Context, deviceID, day string) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, o := range s.orders {
		if o.DeviceID == deviceID && o.Day == day {
			copied := *o
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *Memory) DeleteOrder(_ context.Context, deviceID, day string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, o := range s.orders {
		if o.DeviceID == deviceID && o.Day == day {
			delete(s.orders, id)
			return nil
		}
	}
	return nil
}

func (s *Memory) OrdersForDay(_ context.Context, day string) ([]model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var orders []model.Order
	for _, o := range s.orders {
		if o.Day == day {
			orders = append(orders, *o)
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].QueueNumber < orders[j].QueueNumber
	})
	return orders, nil
}

func (s *Memory) Order(_ context.Context, id int64) (*model.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *o
	return &copied, nil
}

func (s *Memory) SetStatus(_ context.Context, id int64, status model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	return nil
}

func (s *Memory) MinServing(_ context.Context, day string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	minNumber := 0
	for _, o := range s.orders {
		if o.Day != day {
			continue
		}
		if o.Status != model.StatusPreparing && o.Status != model.StatusReady {
			continue
		}
		if minNumber == 0 || o.QueueNumber < minNumber {
			minNumber = o.QueueNumber
		}
	}
	if minNumber == 0 {
		return 0, false, nil
	}
	return minNumber, true, nil
}
