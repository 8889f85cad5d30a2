package service

import (
	"context"
	"log/slog"

	"canteen/internal/model"
	"canteen/internal/store"
)

// starterMenu is the catalog inserted on first boot. Edits after that happen
// out of band, directly against the store.
var starterMenu = []model.MenuItem{
	{Name: "Espresso", Description: "Double shot", Price: 2.50, Category: "drinks", Available: true},
	{Name: "Cappuccino", Description: "With oat milk on request", Price: 3.50, Category: "drinks", Available: true},
	{Name: "Lemonade", Description: "House made, lightly sweet", Price: 3.00, Category: "drinks", Available: true},
	{Name: "Margherita Pizza", Description: "Tomato, mozzarella, basil", Price: 9.50, Category: "mains", Available: true},
	{Name: "Caesar Salad", Description: "Romaine, parmesan, croutons", Price: 7.00, Category: "mains", Available: true},
	{Name: "Grilled Cheese", Description: "Sourdough, three cheeses", Price: 6.50, Category: "mains", Available: true},
	{Name: "Brownie", Description: "Warm, with sea salt", Price: 4.00, Category: "desserts", Available: true},
}

type MenuService struct {
	store store.Store
}

func NewMenuService(st store.Store) *MenuService {
	return &MenuService{store: st}
}

// Seed inserts the starter catalog; safe to call on every boot.
func (s *MenuService) Seed(ctx context.Context) error {
	if err := s.store.SeedMenu(ctx, starterMenu); err != nil {
		return err
	}
	slog.Info("menu catalog ready")
	return nil
}

func (s *MenuService) ListAvailable(ctx context.Context) ([]model.MenuItem, error) {
	return s.store.ListAvailableItems(ctx)
}
