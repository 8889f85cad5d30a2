package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"canteen/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) SeedMenu(ctx context.Context, items []model.MenuItem) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM menu_items`).Scan(&count); err != nil {
		return fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO menu_items (name, description, price, category, available) VALUES ($1, $2, $3, $4, $5)`,
			item.Name, item.Description, item.Price, item.Category, item.Available,
		)
		if err != nil {
			return fmt.Errorf("insert menu item %q: %w", item.Name, err)
		}
	}

	return tx.Commit()
}

func (s *Postgres) ListAvailableItems(ctx context.Context) ([]model.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, price, category, available
		FROM menu_items
		WHERE available = TRUE
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query menu items: %w", err)
	}
	defer rows.Close()

	var items []model.MenuItem
	for rows.Next() {
		var item model.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price, &item.Category, &item.Available); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return items, nil
}

func (s *Postgres) CreateOrder(ctx context.Context, deviceID, day, items, notes string, createdAt time.Time) (*model.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	// Serialize order creation per day so the max+1 below cannot race with
	// a concurrent submission. The lock is released at commit/rollback.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, day); err != nil {
		return nil, fmt.Errorf("acquire day lock: %w", err)
	}

	var existingID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM orders WHERE device_id = $1 AND order_day = $2`,
		deviceID, day,
	).Scan(&existingID)
	if err == nil {
		return nil, ErrDuplicateOrder
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check active order: %w", err)
	}

	var queueNumber int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(queue_number), 0) + 1 FROM orders WHERE order_day = $1`,
		day,
	).Scan(&queueNumber)
	if err != nil {
		return nil, fmt.Errorf("next queue number: %w", err)
	}

	order := &model.Order{
		QueueNumber: queueNumber,
		DeviceID:    deviceID,
		Day:         day,
		Status:      model.StatusPending,
		Notes:       notes,
		CreatedAt:   createdAt,
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (queue_number, device_id, order_day, items, status, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, queueNumber, deviceID, day, items, model.StatusPending, notes, createdAt).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if order.Items, err = model.DecodeItems(items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return order, nil
}

func (s *Postgres) ActiveOrder(ctx context.Context, deviceID, day string) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, queue_number, device_id, order_day, items, status, notes, created_at
		FROM orders
		WHERE device_id = $1 AND order_day = $2
	`, deviceID, day)
	return scanOrder(row)
}

func (s *Postgres) DeleteOrder(ctx context.Context, deviceID, day string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM orders WHERE device_id = $1 AND order_day = $2`,
		deviceID, day,
	)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	return nil
}

func (s *Postgres) OrdersForDay(ctx context.Context, day string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, queue_number, device_id, order_day, items, status, notes, created_at
		FROM orders
		WHERE order_day = $1
		ORDER BY queue_number ASC
	`, day)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var itemsText string
		if err := rows.Scan(&o.ID, &o.QueueNumber, &o.DeviceID, &o.Day, &itemsText, &o.Status, &o.Notes, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if o.Items, err = model.DecodeItems(itemsText); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return orders, nil
}

func (s *Postgres) Order(ctx context.Context, id int64) (*model.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, queue_number, device_id, order_day, items, status, notes, created_at
		FROM orders
		WHERE id = $1
	`, id)
	return scanOrder(row)
}

func (s *Postgres) SetStatus(ctx context.Context, id int64, status model.Status) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) MinServing(ctx context.Context, day string) (int, bool, error) {
	var number sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(queue_number)
		FROM orders
		WHERE order_day = $1 AND status IN ($2, $3)
	`, day, model.StatusPreparing, model.StatusReady).Scan(&number)
	if err != nil {
		return 0, false, fmt.Errorf("query serving number: %w", err)
	}
	if !number.Valid {
		return 0, false, nil
	}
	return int(number.Int64), true, nil
}

func scanOrder(row *sql.Row) (*model.Order, error) {
	var o model.Order
	var itemsText string
	err := row.Scan(&o.ID, &o.QueueNumber, &o.DeviceID, &o.Day, &itemsText, &o.Status, &o.Notes, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	if o.Items, err = model.DecodeItems(itemsText); err != nil {
		return nil, err
	}
	return &o, nil
}
