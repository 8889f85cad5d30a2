package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of an order as staff work through the queue.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted:
		return true
	}
	return false
}

// CanFollow reports whether s is a legal successor of prev under the strict
// forward-only flow. Rewriting the same status is allowed so a double tap on
// the dashboard stays harmless.
func (s Status) CanFollow(prev Status) bool {
	if s == prev {
		return true
	}
	switch prev {
	case StatusPending:
		return s == StatusPreparing
	case StatusPreparing:
		return s == StatusReady
	case StatusReady:
		return s == StatusCompleted
	}
	return false
}

type Order struct {
	ID          int64       `json:"id"`
	QueueNumber int         `json:"queue_number"`
	DeviceID    string      `json:"device_id"`
	Day         string      `json:"day"`
	Items       []OrderItem `json:"items"`
	Status      Status      `json:"status"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type OrderItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// EncodeItems serializes the item summary for the single text column the
// ledger stores it in.
func EncodeItems(items []OrderItem) (string, error) {
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}
	return string(b), nil
}

func DecodeItems(s string) ([]OrderItem, error) {
	var items []OrderItem
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return items, nil
}

// DayOf maps a creation timestamp to its calendar day in server-local time.
// The day boundary is the wall-clock date, not a rolling 24h window.
func DayOf(t time.Time) string {
	return t.Format("2006-01-02")
}
