package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Event is one entry in an order's timeline. Events are append-only and
// recorded in the same transaction as the change they describe.
type Event struct {
	ID         int64           `json:"id"`
	OrderID    string          `json:"order_id"`
	EventType  string          `json:"event_type"`
	Summary    string          `json:"summary"`
	Actor      string          `json:"actor"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

const (
	EventOrderCreated     = "ORDER_CREATED"
	EventPaymentConfirmed = "PAYMENT_CONFIRMED"
	EventStatusChanged    = "STATUS_CHANGED"
)

func InsertEvent(ctx context.Context, tx pgx.Tx, orderID, eventType, summary, actor string, data any) error {
	var s *string
	if data != nil {
		b, _ := json.Marshal(data)
		str := string(b)
		s = &str
	}
	const q = `
INSERT INTO order_events (order_id, event_type, summary, actor, occurred_at, data)
VALUES ($1, $2, $3, $4, NOW(), CAST($5 AS jsonb))
`
	_, err := tx.Exec(ctx, q, orderID, eventType, summary, actor, s)
	return err
}

func ListEvents(ctx context.Context, db *pgxpool.Pool, orderID string) ([]Event, error) {
	const q = `
SELECT id, order_id, event_type, summary, actor, occurred_at, data
FROM order_events
WHERE order_id = $1
ORDER BY occurred_at ASC, id ASC
`
	rows, err := db.Query(ctx, q, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.OrderID, &e.EventType, &e.Summary, &e.Actor, &e.OccurredAt, &e.Data); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
