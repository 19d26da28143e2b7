package order

import (
	"time"

	"washwise/internal/catalog"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

// Item is one service line in an order. Status mutates only through the
// transition validator; items are never deleted, the terminal picked_up state
// is retained for history.
type Item struct {
	ID           string              `json:"id"`
	OrderID      string              `json:"order_id"`
	ServiceType  catalog.ServiceType `json:"service_name"`
	Quantity     int                 `json:"quantity"`
	CoveredUnits int                 `json:"covered_units"`
	Cost         string              `json:"cost"`
	Status       catalog.Status      `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`

	// PossibleNextStatuses is derived per response from the validator and
	// the order's payment status; it is never stored.
	PossibleNextStatuses []catalog.Status `json:"possible_next_statuses"`
}

type Order struct {
	ID            string        `json:"id"`
	OwnerID       string        `json:"owner_id"`
	TotalCost     string        `json:"total_cost"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	CoveredByPlan bool          `json:"is_covered_by_plan"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []Item        `json:"items"`

	// Active is derived: true while any item has not reached picked_up.
	Active bool `json:"active"`
}
