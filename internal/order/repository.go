package order

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts an order with its items inside the caller's transaction so
// pricing, usage accounting and the order land atomically.
func CreateTx(ctx context.Context, tx pgx.Tx, o *Order) error {
	const qOrder = `
INSERT INTO orders (id, owner_id, total_cost, payment_status, covered_by_plan)
VALUES ($1, $2, $3::numeric, $4, $5)
RETURNING created_at
`
	if err := tx.QueryRow(ctx, qOrder,
		o.ID, o.OwnerID, o.TotalCost, string(o.PaymentStatus), o.CoveredByPlan,
	).Scan(&o.CreatedAt); err != nil {
		return err
	}

	const qItem = `
INSERT INTO order_items (id, order_id, service_type, quantity, covered_units, cost, status)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7)
RETURNING created_at
`
	for i := range o.Items {
		it := &o.Items[i]
		if err := tx.QueryRow(ctx, qItem,
			it.ID, o.ID, string(it.ServiceType), it.Quantity, it.CoveredUnits, it.Cost, string(it.Status),
		).Scan(&it.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

const orderColumns = `id, owner_id, total_cost::text, payment_status, covered_by_plan, created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.OwnerID, &o.TotalCost, &o.PaymentStatus, &o.CoveredByPlan, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetByID(ctx context.Context, orderID string) (*Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	o, err := scanOrder(r.db.QueryRow(ctx, q, orderID))
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]*Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, q, ownerID)
}

func (r *Repository) ListAll(ctx context.Context) ([]*Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	return r.list(ctx, q)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]*Order, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []Item{}
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	const q = `
SELECT id, order_id, service_type, quantity, covered_units, cost::text, status, created_at
FROM order_items
WHERE order_id = ANY($1)
ORDER BY created_at ASC, id ASC
`
	rows, err := r.db.Query(ctx, q, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ServiceType, &it.Quantity, &it.CoveredUnits, &it.Cost, &it.Status, &it.CreatedAt); err != nil {
			return err
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

// LockedItem is an item snapshot read under FOR UPDATE together with the
// order and owner fields the status-update flow needs.
type LockedItem struct {
	Item
	OrderPayment  PaymentStatus
	OwnerID       string
	OwnerUsername string
	OwnerEmail    string
}

func GetItemForUpdate(ctx context.Context, tx pgx.Tx, itemID string) (*LockedItem, error) {
	const q = `
SELECT i.id, i.order_id, i.service_type, i.quantity, i.covered_units, i.cost::text, i.status, i.created_at,
       o.payment_status, o.owner_id, u.username, u.email
FROM order_items i
JOIN orders o ON o.id = i.order_id
JOIN users u ON u.id = o.owner_id
WHERE i.id = $1
FOR UPDATE OF i, o
`
	var li LockedItem
	if err := tx.QueryRow(ctx, q, itemID).Scan(
		&li.ID, &li.OrderID, &li.ServiceType, &li.Quantity, &li.CoveredUnits, &li.Cost, &li.Status, &li.CreatedAt,
		&li.OrderPayment, &li.OwnerID, &li.OwnerUsername, &li.OwnerEmail,
	); err != nil {
		return nil, err
	}
	return &li, nil
}

func UpdateItemStatus(ctx context.Context, tx pgx.Tx, itemID string, next string) error {
	const q = `UPDATE order_items SET status = $2 WHERE id = $1`
	_, err := tx.Exec(ctx, q, itemID, next)
	return err
}

func GetForUpdate(ctx context.Context, tx pgx.Tx, orderID string) (*Order, error) {
	const q = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return scanOrder(tx.QueryRow(ctx, q, orderID))
}

func MarkPaid(ctx context.Context, tx pgx.Tx, orderID string) error {
	const q = `UPDATE orders SET payment_status = 'paid' WHERE id = $1`
	_, err := tx.Exec(ctx, q, orderID)
	return err
}
