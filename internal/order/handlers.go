package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"washwise/internal/api"
	"washwise/internal/catalog"
	"washwise/internal/plan"
	"washwise/internal/user"
	"washwise/internal/workflow"
	"washwise/pkg/db"
)

// Mailer sends the customer a status-update email after commit.
type Mailer interface {
	Send(ctx context.Context, to, subject, html string) error
}

type Handlers struct {
	DB        *pgxpool.Pool
	Orders    *Repository
	Users     *user.Repository
	Registry  *catalog.Registry
	Validator *workflow.Validator
	Ledger    *plan.Ledger
	Mail      Mailer
	Log       *zap.Logger
}

// enrich fills the derived response fields: per-item possible next statuses
// under the order's payment status, and the order-level active flag.
func (h Handlers) enrich(o *Order) *Order {
	paid := o.PaymentStatus == PaymentPaid
	statuses := make([]catalog.Status, 0, len(o.Items))
	for i := range o.Items {
		it := &o.Items[i]
		next, err := h.Validator.NextStatuses(it.ServiceType, it.Status, paid)
		if err != nil {
			// Foreign status in storage is a data-integrity problem; surface
			// an empty choice list rather than failing the whole response.
			h.Log.Warn("item status outside workflow",
				zap.String("item_id", it.ID), zap.String("status", string(it.Status)), zap.Error(err))
			next = []catalog.Status{}
		}
		it.PossibleNextStatuses = next
		statuses = append(statuses, it.Status)
	}
	o.Active = workflow.OrderActive(statuses)
	return o
}

type CreateLineRequest struct {
	ServiceName string `json:"service_name"`
	Quantity    int    `json:"quantity"`
}

type CreateRequest struct {
	CustomerUsername string              `json:"customer_username"`
	Services         []CreateLineRequest `json:"services"`
}

func (h Handlers) Create(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}
	if len(req.Services) == 0 {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "at least one service is required")
		return
	}

	owner, err := h.Users.FindByUsername(r.Context(), req.CustomerUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "CUSTOMER_NOT_FOUND", "customer user not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	lines := make([]plan.LineRequest, 0, len(req.Services))
	for _, s := range req.Services {
		lines = append(lines, plan.LineRequest{ServiceType: catalog.ServiceType(s.ServiceName), Quantity: s.Quantity})
	}

	var created *Order
	err = db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		// Lock the owner row so the plan/usage snapshot the ledger prices
		// against cannot change under a concurrent order.
		locked, err := user.GetForUpdate(r.Context(), tx, owner.ID)
		if err != nil {
			return err
		}

		now := time.Now()
		quote, err := h.Ledger.Quote(locked.EffectivePlan(now), locked.MonthlyUsage, lines)
		if err != nil {
			var verr plan.ValidationError
			if errors.As(err, &verr) {
				api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
				return pgx.ErrTxCommitRollback
			}
			return err
		}

		o := &Order{
			ID:            uuid.NewString(),
			OwnerID:       locked.ID,
			TotalCost:     quote.TotalCost.String(),
			PaymentStatus: PaymentUnpaid,
			CoveredByPlan: quote.FullyCovered,
		}
		// Nothing to collect on a fully covered order.
		if quote.TotalCost.IsZero() {
			o.PaymentStatus = PaymentPaid
		}

		for _, lq := range quote.Lines {
			initial, err := h.Registry.InitialStatus(lq.ServiceType)
			if err != nil {
				return err
			}
			o.Items = append(o.Items, Item{
				ID:           uuid.NewString(),
				OrderID:      o.ID,
				ServiceType:  lq.ServiceType,
				Quantity:     lq.Quantity,
				CoveredUnits: lq.CoveredUnits,
				Cost:         lq.Cost.String(),
				Status:       initial,
			})
		}

		if err := CreateTx(r.Context(), tx, o); err != nil {
			return err
		}
		if quote.NewUsage != locked.MonthlyUsage {
			if err := user.SetMonthlyUsage(r.Context(), tx, locked.ID, quote.NewUsage); err != nil {
				return err
			}
		}

		summary := fmt.Sprintf("Order placed with %d service line(s)", len(o.Items))
		if err := InsertEvent(r.Context(), tx, o.ID, EventOrderCreated, summary, id.Username, map[string]any{
			"total_cost":    o.TotalCost,
			"covered_units": quote.CoveredUnits,
		}); err != nil {
			return err
		}

		created = o
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	api.WriteJSON(w, http.StatusCreated, h.enrich(created))
}

func (h Handlers) List(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}

	var (
		orders []*Order
		err    error
	)
	if id.Role == api.RoleServiceman {
		orders, err = h.Orders.ListAll(r.Context())
	} else {
		orders, err = h.Orders.ListByOwner(r.Context(), id.ID)
	}
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, h.enrich(o))
	}
	api.WriteJSON(w, http.StatusOK, out)
}

// GetByQR resolves an order by ID without authentication: it backs the QR
// deep link printed on the order slip. Image generation lives elsewhere.
func (h Handlers) GetByQR(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	o, err := h.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, h.enrich(o))
}

func (h Handlers) Pay(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	orderID := chi.URLParam(r, "orderID")

	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		o, err := GetForUpdate(r.Context(), tx, orderID)
		if err != nil {
			return err
		}
		if o.OwnerID != id.ID {
			api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your order")
			return pgx.ErrTxCommitRollback
		}
		if o.PaymentStatus == PaymentPaid {
			api.WriteError(w, http.StatusConflict, "ORDER_ALREADY_PAID", "order is already paid")
			return pgx.ErrTxCommitRollback
		}

		if err := MarkPaid(r.Context(), tx, o.ID); err != nil {
			return err
		}
		return InsertEvent(r.Context(), tx, o.ID, EventPaymentConfirmed, "Payment confirmed", id.Username, nil)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	o, err := h.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, h.enrich(o))
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h Handlers) UpdateItemStatus(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	var (
		updated  *LockedItem
		newState catalog.Status
	)
	err := db.WithTx(r.Context(), h.DB, func(tx pgx.Tx) error {
		li, err := GetItemForUpdate(r.Context(), tx, itemID)
		if err != nil {
			return err
		}

		paid := li.OrderPayment == PaymentPaid
		next, err := h.Validator.Validate(li.ServiceType, li.Status, catalog.Status(req.Status), paid)
		if err != nil {
			var terr workflow.TransitionError
			if errors.As(err, &terr) {
				api.WriteError(w, transitionHTTPStatus(terr.Code), terr.Code, terr.Message)
				return pgx.ErrTxCommitRollback
			}
			var verr catalog.ValidationError
			if errors.As(err, &verr) {
				// Current status or service type outside the registry: stored
				// data is inconsistent, not a caller mistake.
				h.Log.Error("stored item state outside registry",
					zap.String("item_id", li.ID), zap.Error(err))
				api.WriteError(w, http.StatusInternalServerError, verr.Code, verr.Message)
				return pgx.ErrTxCommitRollback
			}
			return err
		}

		if err := UpdateItemStatus(r.Context(), tx, li.ID, string(next)); err != nil {
			return err
		}
		if err := InsertEvent(r.Context(), tx, li.OrderID, EventStatusChanged,
			fmt.Sprintf("%s moved to %s", li.ServiceType, next), id.Username,
			map[string]any{"item_id": li.ID, "from": li.Status, "to": next},
		); err != nil {
			return err
		}

		updated = li
		newState = next
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrTxCommitRollback) {
			return
		}
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order item not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	h.notifyStatusChange(updated, newState)

	item := updated.Item
	item.Status = newState
	next, err := h.Validator.NextStatuses(item.ServiceType, item.Status, updated.OrderPayment == PaymentPaid)
	if err != nil {
		next = []catalog.Status{}
	}
	item.PossibleNextStatuses = next
	api.WriteJSON(w, http.StatusOK, item)
}

func (h Handlers) Events(w http.ResponseWriter, r *http.Request) {
	id := api.IdentityFromContext(r.Context())
	if id == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity")
		return
	}
	orderID := chi.URLParam(r, "orderID")

	o, err := h.Orders.GetByID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.WriteError(w, http.StatusNotFound, "NOT_FOUND", "order not found")
			return
		}
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if id.Role != api.RoleServiceman && o.OwnerID != id.ID {
		api.WriteError(w, http.StatusForbidden, "FORBIDDEN", "not your order")
		return
	}

	events, err := ListEvents(r.Context(), h.DB, orderID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	if events == nil {
		events = []Event{}
	}
	api.WriteJSON(w, http.StatusOK, events)
}

// ActiveForUser lists a customer's orders that still have items in flight.
func (h Handlers) ActiveForUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	orders, err := h.Orders.ListByOwner(r.Context(), userID)
	if err != nil {
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}

	out := make([]*Order, 0, len(orders))
	for _, o := range orders {
		if enriched := h.enrich(o); enriched.Active {
			out = append(out, enriched)
		}
	}
	api.WriteJSON(w, http.StatusOK, out)
}

func transitionHTTPStatus(code string) int {
	switch code {
	case workflow.CodeStatusUnknown:
		return http.StatusBadRequest
	case workflow.CodeBackwardTransition, workflow.CodeAlreadyTerminal, workflow.CodePaymentRequired:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h Handlers) notifyStatusChange(li *LockedItem, next catalog.Status) {
	if h.Mail == nil {
		return
	}
	name, err := h.Registry.DisplayName(li.ServiceType)
	if err != nil {
		name = string(li.ServiceType)
	}
	to := li.OwnerEmail
	subject := fmt.Sprintf("Order Update: %s", name)
	body := fmt.Sprintf("Hi %s,<br>Your %s service is now: <b>%s</b>", li.OwnerUsername, name, next)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := h.Mail.Send(ctx, to, subject, body); err != nil {
			h.Log.Error("send status email", zap.String("to", to), zap.Error(err))
		}
	}()
}
