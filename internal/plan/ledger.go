package plan

import (
	"fmt"

	"github.com/shopspring/decimal"

	"washwise/internal/catalog"
)

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LineRequest is one requested order line: a service type at a quantity.
type LineRequest struct {
	ServiceType catalog.ServiceType
	Quantity    int
}

// LineQuote is the priced result for one line. CoveredUnits cost nothing,
// BillableUnits are charged at the registry unit price.
type LineQuote struct {
	ServiceType   catalog.ServiceType
	Quantity      int
	CoveredUnits  int
	BillableUnits int
	Cost          decimal.Decimal
}

// QuoteResult is the ledger's decision for a whole order request.
type QuoteResult struct {
	Lines        []LineQuote
	TotalCost    decimal.Decimal
	CoveredUnits int
	// NewUsage is the customer's month-to-date usage after this order.
	NewUsage int
	// FullyCovered is true when every requested unit fell under the quota.
	FullyCovered bool
}

// Ledger partitions requested order lines into plan-covered and billable
// units. Pure decision logic: it neither reads nor writes usage counters,
// callers pass the current count and persist NewUsage atomically with the
// order.
type Ledger struct {
	reg *catalog.Registry
}

func NewLedger(reg *catalog.Registry) *Ledger {
	return &Ledger{reg: reg}
}

// Quote prices the requested lines under the customer's plan.
//
// Coverage is deterministic and order-dependent: lines consume the remaining
// quota in input-list order, unit by unit, so earlier-listed services are
// covered first. Ineligible service types are always billable and never touch
// the quota. Validation is all-or-nothing: any invalid line rejects the whole
// request before any accounting.
func (l *Ledger) Quote(p Plan, currentUsage int, lines []LineRequest) (*QuoteResult, error) {
	for _, line := range lines {
		if !l.reg.Known(line.ServiceType) {
			return nil, ValidationError{
				Code:    "SERVICE_UNKNOWN",
				Message: fmt.Sprintf("unknown service type: %s", line.ServiceType),
			}
		}
		if line.Quantity <= 0 {
			return nil, ValidationError{
				Code:    "QUANTITY_INVALID",
				Message: fmt.Sprintf("%s: quantity must be positive, got %d", line.ServiceType, line.Quantity),
			}
		}
		if line.Quantity > MaxLineQuantity {
			return nil, ValidationError{
				Code:    "QUANTITY_INVALID",
				Message: fmt.Sprintf("%s: quantity %d exceeds the per-line limit of %d", line.ServiceType, line.Quantity, MaxLineQuantity),
			}
		}
	}

	if currentUsage < 0 {
		currentUsage = 0
	}
	remaining := 0
	if p != PlanNone && p != "" {
		remaining = MonthlyQuota - currentUsage
		if remaining < 0 {
			remaining = 0
		}
	}

	res := &QuoteResult{
		Lines:        make([]LineQuote, 0, len(lines)),
		TotalCost:    decimal.Zero,
		FullyCovered: true,
	}

	for _, line := range lines {
		price, err := l.reg.UnitPrice(line.ServiceType)
		if err != nil {
			return nil, err
		}

		covered := 0
		if Eligible(p, line.ServiceType) && remaining > 0 {
			covered = line.Quantity
			if covered > remaining {
				covered = remaining
			}
			remaining -= covered
		}
		billable := line.Quantity - covered
		if billable > 0 {
			res.FullyCovered = false
		}

		res.Lines = append(res.Lines, LineQuote{
			ServiceType:   line.ServiceType,
			Quantity:      line.Quantity,
			CoveredUnits:  covered,
			BillableUnits: billable,
			Cost:          price.Mul(decimal.NewFromInt(int64(billable))),
		})
		res.CoveredUnits += covered
	}

	for _, q := range res.Lines {
		res.TotalCost = res.TotalCost.Add(q.Cost)
	}
	res.NewUsage = currentUsage + res.CoveredUnits
	return res, nil
}
