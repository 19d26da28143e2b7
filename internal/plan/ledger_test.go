package plan

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"washwise/internal/catalog"
)

func newLedger() *Ledger {
	return NewLedger(catalog.Default())
}

func mustQuote(t *testing.T, p Plan, usage int, lines []LineRequest) *QuoteResult {
	t.Helper()
	res, err := newLedger().Quote(p, usage, lines)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return res
}

func assertLedgerCode(t *testing.T, err error, code string) {
	t.Helper()
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError %s, got %v", code, err)
	}
	if verr.Code != code {
		t.Fatalf("expected code %s, got %s", code, verr.Code)
	}
}

func TestQuotePartialCoverageNearQuota(t *testing.T) {
	// standard plan, 3 of 4 units already used, two wash_and_fold units
	// requested: one covered, one billed at full price.
	res := mustQuote(t, PlanStandard, 3, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: 2},
	})

	line := res.Lines[0]
	if line.CoveredUnits != 1 || line.BillableUnits != 1 {
		t.Fatalf("expected 1 covered / 1 billable, got %d/%d", line.CoveredUnits, line.BillableUnits)
	}
	if !line.Cost.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected cost 10, got %s", line.Cost)
	}
	if res.NewUsage != 4 {
		t.Fatalf("expected new usage 4, got %d", res.NewUsage)
	}
	if res.FullyCovered {
		t.Fatalf("partially billed order must not be fully covered")
	}
}

func TestQuoteIneligibleServiceNeverCovered(t *testing.T) {
	res := mustQuote(t, PlanStandard, 0, []LineRequest{
		{ServiceType: catalog.PremiumWash, Quantity: 1},
	})

	line := res.Lines[0]
	if line.CoveredUnits != 0 || line.BillableUnits != 1 {
		t.Fatalf("ineligible service covered: %d/%d", line.CoveredUnits, line.BillableUnits)
	}
	if !line.Cost.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected cost 40, got %s", line.Cost)
	}
	if res.NewUsage != 0 {
		t.Fatalf("ineligible service consumed quota: usage %d", res.NewUsage)
	}
}

func TestQuoteNoPlanAllBillable(t *testing.T) {
	res := mustQuote(t, PlanNone, 0, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: 3},
		{ServiceType: catalog.SteamIron, Quantity: 2},
	})

	if res.CoveredUnits != 0 || res.NewUsage != 0 {
		t.Fatalf("plan none must cover nothing: covered=%d usage=%d", res.CoveredUnits, res.NewUsage)
	}
	// 3*10 + 2*15
	if !res.TotalCost.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected total 60, got %s", res.TotalCost)
	}
}

func TestQuoteInputOrderDeterminesCoverage(t *testing.T) {
	// Quota of 4 on premium: the earlier-listed line drains the quota first.
	res := mustQuote(t, PlanPremium, 0, []LineRequest{
		{ServiceType: catalog.DryCleaning, Quantity: 3},
		{ServiceType: catalog.WashAndFold, Quantity: 3},
	})

	if res.Lines[0].CoveredUnits != 3 {
		t.Fatalf("first line should take 3 covered units, got %d", res.Lines[0].CoveredUnits)
	}
	if res.Lines[1].CoveredUnits != 1 || res.Lines[1].BillableUnits != 2 {
		t.Fatalf("second line should get the 1 remaining unit, got %d/%d",
			res.Lines[1].CoveredUnits, res.Lines[1].BillableUnits)
	}
	if res.NewUsage != MonthlyQuota {
		t.Fatalf("expected usage capped at %d, got %d", MonthlyQuota, res.NewUsage)
	}
}

func TestQuoteFullyCoveredOrder(t *testing.T) {
	res := mustQuote(t, PlanPremium, 0, []LineRequest{
		{ServiceType: catalog.WashAndIron, Quantity: 2},
	})
	if !res.FullyCovered {
		t.Fatalf("expected fully covered order")
	}
	if !res.TotalCost.IsZero() {
		t.Fatalf("expected zero total, got %s", res.TotalCost)
	}
}

func TestQuoteConservationAcrossOrders(t *testing.T) {
	// Repeated orders within one month never exceed the monthly quota in
	// total covered units.
	usage := 0
	totalCovered := 0
	for i := 0; i < 5; i++ {
		res := mustQuote(t, PlanStandard, usage, []LineRequest{
			{ServiceType: catalog.WashAndFold, Quantity: 2},
		})
		usage = res.NewUsage
		totalCovered += res.CoveredUnits
	}
	if totalCovered != MonthlyQuota {
		t.Fatalf("covered %d units across the month, quota is %d", totalCovered, MonthlyQuota)
	}
	if usage != MonthlyQuota {
		t.Fatalf("usage %d, want %d", usage, MonthlyQuota)
	}
}

func TestQuoteExhaustedQuotaFastPath(t *testing.T) {
	res := mustQuote(t, PlanStandard, MonthlyQuota, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: 5},
	})
	if res.CoveredUnits != 0 {
		t.Fatalf("exhausted quota still covered %d units", res.CoveredUnits)
	}
	if !res.TotalCost.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected total 50, got %s", res.TotalCost)
	}
}

func TestQuoteRejectsInvalidQuantity(t *testing.T) {
	l := newLedger()

	_, err := l.Quote(PlanStandard, 0, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: 0},
	})
	assertLedgerCode(t, err, "QUANTITY_INVALID")

	_, err = l.Quote(PlanStandard, 0, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: MaxLineQuantity + 1},
	})
	assertLedgerCode(t, err, "QUANTITY_INVALID")
}

func TestQuoteRejectsUnknownService(t *testing.T) {
	_, err := newLedger().Quote(PlanPremium, 0, []LineRequest{
		{ServiceType: "shoe_shine", Quantity: 1},
	})
	assertLedgerCode(t, err, "SERVICE_UNKNOWN")
}

func TestQuoteAllOrNothing(t *testing.T) {
	// A bad trailing line must reject the whole request, not price the
	// valid prefix.
	res, err := newLedger().Quote(PlanStandard, 0, []LineRequest{
		{ServiceType: catalog.WashAndFold, Quantity: 1},
		{ServiceType: catalog.WashAndIron, Quantity: -2},
	})
	if err == nil {
		t.Fatalf("expected error, got %+v", res)
	}
}

func TestEligibility(t *testing.T) {
	cases := []struct {
		plan Plan
		st   catalog.ServiceType
		want bool
	}{
		{PlanNone, catalog.WashAndFold, false},
		{PlanStandard, catalog.WashAndFold, true},
		{PlanStandard, catalog.WashAndIron, true},
		{PlanStandard, catalog.PremiumWash, false},
		{PlanStandard, catalog.DryCleaning, false},
		{PlanPremium, catalog.PremiumWash, true},
		{PlanPremium, catalog.DryCleaning, true},
	}
	for _, c := range cases {
		if got := Eligible(c.plan, c.st); got != c.want {
			t.Fatalf("Eligible(%s, %s) = %v, want %v", c.plan, c.st, got, c.want)
		}
	}
}

func TestActive(t *testing.T) {
	now := time.Now()
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	if Active(PlanNone, &future, now) {
		t.Fatalf("plan none can never be active")
	}
	if Active(PlanStandard, nil, now) {
		t.Fatalf("plan without expiry must not be active")
	}
	if Active(PlanStandard, &past, now) {
		t.Fatalf("expired plan must not be active")
	}
	if !Active(PlanPremium, &future, now) {
		t.Fatalf("unexpired premium plan must be active")
	}
}
