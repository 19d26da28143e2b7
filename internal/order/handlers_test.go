package order

import (
	"net/http"
	"testing"

	"go.uber.org/zap"

	"washwise/internal/catalog"
	"washwise/internal/workflow"
)

func testHandlers() Handlers {
	reg := catalog.Default()
	return Handlers{
		Registry:  reg,
		Validator: workflow.NewValidator(reg),
		Log:       zap.NewNop(),
	}
}

func TestEnrichPaidOrderOffersPickup(t *testing.T) {
	h := testHandlers()
	o := &Order{
		PaymentStatus: PaymentPaid,
		Items: []Item{
			{ID: "i1", ServiceType: catalog.WashAndFold, Status: catalog.StatusWashing},
		},
	}

	h.enrich(o)

	next := o.Items[0].PossibleNextStatuses
	if len(next) != 4 {
		t.Fatalf("expected 4 next statuses, got %v", next)
	}
	if next[len(next)-1] != catalog.StatusPickedUp {
		t.Fatalf("paid order must offer picked_up, got %v", next)
	}
	if !o.Active {
		t.Fatalf("order with in-flight item must be active")
	}
}

func TestEnrichUnpaidOrderWithholdsPickup(t *testing.T) {
	h := testHandlers()
	o := &Order{
		PaymentStatus: PaymentUnpaid,
		Items: []Item{
			{ID: "i1", ServiceType: catalog.WashAndFold, Status: catalog.StatusReadyForPickup},
		},
	}

	h.enrich(o)

	for _, s := range o.Items[0].PossibleNextStatuses {
		if s == catalog.StatusPickedUp {
			t.Fatalf("unpaid order offered picked_up: %v", o.Items[0].PossibleNextStatuses)
		}
	}
}

func TestEnrichCompletedOrderInactive(t *testing.T) {
	h := testHandlers()
	o := &Order{
		PaymentStatus: PaymentPaid,
		Items: []Item{
			{ID: "i1", ServiceType: catalog.WashAndFold, Status: catalog.StatusPickedUp},
			{ID: "i2", ServiceType: catalog.SteamIron, Status: catalog.StatusPickedUp},
		},
	}

	h.enrich(o)

	if o.Active {
		t.Fatalf("fully picked-up order must be inactive")
	}
	for _, it := range o.Items {
		if len(it.PossibleNextStatuses) != 0 {
			t.Fatalf("terminal item offered transitions: %v", it.PossibleNextStatuses)
		}
	}
}

func TestEnrichForeignStatusYieldsEmptyChoices(t *testing.T) {
	h := testHandlers()
	o := &Order{
		PaymentStatus: PaymentPaid,
		Items: []Item{
			{ID: "i1", ServiceType: catalog.WashAndFold, Status: "mangled"},
		},
	}

	h.enrich(o)

	if len(o.Items[0].PossibleNextStatuses) != 0 {
		t.Fatalf("foreign status must yield no choices, got %v", o.Items[0].PossibleNextStatuses)
	}
}

func TestTransitionHTTPStatus(t *testing.T) {
	cases := map[string]int{
		workflow.CodeStatusUnknown:      http.StatusBadRequest,
		workflow.CodeBackwardTransition: http.StatusConflict,
		workflow.CodeAlreadyTerminal:    http.StatusConflict,
		workflow.CodePaymentRequired:    http.StatusConflict,
	}
	for code, want := range cases {
		if got := transitionHTTPStatus(code); got != want {
			t.Fatalf("transitionHTTPStatus(%s) = %d, want %d", code, got, want)
		}
	}
}
