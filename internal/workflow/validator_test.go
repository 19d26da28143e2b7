package workflow

import (
	"errors"
	"testing"

	"washwise/internal/catalog"
)

func newValidator() *Validator {
	return NewValidator(catalog.Default())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var terr TransitionError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransitionError %s, got %v", code, err)
	}
	if terr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, terr.Code, err)
	}
}

func TestNextStatusesPaidIncludesCurrentAndLater(t *testing.T) {
	v := newValidator()
	got, err := v.NextStatuses(catalog.WashAndFold, catalog.StatusWashing, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []catalog.Status{
		catalog.StatusWashing, catalog.StatusFolding,
		catalog.StatusReadyForPickup, catalog.StatusPickedUp,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNextStatusesUnpaidWithholdsPickedUp(t *testing.T) {
	v := newValidator()
	got, err := v.NextStatuses(catalog.WashAndFold, catalog.StatusWashing, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []catalog.Status{catalog.StatusWashing, catalog.StatusFolding, catalog.StatusReadyForPickup}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, s := range got {
		if s == catalog.StatusPickedUp {
			t.Fatalf("picked_up offered for unpaid order: %v", got)
		}
	}
}

func TestNextStatusesEmptyAtTerminal(t *testing.T) {
	v := newValidator()
	got, err := v.NextStatuses(catalog.DryCleaning, catalog.StatusPickedUp, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no transitions from terminal, got %v", got)
	}
}

func TestValidateBackward(t *testing.T) {
	v := newValidator()
	_, err := v.Validate(catalog.WashAndFold, catalog.StatusFolding, catalog.StatusStarted, true)
	assertCode(t, err, CodeBackwardTransition)
}

func TestValidateIdempotentReapply(t *testing.T) {
	v := newValidator()
	got, err := v.Validate(catalog.WashAndFold, catalog.StatusFolding, catalog.StatusFolding, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != catalog.StatusFolding {
		t.Fatalf("expected folding, got %s", got)
	}
}

func TestValidatePaymentGate(t *testing.T) {
	v := newValidator()
	_, err := v.Validate(catalog.WashAndFold, catalog.StatusReadyForPickup, catalog.StatusPickedUp, false)
	assertCode(t, err, CodePaymentRequired)

	got, err := v.Validate(catalog.WashAndFold, catalog.StatusReadyForPickup, catalog.StatusPickedUp, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != catalog.StatusPickedUp {
		t.Fatalf("expected picked_up, got %s", got)
	}
}

func TestValidateTerminalStability(t *testing.T) {
	v := newValidator()
	reg := catalog.Default()
	for _, st := range reg.ServiceTypes() {
		wf, err := reg.Workflow(st)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, proposed := range wf {
			if _, err := v.Validate(st, catalog.StatusPickedUp, proposed, true); err == nil {
				t.Fatalf("%s: transition %s accepted on terminal item", st, proposed)
			}
		}
	}
}

func TestValidateForeignStatus(t *testing.T) {
	v := newValidator()
	_, err := v.Validate(catalog.WashAndFold, catalog.StatusWashing, catalog.StatusSteaming, true)
	assertCode(t, err, CodeStatusUnknown)
}

func TestValidateMonotonicity(t *testing.T) {
	v := newValidator()
	reg := catalog.Default()
	for _, st := range reg.ServiceTypes() {
		wf, _ := reg.Workflow(st)
		for i, current := range wf {
			if Terminal(current) {
				continue
			}
			for j, proposed := range wf {
				got, err := v.Validate(st, current, proposed, true)
				if err != nil {
					continue
				}
				gotIdx, idxErr := reg.IndexOf(st, got)
				if idxErr != nil {
					t.Fatalf("%s: accepted status %s not in workflow", st, got)
				}
				if gotIdx < i {
					t.Fatalf("%s: accepted backward move %s(%d) -> %s(%d)", st, current, i, proposed, j)
				}
			}
		}
	}
}

func TestOrderActive(t *testing.T) {
	if OrderActive([]catalog.Status{catalog.StatusPickedUp, catalog.StatusPickedUp}) {
		t.Fatalf("order with all items picked up must be inactive")
	}
	if !OrderActive([]catalog.Status{catalog.StatusPickedUp, catalog.StatusWashing}) {
		t.Fatalf("order with a pending item must be active")
	}
	if OrderActive(nil) {
		t.Fatalf("empty order must not be active")
	}
}
