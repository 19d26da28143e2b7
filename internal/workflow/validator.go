package workflow

import (
	"fmt"

	"washwise/internal/catalog"
)

// TransitionError is a rejected status change. Code is machine-readable so
// HTTP handlers can surface it without string matching.
type TransitionError struct {
	Code    string
	Message string
}

func (e TransitionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

const (
	CodeStatusUnknown      = "STATUS_UNKNOWN"
	CodeBackwardTransition = "TRANSITION_BACKWARD"
	CodeAlreadyTerminal    = "ALREADY_TERMINAL"
	CodePaymentRequired    = "PAYMENT_REQUIRED"
)

// Validator decides which status changes are legal for an order item. It is a
// pure decision component: no storage, no side effects. Callers read a fresh
// snapshot, ask, then persist the accepted result themselves.
type Validator struct {
	reg *catalog.Registry
}

func NewValidator(reg *catalog.Registry) *Validator {
	return &Validator{reg: reg}
}

// Terminal reports whether s is the universal terminal status.
func Terminal(s catalog.Status) bool {
	return s == catalog.StatusPickedUp
}

// NextStatuses enumerates the statuses a serviceman may apply to an item of
// the given service type currently at current: the current status itself
// (re-applying is a no-op) and every later one. picked_up is withheld while
// the order is unpaid; nothing follows a terminal item.
func (v *Validator) NextStatuses(t catalog.ServiceType, current catalog.Status, paid bool) ([]catalog.Status, error) {
	wf, err := v.reg.Workflow(t)
	if err != nil {
		return nil, err
	}
	idx, err := v.reg.IndexOf(t, current)
	if err != nil {
		return nil, err
	}
	if Terminal(current) {
		return []catalog.Status{}, nil
	}

	out := make([]catalog.Status, 0, len(wf)-idx)
	for _, s := range wf[idx:] {
		if Terminal(s) && !paid {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// Validate checks a proposed status change and returns the status to persist.
// The original status must be left unchanged by the caller on error.
//
// Rules, in evaluation order:
//   - proposed must belong to the item's workflow (STATUS_UNKNOWN)
//   - a terminal item accepts nothing further (ALREADY_TERMINAL)
//   - the proposed position may not precede the current one (TRANSITION_BACKWARD)
//   - picked_up requires the order to be paid (PAYMENT_REQUIRED)
func (v *Validator) Validate(t catalog.ServiceType, current, proposed catalog.Status, paid bool) (catalog.Status, error) {
	curIdx, err := v.reg.IndexOf(t, current)
	if err != nil {
		return "", err
	}
	propIdx, err := v.reg.IndexOf(t, proposed)
	if err != nil {
		if verr, ok := err.(catalog.ValidationError); ok && verr.Code == "STATUS_UNKNOWN" {
			return "", TransitionError{Code: CodeStatusUnknown, Message: verr.Message}
		}
		return "", err
	}

	if Terminal(current) {
		return "", TransitionError{
			Code:    CodeAlreadyTerminal,
			Message: fmt.Sprintf("item is already %s, no further transitions", current),
		}
	}
	if propIdx < curIdx {
		return "", TransitionError{
			Code:    CodeBackwardTransition,
			Message: fmt.Sprintf("cannot move %s item back from %s to %s", t, current, proposed),
		}
	}
	if Terminal(proposed) && !paid {
		return "", TransitionError{
			Code:    CodePaymentRequired,
			Message: "order must be paid before items can be marked picked_up",
		}
	}
	return proposed, nil
}

// ItemDone reports whether an item no longer counts toward order activity.
func ItemDone(s catalog.Status) bool {
	return Terminal(s)
}

// OrderActive derives the order-level flag from item statuses: an order stays
// active while any item has not reached picked_up. Never stored, always
// derived, so it cannot drift from the item data.
func OrderActive(statuses []catalog.Status) bool {
	for _, s := range statuses {
		if !ItemDone(s) {
			return true
		}
	}
	return false
}
