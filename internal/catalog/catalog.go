package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ServiceType identifies one category of laundry service. The set is closed
// and defined at configuration time; every type maps to exactly one workflow.
type ServiceType string

const (
	WashAndFold ServiceType = "wash_and_fold"
	WashAndIron ServiceType = "wash_and_iron"
	PremiumWash ServiceType = "premium_wash"
	DryCleaning ServiceType = "dry_cleaning"
	SteamIron   ServiceType = "steam_iron"
)

// Status is one step in a service workflow. Statuses are workflow-local
// except for the two universal anchors: every workflow starts at
// StatusPending and ends at StatusPickedUp.
type Status string

const (
	StatusPending        Status = "pending"
	StatusStarted        Status = "started"
	StatusWashing        Status = "washing"
	StatusFolding        Status = "folding"
	StatusIroning        Status = "ironing"
	StatusInspection     Status = "inspection"
	StatusPreTreatment   Status = "pre_treatment"
	StatusDrying         Status = "drying"
	StatusQualityCheck   Status = "quality_check"
	StatusTagging        Status = "tagging"
	StatusDryCleaning    Status = "dry_cleaning"
	StatusPressing       Status = "pressing"
	StatusFinishing      Status = "finishing"
	StatusSteaming       Status = "steaming"
	StatusReadyForPickup Status = "ready_for_pickup"
	StatusPickedUp       Status = "picked_up"
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

func errUnknownService(t ServiceType) error {
	return ValidationError{Code: "SERVICE_UNKNOWN", Message: fmt.Sprintf("unknown service type: %s", t)}
}

func errUnknownStatus(t ServiceType, s Status) error {
	return ValidationError{Code: "STATUS_UNKNOWN", Message: fmt.Sprintf("status %s is not part of the %s workflow", s, t)}
}

type entry struct {
	displayName string
	unitPrice   decimal.Decimal
	workflow    []Status
}

// Registry is the canonical mapping from service type to workflow and unit
// price. It is configuration data, not runtime state: build it once and share
// it freely, results are safe to cache indefinitely.
type Registry struct {
	entries map[ServiceType]entry
}

// Default returns the registry with the standard service table.
func Default() *Registry {
	return &Registry{entries: map[ServiceType]entry{
		WashAndFold: {
			displayName: "Wash and Fold",
			unitPrice:   decimal.NewFromInt(10),
			workflow:    []Status{StatusPending, StatusStarted, StatusWashing, StatusFolding, StatusReadyForPickup, StatusPickedUp},
		},
		WashAndIron: {
			displayName: "Wash and Iron",
			unitPrice:   decimal.NewFromInt(25),
			workflow:    []Status{StatusPending, StatusStarted, StatusWashing, StatusIroning, StatusReadyForPickup, StatusPickedUp},
		},
		PremiumWash: {
			displayName: "Premium Wash",
			unitPrice:   decimal.NewFromInt(40),
			workflow:    []Status{StatusPending, StatusStarted, StatusInspection, StatusPreTreatment, StatusWashing, StatusDrying, StatusQualityCheck, StatusReadyForPickup, StatusPickedUp},
		},
		DryCleaning: {
			displayName: "Dry Cleaning",
			unitPrice:   decimal.NewFromInt(50),
			workflow:    []Status{StatusPending, StatusStarted, StatusTagging, StatusPreTreatment, StatusDryCleaning, StatusPressing, StatusFinishing, StatusReadyForPickup, StatusPickedUp},
		},
		SteamIron: {
			displayName: "Steam Iron",
			unitPrice:   decimal.NewFromInt(15),
			workflow:    []Status{StatusPending, StatusStarted, StatusSteaming, StatusPressing, StatusFinishing, StatusReadyForPickup, StatusPickedUp},
		},
	}}
}

// Known reports whether the service type is registered.
func (r *Registry) Known(t ServiceType) bool {
	_, ok := r.entries[t]
	return ok
}

// Workflow returns the ordered status sequence for a service type.
// The returned slice is a copy; callers may keep or modify it.
func (r *Registry) Workflow(t ServiceType) ([]Status, error) {
	e, ok := r.entries[t]
	if !ok {
		return nil, errUnknownService(t)
	}
	out := make([]Status, len(e.workflow))
	copy(out, e.workflow)
	return out, nil
}

// IndexOf returns the position of status within the service type's workflow.
// A STATUS_UNKNOWN error means the status is foreign to that workflow, which
// callers must treat as a data-integrity problem, never as a valid state.
func (r *Registry) IndexOf(t ServiceType, s Status) (int, error) {
	e, ok := r.entries[t]
	if !ok {
		return 0, errUnknownService(t)
	}
	for i, ws := range e.workflow {
		if ws == s {
			return i, nil
		}
	}
	return 0, errUnknownStatus(t, s)
}

// InitialStatus returns the first workflow step for a service type.
func (r *Registry) InitialStatus(t ServiceType) (Status, error) {
	e, ok := r.entries[t]
	if !ok {
		return "", errUnknownService(t)
	}
	return e.workflow[0], nil
}

func (r *Registry) UnitPrice(t ServiceType) (decimal.Decimal, error) {
	e, ok := r.entries[t]
	if !ok {
		return decimal.Zero, errUnknownService(t)
	}
	return e.unitPrice, nil
}

func (r *Registry) DisplayName(t ServiceType) (string, error) {
	e, ok := r.entries[t]
	if !ok {
		return "", errUnknownService(t)
	}
	return e.displayName, nil
}

// ServiceTypes lists registered types in stable (sorted) order.
func (r *Registry) ServiceTypes() []ServiceType {
	out := make([]ServiceType, 0, len(r.entries))
	for t := range r.entries {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseServiceType validates a raw string against the registry.
func (r *Registry) ParseServiceType(s string) (ServiceType, error) {
	t := ServiceType(s)
	if !r.Known(t) {
		return "", errUnknownService(t)
	}
	return t, nil
}
