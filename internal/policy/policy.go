// Package policy derives what an actor may do with a quote and which
// modifier values the actor cannot change.
package policy

import (
	"errors"
	"strings"

	"github.com/Simplici0/pricecheck/internal/pricing"
)

// Actor is the role of the user requesting a quote.
type Actor string

const (
	ActorUnselected Actor = ""
	ActorAccount    Actor = "account"
	ActorCustomer   Actor = "customer"
	ActorCSM        Actor = "csm"
)

// ErrUnknownActor is returned by ParseActor for labels outside the enumeration.
var ErrUnknownActor = errors.New("unknown actor")

// ParseActor maps a label to an Actor. Empty input and "none" select ActorUnselected.
func ParseActor(label string) (Actor, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "none", "unselected":
		return ActorUnselected, nil
	case "account":
		return ActorAccount, nil
	case "customer":
		return ActorCustomer, nil
	case "csm":
		return ActorCSM, nil
	}
	return ActorUnselected, ErrUnknownActor
}

// Selected reports whether a is a concrete role.
func (a Actor) Selected() bool {
	return a != ActorUnselected
}

// String returns the display label.
func (a Actor) String() string {
	switch a {
	case ActorAccount:
		return "Account"
	case ActorCustomer:
		return "Customer"
	case ActorCSM:
		return "CSM"
	}
	return "Unselected"
}

// Overlay projects raw modifiers into the effective set for actor. The raw
// value is never modified, so a forced flag falls back to the user's toggle
// once the actor changes.
func Overlay(actor Actor, raw pricing.Modifiers) pricing.Modifiers {
	effective := raw
	if actor == ActorAccount {
		effective.AddMarkup = true
	}
	return effective
}

// Capabilities lists the actions available to an actor in the current state.
type Capabilities struct {
	EditIdentifier          bool `json:"edit_identifier"`
	ToggleTrimDiscount      bool `json:"toggle_trim_discount"`
	ToggleMarkup            bool `json:"toggle_markup"`
	ToggleOverrideUnitCost  bool `json:"toggle_override_unit_cost"`
	ToggleOverrideUnitPrice bool `json:"toggle_override_unit_price"`
	ApplyNextPricing        bool `json:"apply_next_pricing"`
	CheckPrice              bool `json:"check_price"`
}

// State is the part of a session that capabilities depend on.
type State struct {
	Actor Actor
	// Effective modifiers, after Overlay.
	Modifiers pricing.Modifiers
	HasResult bool
	// IdentifierResolvable is true when the identifier is non-empty and
	// resolves to a catalog item.
	IdentifierResolvable bool
}

// Evaluate computes the permission matrix for s.
func Evaluate(s State) Capabilities {
	selected := s.Actor.Selected()
	return Capabilities{
		EditIdentifier:          selected,
		ToggleTrimDiscount:      selected && s.HasResult,
		ToggleMarkup:            selected && s.Actor != ActorAccount && s.Actor != ActorCSM && s.HasResult,
		ToggleOverrideUnitCost:  s.Actor == ActorCSM && s.HasResult,
		ToggleOverrideUnitPrice: s.Actor == ActorCustomer && s.Modifiers.AddMarkup && s.HasResult,
		ApplyNextPricing:        s.Actor == ActorCSM && s.HasResult,
		CheckPrice:              selected && s.IdentifierResolvable,
	}
}
