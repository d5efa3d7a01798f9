// Package session holds the state of a single price check and decides, on
// every transition, whether the quoted result is recomputed or cleared.
//
// A Session is either without a result or holding one. The first result for
// an identifier comes from an explicit CheckPrice; after that every modifier,
// override or actor change re-evaluates it immediately. Editing the
// identifier or clearing the actor drops the result, and dropping the result
// always restores modifiers and overrides to their defaults.
//
// A Session is not safe for concurrent use.
package session

import (
	"errors"
	"fmt"

	"github.com/Simplici0/pricecheck/internal/catalog"
	"github.com/Simplici0/pricecheck/internal/policy"
	"github.com/Simplici0/pricecheck/internal/pricing"
)

var (
	// ErrNotPermitted is returned when an action's capability is off. The
	// session is left unchanged.
	ErrNotPermitted = errors.New("action not permitted")
	// ErrUnknownModifier is returned for modifier names outside the set.
	ErrUnknownModifier = errors.New("unknown modifier")
	// ErrUnknownOverride is returned for override names outside the set.
	ErrUnknownOverride = errors.New("unknown override")
)

// Modifier names a boolean pricing toggle.
type Modifier string

const (
	ModifierTrimDiscount      Modifier = "apply_trim_discount"
	ModifierMarkup            Modifier = "add_markup"
	ModifierNextPricing       Modifier = "apply_next_pricing"
	ModifierOverrideUnitPrice Modifier = "override_unit_price"
	ModifierOverrideUnitCost  Modifier = "override_unit_cost"
)

// Override names a manually supplied figure.
type Override string

const (
	OverrideUnitCost  Override = "unit_cost"
	OverrideUnitPrice Override = "unit_price"
)

// OverrideText is the raw override input as entered.
type OverrideText struct {
	UnitCost  string `json:"unit_cost"`
	UnitPrice string `json:"unit_price"`
}

// Session is the state of one price check.
type Session struct {
	catalog *catalog.Catalog

	identifier   string
	actor        policy.Actor
	modifiers    pricing.Modifiers
	overrideText OverrideText
	overrides    pricing.Overrides

	// item and result are set together by CheckPrice and cleared together.
	item   catalog.Item
	result *pricing.Result
}

// New returns a session in its initial state.
func New(c *catalog.Catalog) *Session {
	return &Session{catalog: c}
}

// SetIdentifierText replaces the identifier. A different text drops the
// current result even when the new text names the same item.
func (s *Session) SetIdentifierText(text string) error {
	if !s.Capabilities().EditIdentifier {
		return ErrNotPermitted
	}
	if text == s.identifier {
		return nil
	}
	s.identifier = text
	s.invalidate()
	return nil
}

// SelectActor switches the active role. Clearing the actor drops the result;
// any other change re-evaluates it under the new overlay. Overrides the new
// role could not toggle itself are cleared, flag and value.
func (s *Session) SelectActor(actor policy.Actor) {
	s.actor = actor
	if !actor.Selected() {
		s.invalidate()
		return
	}
	s.dropUnreachableOverrides()
	s.notifyChanged()
}

// ToggleModifier flips a raw modifier. Turning markup off also clears the
// unit price override, which depends on it.
func (s *Session) ToggleModifier(name Modifier) error {
	caps := s.Capabilities()
	m := &s.modifiers
	switch name {
	case ModifierTrimDiscount:
		if !caps.ToggleTrimDiscount {
			return ErrNotPermitted
		}
		m.ApplyTrimDiscount = !m.ApplyTrimDiscount
	case ModifierMarkup:
		if !caps.ToggleMarkup {
			return ErrNotPermitted
		}
		m.AddMarkup = !m.AddMarkup
		if !s.effective().AddMarkup {
			m.OverrideUnitPrice = false
			s.setOverride(OverrideUnitPrice, "")
		}
	case ModifierNextPricing:
		if !caps.ApplyNextPricing {
			return ErrNotPermitted
		}
		m.ApplyNextPricing = !m.ApplyNextPricing
	case ModifierOverrideUnitPrice:
		if !caps.ToggleOverrideUnitPrice {
			return ErrNotPermitted
		}
		m.OverrideUnitPrice = !m.OverrideUnitPrice
	case ModifierOverrideUnitCost:
		if !caps.ToggleOverrideUnitCost {
			return ErrNotPermitted
		}
		m.OverrideUnitCost = !m.OverrideUnitCost
	default:
		return fmt.Errorf("%w: %q", ErrUnknownModifier, name)
	}
	s.notifyChanged()
	return nil
}

// SetOverrideValue stores override text. Text that does not parse to a
// number leaves the override inactive. Without a result there is nothing to
// override and the value is rejected.
func (s *Session) SetOverrideValue(which Override, text string) error {
	if which != OverrideUnitCost && which != OverrideUnitPrice {
		return fmt.Errorf("%w: %q", ErrUnknownOverride, which)
	}
	if s.result == nil {
		return ErrNotPermitted
	}
	s.setOverride(which, text)
	s.notifyChanged()
	return nil
}

// ApplyNextPricing turns next pricing on and drops the unit cost override,
// flag and value, in one step.
func (s *Session) ApplyNextPricing() error {
	if !s.Capabilities().ApplyNextPricing {
		return ErrNotPermitted
	}
	s.modifiers.ApplyNextPricing = true
	s.modifiers.OverrideUnitCost = false
	s.setOverride(OverrideUnitCost, "")
	s.notifyChanged()
	return nil
}

// CheckPrice evaluates the current identifier. It is the only way to obtain
// a first result for an identifier.
func (s *Session) CheckPrice() error {
	if !s.Capabilities().CheckPrice {
		return ErrNotPermitted
	}
	item, _ := s.catalog.Lookup(s.identifier)
	s.item = item
	s.evaluate()
	return nil
}

// Reset restores every field to its initial value.
func (s *Session) Reset() {
	*s = Session{catalog: s.catalog}
}

// CurrentResult returns the quoted figures, if any.
func (s *Session) CurrentResult() (pricing.Result, bool) {
	if s.result == nil {
		return pricing.Result{}, false
	}
	return *s.result, true
}

// IsIdentifierValid reports whether text resolves to a catalog item.
func (s *Session) IsIdentifierValid(text string) bool {
	return s.catalog.IsValid(text)
}

// Capabilities returns the actions currently available.
func (s *Session) Capabilities() policy.Capabilities {
	return policy.Evaluate(policy.State{
		Actor:                s.actor,
		Modifiers:            s.effective(),
		HasResult:            s.result != nil,
		IdentifierResolvable: s.catalog.IsValid(s.identifier),
	})
}

// PricingExplanation describes which rules produced the current result.
// It is informational only.
func (s *Session) PricingExplanation() []string {
	lines := []string{"Actor: " + s.actor.String()}
	if s.result == nil {
		return lines
	}
	effective := s.effective()
	rules := pricing.Explain(s.item, effective, s.overrides)
	// rules[0] describes the item.
	lines = append(lines, rules[0])
	if effective.AddMarkup && !s.modifiers.AddMarkup {
		lines = append(lines, "Markup: required for the "+s.actor.String()+" role")
	}
	return append(lines, rules[1:]...)
}

// View is a read-only copy of the session for presentation.
type View struct {
	Identifier      string              `json:"identifier"`
	IdentifierValid bool                `json:"identifier_valid"`
	Actor           policy.Actor        `json:"actor"`
	Modifiers       pricing.Modifiers   `json:"modifiers"`
	Effective       pricing.Modifiers   `json:"effective_modifiers"`
	Overrides       OverrideText        `json:"overrides"`
	Result          *pricing.Display    `json:"result"`
	Capabilities    policy.Capabilities `json:"capabilities"`
	Explanation     []string            `json:"explanation"`
}

// Snapshot returns the current view.
func (s *Session) Snapshot() View {
	v := View{
		Identifier:      s.identifier,
		IdentifierValid: s.catalog.IsValid(s.identifier),
		Actor:           s.actor,
		Modifiers:       s.modifiers,
		Effective:       s.effective(),
		Overrides:       s.overrideText,
		Capabilities:    s.Capabilities(),
		Explanation:     s.PricingExplanation(),
	}
	if s.result != nil {
		display := s.result.Display()
		v.Result = &display
	}
	return v
}

func (s *Session) effective() pricing.Modifiers {
	return policy.Overlay(s.actor, s.modifiers)
}

func (s *Session) dropUnreachableOverrides() {
	caps := policy.Evaluate(policy.State{Actor: s.actor, Modifiers: s.effective(), HasResult: true})
	if !caps.ToggleOverrideUnitCost {
		s.modifiers.OverrideUnitCost = false
		s.setOverride(OverrideUnitCost, "")
	}
	if !caps.ToggleOverrideUnitPrice {
		s.modifiers.OverrideUnitPrice = false
		s.setOverride(OverrideUnitPrice, "")
	}
}

func (s *Session) setOverride(which Override, text string) {
	switch which {
	case OverrideUnitCost:
		s.overrideText.UnitCost = text
		s.overrides.UnitCost = pricing.ParseOverride(text)
	case OverrideUnitPrice:
		s.overrideText.UnitPrice = text
		s.overrides.UnitPrice = pricing.ParseOverride(text)
	}
}

// notifyChanged re-evaluates after a mutation when a result is present.
func (s *Session) notifyChanged() {
	if s.result != nil {
		s.evaluate()
	}
}

func (s *Session) evaluate() {
	result := pricing.Evaluate(s.item, s.effective(), s.overrides)
	s.result = &result
}

func (s *Session) invalidate() {
	s.result = nil
	s.item = catalog.Item{}
	s.modifiers = pricing.Modifiers{}
	s.overrideText = OverrideText{}
	s.overrides = pricing.Overrides{}
}
