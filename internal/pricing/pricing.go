package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/pricecheck/internal/catalog"
)

var (
	nextPricingManufacturing = decimal.RequireFromString("3.00")
	nextPricingUnitCost      = decimal.RequireFromString("8.00")
	trimDiscountFactor       = decimal.RequireFromString("0.85")
	markupFactor             = decimal.RequireFromString("1.5")

	maxOverride = decimal.New(1, 12)
)

// Exponent bounds for override input. Values outside them are absent: a
// huge exponent would make rounding and formatting build enormous numbers.
const (
	maxOverrideExponent = 12
	minOverrideExponent = -18
)

// Modifiers are the boolean pricing rule toggles.
type Modifiers struct {
	ApplyTrimDiscount bool `json:"apply_trim_discount"`
	AddMarkup         bool `json:"add_markup"`
	ApplyNextPricing  bool `json:"apply_next_pricing"`
	OverrideUnitPrice bool `json:"override_unit_price"`
	OverrideUnitCost  bool `json:"override_unit_cost"`
}

// Overrides holds manually supplied figures. A value is absent when the
// input did not parse to a number.
type Overrides struct {
	UnitCost  decimal.NullDecimal
	UnitPrice decimal.NullDecimal
}

// ParseOverride parses override text. Empty, non-numeric or out of range
// text yields an absent value rather than an error. Magnitudes above
// 1,000,000,000,000 are out of range.
func ParseOverride(text string) decimal.NullDecimal {
	text = strings.TrimSpace(text)
	if text == "" {
		return decimal.NullDecimal{}
	}
	value, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.NullDecimal{}
	}
	// Check the exponent first; comparing against maxOverride rescales.
	if exp := value.Exponent(); exp > maxOverrideExponent || exp < minOverrideExponent {
		return decimal.NullDecimal{}
	}
	if value.Abs().GreaterThan(maxOverride) {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: value, Valid: true}
}

// unitCostOverride returns the override value when its flag is set and the value is present.
func unitCostOverride(m Modifiers, o Overrides) (decimal.Decimal, bool) {
	if m.OverrideUnitCost && o.UnitCost.Valid {
		return o.UnitCost.Decimal, true
	}
	return decimal.Zero, false
}

func unitPriceOverride(m Modifiers, o Overrides) (decimal.Decimal, bool) {
	if m.OverrideUnitPrice && o.UnitPrice.Valid {
		return o.UnitPrice.Decimal, true
	}
	return decimal.Zero, false
}

// Result contains the quoted figures, rounded to two decimal places.
type Result struct {
	ManufacturingCost decimal.Decimal
	UnitCost          decimal.Decimal
	UnitPrice         decimal.Decimal
}

// Display holds the figures formatted for presentation.
type Display struct {
	ManufacturingCost string `json:"manufacturing_cost"`
	UnitCost          string `json:"unit_cost"`
	UnitPrice         string `json:"unit_price"`
}

// Display formats every figure as a dollar amount with two decimals.
func (r Result) Display() Display {
	return Display{
		ManufacturingCost: formatMoney(r.ManufacturingCost),
		UnitCost:          formatMoney(r.UnitCost),
		UnitPrice:         formatMoney(r.UnitPrice),
	}
}

// Evaluate applies the rule chain to item. m must already carry the actor
// overlay.
func Evaluate(item catalog.Item, m Modifiers, o Overrides) Result {
	manufacturingCost := item.BaseManufacturingCost
	workingUnitCost := item.BaseUnitCost

	if m.ApplyNextPricing {
		manufacturingCost = manufacturingCost.Add(nextPricingManufacturing)
		workingUnitCost = workingUnitCost.Add(nextPricingUnitCost)
	}

	costOverride, hasCostOverride := unitCostOverride(m, o)
	priceOverride, hasPriceOverride := unitPriceOverride(m, o)

	unitCost := workingUnitCost
	if m.ApplyTrimDiscount && !hasCostOverride {
		unitCost = unitCost.Mul(trimDiscountFactor)
	}
	if hasCostOverride {
		unitCost = costOverride
	}

	// Markup is always taken on the catalog base; next pricing never feeds it.
	var unitPrice decimal.Decimal
	if m.AddMarkup {
		unitPrice = item.BaseUnitCost.Mul(markupFactor)
		if m.ApplyTrimDiscount && !hasPriceOverride {
			unitPrice = unitPrice.Mul(trimDiscountFactor)
		}
	} else {
		unitPrice = unitCost
	}
	if hasPriceOverride {
		unitPrice = priceOverride
	}

	return Result{
		ManufacturingCost: manufacturingCost.Round(2),
		UnitCost:          unitCost.Round(2),
		UnitPrice:         unitPrice.Round(2),
	}
}

// Explain lists, in evaluation order, the rules Evaluate applies for the
// same inputs.
func Explain(item catalog.Item, m Modifiers, o Overrides) []string {
	lines := []string{
		fmt.Sprintf("Item %s: base unit cost $%s, base manufacturing cost %s",
			item.ID, item.BaseUnitCost.String(), formatMoney(item.BaseManufacturingCost)),
	}

	_, hasCostOverride := unitCostOverride(m, o)
	_, hasPriceOverride := unitPriceOverride(m, o)

	if m.ApplyNextPricing {
		lines = append(lines, fmt.Sprintf("Next pricing: manufacturing cost +%s, unit cost +%s",
			formatMoney(nextPricingManufacturing), formatMoney(nextPricingUnitCost)))
	}
	if m.ApplyTrimDiscount {
		if hasCostOverride {
			lines = append(lines, "Trim discount: not applied to unit cost, unit cost override takes precedence")
		} else {
			lines = append(lines, "Trim discount: unit cost x "+trimDiscountFactor.String())
		}
	}
	if hasCostOverride {
		lines = append(lines, "Unit cost override: "+formatMoney(o.UnitCost.Decimal))
	}
	if m.AddMarkup {
		lines = append(lines, fmt.Sprintf("Markup: unit price = base unit cost $%s x %s",
			item.BaseUnitCost.String(), markupFactor.String()))
		if m.ApplyTrimDiscount && !hasPriceOverride {
			lines = append(lines, "Trim discount: unit price x "+trimDiscountFactor.String())
		}
	} else if !hasPriceOverride {
		lines = append(lines, "Unit price: equal to unit cost")
	}
	if hasPriceOverride {
		lines = append(lines, "Unit price override: "+formatMoney(o.UnitPrice.Decimal))
	}
	return lines
}

func formatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Abs().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
