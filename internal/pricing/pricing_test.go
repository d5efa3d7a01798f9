package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/pricecheck/internal/catalog"
)

func item(t *testing.T, id string) catalog.Item {
	t.Helper()
	it, ok := catalog.MustDefault().Lookup(id)
	if !ok {
		t.Fatalf("item %q missing from default catalog", id)
	}
	return it
}

func assertFigure(t *testing.T, name string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s = %s, want %s", name, got.String(), want)
	}
}

func overrides(unitCost, unitPrice string) Overrides {
	return Overrides{UnitCost: ParseOverride(unitCost), UnitPrice: ParseOverride(unitPrice)}
}

func TestEvaluate_NoModifiers(t *testing.T) {
	result := Evaluate(item(t, "RA6BI"), Modifiers{}, Overrides{})

	assertFigure(t, "manufacturingCost", result.ManufacturingCost, "0")
	assertFigure(t, "unitCost", result.UnitCost, "5.21")
	assertFigure(t, "unitPrice", result.UnitPrice, "5.21")

	display := result.Display()
	if display.ManufacturingCost != "$0.00" || display.UnitCost != "$5.21" || display.UnitPrice != "$5.21" {
		t.Fatalf("unexpected display: %+v", display)
	}
}

func TestEvaluate_Markup(t *testing.T) {
	result := Evaluate(item(t, "PP6GR"), Modifiers{AddMarkup: true}, Overrides{})

	assertFigure(t, "manufacturingCost", result.ManufacturingCost, "2.40")
	assertFigure(t, "unitCost", result.UnitCost, "4.87")
	assertFigure(t, "unitPrice", result.UnitPrice, "7.31")
}

func TestEvaluate_NextPricingWithTrimDiscount(t *testing.T) {
	m := Modifiers{ApplyNextPricing: true, ApplyTrimDiscount: true}
	result := Evaluate(item(t, "BTR"), m, Overrides{})

	assertFigure(t, "manufacturingCost", result.ManufacturingCost, "9.08")
	assertFigure(t, "unitCost", result.UnitCost, "16.56")
	assertFigure(t, "unitPrice", result.UnitPrice, "16.56")
}

func TestEvaluate_UnitCostOverrideSkipsDiscount(t *testing.T) {
	m := Modifiers{ApplyNextPricing: true, ApplyTrimDiscount: true, OverrideUnitCost: true}
	result := Evaluate(item(t, "BTR"), m, overrides("9.99", ""))

	assertFigure(t, "manufacturingCost", result.ManufacturingCost, "9.08")
	assertFigure(t, "unitCost", result.UnitCost, "9.99")
	assertFigure(t, "unitPrice", result.UnitPrice, "9.99")
}

func TestEvaluate_UnitPriceOverrideWins(t *testing.T) {
	for _, id := range []string{"RA6BI", "PP6GR", "BTR"} {
		for _, discount := range []bool{false, true} {
			m := Modifiers{AddMarkup: true, ApplyTrimDiscount: discount, OverrideUnitPrice: true}
			result := Evaluate(item(t, id), m, overrides("", "50"))
			assertFigure(t, id+" unitPrice", result.UnitPrice, "50.00")
		}
	}
}

func TestEvaluate_MarkupWithTrimDiscount(t *testing.T) {
	m := Modifiers{AddMarkup: true, ApplyTrimDiscount: true}
	result := Evaluate(item(t, "PP6GR"), m, Overrides{})

	// 4.8745 * 1.5 * 0.85 = 6.2149875
	assertFigure(t, "unitPrice", result.UnitPrice, "6.21")
	// 4.8745 * 0.85 = 4.143325
	assertFigure(t, "unitCost", result.UnitCost, "4.14")
}

func TestEvaluate_MarkupBaseIgnoresNextPricing(t *testing.T) {
	it := item(t, "BTR")
	without := Evaluate(it, Modifiers{AddMarkup: true}, Overrides{})
	with := Evaluate(it, Modifiers{AddMarkup: true, ApplyNextPricing: true}, Overrides{})

	if !without.UnitPrice.Equal(with.UnitPrice) {
		t.Fatalf("next pricing changed marked-up price: %s vs %s", without.UnitPrice, with.UnitPrice)
	}
	if without.UnitCost.Equal(with.UnitCost) || without.ManufacturingCost.Equal(with.ManufacturingCost) {
		t.Fatalf("next pricing should change unit and manufacturing cost")
	}
}

func TestEvaluate_InactiveOverrides(t *testing.T) {
	it := item(t, "BTR")
	base := Evaluate(it, Modifiers{}, Overrides{})

	tests := []struct {
		name string
		m    Modifiers
		o    Overrides
	}{
		{name: "flag without value", m: Modifiers{OverrideUnitCost: true, OverrideUnitPrice: true}, o: overrides("", "")},
		{name: "non-numeric value", m: Modifiers{OverrideUnitCost: true, OverrideUnitPrice: true}, o: overrides("abc", "1.2.3")},
		{name: "value without flag", m: Modifiers{}, o: overrides("1", "2")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(it, tt.m, tt.o)
			if !got.UnitCost.Equal(base.UnitCost) || !got.UnitPrice.Equal(base.UnitPrice) {
				t.Fatalf("got %+v, want %+v", got, base)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	it := item(t, "PP6GR")
	m := Modifiers{AddMarkup: true, ApplyTrimDiscount: true, ApplyNextPricing: true}
	first := Evaluate(it, m, Overrides{})
	for i := 0; i < 10; i++ {
		got := Evaluate(it, m, Overrides{})
		if !got.UnitPrice.Equal(first.UnitPrice) || !got.UnitCost.Equal(first.UnitCost) || !got.ManufacturingCost.Equal(first.ManufacturingCost) {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		text  string
		valid bool
		want  string
	}{
		{text: "9.99", valid: true, want: "9.99"},
		{text: " 50 ", valid: true, want: "50"},
		{text: "", valid: false},
		{text: "   ", valid: false},
		{text: "abc", valid: false},
		{text: "NaN", valid: false},
		{text: "1e12", valid: true, want: "1000000000000"},
		{text: "-250.5", valid: true, want: "-250.5"},
		{text: "0.000000000000000001", valid: true, want: "0.000000000000000001"},
		{text: "1000000000000.01", valid: false},
		{text: "1e13", valid: false},
		{text: "1e100000000", valid: false},
		{text: "0e100000000", valid: false},
		{text: "1e-100000000", valid: false},
		{text: "-1e100000000", valid: false},
		{text: "12345678901234567890", valid: false},
	}

	for _, tt := range tests {
		got := ParseOverride(tt.text)
		if got.Valid != tt.valid {
			t.Fatalf("ParseOverride(%q).Valid = %v, want %v", tt.text, got.Valid, tt.valid)
		}
		if tt.valid && !got.Decimal.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("ParseOverride(%q) = %s, want %s", tt.text, got.Decimal, tt.want)
		}
	}
}

func TestExplain_ListsFiredRules(t *testing.T) {
	m := Modifiers{ApplyNextPricing: true, ApplyTrimDiscount: true, OverrideUnitCost: true}
	lines := Explain(item(t, "BTR"), m, overrides("9.99", ""))

	joined := strings.Join(lines, "\n")
	for _, expected := range []string{"Item BTR", "Next pricing", "not applied to unit cost", "Unit cost override: $9.99", "equal to unit cost"} {
		if !strings.Contains(joined, expected) {
			t.Fatalf("expected explanation to contain %q, got:\n%s", expected, joined)
		}
	}
	if strings.Contains(joined, "Markup") {
		t.Fatalf("markup should not be explained when inactive:\n%s", joined)
	}
}

func TestExplain_UnitPriceOverrideReplacesUnitCostLine(t *testing.T) {
	m := Modifiers{OverrideUnitPrice: true}
	joined := strings.Join(Explain(item(t, "BTR"), m, overrides("", "20")), "\n")

	if strings.Contains(joined, "equal to unit cost") {
		t.Fatalf("unit price override should replace the unit cost line:\n%s", joined)
	}
	if !strings.Contains(joined, "Unit price override: $20.00") {
		t.Fatalf("expected unit price override line:\n%s", joined)
	}
}
