package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Item holds the base cost figures of a catalog entry.
type Item struct {
	ID                    string
	BaseUnitCost          decimal.Decimal
	BaseManufacturingCost decimal.Decimal
}

// Catalog is an immutable lookup table keyed by normalized item id.
type Catalog struct {
	items map[string]Item
}

// New builds a catalog from items. Ids are trimmed and upper-cased; a
// duplicate id or a negative cost is rejected.
func New(items []Item) (*Catalog, error) {
	c := &Catalog{items: make(map[string]Item, len(items))}
	for _, item := range items {
		key := normalize(item.ID)
		if key == "" {
			return nil, fmt.Errorf("catalog item id is empty")
		}
		if _, exists := c.items[key]; exists {
			return nil, fmt.Errorf("duplicate catalog item %q", key)
		}
		if item.BaseUnitCost.IsNegative() || item.BaseManufacturingCost.IsNegative() {
			return nil, fmt.Errorf("catalog item %q has a negative cost", key)
		}
		item.ID = key
		c.items[key] = item
	}
	return c, nil
}

// Default returns the built-in item list.
func Default() []Item {
	return []Item{
		{ID: "RA6BI", BaseUnitCost: decimal.RequireFromString("5.208"), BaseManufacturingCost: decimal.Zero},
		{ID: "PP6GR", BaseUnitCost: decimal.RequireFromString("4.8745"), BaseManufacturingCost: decimal.RequireFromString("2.40")},
		{ID: "BTR", BaseUnitCost: decimal.RequireFromString("11.4834"), BaseManufacturingCost: decimal.RequireFromString("6.08")},
	}
}

// MustDefault returns a catalog over Default.
func MustDefault() *Catalog {
	c, err := New(Default())
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup resolves an identifier, ignoring case and surrounding whitespace.
func (c *Catalog) Lookup(identifier string) (Item, bool) {
	item, ok := c.items[normalize(identifier)]
	return item, ok
}

// IsValid reports whether identifier resolves to an item.
func (c *Catalog) IsValid(identifier string) bool {
	_, ok := c.Lookup(identifier)
	return ok
}

// Items returns all entries ordered by id.
func (c *Catalog) Items() []Item {
	items := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Load reads the active rows of catalog_items into a catalog.
func Load(ctx context.Context, db *sql.DB) (*Catalog, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, base_unit_cost, base_manufacturing_cost
		FROM catalog_items
		WHERE active = TRUE
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.BaseUnitCost, &item.BaseManufacturingCost); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog items: %w", err)
	}

	return New(items)
}

func normalize(identifier string) string {
	return strings.ToUpper(strings.TrimSpace(identifier))
}
