package seed

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Simplici0/pricecheck/internal/catalog"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

// Run inserts the missing items in one transaction. Existing rows are left
// as they are, so repeated runs are no-ops.
func Run(ctx context.Context, db *sql.DB, items []catalog.Item) (Stats, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}
	for _, item := range items {
		if err := ensureItem(ctx, tx, item, &stats); err != nil {
			_ = tx.Rollback()
			return Stats{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

// ensureItem matches ids the way the catalog normalizes them, so a row
// entered as " ra6bi" counts as RA6BI.
func ensureItem(ctx context.Context, tx *sql.Tx, item catalog.Item, stats *Stats) error {
	id := strings.ToUpper(strings.TrimSpace(item.ID))

	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM catalog_items WHERE UPPER(TRIM(id)) = ? LIMIT 1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("check catalog item %s existence: %w", id, err)
	}
	if exists {
		return nil
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO catalog_items (id, base_unit_cost, base_manufacturing_cost, active)
		VALUES (?, ?, ?, TRUE)
	`, id, item.BaseUnitCost.String(), item.BaseManufacturingCost.String()); err != nil {
		return fmt.Errorf("insert catalog item %s: %w", id, err)
	}
	stats.Inserts++
	return nil
}
