// migration/backfill_expense_types.go
// Rewrites stored expenses whose category is not normalised or whose
// need/want type no longer matches the classification rule.
//
// USAGE: set BACKFILL_EXPENSE_TYPES=true and start the server once.

package migration

import (
	"context"
	"fmt"
	"log"

	"github.com/mindspend/mindspend-api/models"
	"github.com/mindspend/mindspend-api/services"
)

// ExpenseBackfillStore is the part of the store the backfill needs.
type ExpenseBackfillStore interface {
	ForEachExpense(ctx context.Context, fn func(models.Expense) error) error
	UpdateClassification(ctx context.Context, id, category, typ string) error
}

type Result struct {
	Migrated int
	Skipped  int
	Errors   int
}

// MigrateExpense returns the corrected category and type, and whether the
// record needs rewriting.
func MigrateExpense(e models.Expense) (string, string, bool) {
	category := services.NormalizeCategory(e.Category)
	typ := services.Classify(category)
	return category, typ, category != e.Category || typ != e.Type
}

// BackfillExpenseTypes walks every expense once. A failed record is counted
// and logged; the walk continues.
func BackfillExpenseTypes(ctx context.Context, st ExpenseBackfillStore) (Result, error) {
	var res Result

	log.Println("🚀 Starting expense classification backfill...")

	err := st.ForEachExpense(ctx, func(e models.Expense) error {
		category, typ, changed := MigrateExpense(e)
		if !changed {
			res.Skipped++
			return nil
		}
		if err := st.UpdateClassification(ctx, e.ID, category, typ); err != nil {
			log.Printf("  ❌ Expense %s: %v", e.ID, err)
			res.Errors++
			return nil
		}
		res.Migrated++
		return nil
	})
	if err != nil {
		return res, fmt.Errorf("walk expenses: %w", err)
	}

	log.Printf("📊 Backfill result: %d migrated, %d skipped, %d errors", res.Migrated, res.Skipped, res.Errors)
	return res, nil
}
