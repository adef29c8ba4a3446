package database

import (
	"fmt"

	"generalstore-backend/models"

	"gorm.io/gorm"
)

// Migrate applies the (idempotent) schema migrations:
// - AutoMigrate (tables/columns/tag indexes)
// - Money column types (NUMERIC(12,2))
// - Unique bill number index, join indexes
// - Foreign key: bill_items.item_id → items.id (RESTRICT, items referenced
//   by bills must never be physically removed)
// - CHECK constraints (non-negative stock, selling price above cost)
func Migrate(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Item{},
			&models.Bill{},
			&models.BillItem{},
			&models.Loan{},
			&models.LoanPayment{},
			&models.IdempotencyKey{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE items          ALTER COLUMN cost_price       TYPE numeric(12,2)`,
			`ALTER TABLE items          ALTER COLUMN selling_price    TYPE numeric(12,2)`,
			`ALTER TABLE bills          ALTER COLUMN discount         TYPE numeric(12,2)`,
			`ALTER TABLE bills          ALTER COLUMN total_amount     TYPE numeric(12,2)`,
			`ALTER TABLE bill_items     ALTER COLUMN unit_price       TYPE numeric(12,2)`,
			`ALTER TABLE bill_items     ALTER COLUMN total_price      TYPE numeric(12,2)`,
			`ALTER TABLE loans          ALTER COLUMN loan_amount      TYPE numeric(12,2)`,
			`ALTER TABLE loans          ALTER COLUMN paid_amount      TYPE numeric(12,2)`,
			`ALTER TABLE loans          ALTER COLUMN remaining_amount TYPE numeric(12,2)`,
			`ALTER TABLE loan_payments  ALTER COLUMN amount           TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Composite / helpful indexes (idempotent) ---
		indexes := []string{
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_bills_bill_no ON bills (bill_no)`,
			`CREATE INDEX IF NOT EXISTS idx_bills_bill_date ON bills (bill_date)`,
			`CREATE INDEX IF NOT EXISTS idx_bill_items_bill ON bill_items (bill_id)`,
			`CREATE INDEX IF NOT EXISTS idx_bill_items_item ON bill_items (item_id)`,
			`CREATE INDEX IF NOT EXISTS idx_loan_payments_loan_paid_at ON loan_payments (loan_id, payment_date)`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_idempotency_keys_key ON idempotency_keys (key)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		// --- Foreign key: bill_items.item_id -> items.id (RESTRICT/RESTRICT) ---
		fk := `
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1
		FROM pg_constraint
		WHERE conrelid = 'bill_items'::regclass
		  AND conname  = 'fk_bill_items_item'
	) THEN
		ALTER TABLE bill_items
		ADD CONSTRAINT fk_bill_items_item
		FOREIGN KEY (item_id)
		REFERENCES items(id)
		ON UPDATE RESTRICT
		ON DELETE RESTRICT;
	END IF;
END $$;`
		if err := tx.Exec(fk).Error; err != nil {
			return fmt.Errorf("foreign key migration failed: %w", err)
		}

		// --- Basic CHECK constraints (idempotent) ---
		checks := []string{
			// Stock never goes negative; the billing decrement depends on this.
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'items'::regclass
					  AND conname  = 'chk_items_quantity_nonneg'
				) THEN
					ALTER TABLE items
					ADD CONSTRAINT chk_items_quantity_nonneg
					CHECK (quantity >= 0);
				END IF;
			END $$;`,
			// Selling price must stay above cost.
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'items'::regclass
					  AND conname  = 'chk_items_selling_above_cost'
				) THEN
					ALTER TABLE items
					ADD CONSTRAINT chk_items_selling_above_cost
					CHECK (selling_price > cost_price);
				END IF;
			END $$;`,
			// Bill discount >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'bills'::regclass
					  AND conname  = 'chk_bills_discount_nonneg'
				) THEN
					ALTER TABLE bills
					ADD CONSTRAINT chk_bills_discount_nonneg
					CHECK (discount >= 0);
				END IF;
			END $$;`,
			// Loan payment amounts >= 0
			`DO $$
			BEGIN
				IF NOT EXISTS (
					SELECT 1 FROM pg_constraint
					WHERE conrelid = 'loan_payments'::regclass
					  AND conname  = 'chk_loan_payments_amount_nonneg'
				) THEN
					ALTER TABLE loan_payments
					ADD CONSTRAINT chk_loan_payments_amount_nonneg
					CHECK (amount >= 0);
				END IF;
			END $$;`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed: %w", err)
			}
		}

		return nil
	})
}
