package billing

import (
	"fmt"
	"time"

	"generalstore-backend/models"

	"gorm.io/gorm"
)

const billNoPrefix = "BILL"

// FormatBillNumber renders the human-readable bill identifier:
// "BILL" + yymmdd + 4-digit sequence, e.g. BILL2506050001.
func FormatBillNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("%s%s%04d", billNoPrefix, day.Format("060102"), seq)
}

// nextBillNumber derives the next same-day sequence from the count of bills
// already issued today. The count is taken inside the checkout transaction;
// the UNIQUE index on bill_no is what actually guarantees uniqueness when two
// same-day checkouts race (the loser rolls back with a duplicate-key error).
func nextBillNumber(tx *gorm.DB, now time.Time) (string, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var count int64
	err := tx.Model(&models.Bill{}).
		Where("bill_date >= ? AND bill_date < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return FormatBillNumber(now, count+1), nil
}
