package models

import "time"

// Item is an inventory-tracked product. Quantity is decremented by billing
// and must never go negative (enforced by a CHECK constraint and the
// conditional decrement in the billing processor).
type Item struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null;index"`
	Description  string    `json:"description"`
	Category     string    `json:"category" gorm:"not null;index"`
	Quantity     int       `json:"quantity" gorm:"not null;default:0"`
	CostPrice    float64   `json:"cost_price" gorm:"type:numeric(12,2);not null"`
	SellingPrice float64   `json:"selling_price" gorm:"type:numeric(12,2);not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
