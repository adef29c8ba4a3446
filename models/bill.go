package models

import "time"

// Bill is a finalized sale. It is created exactly once by the billing
// processor and never updated or deleted afterwards.
type Bill struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	BillNo        string     `json:"bill_no" gorm:"size:20;uniqueIndex;not null"`
	CustomerName  string     `json:"customer_name" gorm:"not null"`
	CustomerPhone string     `json:"customer_phone"`
	PaymentMethod string     `json:"payment_method" gorm:"size:20;not null"`
	Discount      float64    `json:"discount" gorm:"type:numeric(12,2);not null;default:0"`
	TotalAmount   float64    `json:"total_amount" gorm:"type:numeric(12,2);not null"`
	BillDate      time.Time  `json:"bill_date" gorm:"index;not null"`
	Items         []BillItem `json:"items" gorm:"foreignKey:BillID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time  `json:"created_at"`
}

// BillItem is one line of a Bill. Name and unit price are snapshotted at
// sale time so later item edits don't rewrite history.
type BillItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	BillID     uint    `json:"-" gorm:"index"` // fast join
	ItemID     uint    `json:"item_id" gorm:"not null;index"`
	Item       Item    `json:"-" gorm:"foreignKey:ItemID;references:ID;constraint:OnUpdate:RESTRICT,OnDelete:RESTRICT"`
	ItemName   string  `json:"item_name" gorm:"not null"`
	Quantity   int     `json:"quantity" gorm:"not null"`
	UnitPrice  float64 `json:"unit_price" gorm:"type:numeric(12,2);not null"`
	TotalPrice float64 `json:"total_price" gorm:"type:numeric(12,2);not null"`
}
