package models

import "time"

const (
	LoanStatusPending = "pending"
	LoanStatusPaid    = "paid"
)

// Loan is a customer credit record. PaidAmount/RemainingAmount are rolled up
// whenever a payment is recorded, inside the same transaction as the payment.
type Loan struct {
	ID              uint          `json:"id" gorm:"primaryKey"`
	CustomerName    string        `json:"customer_name" gorm:"not null;index"`
	CustomerPhone   string        `json:"customer_phone" gorm:"not null"`
	LoanAmount      float64       `json:"loan_amount" gorm:"type:numeric(12,2);not null"`
	PaidAmount      float64       `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0"`
	RemainingAmount float64       `json:"remaining_amount" gorm:"type:numeric(12,2);not null"`
	LoanDate        time.Time     `json:"loan_date" gorm:"not null"`
	DueDate         time.Time     `json:"due_date" gorm:"index;not null"`
	Status          string        `json:"status" gorm:"size:10;not null;default:pending"`
	Payments        []LoanPayment `json:"-" gorm:"foreignKey:LoanID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time     `json:"created_at"`
}

type LoanPayment struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	LoanID        uint      `json:"loan_id" gorm:"index:idx_loan_payments_loan_paid_at,priority:1"`
	Amount        float64   `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaymentMethod string    `json:"payment_method" gorm:"size:20"`
	Notes         string    `json:"notes"`
	PaymentDate   time.Time `json:"payment_date" gorm:"index:idx_loan_payments_loan_paid_at,priority:2"`
	CreatedAt     time.Time `json:"created_at"`
}
