package controllers

import (
	"errors"
	"strings"
	"time"

	"generalstore-backend/middlewares"
	"generalstore-backend/models"
	"generalstore-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LoanController struct {
	db *gorm.DB
}

func NewLoanController(db *gorm.DB) *LoanController {
	return &LoanController{db: db}
}

type LoanCreateDTO struct {
	CustomerName  string  `json:"customer_name" validate:"required,min=1"`
	CustomerPhone string  `json:"customer_phone" validate:"required,min=1"`
	LoanAmount    float64 `json:"loan_amount" validate:"required,gt=0"`
	DueDate       string  `json:"due_date" validate:"required"`
}

// POST /api/loans
func (lc *LoanController) CreateLoan(c *fiber.Ctx) error {
	var in LoanCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	dueDate, err := time.Parse("2006-01-02", in.DueDate)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "due_date must be YYYY-MM-DD")
	}

	loan := models.Loan{
		CustomerName:    strings.TrimSpace(in.CustomerName),
		CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
		LoanAmount:      utils.Round2(in.LoanAmount),
		PaidAmount:      0,
		RemainingAmount: utils.Round2(in.LoanAmount),
		LoanDate:        time.Now(),
		DueDate:         dueDate,
		Status:          models.LoanStatusPending,
	}
	if err := lc.db.Create(&loan).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Loan created successfully",
		"loan":    loan,
	})
}

// GET /api/loans
func (lc *LoanController) GetLoans(c *fiber.Ctx) error {
	var loans []models.Loan
	if err := lc.db.Order("loan_date DESC").Find(&loans).Error; err != nil {
		return err
	}
	return c.JSON(loans)
}

// GET /api/loans/due-today
func (lc *LoanController) GetLoansDueToday(c *fiber.Ctx) error {
	now := time.Now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var loans []models.Loan
	err := lc.db.
		Where("due_date >= ? AND due_date < ? AND status = ?",
			dayStart, dayStart.AddDate(0, 0, 1), models.LoanStatusPending).
		Order("due_date").
		Find(&loans).Error
	if err != nil {
		return err
	}
	return c.JSON(loans)
}

// GET /api/loans/statistics
func (lc *LoanController) GetLoanStatistics(c *fiber.Ctx) error {
	type stats struct {
		TotalLoans      int     `json:"total_loans"`
		PendingLoans    int     `json:"pending_loans"`
		PaidLoans       int     `json:"paid_loans"`
		TotalAmount     float64 `json:"total_amount"`
		PendingAmount   float64 `json:"pending_amount"`
		RecoveredAmount float64 `json:"recovered_amount"`
	}
	var s stats
	err := lc.db.Model(&models.Loan{}).
		Select("COUNT(*) AS total_loans, " +
			"COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending_loans, " +
			"COALESCE(SUM(CASE WHEN status = 'paid' THEN 1 ELSE 0 END), 0) AS paid_loans, " +
			"COALESCE(SUM(loan_amount), 0) AS total_amount, " +
			"COALESCE(SUM(CASE WHEN status = 'pending' THEN remaining_amount ELSE 0 END), 0) AS pending_amount, " +
			"COALESCE(SUM(paid_amount), 0) AS recovered_amount").
		Scan(&s).Error
	if err != nil {
		return err
	}
	return c.JSON(s)
}

// GET /api/loans/:id/payments
func (lc *LoanController) GetLoanPayments(c *fiber.Ctx) error {
	var payments []models.LoanPayment
	err := lc.db.
		Where("loan_id = ?", c.Params("id")).
		Order("payment_date DESC").
		Find(&payments).Error
	if err != nil {
		return err
	}
	return c.JSON(payments)
}

type LoanPaymentDTO struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	PaymentMethod string  `json:"payment_method" validate:"omitempty,oneof=cash card upi"`
	Notes         string  `json:"notes" validate:"omitempty"`
}

// POST /api/loans/:id/payments
//
// The payment insert and the loan rollup update run in one transaction so the
// paid/remaining amounts never drift from the payment rows.
func (lc *LoanController) AddLoanPayment(c *fiber.Ctx) error {
	var in LoanPaymentDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var loan models.Loan
	err := lc.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&loan, "id = ?", c.Params("id")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "Loan not found")
			}
			return err
		}

		payment := models.LoanPayment{
			LoanID:        loan.ID,
			Amount:        utils.Round2(in.Amount),
			PaymentMethod: in.PaymentMethod,
			Notes:         in.Notes,
			PaymentDate:   time.Now(),
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		loan.PaidAmount = utils.Round2(loan.PaidAmount + payment.Amount)
		loan.RemainingAmount = utils.Round2(loan.LoanAmount - loan.PaidAmount)
		loan.Status = models.LoanStatusPending
		if loan.RemainingAmount <= 0 {
			loan.Status = models.LoanStatusPaid
		}

		return tx.Model(&models.Loan{}).Where("id = ?", loan.ID).Updates(map[string]any{
			"paid_amount":      loan.PaidAmount,
			"remaining_amount": loan.RemainingAmount,
			"status":           loan.Status,
		}).Error
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message":          "Payment recorded successfully",
		"paid_amount":      loan.PaidAmount,
		"remaining_amount": loan.RemainingAmount,
		"status":           loan.Status,
	})
}
