package controllers

import (
	"testing"
	"time"

	"generalstore-backend/middlewares"
	"generalstore-backend/models"

	"github.com/gofiber/fiber/v2"
)

func newLoanApp(t *testing.T) (*fiber.App, *LoanController) {
	t.Helper()
	db := newTestDB(t)
	lc := NewLoanController(db)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Post("/api/loans", lc.CreateLoan)
	app.Get("/api/loans", lc.GetLoans)
	app.Get("/api/loans/statistics", lc.GetLoanStatistics)
	app.Get("/api/loans/:id/payments", lc.GetLoanPayments)
	app.Post("/api/loans/:id/payments", lc.AddLoanPayment)
	return app, lc
}

func TestCreateLoan(t *testing.T) {
	app, lc := newLoanApp(t)

	resp, body := doJSON(t, app, "POST", "/api/loans", fiber.Map{
		"customer_name":  "Ravi",
		"customer_phone": "9876543210",
		"loan_amount":    500.0,
		"due_date":       "2026-09-15",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}

	var loan models.Loan
	if err := lc.db.First(&loan).Error; err != nil {
		t.Fatal(err)
	}
	if loan.RemainingAmount != 500 || loan.PaidAmount != 0 {
		t.Errorf("amounts = paid %v remaining %v", loan.PaidAmount, loan.RemainingAmount)
	}
	if loan.Status != models.LoanStatusPending {
		t.Errorf("status = %q, want pending", loan.Status)
	}
}

func TestCreateLoanRejectsBadDueDate(t *testing.T) {
	app, _ := newLoanApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/loans", fiber.Map{
		"customer_name":  "Ravi",
		"customer_phone": "9876543210",
		"loan_amount":    500.0,
		"due_date":       "15-09-2026",
	})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestLoanPaymentRollup(t *testing.T) {
	app, lc := newLoanApp(t)

	loan := models.Loan{
		CustomerName: "Devi", CustomerPhone: "9000000001",
		LoanAmount: 300, RemainingAmount: 300,
		LoanDate: time.Now(), DueDate: time.Now().AddDate(0, 1, 0),
		Status: models.LoanStatusPending,
	}
	if err := lc.db.Create(&loan).Error; err != nil {
		t.Fatal(err)
	}
	path := "/api/loans/1/payments"

	resp, body := doJSON(t, app, "POST", path, fiber.Map{"amount": 120.0, "payment_method": "cash"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("first payment: status %d, body %v", resp.StatusCode, body)
	}
	if body["paid_amount"] != float64(120) || body["remaining_amount"] != float64(180) {
		t.Errorf("rollup after first payment: %v", body)
	}
	if body["status"] != models.LoanStatusPending {
		t.Errorf("status = %v, want pending", body["status"])
	}

	resp, body = doJSON(t, app, "POST", path, fiber.Map{"amount": 180.0, "payment_method": "upi"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("final payment: status %d, body %v", resp.StatusCode, body)
	}
	if body["remaining_amount"] != float64(0) {
		t.Errorf("remaining = %v, want 0", body["remaining_amount"])
	}
	if body["status"] != models.LoanStatusPaid {
		t.Errorf("status = %v, want paid", body["status"])
	}

	// paid/remaining must match the payment rows
	var sum float64
	lc.db.Model(&models.LoanPayment{}).Where("loan_id = ?", loan.ID).
		Select("COALESCE(SUM(amount), 0)").Scan(&sum)
	if sum != 300 {
		t.Errorf("payment rows sum to %v, want 300", sum)
	}
}

func TestLoanPaymentValidation(t *testing.T) {
	app, lc := newLoanApp(t)

	loan := models.Loan{
		CustomerName: "Devi", CustomerPhone: "9000000001",
		LoanAmount: 100, RemainingAmount: 100,
		LoanDate: time.Now(), DueDate: time.Now().AddDate(0, 1, 0),
		Status: models.LoanStatusPending,
	}
	if err := lc.db.Create(&loan).Error; err != nil {
		t.Fatal(err)
	}

	resp, _ := doJSON(t, app, "POST", "/api/loans/1/payments", fiber.Map{"amount": 0.0})
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("zero amount: status %d, want 422", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "POST", "/api/loans/999/payments", fiber.Map{"amount": 50.0})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing loan: status %d, want 404", resp.StatusCode)
	}

	var n int64
	lc.db.Model(&models.LoanPayment{}).Count(&n)
	if n != 0 {
		t.Errorf("rejected payments persisted: %d", n)
	}
}

func TestLoanStatistics(t *testing.T) {
	app, lc := newLoanApp(t)

	now := time.Now()
	loans := []models.Loan{
		{CustomerName: "A", CustomerPhone: "1", LoanAmount: 100, PaidAmount: 100, RemainingAmount: 0,
			LoanDate: now, DueDate: now, Status: models.LoanStatusPaid},
		{CustomerName: "B", CustomerPhone: "2", LoanAmount: 200, PaidAmount: 50, RemainingAmount: 150,
			LoanDate: now, DueDate: now, Status: models.LoanStatusPending},
	}
	if err := lc.db.Create(&loans).Error; err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, app, "GET", "/api/loans/statistics", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["total_loans"] != float64(2) || body["pending_loans"] != float64(1) || body["paid_loans"] != float64(1) {
		t.Errorf("counts = %v", body)
	}
	if body["pending_amount"] != float64(150) || body["recovered_amount"] != float64(150) {
		t.Errorf("amounts = %v", body)
	}
}
