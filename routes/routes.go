package routes

import (
	"github.com/gofiber/fiber/v2"

	"generalstore-backend/controllers"
	"generalstore-backend/middlewares"
)

// Handlers groups the controller set wired in main.
type Handlers struct {
	Auth      *controllers.AuthController
	Items     *controllers.ItemController
	Bills     *controllers.BillController
	Loans     *controllers.LoanController
	Analytics *controllers.AnalyticsController
}

// Register wires all HTTP routes.
func Register(app *fiber.App, h Handlers) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/auth/login", h.Auth.Login)

	// Protected endpoints (JWT auth)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader())

	// Idempotency guard for mutating requests (checkouts, payments)
	protected.Use(middlewares.Idempotency())

	// Auth
	protected.Get("/auth/profile", h.Auth.Profile)
	protected.Post("/auth/change-password", h.Auth.ChangePassword)
	protected.Post("/auth/users", middlewares.RequireOwner(), h.Auth.CreateUser)

	// Items — reports and named routes before /:id to prevent conflicts
	protected.Get("/items/profit-report", middlewares.RequireOwner(), h.Items.GetProfitReport)
	protected.Get("/items/sales-stats", h.Items.GetSalesStats)
	protected.Get("/items/stock-value", h.Items.GetStockValueReport)
	protected.Get("/items/categories", h.Items.GetCategories)
	protected.Get("/items/category/:category", h.Items.GetItemsByCategory)
	protected.Get("/items/low-stock", h.Items.GetLowStockItems)
	protected.Get("/items", h.Items.GetItems)
	protected.Post("/items", h.Items.CreateItem)
	protected.Get("/items/:id", h.Items.GetItem)
	protected.Put("/items/:id", h.Items.UpdateItem)
	protected.Delete("/items/:id", middlewares.RequireOwner(), h.Items.DeleteItem)
	protected.Put("/items/:id/stock", h.Items.UpdateItemStock)

	// Bills
	protected.Post("/bills", h.Bills.CreateBill)
	protected.Get("/bills", h.Bills.GetBills)
	protected.Get("/bills/range", h.Bills.GetBillsByDateRange)
	protected.Get("/bills/reports/daily", h.Bills.GetDailySalesReport)
	protected.Get("/bills/reports/monthly", h.Bills.GetMonthlySalesReport)
	protected.Get("/bills/number/:billNo", h.Bills.GetBillByNumber)
	protected.Get("/bills/customer/:phone", h.Bills.GetBillsByCustomer)
	protected.Get("/bills/:id", h.Bills.GetBill)

	// Loans
	protected.Post("/loans", h.Loans.CreateLoan)
	protected.Get("/loans", h.Loans.GetLoans)
	protected.Get("/loans/due-today", h.Loans.GetLoansDueToday)
	protected.Get("/loans/statistics", h.Loans.GetLoanStatistics)
	protected.Get("/loans/:id/payments", h.Loans.GetLoanPayments)
	protected.Post("/loans/:id/payments", h.Loans.AddLoanPayment)

	// Dashboard analytics
	protected.Get("/analytics/dashboard", h.Analytics.GetDashboardStats)
	protected.Get("/analytics/top-selling", h.Analytics.GetTopSellingItems)
	protected.Get("/analytics/category-sales", h.Analytics.GetCategorySales)
	protected.Get("/analytics/recent-activities", h.Analytics.GetRecentActivities)
}
