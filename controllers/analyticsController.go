package controllers

import (
	"fmt"
	"sort"
	"time"

	"generalstore-backend/models"
	"generalstore-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type AnalyticsController struct {
	db *gorm.DB
}

func NewAnalyticsController(db *gorm.DB) *AnalyticsController {
	return &AnalyticsController{db: db}
}

func dayWindow(t time.Time) (time.Time, time.Time) {
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

func (ac *AnalyticsController) salesBetween(start, end time.Time) (float64, error) {
	var total float64
	err := ac.db.Model(&models.Bill{}).
		Where("bill_date >= ? AND bill_date < ?", start, end).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&total).Error
	return total, err
}

// GET /api/analytics/dashboard
func (ac *AnalyticsController) GetDashboardStats(c *fiber.Ctx) error {
	now := time.Now()
	todayStart, todayEnd := dayWindow(now)
	yesterdayStart, yesterdayEnd := dayWindow(now.AddDate(0, 0, -1))

	todayAmount, err := ac.salesBetween(todayStart, todayEnd)
	if err != nil {
		return err
	}
	yesterdayAmount, err := ac.salesBetween(yesterdayStart, yesterdayEnd)
	if err != nil {
		return err
	}
	growth := 0.0
	if yesterdayAmount > 0 {
		growth = utils.Round2((todayAmount - yesterdayAmount) / yesterdayAmount * 100)
	}

	type inventoryStats struct {
		TotalItems    int     `json:"totalItems"`
		TotalQuantity int     `json:"totalQuantity"`
		TotalValue    float64 `json:"totalValue"`
	}
	var inv inventoryStats
	err = ac.db.Model(&models.Item{}).
		Select("COUNT(*) AS total_items, COALESCE(SUM(quantity), 0) AS total_quantity, " +
			"COALESCE(SUM(selling_price * quantity), 0) AS total_value").
		Scan(&inv).Error
	if err != nil {
		return err
	}

	var lowStock []models.Item
	if err := ac.db.Where("quantity <= ?", 10).Order("quantity").Find(&lowStock).Error; err != nil {
		return err
	}

	var overdue []models.Loan
	err = ac.db.
		Where("status = ? AND due_date < ? AND remaining_amount > 0", models.LoanStatusPending, todayStart).
		Order("due_date").
		Find(&overdue).Error
	if err != nil {
		return err
	}

	type alert struct {
		ID        string    `json:"id"`
		Category  string    `json:"category"`
		Type      string    `json:"type"`
		Message   string    `json:"message"`
		Details   string    `json:"details"`
		Value     float64   `json:"value"`
		Timestamp time.Time `json:"timestamp"`
	}
	alerts := make([]alert, 0, len(lowStock)+len(overdue))
	for _, item := range lowStock {
		alerts = append(alerts, alert{
			ID:        fmt.Sprintf("stock_%d", item.ID),
			Category:  "stock",
			Type:      "warning",
			Message:   item.Name,
			Details:   fmt.Sprintf("Current Stock: %d units", item.Quantity),
			Value:     utils.Round2(item.SellingPrice * float64(item.Quantity)),
			Timestamp: now,
		})
	}
	for _, loan := range overdue {
		alerts = append(alerts, alert{
			ID:        fmt.Sprintf("loan_%d", loan.ID),
			Category:  "loan",
			Type:      "error",
			Message:   loan.CustomerName,
			Details:   fmt.Sprintf("Overdue since %s, remaining ₹%.2f", loan.DueDate.Format("2006-01-02"), loan.RemainingAmount),
			Value:     loan.RemainingAmount,
			Timestamp: now,
		})
	}

	return c.JSON(fiber.Map{
		"stats": fiber.Map{
			"sales": fiber.Map{
				"today":  fiber.Map{"amount": utils.Round2(todayAmount)},
				"growth": growth,
			},
			"inventory": fiber.Map{
				"totalItems":    inv.TotalItems,
				"totalQuantity": inv.TotalQuantity,
				"totalValue":    utils.Round2(inv.TotalValue),
				"lowStockCount": len(lowStock),
			},
			"loans": fiber.Map{
				"overdueCount": len(overdue),
			},
		},
		"alerts": alerts,
	})
}

// GET /api/analytics/top-selling — last 30 days, by quantity.
func (ac *AnalyticsController) GetTopSellingItems(c *fiber.Ctx) error {
	cutoff := time.Now().AddDate(0, 0, -30)

	type topItem struct {
		ID            uint    `json:"id"`
		Name          string  `json:"name"`
		Category      string  `json:"category"`
		SaleCount     int     `json:"sale_count"`
		TotalQuantity int     `json:"total_quantity"`
		TotalAmount   float64 `json:"total_amount"`
	}
	var items []topItem
	err := ac.db.Model(&models.BillItem{}).
		Joins("JOIN items ON items.id = bill_items.item_id").
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.bill_date >= ?", cutoff).
		Select("items.id, items.name, items.category, COUNT(bill_items.id) AS sale_count, " +
			"SUM(bill_items.quantity) AS total_quantity, SUM(bill_items.total_price) AS total_amount").
		Group("items.id, items.name, items.category").
		Order("total_quantity DESC").
		Limit(10).
		Scan(&items).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"items": items})
}

// GET /api/analytics/category-sales — last 30 days, by revenue.
func (ac *AnalyticsController) GetCategorySales(c *fiber.Ctx) error {
	cutoff := time.Now().AddDate(0, 0, -30)

	type categorySales struct {
		Category      string  `json:"category"`
		OrderCount    int     `json:"order_count"`
		TotalQuantity int     `json:"total_quantity"`
		TotalAmount   float64 `json:"total_amount"`
	}
	var categories []categorySales
	err := ac.db.Model(&models.BillItem{}).
		Joins("JOIN items ON items.id = bill_items.item_id").
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.bill_date >= ?", cutoff).
		Select("items.category, COUNT(DISTINCT bills.id) AS order_count, " +
			"SUM(bill_items.quantity) AS total_quantity, SUM(bill_items.total_price) AS total_amount").
		Group("items.category").
		Order("total_amount DESC").
		Scan(&categories).Error
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// GET /api/analytics/recent-activities — bills, loans and payments merged.
func (ac *AnalyticsController) GetRecentActivities(c *fiber.Ctx) error {
	type activity struct {
		Type         string    `json:"type"`
		ID           uint      `json:"id"`
		Reference    string    `json:"reference"`
		Amount       float64   `json:"amount"`
		CustomerName string    `json:"customer_name"`
		Timestamp    time.Time `json:"timestamp"`
	}

	var bills []models.Bill
	if err := ac.db.Order("bill_date DESC").Limit(5).Find(&bills).Error; err != nil {
		return err
	}
	var loans []models.Loan
	if err := ac.db.Order("loan_date DESC").Limit(5).Find(&loans).Error; err != nil {
		return err
	}
	var payments []models.LoanPayment
	if err := ac.db.Order("payment_date DESC").Limit(5).Find(&payments).Error; err != nil {
		return err
	}

	loanNames := make(map[uint]models.Loan, len(loans))
	for _, l := range loans {
		loanNames[l.ID] = l
	}

	activities := make([]activity, 0, len(bills)+len(loans)+len(payments))
	for _, b := range bills {
		activities = append(activities, activity{
			Type: "sale", ID: b.ID, Reference: b.BillNo,
			Amount: b.TotalAmount, CustomerName: b.CustomerName, Timestamp: b.BillDate,
		})
	}
	for _, l := range loans {
		activities = append(activities, activity{
			Type: "loan", ID: l.ID, Reference: fmt.Sprintf("LOAN-%d", l.ID),
			Amount: l.LoanAmount, CustomerName: l.CustomerName, Timestamp: l.LoanDate,
		})
	}
	for _, p := range payments {
		name := ""
		if l, ok := loanNames[p.LoanID]; ok {
			name = l.CustomerName
		} else {
			var l models.Loan
			if err := ac.db.Select("customer_name").First(&l, "id = ?", p.LoanID).Error; err == nil {
				name = l.CustomerName
			}
		}
		activities = append(activities, activity{
			Type: "payment", ID: p.ID, Reference: fmt.Sprintf("LOAN-%d", p.LoanID),
			Amount: p.Amount, CustomerName: name, Timestamp: p.PaymentDate,
		})
	}

	sort.Slice(activities, func(i, j int) bool {
		return activities[i].Timestamp.After(activities[j].Timestamp)
	})
	if len(activities) > 10 {
		activities = activities[:10]
	}

	return c.JSON(fiber.Map{"activities": activities})
}
