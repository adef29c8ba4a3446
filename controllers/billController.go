package controllers

import (
	"errors"
	"time"

	"generalstore-backend/billing"
	"generalstore-backend/models"
	"generalstore-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BillController struct {
	db        *gorm.DB
	processor *billing.Processor
}

func NewBillController(db *gorm.DB) *BillController {
	return &BillController{db: db, processor: billing.NewProcessor(db)}
}

// POST /api/bills
//
// Validation failures come back as 400 via the central error handler; every
// store-level failure (missing item, insufficient stock, conflict) is a 500
// whose message names the failing item and the available vs requested counts.
func (bc *BillController) CreateBill(c *fiber.Ctx) error {
	var req billing.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	receipt, err := bc.processor.Checkout(c.Context(), req)
	if err != nil {
		var ve *billing.ValidationError
		if errors.As(err, &ve) {
			return ve
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to generate bill",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Bill generated successfully",
		"bill":    receipt,
	})
}

// GET /api/bills
func (bc *BillController) GetBills(c *fiber.Ctx) error {
	var bills []models.Bill
	if err := bc.db.Preload("Items").Order("bill_date DESC").Find(&bills).Error; err != nil {
		return err
	}
	return c.JSON(bills)
}

// GET /api/bills/:id
func (bc *BillController) GetBill(c *fiber.Ctx) error {
	var bill models.Bill
	err := bc.db.Preload("Items").First(&bill, "id = ?", c.Params("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bill not found")
		}
		return err
	}
	return c.JSON(bill)
}

// GET /api/bills/number/:billNo
func (bc *BillController) GetBillByNumber(c *fiber.Ctx) error {
	var bill models.Bill
	err := bc.db.Preload("Items").First(&bill, "bill_no = ?", c.Params("billNo")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Bill not found")
		}
		return err
	}
	return c.JSON(bill)
}

// GET /api/bills/customer/:phone
func (bc *BillController) GetBillsByCustomer(c *fiber.Ctx) error {
	var bills []models.Bill
	err := bc.db.Preload("Items").
		Where("customer_phone = ?", c.Params("phone")).
		Order("bill_date DESC").
		Find(&bills).Error
	if err != nil {
		return err
	}
	return c.JSON(bills)
}

// GET /api/bills/range?start_date=2025-06-01&end_date=2025-06-30
func (bc *BillController) GetBillsByDateRange(c *fiber.Ctx) error {
	start, err := time.Parse("2006-01-02", c.Query("start_date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
	}
	end, err := time.Parse("2006-01-02", c.Query("end_date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "start_date and end_date are required (YYYY-MM-DD)")
	}

	var bills []models.Bill
	err = bc.db.Preload("Items").
		Where("bill_date >= ? AND bill_date < ?", start, end.AddDate(0, 0, 1)).
		Order("bill_date DESC").
		Find(&bills).Error
	if err != nil {
		return err
	}
	return c.JSON(bills)
}

type itemWiseSales struct {
	ItemName      string  `json:"item_name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalSales    float64 `json:"total_sales"`
}

// GET /api/bills/reports/daily?date=2025-06-15
func (bc *BillController) GetDailySalesReport(c *fiber.Ctx) error {
	day, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "date is required (YYYY-MM-DD)")
	}
	return bc.salesReport(c, day, day.AddDate(0, 0, 1), day.Format("2006-01-02"))
}

// GET /api/bills/reports/monthly?month=6&year=2025
func (bc *BillController) GetMonthlySalesReport(c *fiber.Ctx) error {
	month := utils.ParseIntDefault(c.Query("month"), 0)
	year := utils.ParseIntDefault(c.Query("year"), 0)
	if month < 1 || month > 12 || year == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "month and year are required")
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.Local)
	return bc.salesReport(c, start, start.AddDate(0, 1, 0), start.Format("2006-01"))
}

func (bc *BillController) salesReport(c *fiber.Ctx, start, end time.Time, label string) error {
	type summary struct {
		TotalBills      int     `json:"total_bills"`
		TotalSales      float64 `json:"total_sales"`
		UniqueCustomers int     `json:"unique_customers"`
	}
	var sum summary
	err := bc.db.Model(&models.Bill{}).
		Where("bill_date >= ? AND bill_date < ?", start, end).
		Select("COUNT(*) AS total_bills, COALESCE(SUM(total_amount), 0) AS total_sales, " +
			"COUNT(DISTINCT customer_phone) AS unique_customers").
		Scan(&sum).Error
	if err != nil {
		return err
	}

	var itemWise []itemWiseSales
	err = bc.db.Model(&models.BillItem{}).
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.bill_date >= ? AND bills.bill_date < ?", start, end).
		Select("bill_items.item_name, SUM(bill_items.quantity) AS total_quantity, SUM(bill_items.total_price) AS total_sales").
		Group("bill_items.item_name").
		Order("total_sales DESC").
		Scan(&itemWise).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"period":           label,
		"total_bills":      sum.TotalBills,
		"total_sales":      utils.Round2(sum.TotalSales),
		"unique_customers": sum.UniqueCustomers,
		"item_wise_sales":  itemWise,
	})
}
