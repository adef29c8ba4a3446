package controllers

import (
	"errors"
	"time"

	"generalstore-backend/middlewares"
	"generalstore-backend/models"
	"generalstore-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemController struct {
	db *gorm.DB
}

func NewItemController(db *gorm.DB) *ItemController {
	return &ItemController{db: db}
}

type ItemCreateDTO struct {
	Name         string  `json:"name" validate:"required,min=1"`
	Description  string  `json:"description" validate:"omitempty"`
	Category     string  `json:"category" validate:"required,min=1"`
	Quantity     int     `json:"quantity" validate:"gte=0"`
	CostPrice    float64 `json:"cost_price" validate:"required,gt=0"`
	SellingPrice float64 `json:"selling_price" validate:"required,gt=0,gtfield=CostPrice"`
}

type ItemUpdateDTO struct {
	Name         *string  `json:"name" validate:"omitempty,min=1"`
	Description  *string  `json:"description" validate:"omitempty"`
	Category     *string  `json:"category" validate:"omitempty,min=1"`
	Quantity     *int     `json:"quantity" validate:"omitempty,gte=0"`
	CostPrice    *float64 `json:"cost_price" validate:"omitempty,gt=0"`
	SellingPrice *float64 `json:"selling_price" validate:"omitempty,gt=0"`
}

// POST /api/items
func (ic *ItemController) CreateItem(c *fiber.Ctx) error {
	var in ItemCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)

	item := models.Item{
		Name:         in.Name,
		Description:  in.Description,
		Category:     in.Category,
		Quantity:     in.Quantity,
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
	}
	if err := ic.db.Create(&item).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Item created successfully",
		"item":    item,
	})
}

// GET /api/items
func (ic *ItemController) GetItems(c *fiber.Ctx) error {
	var items []models.Item
	if err := ic.db.Order("name").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(items)
}

// GET /api/items/:id
func (ic *ItemController) GetItem(c *fiber.Ctx) error {
	var item models.Item
	if err := ic.db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}
		return err
	}
	return c.JSON(item)
}

// PUT /api/items/:id
func (ic *ItemController) UpdateItem(c *fiber.Ctx) error {
	var in ItemUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)

	// When both prices change in one request, keep the margin invariant
	// checkable here instead of bubbling a constraint violation.
	if in.CostPrice != nil && in.SellingPrice != nil && *in.SellingPrice <= *in.CostPrice {
		return fiber.NewError(fiber.StatusBadRequest, "Selling price must be greater than cost price")
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	res := ic.db.Model(&models.Item{}).Where("id = ?", c.Params("id")).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Item not found")
	}

	var item models.Item
	if err := ic.db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Item updated successfully", "item": item})
}

// DELETE /api/items/:id (owner only)
func (ic *ItemController) DeleteItem(c *fiber.Ctx) error {
	res := ic.db.Delete(&models.Item{}, "id = ?", c.Params("id"))
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return fiber.NewError(fiber.StatusBadRequest, "Item is referenced by existing bills and cannot be deleted")
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Item not found")
	}
	return c.JSON(fiber.Map{"message": "Item deleted successfully"})
}

type StockUpdateDTO struct {
	Quantity int    `json:"quantity" validate:"required,gt=0"`
	Type     string `json:"type" validate:"required,oneof=add remove"`
}

// PUT /api/items/:id/stock — manual stock adjustment outside billing.
func (ic *ItemController) UpdateItemStock(c *fiber.Ctx) error {
	var in StockUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	q := ic.db.Model(&models.Item{}).Where("id = ?", c.Params("id"))
	if in.Type == "remove" {
		// Same conditional guard the billing decrement uses.
		q = q.Where("quantity >= ?", in.Quantity)
	}
	expr := "quantity + ?"
	if in.Type == "remove" {
		expr = "quantity - ?"
	}
	res := q.UpdateColumn("quantity", gorm.Expr(expr, in.Quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "Item not found or insufficient stock for removal")
	}

	var item models.Item
	if err := ic.db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Stock updated successfully", "item": item})
}

// GET /api/items/categories
func (ic *ItemController) GetCategories(c *fiber.Ctx) error {
	var categories []string
	err := ic.db.Model(&models.Item{}).
		Distinct("category").
		Where("category <> ''").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

// GET /api/items/category/:category
func (ic *ItemController) GetItemsByCategory(c *fiber.Ctx) error {
	var items []models.Item
	if err := ic.db.Where("category = ?", c.Params("category")).Order("name").Find(&items).Error; err != nil {
		return err
	}
	return c.JSON(items)
}

// GET /api/items/low-stock
func (ic *ItemController) GetLowStockItems(c *fiber.Ctx) error {
	threshold := utils.ParseIntDefault(c.Query("threshold"), 4)

	var items []models.Item
	if err := ic.db.Where("quantity <= ?", threshold).Order("quantity").Find(&items).Error; err != nil {
		return err
	}

	type lowStockItem struct {
		models.Item
		WarningLevel string `json:"warningLevel"`
	}
	out := make([]lowStockItem, 0, len(items))
	for _, item := range items {
		level := "medium"
		switch {
		case item.Quantity == 0:
			level = "critical"
		case item.Quantity <= 2:
			level = "high"
		}
		out = append(out, lowStockItem{Item: item, WarningLevel: level})
	}
	return c.JSON(out)
}

type profitRow struct {
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	CostPrice    float64 `json:"cost_price"`
	SellingPrice float64 `json:"selling_price"`
	TotalSold    int     `json:"total_sold"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalCost    float64 `json:"total_cost"`
	TotalProfit  float64 `json:"total_profit"`
	ProfitMargin float64 `json:"profit_margin"`
}

// GET /api/items/profit-report (owner only)
func (ic *ItemController) GetProfitReport(c *fiber.Ctx) error {
	var rows []profitRow
	err := ic.db.Raw(`
		SELECT
			i.name,
			i.category,
			i.cost_price,
			i.selling_price,
			COALESCE(SUM(bi.quantity), 0) AS total_sold,
			COALESCE(SUM(bi.total_price), 0) AS total_revenue,
			COALESCE(SUM(bi.quantity * i.cost_price), 0) AS total_cost,
			COALESCE(SUM(bi.total_price - (bi.quantity * i.cost_price)), 0) AS total_profit
		FROM items i
		LEFT JOIN bill_items bi ON i.id = bi.item_id
		GROUP BY i.id, i.name, i.category, i.cost_price, i.selling_price
		ORDER BY total_profit DESC`).Scan(&rows).Error
	if err != nil {
		return err
	}

	var totals profitRow
	for i := range rows {
		if rows[i].TotalCost > 0 {
			rows[i].ProfitMargin = utils.Round2(rows[i].TotalProfit / rows[i].TotalCost * 100)
		}
		totals.TotalSold += rows[i].TotalSold
		totals.TotalRevenue += rows[i].TotalRevenue
		totals.TotalCost += rows[i].TotalCost
		totals.TotalProfit += rows[i].TotalProfit
	}
	if totals.TotalCost > 0 {
		totals.ProfitMargin = utils.Round2(totals.TotalProfit / totals.TotalCost * 100)
	}

	return c.JSON(fiber.Map{
		"items": rows,
		"totals": fiber.Map{
			"total_sold":    totals.TotalSold,
			"total_revenue": utils.Round2(totals.TotalRevenue),
			"total_cost":    utils.Round2(totals.TotalCost),
			"total_profit":  utils.Round2(totals.TotalProfit),
			"profit_margin": totals.ProfitMargin,
		},
	})
}

// GET /api/items/sales-stats — rolling 30 day sales summary.
func (ic *ItemController) GetSalesStats(c *fiber.Ctx) error {
	cutoff := time.Now().AddDate(0, 0, -30)

	var totalSales float64
	if err := ic.db.Model(&models.Bill{}).
		Where("bill_date >= ?", cutoff).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&totalSales).Error; err != nil {
		return err
	}

	var totalItems int64
	if err := ic.db.Model(&models.BillItem{}).
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.bill_date >= ?", cutoff).
		Select("COALESCE(SUM(bill_items.quantity), 0)").
		Scan(&totalItems).Error; err != nil {
		return err
	}

	type topItem struct {
		ItemName      string  `json:"item_name"`
		TotalQuantity int     `json:"total_quantity"`
		TotalSales    float64 `json:"total_sales"`
	}
	var top []topItem
	err := ic.db.Model(&models.BillItem{}).
		Joins("JOIN bills ON bills.id = bill_items.bill_id").
		Where("bills.bill_date >= ?", cutoff).
		Select("bill_items.item_name, SUM(bill_items.quantity) AS total_quantity, SUM(bill_items.total_price) AS total_sales").
		Group("bill_items.item_name").
		Order("total_quantity DESC").
		Limit(5).
		Scan(&top).Error
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"total_sales": utils.Round2(totalSales),
		"total_items": totalItems,
		"top_items":   top,
	})
}

// GET /api/items/stock-value
func (ic *ItemController) GetStockValueReport(c *fiber.Ctx) error {
	type categoryValue struct {
		Category      string  `json:"category"`
		ItemCount     int     `json:"item_count"`
		TotalQuantity int     `json:"total_quantity"`
		CostValue     float64 `json:"cost_value"`
		SellingValue  float64 `json:"selling_value"`
	}
	var perCategory []categoryValue
	err := ic.db.Model(&models.Item{}).
		Select("category, COUNT(*) AS item_count, COALESCE(SUM(quantity), 0) AS total_quantity, " +
			"COALESCE(SUM(quantity * cost_price), 0) AS cost_value, " +
			"COALESCE(SUM(quantity * selling_price), 0) AS selling_value").
		Group("category").
		Order("selling_value DESC").
		Scan(&perCategory).Error
	if err != nil {
		return err
	}

	var totals categoryValue
	for _, cv := range perCategory {
		totals.ItemCount += cv.ItemCount
		totals.TotalQuantity += cv.TotalQuantity
		totals.CostValue += cv.CostValue
		totals.SellingValue += cv.SellingValue
	}

	return c.JSON(fiber.Map{
		"categories": perCategory,
		"totals": fiber.Map{
			"item_count":     totals.ItemCount,
			"total_quantity": totals.TotalQuantity,
			"cost_value":     utils.Round2(totals.CostValue),
			"selling_value":  utils.Round2(totals.SellingValue),
		},
	})
}
