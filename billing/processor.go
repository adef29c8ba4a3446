// Package billing implements the checkout transaction: stock validation,
// bill number allocation and the atomic bill + line items insert with
// conditional inventory decrement. All coordination between concurrent
// checkouts is delegated to the database; the processor holds no locks of
// its own.
package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"generalstore-backend/models"
	"generalstore-backend/utils"

	"gorm.io/gorm"
)

var paymentMethods = map[string]bool{
	"cash": true,
	"card": true,
	"upi":  true,
}

// LineRequest is one requested sale line.
type LineRequest struct {
	ItemID   uint `json:"item_id" validate:"required"`
	Quantity int  `json:"quantity" validate:"required"`
}

// CheckoutRequest carries everything needed to generate a bill. TotalAmount
// is accepted from clients for compatibility but the persisted total is
// always recomputed from the stored selling prices.
type CheckoutRequest struct {
	CustomerName  string        `json:"customer_name"`
	CustomerPhone string        `json:"customer_phone"`
	PaymentMethod string        `json:"payment_method"`
	Discount      float64       `json:"discount"`
	Items         []LineRequest `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
}

// BillLineDetail is a persisted line joined with current item data for
// display (category and prices come from the items table, the rest is the
// snapshot taken at sale time).
type BillLineDetail struct {
	models.BillItem
	Category     string  `json:"category"`
	SellingPrice float64 `json:"selling_price"`
	CostPrice    float64 `json:"cost_price"`
}

// Receipt is the assembled result of a successful checkout.
type Receipt struct {
	models.Bill
	Items        []BillLineDetail `json:"items"`
	ItemsDisplay string           `json:"items_display"`
}

// Processor runs checkouts against an injected store handle.
type Processor struct {
	db *gorm.DB
}

func NewProcessor(db *gorm.DB) *Processor {
	return &Processor{db: db}
}

// Checkout validates the request, then persists the bill header, its line
// items and the stock decrements in a single transaction. On any failure the
// whole transaction rolls back: no partial bill, no partial decrement.
func (p *Processor) Checkout(ctx context.Context, req CheckoutRequest) (*Receipt, error) {
	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	now := time.Now()
	var bill models.Bill

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Pre-check every line against current stock. This gives the caller
		// a named "Available vs Requested" failure; the conditional update
		// below is the actual oversell guarantee.
		lines := make([]models.BillItem, 0, len(req.Items))
		var subtotal float64
		for _, lr := range req.Items {
			var item models.Item
			if err := tx.First(&item, lr.ItemID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return &NotFoundError{ItemID: lr.ItemID}
				}
				return err
			}
			if item.Quantity < lr.Quantity {
				return &InsufficientStockError{
					ItemName:  item.Name,
					Available: item.Quantity,
					Requested: lr.Quantity,
				}
			}
			total := utils.Round2(item.SellingPrice * float64(lr.Quantity))
			lines = append(lines, models.BillItem{
				ItemID:     item.ID,
				ItemName:   item.Name,
				Quantity:   lr.Quantity,
				UnitPrice:  item.SellingPrice,
				TotalPrice: total,
			})
			subtotal += total
		}
		subtotal = utils.Round2(subtotal)

		if req.Discount > subtotal {
			return errValidation("Discount %.2f exceeds subtotal %.2f", req.Discount, subtotal)
		}

		billNo, err := nextBillNumber(tx, now)
		if err != nil {
			return err
		}

		bill = models.Bill{
			BillNo:        billNo,
			CustomerName:  strings.TrimSpace(req.CustomerName),
			CustomerPhone: strings.TrimSpace(req.CustomerPhone),
			PaymentMethod: req.PaymentMethod,
			Discount:      req.Discount,
			TotalAmount:   utils.Round2(subtotal - req.Discount),
			BillDate:      now,
		}
		if err := tx.Create(&bill).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return &ConcurrencyConflictError{
					Reason: fmt.Sprintf("Bill number %s already taken by a concurrent checkout", billNo),
				}
			}
			return err
		}

		for i := range lines {
			lines[i].BillID = bill.ID
			if err := tx.Create(&lines[i]).Error; err != nil {
				return err
			}
			// Conditional decrement: only applies while stock is still
			// sufficient at write time. Zero rows affected means the stock
			// changed since the pre-check; abort everything.
			res := tx.Model(&models.Item{}).
				Where("id = ? AND quantity >= ?", lines[i].ItemID, lines[i].Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", lines[i].Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &ConcurrencyConflictError{
					Reason: fmt.Sprintf("Insufficient stock for item %s: stock changed concurrently", lines[i].ItemName),
				}
			}
		}
		bill.Items = lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	return p.assembleReceipt(ctx, bill)
}

// assembleReceipt re-reads the committed lines joined with item
// category/prices and builds the display string ("2x Rice @ ₹80.00, ...").
func (p *Processor) assembleReceipt(ctx context.Context, bill models.Bill) (*Receipt, error) {
	var details []BillLineDetail
	err := p.db.WithContext(ctx).
		Table("bill_items").
		Select("bill_items.*, items.category, items.selling_price, items.cost_price").
		Joins("JOIN items ON items.id = bill_items.item_id").
		Where("bill_items.bill_id = ?", bill.ID).
		Order("bill_items.id").
		Scan(&details).Error
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, len(details))
	for _, d := range details {
		parts = append(parts, fmt.Sprintf("%dx %s @ ₹%.2f", d.Quantity, d.ItemName, d.UnitPrice))
	}

	return &Receipt{
		Bill:         bill,
		Items:        details,
		ItemsDisplay: strings.Join(parts, ", "),
	}, nil
}

func validateRequest(req *CheckoutRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return errValidation("customer_name is required")
	}
	if len(req.Items) == 0 {
		return errValidation("items array must not be empty")
	}
	for i, lr := range req.Items {
		if lr.ItemID == 0 {
			return errValidation("Invalid item at index %d: missing item_id", i)
		}
		if lr.Quantity <= 0 {
			return errValidation("Invalid quantity for item %d: must be a positive integer", lr.ItemID)
		}
	}
	if req.Discount < 0 {
		return errValidation("discount must not be negative")
	}
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if !paymentMethods[req.PaymentMethod] {
		return errValidation("payment_method must be one of cash, card, upi")
	}
	return nil
}
