package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"generalstore-backend/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Item{}, &models.Bill{}, &models.BillItem{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedItem(t *testing.T, db *gorm.DB, name string, qty int, cost, sell float64) models.Item {
	t.Helper()
	item := models.Item{Name: name, Category: "grocery", Quantity: qty, CostPrice: cost, SellingPrice: sell}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item %s: %v", name, err)
	}
	return item
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	if err := db.Model(model).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func TestCheckoutComputesTotalAndDecrementsStock(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)

	item := seedItem(t, db, "Rice", 10, 50, 80)

	receipt, err := p.Checkout(context.Background(), CheckoutRequest{
		CustomerName:  "Asha",
		PaymentMethod: "cash",
		Items:         []LineRequest{{ItemID: item.ID, Quantity: 3}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if receipt.TotalAmount != 240 {
		t.Errorf("total = %v, want 240", receipt.TotalAmount)
	}
	var sum float64
	for _, d := range receipt.Items {
		sum += d.TotalPrice
	}
	if sum-receipt.Discount != receipt.TotalAmount {
		t.Errorf("sum(line totals) - discount = %v, want %v", sum-receipt.Discount, receipt.TotalAmount)
	}

	var after models.Item
	if err := db.First(&after, item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if after.Quantity != 7 {
		t.Errorf("stock = %d, want 7", after.Quantity)
	}

	if len(receipt.Items) != 1 || receipt.Items[0].Category != "grocery" {
		t.Errorf("line details not joined with item data: %+v", receipt.Items)
	}
	if receipt.ItemsDisplay != "3x Rice @ ₹80.00" {
		t.Errorf("items_display = %q", receipt.ItemsDisplay)
	}
}

func TestCheckoutAppliesDiscount(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)

	item := seedItem(t, db, "Sugar", 5, 30, 45)

	receipt, err := p.Checkout(context.Background(), CheckoutRequest{
		CustomerName:  "Ravi",
		PaymentMethod: "upi",
		Discount:      15,
		Items:         []LineRequest{{ItemID: item.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if receipt.TotalAmount != 75 { // 2*45 - 15
		t.Errorf("total = %v, want 75", receipt.TotalAmount)
	}
}

func TestCheckoutDiscountExceedingSubtotalRejectedWithoutMutation(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)

	item := seedItem(t, db, "Tea", 5, 60, 90)

	_, err := p.Checkout(context.Background(), CheckoutRequest{
		CustomerName:  "Meena",
		PaymentMethod: "cash",
		Discount:      100,
		Items:         []LineRequest{{ItemID: item.ID, Quantity: 1}},
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}

	if n := countRows(t, db, &models.Bill{}); n != 0 {
		t.Errorf("bills persisted: %d", n)
	}
	var after models.Item
	db.First(&after, item.ID)
	if after.Quantity != 5 {
		t.Errorf("stock mutated: %d", after.Quantity)
	}
}

func TestCheckoutInsufficientStockRollsBackEverything(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)

	ok := seedItem(t, db, "Soap", 10, 20, 35)
	scarce := seedItem(t, db, "Oil", 2, 100, 140)

	_, err := p.Checkout(context.Background(), CheckoutRequest{
		CustomerName:  "Kiran",
		PaymentMethod: "card",
		Items: []LineRequest{
			{ItemID: ok.ID, Quantity: 4},
			{ItemID: scarce.ID, Quantity: 5},
		},
	})
	var ise *InsufficientStockError
	if !errors.As(err, &ise) {
		t.Fatalf("err = %v, want InsufficientStockError", err)
	}
	if ise.ItemName != "Oil" || ise.Available != 2 || ise.Requested != 5 {
		t.Errorf("error detail = %+v", ise)
	}

	if n := countRows(t, db, &models.Bill{}); n != 0 {
		t.Errorf("bills persisted: %d", n)
	}
	if n := countRows(t, db, &models.BillItem{}); n != 0 {
		t.Errorf("bill items persisted: %d", n)
	}
	var after models.Item
	db.First(&after, ok.ID)
	if after.Quantity != 10 {
		t.Errorf("first line's stock decremented despite rollback: %d", after.Quantity)
	}
}

func TestCheckoutUnknownItemRollsBack(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)

	item := seedItem(t, db, "Salt", 8, 10, 18)

	_, err := p.Checkout(context.Background(), CheckoutRequest{
		CustomerName:  "Devi",
		PaymentMethod: "cash",
		Items: []LineRequest{
			{ItemID: item.ID, Quantity: 1},
			{ItemID: 9999, Quantity: 1},
		},
	})
	var nfe *NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("err = %v, want NotFoundError", err)
	}
	if nfe.ItemID != 9999 {
		t.Errorf("error names item %d, want 9999", nfe.ItemID)
	}

	if n := countRows(t, db, &models.Bill{}); n != 0 {
		t.Errorf("bills persisted: %d", n)
	}
	var after models.Item
	db.First(&after, item.ID)
	if after.Quantity != 8 {
		t.Errorf("stock mutated: %d", after.Quantity)
	}
}

func TestCheckoutValidation(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)
	item := seedItem(t, db, "Bread", 5, 15, 25)

	cases := []struct {
		name string
		req  CheckoutRequest
	}{
		{"empty customer name", CheckoutRequest{CustomerName: "  ", PaymentMethod: "cash",
			Items: []LineRequest{{ItemID: item.ID, Quantity: 1}}}},
		{"empty items", CheckoutRequest{CustomerName: "A", PaymentMethod: "cash"}},
		{"zero quantity", CheckoutRequest{CustomerName: "A", PaymentMethod: "cash",
			Items: []LineRequest{{ItemID: item.ID, Quantity: 0}}}},
		{"missing item id", CheckoutRequest{CustomerName: "A", PaymentMethod: "cash",
			Items: []LineRequest{{Quantity: 1}}}},
		{"negative discount", CheckoutRequest{CustomerName: "A", PaymentMethod: "cash", Discount: -1,
			Items: []LineRequest{{ItemID: item.ID, Quantity: 1}}}},
		{"unknown payment method", CheckoutRequest{CustomerName: "A", PaymentMethod: "cheque",
			Items: []LineRequest{{ItemID: item.ID, Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Checkout(context.Background(), tc.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	if n := countRows(t, db, &models.Bill{}); n != 0 {
		t.Errorf("validation failures persisted bills: %d", n)
	}
}

func TestBillNumbersUniqueAndIncreasingWithinDay(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)
	item := seedItem(t, db, "Matches", 100, 2, 4)

	prefix := "BILL" + time.Now().Format("060102")
	seen := map[string]bool{}
	var last string
	for i := 0; i < 3; i++ {
		receipt, err := p.Checkout(context.Background(), CheckoutRequest{
			CustomerName:  "Counter",
			PaymentMethod: "cash",
			Items:         []LineRequest{{ItemID: item.ID, Quantity: 1}},
		})
		if err != nil {
			t.Fatalf("checkout %d: %v", i, err)
		}
		no := receipt.BillNo
		if len(no) != len(prefix)+4 || no[:len(prefix)] != prefix {
			t.Fatalf("bill no %q does not match %s + 4-digit sequence", no, prefix)
		}
		if seen[no] {
			t.Fatalf("duplicate bill number %q", no)
		}
		if no <= last {
			t.Fatalf("bill number %q not increasing after %q", no, last)
		}
		seen[no] = true
		last = no
	}
	want := FormatBillNumber(time.Now(), 3)
	if last != want {
		t.Errorf("last bill no = %q, want %q", last, want)
	}
}

func TestCheckoutLastUnitNeverOversells(t *testing.T) {
	db := newTestDB(t)
	p := NewProcessor(db)
	item := seedItem(t, db, "Lamp", 1, 200, 350)

	req := CheckoutRequest{
		CustomerName:  "First",
		PaymentMethod: "cash",
		Items:         []LineRequest{{ItemID: item.ID, Quantity: 1}},
	}
	if _, err := p.Checkout(context.Background(), req); err != nil {
		t.Fatalf("first checkout: %v", err)
	}

	_, err := p.Checkout(context.Background(), req)
	var ise *InsufficientStockError
	var cce *ConcurrencyConflictError
	if !errors.As(err, &ise) && !errors.As(err, &cce) {
		t.Fatalf("err = %v, want insufficient stock or conflict", err)
	}

	var after models.Item
	db.First(&after, item.ID)
	if after.Quantity != 0 {
		t.Errorf("stock = %d, want 0 (never negative)", after.Quantity)
	}
	if n := countRows(t, db, &models.Bill{}); n != 1 {
		t.Errorf("bills = %d, want exactly 1", n)
	}
}

func TestConditionalDecrementGuardsAgainstConcurrentChange(t *testing.T) {
	db := newTestDB(t)
	item := seedItem(t, db, "Ghee", 5, 300, 420)

	// Simulate the race the commit-time guard exists for: stock shrinks
	// after the pre-check would have passed.
	res := db.Model(&models.Item{}).
		Where("id = ? AND quantity >= ?", item.ID, 10).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", 10))
	if res.Error != nil {
		t.Fatalf("conditional update: %v", res.Error)
	}
	if res.RowsAffected != 0 {
		t.Fatalf("conditional update applied despite insufficient stock")
	}

	var after models.Item
	db.First(&after, item.ID)
	if after.Quantity != 5 {
		t.Errorf("stock = %d, want 5", after.Quantity)
	}
}
