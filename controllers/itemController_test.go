package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"generalstore-backend/middlewares"
	"generalstore-backend/models"

	"github.com/gofiber/fiber/v2"
)

func newItemApp(t *testing.T) (*fiber.App, *ItemController) {
	t.Helper()
	db := newTestDB(t)
	ic := NewItemController(db)

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Post("/api/items", ic.CreateItem)
	app.Get("/api/items", ic.GetItems)
	app.Get("/api/items/categories", ic.GetCategories)
	app.Get("/api/items/low-stock", ic.GetLowStockItems)
	app.Get("/api/items/:id", ic.GetItem)
	app.Put("/api/items/:id", ic.UpdateItem)
	app.Put("/api/items/:id/stock", ic.UpdateItemStock)
	return app, ic
}

func TestCreateItemValidatesMargin(t *testing.T) {
	app, _ := newItemApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/items", fiber.Map{
		"name": "Rice", "category": "grocery", "quantity": 10,
		"cost_price": 80.0, "selling_price": 50.0,
	})
	if resp.StatusCode != fiber.StatusUnprocessableEntity {
		t.Errorf("selling <= cost: status %d, want 422", resp.StatusCode)
	}

	resp, body := doJSON(t, app, "POST", "/api/items", fiber.Map{
		"name": "  Rice  ", "category": "grocery", "quantity": 10,
		"cost_price": 50.0, "selling_price": 80.0,
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	item := body["item"].(map[string]any)
	if item["name"] != "Rice" {
		t.Errorf("name not trimmed: %q", item["name"])
	}
}

func TestUpdateItemPartialPatch(t *testing.T) {
	app, ic := newItemApp(t)

	item := models.Item{Name: "Sugar", Category: "grocery", Quantity: 5, CostPrice: 30, SellingPrice: 45}
	if err := ic.db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, app, "PUT", "/api/items/1", fiber.Map{"selling_price": 48.0})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d, body = %v", resp.StatusCode, body)
	}
	updated := body["item"].(map[string]any)
	if updated["selling_price"] != float64(48) {
		t.Errorf("selling_price = %v", updated["selling_price"])
	}
	if updated["cost_price"] != float64(30) || updated["quantity"] != float64(5) {
		t.Errorf("untouched fields changed: %v", updated)
	}

	resp, _ = doJSON(t, app, "PUT", "/api/items/1", fiber.Map{"cost_price": 50.0, "selling_price": 40.0})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("inverted margin: status %d, want 400", resp.StatusCode)
	}

	resp, _ = doJSON(t, app, "PUT", "/api/items/999", fiber.Map{"quantity": 1})
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("missing item: status %d, want 404", resp.StatusCode)
	}
}

func TestUpdateItemStock(t *testing.T) {
	app, ic := newItemApp(t)

	item := models.Item{Name: "Soap", Category: "toiletries", Quantity: 3, CostPrice: 20, SellingPrice: 35}
	if err := ic.db.Create(&item).Error; err != nil {
		t.Fatal(err)
	}

	resp, body := doJSON(t, app, "PUT", "/api/items/1/stock", fiber.Map{"quantity": 5, "type": "add"})
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("add: status %d, body %v", resp.StatusCode, body)
	}
	if body["item"].(map[string]any)["quantity"] != float64(8) {
		t.Errorf("quantity after add = %v, want 8", body["item"].(map[string]any)["quantity"])
	}

	resp, _ = doJSON(t, app, "PUT", "/api/items/1/stock", fiber.Map{"quantity": 20, "type": "remove"})
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("over-removal: status %d, want 400", resp.StatusCode)
	}
	var after models.Item
	ic.db.First(&after, item.ID)
	if after.Quantity != 8 {
		t.Errorf("quantity after rejected removal = %d, want 8", after.Quantity)
	}

	resp, _ = doJSON(t, app, "PUT", "/api/items/1/stock", fiber.Map{"quantity": 8, "type": "remove"})
	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("exact removal: status %d, want 200", resp.StatusCode)
	}
}

func TestGetLowStockItemsWarningLevels(t *testing.T) {
	app, ic := newItemApp(t)

	items := []models.Item{
		{Name: "Out", Category: "a", Quantity: 0, CostPrice: 1, SellingPrice: 2},
		{Name: "Almost", Category: "a", Quantity: 2, CostPrice: 1, SellingPrice: 2},
		{Name: "Low", Category: "a", Quantity: 4, CostPrice: 1, SellingPrice: 2},
		{Name: "Fine", Category: "a", Quantity: 50, CostPrice: 1, SellingPrice: 2},
	}
	if err := ic.db.Create(&items).Error; err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/items/low-stock", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}

	if len(out) != 3 {
		t.Fatalf("items = %d, want 3 (threshold 4)", len(out))
	}
	levels := map[string]string{}
	for _, row := range out {
		levels[row["name"].(string)] = row["warningLevel"].(string)
	}
	want := map[string]string{"Out": "critical", "Almost": "high", "Low": "medium"}
	for name, level := range want {
		if levels[name] != level {
			t.Errorf("%s warning = %q, want %q", name, levels[name], level)
		}
	}
}

func TestGetCategories(t *testing.T) {
	app, ic := newItemApp(t)

	items := []models.Item{
		{Name: "A", Category: "grocery", CostPrice: 1, SellingPrice: 2},
		{Name: "B", Category: "grocery", CostPrice: 1, SellingPrice: 2},
		{Name: "C", Category: "dairy", CostPrice: 1, SellingPrice: 2},
	}
	if err := ic.db.Create(&items).Error; err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/api/items/categories", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	raw, _ := io.ReadAll(resp.Body)
	var categories []string
	if err := json.Unmarshal(raw, &categories); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	if len(categories) != 2 || categories[0] != "dairy" || categories[1] != "grocery" {
		t.Errorf("categories = %v", categories)
	}
}
