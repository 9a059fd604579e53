package handlers

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"premierparts-backend/internal/models"
)

func TestOrderNumberPatterns(t *testing.T) {
	if !orderSeqPattern.MatchString("PP-20260901-0042") {
		t.Fatal("expected sequence pattern to match a daily order number")
	}
	if orderSeqPattern.MatchString("PP-20260901-42") {
		t.Fatal("sequence must be zero-padded to four digits")
	}

	m := orderSeqPattern.FindStringSubmatch("PP-20260901-0042")
	if m == nil || m[1] != "0042" {
		t.Fatalf("expected to extract sequence 0042, got %v", m)
	}
}

func TestFallbackOrderNumber(t *testing.T) {
	now := time.UnixMilli(1756700000000)
	got := fallbackOrderNumber(now)
	if !regexp.MustCompile(`^PP-\d+$`).MatchString(got) {
		t.Fatalf("unexpected fallback order number: %s", got)
	}
	if got != "PP-1756700000000" {
		t.Fatalf("expected PP-1756700000000, got %s", got)
	}
}

func checkoutFixture(t *testing.T) ([]models.CartItem, map[primitive.ObjectID]*models.Product) {
	t.Helper()

	glandID := primitive.NewObjectID()
	boltID := primitive.NewObjectID()

	cartItems := []models.CartItem{
		{ProductID: glandID, ProductName: "Brass Cable Gland M20", ProductPrice: 50, Quantity: 2, Subtotal: 100},
		{ProductID: boltID, ProductName: "Hex Bolt", ProductPrice: 30, Quantity: 1, Subtotal: 30},
	}

	products := map[primitive.ObjectID]*models.Product{
		glandID: {ID: glandID, Name: "Brass Cable Gland M20", Price: 50, InStock: true, StockQuantity: 10, IsActive: true},
		boltID:  {ID: boltID, Name: "Hex Bolt", Price: 30, InStock: true, StockQuantity: 5, IsActive: true},
	}

	return cartItems, products
}

func TestBuildOrderItemsSnapshotsCartPrices(t *testing.T) {
	cartItems, products := checkoutFixture(t)

	// catalog price moved after the item went into the cart
	products[cartItems[0].ProductID].Price = 75

	items, err := buildOrderItems(cartItems, products)
	if err != nil {
		t.Fatalf("buildOrderItems returned error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(items))
	}

	if items[0].Price != 50 {
		t.Fatalf("expected cart snapshot price 50, got %v", items[0].Price)
	}
	if items[0].Subtotal != 100 {
		t.Fatalf("expected line subtotal 100, got %v", items[0].Subtotal)
	}

	total := items[0].Subtotal + items[1].Subtotal
	if total != 130 {
		t.Fatalf("expected order subtotal 130, got %v", total)
	}
}

func TestBuildOrderItemsRejectsInsufficientStock(t *testing.T) {
	cartItems, products := checkoutFixture(t)
	products[cartItems[0].ProductID].StockQuantity = 1

	_, err := buildOrderItems(cartItems, products)
	var stockErr insufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficientStockError, got %v", err)
	}
	if stockErr.Available != 1 || stockErr.Requested != 2 {
		t.Fatalf("unexpected stock error detail: %+v", stockErr)
	}
}

func TestBuildOrderItemsRejectsInactiveProduct(t *testing.T) {
	cartItems, products := checkoutFixture(t)
	products[cartItems[1].ProductID].IsActive = false

	_, err := buildOrderItems(cartItems, products)
	var unavailableErr productUnavailableError
	if !errors.As(err, &unavailableErr) {
		t.Fatalf("expected productUnavailableError, got %v", err)
	}
	if unavailableErr.ProductName != "Hex Bolt" {
		t.Fatalf("unexpected product in error: %+v", unavailableErr)
	}
}

func TestRestockIncrementsInvertCheckoutDecrement(t *testing.T) {
	cartItems, products := checkoutFixture(t)

	items, err := buildOrderItems(cartItems, products)
	if err != nil {
		t.Fatalf("buildOrderItems returned error: %v", err)
	}

	// checkout took 2 glands and 1 bolt out of stocks of 10 and 5
	stock := map[primitive.ObjectID]int{}
	for _, item := range items {
		stock[item.Product] = products[item.Product].StockQuantity - item.Quantity
	}
	if stock[cartItems[0].ProductID] != 8 || stock[cartItems[1].ProductID] != 4 {
		t.Fatalf("unexpected post-checkout stock: %v", stock)
	}

	for productID, quantity := range restockIncrements(items) {
		stock[productID] += quantity
	}

	if stock[cartItems[0].ProductID] != 10 {
		t.Fatalf("expected gland stock restored to 10, got %d", stock[cartItems[0].ProductID])
	}
	if stock[cartItems[1].ProductID] != 5 {
		t.Fatalf("expected bolt stock restored to 5, got %d", stock[cartItems[1].ProductID])
	}
}

func TestCancellationReasonDefaultsWhenEmpty(t *testing.T) {
	if got := cancellationReasonOrDefault(""); got != "Cancelled by customer" {
		t.Fatalf("expected default reason, got %q", got)
	}
	if got := cancellationReasonOrDefault("   "); got != "Cancelled by customer" {
		t.Fatalf("expected default reason for blank input, got %q", got)
	}
	if got := cancellationReasonOrDefault("  changed my mind  "); got != "changed my mind" {
		t.Fatalf("expected trimmed caller reason, got %q", got)
	}
}

func TestRestockIncrementsSumRepeatedProduct(t *testing.T) {
	productID := primitive.NewObjectID()
	items := []models.OrderItem{
		{Product: productID, Quantity: 2},
		{Product: productID, Quantity: 3},
	}

	increments := restockIncrements(items)
	if len(increments) != 1 {
		t.Fatalf("expected a single increment entry, got %d", len(increments))
	}
	if increments[productID] != 5 {
		t.Fatalf("expected summed increment 5, got %d", increments[productID])
	}
}

func TestBuildOrderItemsRejectsMissingProduct(t *testing.T) {
	cartItems, products := checkoutFixture(t)
	delete(products, cartItems[0].ProductID)

	_, err := buildOrderItems(cartItems, products)
	var unavailableErr productUnavailableError
	if !errors.As(err, &unavailableErr) {
		t.Fatalf("expected productUnavailableError, got %v", err)
	}
}
