package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func assertCartInvariants(t *testing.T, c *Cart) {
	t.Helper()

	totalItems := 0
	totalAmount := 0.0
	for _, item := range c.Items {
		if got, want := item.Subtotal, float64(item.Quantity)*item.ProductPrice; got != want {
			t.Fatalf("line subtotal for %s = %v, want %v", item.ProductName, got, want)
		}
		totalItems += item.Quantity
		totalAmount += item.Subtotal
	}
	if c.TotalItems != totalItems {
		t.Fatalf("totalItems = %d, want %d", c.TotalItems, totalItems)
	}
	if c.TotalAmount != totalAmount {
		t.Fatalf("totalAmount = %v, want %v", c.TotalAmount, totalAmount)
	}
}

func testProduct(name string, price float64) *Product {
	return &Product{
		ID:            primitive.NewObjectID(),
		Name:          name,
		Price:         price,
		Image:         "/uploads/products/" + name + ".jpg",
		InStock:       true,
		StockQuantity: 100,
		IsActive:      true,
	}
}

func TestCartAddItemSnapshotsProduct(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := testProduct("Brass Elbow Fitting", 35.99)

	cart.AddItem(product, 2)
	assertCartInvariants(t, cart)

	if len(cart.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(cart.Items))
	}
	line := cart.Items[0]
	if line.ProductName != product.Name || line.ProductPrice != product.Price || line.ProductImage != product.Image {
		t.Fatalf("line did not snapshot product fields: %+v", line)
	}

	// A later price change must not touch the existing line.
	product.Price = 99
	if cart.Items[0].ProductPrice != 35.99 {
		t.Fatalf("snapshot price changed with the catalog: %v", cart.Items[0].ProductPrice)
	}
}

func TestCartAddItemMergesExistingLine(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := testProduct("Brass Tee Fitting", 42.50)

	cart.AddItem(product, 1)
	cart.AddItem(product, 3)
	assertCartInvariants(t, cart)

	if len(cart.Items) != 1 {
		t.Fatalf("expected merged line, got %d lines", len(cart.Items))
	}
	if cart.Items[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", cart.Items[0].Quantity)
	}
	if cart.TotalAmount != 4*42.50 {
		t.Fatalf("totalAmount = %v, want %v", cart.TotalAmount, 4*42.50)
	}
}

func TestCartTotalsAcrossMutationSequence(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	a := testProduct("Cable Gland M20", 50)
	b := testProduct("Brass Screw M4", 30)
	d := testProduct("Coupling", 28.75)

	cart.AddItem(a, 2)
	assertCartInvariants(t, cart)
	cart.AddItem(b, 1)
	assertCartInvariants(t, cart)
	cart.AddItem(d, 5)
	assertCartInvariants(t, cart)

	if err := cart.UpdateItemQuantity(d.ID, 2); err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	assertCartInvariants(t, cart)

	cart.RemoveItem(b.ID)
	assertCartInvariants(t, cart)

	if cart.TotalItems != 4 {
		t.Fatalf("totalItems = %d, want 4", cart.TotalItems)
	}
	if cart.TotalAmount != 2*50+2*28.75 {
		t.Fatalf("totalAmount = %v, want %v", cart.TotalAmount, 2*50+2*28.75)
	}
}

func TestCartUpdateQuantityZeroRemovesLine(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := testProduct("Brass Nut", 5)

	cart.AddItem(product, 3)
	if err := cart.UpdateItemQuantity(product.ID, 0); err != nil {
		t.Fatalf("update to zero failed: %v", err)
	}
	assertCartInvariants(t, cart)

	if len(cart.Items) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(cart.Items))
	}

	cart.AddItem(product, 3)
	if err := cart.UpdateItemQuantity(product.ID, -2); err != nil {
		t.Fatalf("update to negative failed: %v", err)
	}
	if len(cart.Items) != 0 {
		t.Fatal("negative quantity should remove the line")
	}
}

func TestCartUpdateQuantityUnknownProduct(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	cart.AddItem(testProduct("Brass Washer", 2), 1)

	err := cart.UpdateItemQuantity(primitive.NewObjectID(), 2)
	if err != ErrCartItemNotFound {
		t.Fatalf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestCartRemoveItemIdempotent(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	product := testProduct("Brass Hinge", 12)
	cart.AddItem(product, 2)

	cart.RemoveItem(product.ID)
	cart.RemoveItem(product.ID)
	assertCartInvariants(t, cart)

	if len(cart.Items) != 0 || cart.TotalItems != 0 || cart.TotalAmount != 0 {
		t.Fatalf("expected empty cart after double remove: %+v", cart)
	}
}

func TestCartClearIdempotent(t *testing.T) {
	cart := NewCart(primitive.NewObjectID())
	cart.AddItem(testProduct("Brass Valve", 80), 2)

	cart.Clear()
	if len(cart.Items) != 0 || cart.TotalItems != 0 || cart.TotalAmount != 0 {
		t.Fatalf("cart not empty after clear: %+v", cart)
	}

	cart.Clear()
	if len(cart.Items) != 0 || cart.TotalItems != 0 || cart.TotalAmount != 0 {
		t.Fatalf("second clear changed state: %+v", cart)
	}
	if cart.Items == nil {
		t.Fatal("items should stay a non-nil empty slice")
	}
}
