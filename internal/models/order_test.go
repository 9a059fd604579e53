package models

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func pendingOrder() *Order {
	now := time.Now()
	return &Order{
		User: primitive.NewObjectID(),
		Items: []OrderItem{
			{Product: primitive.NewObjectID(), ProductName: "Cable Gland M20", Quantity: 2, Price: 50, Subtotal: 100},
			{Product: primitive.NewObjectID(), ProductName: "Brass Screw M4", Quantity: 1, Price: 30, Subtotal: 30},
		},
		PaymentMethod: "cod",
		PaymentStatus: PaymentStatusPending,
		OrderStatus:   OrderStatusPending,
		Currency:      "INR",
		StatusHistory: []StatusHistoryEntry{
			{Status: OrderStatusPending, Timestamp: now, Comment: "Order placed successfully"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCalculateTotals(t *testing.T) {
	order := pendingOrder()
	order.Tax = 0
	order.ShippingCost = 0
	order.CalculateTotals()

	if order.Subtotal != 130 {
		t.Fatalf("subtotal = %v, want 130", order.Subtotal)
	}
	if order.Total != order.Subtotal+order.Tax+order.ShippingCost {
		t.Fatalf("total = %v, want %v", order.Total, order.Subtotal+order.Tax+order.ShippingCost)
	}

	order.Tax = 13
	order.ShippingCost = 25
	order.CalculateTotals()
	if order.Total != 130+13+25 {
		t.Fatalf("total with tax and shipping = %v, want %v", order.Total, 130+13+25)
	}
}

func TestUpdateStatusAppendsHistory(t *testing.T) {
	order := pendingOrder()
	admin := primitive.NewObjectID()

	for _, status := range []string{
		OrderStatusConfirmed,
		OrderStatusProcessing,
		OrderStatusShipped,
		OrderStatusOutForDelivery,
		OrderStatusDelivered,
	} {
		if err := order.UpdateStatus(status, "", admin, "Admin"); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}

	if len(order.StatusHistory) != 6 {
		t.Fatalf("expected 6 history entries, got %d", len(order.StatusHistory))
	}
	last := order.StatusHistory[len(order.StatusHistory)-1]
	if last.Status != OrderStatusDelivered {
		t.Fatalf("last history entry = %s, want delivered", last.Status)
	}
	if last.UpdatedBy == nil || *last.UpdatedBy != admin || last.UpdatedByModel != "Admin" {
		t.Fatalf("actor not recorded: %+v", last)
	}
	if order.DeliveredAt == nil {
		t.Fatal("deliveredAt not stamped")
	}
}

func TestUpdateStatusRejectsBackwardTransition(t *testing.T) {
	order := pendingOrder()
	actor := primitive.NewObjectID()

	if err := order.UpdateStatus(OrderStatusShipped, "", actor, "Admin"); err != nil {
		t.Fatalf("forward transition failed: %v", err)
	}

	err := order.UpdateStatus(OrderStatusConfirmed, "", actor, "Admin")
	var transitionErr StatusTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected StatusTransitionError, got %v", err)
	}
	if order.OrderStatus != OrderStatusShipped {
		t.Fatalf("status changed on rejected transition: %s", order.OrderStatus)
	}
	if len(order.StatusHistory) != 2 {
		t.Fatalf("history grew on rejected transition: %d entries", len(order.StatusHistory))
	}
}

func TestCancelOnlyFromPendingOrConfirmed(t *testing.T) {
	order := pendingOrder()
	if !order.CanCancel() {
		t.Fatal("pending order should be cancellable")
	}

	actor := primitive.NewObjectID()
	if err := order.UpdateStatus(OrderStatusConfirmed, "", actor, "Admin"); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if !order.CanCancel() {
		t.Fatal("confirmed order should be cancellable")
	}

	if err := order.UpdateStatus(OrderStatusShipped, "", actor, "Admin"); err != nil {
		t.Fatalf("ship failed: %v", err)
	}
	if order.CanCancel() {
		t.Fatal("shipped order must not be cancellable")
	}
	if err := order.UpdateStatus(OrderStatusCancelled, "", actor, "User"); err == nil {
		t.Fatal("cancel from shipped should fail")
	}
}

func TestCancelStampsCancelledAt(t *testing.T) {
	order := pendingOrder()
	user := primitive.NewObjectID()

	if err := order.UpdateStatus(OrderStatusCancelled, "Order cancelled by customer", user, "User"); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if order.CancelledAt == nil {
		t.Fatal("cancelledAt not stamped")
	}
	if !order.IsTerminal() {
		t.Fatal("cancelled order should be terminal")
	}
	if err := order.UpdateStatus(OrderStatusConfirmed, "", user, "Admin"); err == nil {
		t.Fatal("transition out of cancelled should fail")
	}
}

func TestReturnedReachableAfterShipment(t *testing.T) {
	order := pendingOrder()
	actor := primitive.NewObjectID()

	if err := order.UpdateStatus(OrderStatusReturned, "", actor, "Admin"); err == nil {
		t.Fatal("returned should not be reachable from pending")
	}

	for _, status := range []string{OrderStatusConfirmed, OrderStatusProcessing, OrderStatusShipped, OrderStatusOutForDelivery, OrderStatusDelivered} {
		if err := order.UpdateStatus(status, "", actor, "Admin"); err != nil {
			t.Fatalf("transition to %s failed: %v", status, err)
		}
	}
	if err := order.UpdateStatus(OrderStatusReturned, "", actor, "Admin"); err != nil {
		t.Fatalf("return after delivery failed: %v", err)
	}
	if !order.IsTerminal() {
		t.Fatal("returned order should be terminal")
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, method := range []string{"card", "cod", "upi", "netbanking"} {
		if !IsValidPaymentMethod(method) {
			t.Fatalf("%s should be valid", method)
		}
	}
	if IsValidPaymentMethod("cash") || IsValidPaymentMethod("") {
		t.Fatal("unknown payment methods should be rejected")
	}
}
