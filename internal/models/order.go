package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending        = "pending"
	OrderStatusConfirmed      = "confirmed"
	OrderStatusProcessing     = "processing"
	OrderStatusShipped        = "shipped"
	OrderStatusOutForDelivery = "out_for_delivery"
	OrderStatusDelivered      = "delivered"
	OrderStatusCancelled      = "cancelled"
	OrderStatusReturned       = "returned"
)

const (
	PaymentStatusPending  = "pending"
	PaymentStatusPaid     = "paid"
	PaymentStatusFailed   = "failed"
	PaymentStatusRefunded = "refunded"
)

// orderStatusRank orders the forward fulfilment path. Cancelled and returned
// sit outside the rank and are handled explicitly in CanTransitionTo.
var orderStatusRank = map[string]int{
	OrderStatusPending:        0,
	OrderStatusConfirmed:      1,
	OrderStatusProcessing:     2,
	OrderStatusShipped:        3,
	OrderStatusOutForDelivery: 4,
	OrderStatusDelivered:      5,
}

var paymentMethods = map[string]struct{}{
	"card":       {},
	"cod":        {},
	"upi":        {},
	"netbanking": {},
}

func IsValidOrderStatus(status string) bool {
	if _, ok := orderStatusRank[status]; ok {
		return true
	}
	return status == OrderStatusCancelled || status == OrderStatusReturned
}

func IsValidPaymentMethod(method string) bool {
	_, ok := paymentMethods[method]
	return ok
}

// StatusTransitionError reports a rejected order-status change.
type StatusTransitionError struct {
	From string
	To   string
}

func (e StatusTransitionError) Error() string {
	return fmt.Sprintf("cannot change order status from %s to %s", e.From, e.To)
}

// OrderItem is a snapshotted purchase line. Product keeps the catalog
// reference; name, image and price are copied so the order stays valid even
// if the product later changes or is removed.
type OrderItem struct {
	Product      primitive.ObjectID `bson:"product" json:"product"`
	ProductName  string             `bson:"productName" json:"productName"`
	ProductImage string             `bson:"productImage,omitempty" json:"productImage,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Price        float64            `bson:"price" json:"price"`
	Subtotal     float64            `bson:"subtotal" json:"subtotal"`
}

type ShippingAddress struct {
	FullName   string `bson:"fullName" json:"fullName"`
	Address    string `bson:"address" json:"address"`
	City       string `bson:"city" json:"city"`
	State      string `bson:"state" json:"state"`
	PostalCode string `bson:"postalCode" json:"postalCode"`
	Country    string `bson:"country" json:"country"`
	Phone      string `bson:"phone" json:"phone"`
}

// StatusHistoryEntry is one line of the append-only status audit log.
type StatusHistoryEntry struct {
	Status         string              `bson:"status" json:"status"`
	Timestamp      time.Time           `bson:"timestamp" json:"timestamp"`
	Comment        string              `bson:"comment,omitempty" json:"comment,omitempty"`
	UpdatedBy      *primitive.ObjectID `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedByModel string              `bson:"updatedByModel,omitempty" json:"updatedByModel,omitempty"`
}

type Order struct {
	ID                 primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	OrderNumber        string               `bson:"orderNumber,omitempty" json:"orderNumber"`
	User               primitive.ObjectID   `bson:"user" json:"user"`
	Items              []OrderItem          `bson:"items" json:"items"`
	ShippingAddress    ShippingAddress      `bson:"shippingAddress" json:"shippingAddress"`
	PaymentMethod      string               `bson:"paymentMethod" json:"paymentMethod"`
	PaymentStatus      string               `bson:"paymentStatus" json:"paymentStatus"`
	OrderStatus        string               `bson:"orderStatus" json:"orderStatus"`
	Subtotal           float64              `bson:"subtotal" json:"subtotal"`
	Tax                float64              `bson:"tax" json:"tax"`
	ShippingCost       float64              `bson:"shippingCost" json:"shippingCost"`
	Total              float64              `bson:"total" json:"total"`
	Currency           string               `bson:"currency" json:"currency"`
	Notes              string               `bson:"notes,omitempty" json:"notes,omitempty"`
	TrackingNumber     string               `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty"`
	EstimatedDelivery  *time.Time           `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	DeliveredAt        *time.Time           `bson:"deliveredAt,omitempty" json:"deliveredAt,omitempty"`
	CancelledAt        *time.Time           `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancellationReason string               `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	StatusHistory      []StatusHistoryEntry `bson:"statusHistory" json:"statusHistory"`
	CreatedAt          time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// IsTerminal reports whether no further status change is possible.
func (o *Order) IsTerminal() bool {
	return o.OrderStatus == OrderStatusDelivered ||
		o.OrderStatus == OrderStatusCancelled ||
		o.OrderStatus == OrderStatusReturned
}

// CanCancel reports whether the order may still be cancelled. Once the
// order has moved past confirmation, goods are on their way and the cancel
// path is closed.
func (o *Order) CanCancel() bool {
	return o.OrderStatus == OrderStatusPending || o.OrderStatus == OrderStatusConfirmed
}

// CanTransitionTo validates a status change. The fulfilment path only moves
// forward; cancelled is reachable from pending/confirmed, returned from
// shipped onwards.
func (o *Order) CanTransitionTo(status string) bool {
	if !IsValidOrderStatus(status) || status == o.OrderStatus {
		return false
	}

	switch status {
	case OrderStatusCancelled:
		return o.CanCancel()
	case OrderStatusReturned:
		return orderStatusRank[o.OrderStatus] >= orderStatusRank[OrderStatusShipped]
	}

	if o.OrderStatus == OrderStatusCancelled || o.OrderStatus == OrderStatusReturned {
		return false
	}

	return orderStatusRank[status] > orderStatusRank[o.OrderStatus]
}

// UpdateStatus advances the state machine, stamps deliveredAt/cancelledAt
// and appends to the status history. The history is append-only: every
// transition, including the terminal one, leaves an entry.
func (o *Order) UpdateStatus(status, comment string, updatedBy primitive.ObjectID, updatedByModel string) error {
	if !o.CanTransitionTo(status) {
		return StatusTransitionError{From: o.OrderStatus, To: status}
	}

	now := time.Now()
	o.OrderStatus = status
	o.UpdatedAt = now

	switch status {
	case OrderStatusDelivered:
		o.DeliveredAt = &now
	case OrderStatusCancelled:
		o.CancelledAt = &now
	}

	if comment == "" {
		comment = "Status changed to " + status
	}

	o.StatusHistory = append(o.StatusHistory, StatusHistoryEntry{
		Status:         status,
		Timestamp:      now,
		Comment:        comment,
		UpdatedBy:      &updatedBy,
		UpdatedByModel: updatedByModel,
	})

	return nil
}

// CalculateTotals derives subtotal from the item lines and total from the
// subtotal plus tax and shipping.
func (o *Order) CalculateTotals() {
	subtotal := 0.0
	for _, item := range o.Items {
		subtotal += item.Subtotal
	}
	o.Subtotal = subtotal
	o.Total = subtotal + o.Tax + o.ShippingCost
}
