package models

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrCartItemNotFound is returned when a mutation references a product that
// has no line in the cart.
var ErrCartItemNotFound = errors.New("item not found in cart")

// CartItem is one product line in a user's cart. Name, price and image are
// snapshotted at add-time; later catalog edits do not alter existing lines.
type CartItem struct {
	ProductID    primitive.ObjectID `bson:"productId" json:"productId"`
	ProductName  string             `bson:"productName" json:"productName"`
	ProductPrice float64            `bson:"productPrice" json:"productPrice"`
	ProductImage string             `bson:"productImage,omitempty" json:"productImage,omitempty"`
	Quantity     int                `bson:"quantity" json:"quantity"`
	Subtotal     float64            `bson:"subtotal" json:"subtotal"`
}

// Cart is the single mutable cart document per user. TotalItems and
// TotalAmount are derived from Items on every mutation, never set directly.
// Version backs the optimistic write check in the cart handlers.
type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"userId" json:"userId"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"totalAmount" json:"totalAmount"`
	TotalItems  int                `bson:"totalItems" json:"totalItems"`
	Version     int64              `bson:"version" json:"-"`
	LastUpdated time.Time          `bson:"lastUpdated" json:"lastUpdated"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func NewCart(userID primitive.ObjectID) *Cart {
	now := time.Now()
	return &Cart{
		UserID:      userID,
		Items:       []CartItem{},
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddItem merges quantity into an existing line for the same product, or
// appends a new line snapshotting the product's current name, price and image.
func (c *Cart) AddItem(product *Product, quantity int) {
	for i := range c.Items {
		if c.Items[i].ProductID == product.ID {
			c.Items[i].Quantity += quantity
			c.Items[i].Subtotal = float64(c.Items[i].Quantity) * c.Items[i].ProductPrice
			c.recalculate()
			return
		}
	}

	c.Items = append(c.Items, CartItem{
		ProductID:    product.ID,
		ProductName:  product.Name,
		ProductPrice: product.Price,
		ProductImage: product.Image,
		Quantity:     quantity,
		Subtotal:     float64(quantity) * product.Price,
	})
	c.recalculate()
}

// UpdateItemQuantity sets the quantity of an existing line. A quantity of
// zero or less removes the line entirely; there is no zero-quantity state.
func (c *Cart) UpdateItemQuantity(productID primitive.ObjectID, quantity int) error {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if quantity <= 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
			c.Items[i].Subtotal = float64(quantity) * c.Items[i].ProductPrice
		}
		c.recalculate()
		return nil
	}
	return ErrCartItemNotFound
}

// RemoveItem filters the line out. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID primitive.ObjectID) {
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}
	c.Items = items
	c.recalculate()
}

// Clear empties the cart. Clearing an already-empty cart is a no-op.
func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.recalculate()
}

func (c *Cart) recalculate() {
	totalItems := 0
	totalAmount := 0.0
	for _, item := range c.Items {
		totalItems += item.Quantity
		totalAmount += item.Subtotal
	}
	c.TotalItems = totalItems
	c.TotalAmount = totalAmount
	now := time.Now()
	c.LastUpdated = now
	c.UpdatedAt = now
}
