package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Specifications holds the free-form physical details shown on a product page.
type Specifications struct {
	Material   string `bson:"material,omitempty" json:"material,omitempty"`
	Dimensions string `bson:"dimensions,omitempty" json:"dimensions,omitempty"`
	Weight     string `bson:"weight,omitempty" json:"weight,omitempty"`
	Finish     string `bson:"finish,omitempty" json:"finish,omitempty"`
}

type Product struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Description    string             `bson:"description,omitempty" json:"description,omitempty"`
	Price          float64            `bson:"price" json:"price"`
	Category       string             `bson:"category" json:"category"`
	Image          string             `bson:"image,omitempty" json:"image,omitempty"`
	InStock        bool               `bson:"inStock" json:"inStock"`
	StockQuantity  int                `bson:"stockQuantity" json:"stockQuantity"`
	Specifications Specifications     `bson:"specifications,omitempty" json:"specifications,omitempty"`
	IsActive       bool               `bson:"isActive" json:"isActive"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CanFulfill reports whether quantity units can currently be sold.
func (p *Product) CanFulfill(quantity int) bool {
	return p.IsActive && p.InStock && p.StockQuantity >= quantity
}
