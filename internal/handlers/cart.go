package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"premierparts-backend/internal/models"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

// errCartConflict signals a lost optimistic version race; the mutation is
// replayed against a fresh document.
var errCartConflict = errors.New("cart version conflict")

const cartSaveRetries = 3

/* =========================
   CART PERSISTENCE
========================= */

func loadOrCreateCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (*models.Cart, error) {
	var cart models.Cart
	err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
	if err == nil {
		return &cart, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	fresh := models.NewCart(userID)
	res, err := db.Collection("carts").InsertOne(ctx, fresh)
	if err != nil {
		// Two first-reads can race on the unique userId index; the loser
		// picks up the winner's document.
		if mongo.IsDuplicateKeyError(err) {
			if err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart); err != nil {
				return nil, err
			}
			return &cart, nil
		}
		return nil, err
	}

	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		fresh.ID = id
	}
	return fresh, nil
}

// saveCart writes the cart back only if nobody else has written it since it
// was read. A concurrent writer bumps version and the replace matches nothing.
func saveCart(ctx context.Context, db *mongo.Database, cart *models.Cart) error {
	readVersion := cart.Version
	cart.Version = readVersion + 1

	res, err := db.Collection("carts").ReplaceOne(ctx, bson.M{
		"_id":     cart.ID,
		"version": readVersion,
	}, cart)
	if err != nil {
		cart.Version = readVersion
		return err
	}
	if res.MatchedCount == 0 {
		cart.Version = readVersion
		return errCartConflict
	}
	return nil
}

// mutateCart runs mutate against the user's current cart and saves with the
// optimistic version check, replaying on conflict. This serializes concurrent
// cart writes for the same user instead of last-write-wins.
func mutateCart(ctx context.Context, db *mongo.Database, userID primitive.ObjectID, mutate func(*models.Cart) error) (*models.Cart, error) {
	var lastErr error
	for attempt := 0; attempt < cartSaveRetries; attempt++ {
		cart, err := loadOrCreateCart(ctx, db, userID)
		if err != nil {
			return nil, err
		}

		if err := mutate(cart); err != nil {
			return nil, err
		}

		if err := saveCart(ctx, db, cart); err != nil {
			if errors.Is(err, errCartConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return cart, nil
	}
	return nil, lastErr
}

func cartPayload(cart *models.Cart) gin.H {
	return gin.H{
		"id":          cart.ID.Hex(),
		"userId":      cart.UserID.Hex(),
		"items":       cart.Items,
		"totalAmount": cart.TotalAmount,
		"totalItems":  cart.TotalItems,
		"lastUpdated": cart.LastUpdated,
	}
}

/* =========================
   HANDLERS
========================= */

func GetCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := loadOrCreateCart(ctx, db, userID)
		if err != nil {
			log.Println("[CART] [ERROR] get cart failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cartPayload(cart)})
	}
}

func AddToCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/cart/add"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		var req addToCartRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		if req.Quantity < 1 {
			respondWithError(c, http.StatusBadRequest, route, "Quantity must be at least 1")
			return
		}

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
			if err == mongo.ErrNoDocuments {
				respondWithError(c, http.StatusNotFound, route, "Product not found")
				return
			}
			log.Println("[CART] [ERROR] product lookup failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error adding item to cart")
			return
		}

		if !product.IsActive || !product.InStock {
			respondWithError(c, http.StatusBadRequest, route, "Product is not available")
			return
		}

		// The stock check covers the merged line quantity, so repeatedly
		// adding a product cannot grow the line past available stock.
		cart, err := mutateCart(ctx, db, userID, func(cart *models.Cart) error {
			wanted := req.Quantity
			for _, item := range cart.Items {
				if item.ProductID == product.ID {
					wanted += item.Quantity
					break
				}
			}
			if product.StockQuantity < wanted {
				return insufficientStockError{
					ProductName: product.Name,
					Available:   product.StockQuantity,
					Requested:   wanted,
				}
			}
			cart.AddItem(&product, req.Quantity)
			return nil
		})
		if err != nil {
			var stockErr insufficientStockError
			if errors.As(err, &stockErr) {
				respondWithError(c, http.StatusBadRequest, route,
					fmt.Sprintf("Only %d items available in stock", stockErr.Available))
				return
			}
			log.Println("[CART] [ERROR] add to cart failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error adding item to cart")
			return
		}

		log.Printf("[CART] [INFO] item added for user %s: %s x%d", userID.Hex(), product.Name, req.Quantity)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Item added to cart successfully",
			"cart":    cartPayload(cart),
		})
	}
}

func UpdateCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/cart/update"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		var req updateCartItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
		quantity := *req.Quantity

		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		// Stock is validated here against the live product; the cart itself
		// only re-snapshots quantity and subtotal.
		if quantity > 0 {
			var product models.Product
			err := db.Collection("products").FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
			if err == nil && product.StockQuantity < quantity {
				respondWithError(c, http.StatusBadRequest, route,
					fmt.Sprintf("Only %d items available in stock", product.StockQuantity))
				return
			}
			if err != nil && err != mongo.ErrNoDocuments {
				log.Println("[CART] [ERROR] product lookup failed:", err)
				respondWithError(c, http.StatusInternalServerError, route, "Error updating cart")
				return
			}
		}

		cart, err := mutateCart(ctx, db, userID, func(cart *models.Cart) error {
			if quantity <= 0 {
				cart.RemoveItem(productID)
				return nil
			}
			return cart.UpdateItemQuantity(productID, quantity)
		})
		if err != nil {
			if errors.Is(err, models.ErrCartItemNotFound) {
				respondWithError(c, http.StatusNotFound, route, "Item not found in cart")
				return
			}
			log.Println("[CART] [ERROR] update cart failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating cart")
			return
		}

		log.Printf("[CART] [INFO] cart updated for user %s: totalItems=%d totalAmount=%.2f",
			userID.Hex(), cart.TotalItems, cart.TotalAmount)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Cart updated successfully",
			"cart":    cartPayload(cart),
		})
	}
}

func RemoveCartItem(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/remove"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		productID, err := primitive.ObjectIDFromHex(c.Param("productId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := mutateCart(ctx, db, userID, func(cart *models.Cart) error {
			cart.RemoveItem(productID)
			return nil
		})
		if err != nil {
			log.Println("[CART] [ERROR] remove item failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error removing item from cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Item removed from cart successfully",
			"cart":    cartPayload(cart),
		})
	}
}

func ClearCart(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/cart/clear"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cart, err := mutateCart(ctx, db, userID, func(cart *models.Cart) error {
			cart.Clear()
			return nil
		})
		if err != nil {
			log.Println("[CART] [ERROR] clear cart failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error clearing cart")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Cart cleared successfully",
			"cart":    cartPayload(cart),
		})
	}
}

// GetCartCount backs the navbar badge; an absent cart counts as zero.
func GetCartCount(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/cart/count"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		count := 0
		var cart models.Cart
		err := db.Collection("carts").FindOne(ctx, bson.M{"userId": userID}).Decode(&cart)
		if err == nil {
			count = cart.TotalItems
		} else if err != mongo.ErrNoDocuments {
			log.Println("[CART] [ERROR] cart count failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error getting cart count")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "count": count})
	}
}
