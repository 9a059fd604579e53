package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"premierparts-backend/internal/config"
	"premierparts-backend/internal/models"
)

/* =========================
   REQUEST DTOs
========================= */

type shippingAddressRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Address    string `json:"address" binding:"required"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state" binding:"required"`
	PostalCode string `json:"postalCode" binding:"required"`
	Country    string `json:"country"`
	Phone      string `json:"phone" binding:"required"`
}

type createOrderRequest struct {
	ShippingAddress shippingAddressRequest `json:"shippingAddress" binding:"required"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Notes           string                 `json:"notes"`
}

type cancelOrderRequest struct {
	Reason string `json:"reason"`
}

/* =========================
   TYPED CHECKOUT ERRORS
========================= */

type insufficientStockError struct {
	ProductName string
	Available   int
	Requested   int
}

func (e insufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available, %d requested", e.ProductName, e.Available, e.Requested)
}

type productUnavailableError struct {
	ProductName string
}

func (e productUnavailableError) Error() string {
	return "product no longer available: " + e.ProductName
}

var errEmptyCart = errors.New("cart is empty")

/* =========================
   ORDER NUMBER
========================= */

var orderSeqPattern = regexp.MustCompile(`^PP-\d{8}-(\d{4})$`)

// nextOrderNumber produces PP-YYYYMMDD-NNNN by reading the highest sequence
// issued today. Two checkouts can race to the same number; the unique index
// catches the loser and it falls back to a timestamp number.
func nextOrderNumber(ctx context.Context, db *mongo.Database, now time.Time) (string, error) {
	day := now.Format("20060102")
	prefix := "PP-" + day + "-"

	opts := options.FindOne().
		SetSort(bson.D{{Key: "orderNumber", Value: -1}}).
		SetProjection(bson.M{"orderNumber": 1})

	var last struct {
		OrderNumber string `bson:"orderNumber"`
	}
	err := db.Collection("orders").FindOne(ctx, bson.M{
		"orderNumber": bson.M{"$regex": "^" + prefix},
	}, opts).Decode(&last)

	seq := 1
	if err == nil {
		if m := orderSeqPattern.FindStringSubmatch(last.OrderNumber); m != nil {
			if n, convErr := strconv.Atoi(m[1]); convErr == nil {
				seq = n + 1
			}
		}
	} else if err != mongo.ErrNoDocuments {
		return "", err
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

func fallbackOrderNumber(now time.Time) string {
	return fmt.Sprintf("PP-%d", now.UnixMilli())
}

/* =========================
   CHECKOUT
========================= */

// buildOrderItems converts cart lines to order lines. Display fields come
// from the cart snapshot so what the customer saw is what the order records;
// availability is judged against the live product.
func buildOrderItems(cartItems []models.CartItem, productByID map[primitive.ObjectID]*models.Product) ([]models.OrderItem, error) {
	items := make([]models.OrderItem, 0, len(cartItems))
	for _, line := range cartItems {
		product, ok := productByID[line.ProductID]
		if !ok || !product.IsActive {
			return nil, productUnavailableError{ProductName: line.ProductName}
		}
		if !product.CanFulfill(line.Quantity) {
			return nil, insufficientStockError{
				ProductName: line.ProductName,
				Available:   product.StockQuantity,
				Requested:   line.Quantity,
			}
		}
		items = append(items, models.OrderItem{
			Product:      line.ProductID,
			ProductName:  line.ProductName,
			ProductImage: line.ProductImage,
			Quantity:     line.Quantity,
			Price:        line.ProductPrice,
			Subtotal:     line.ProductPrice * float64(line.Quantity),
		})
	}
	return items, nil
}

func CreateOrder(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		paymentMethod := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
		if paymentMethod == "" {
			paymentMethod = "cod"
		}
		if !models.IsValidPaymentMethod(paymentMethod) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid payment method")
			return
		}

		country := strings.TrimSpace(req.ShippingAddress.Country)
		if country == "" {
			country = "India"
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[ORDER] [ERROR] starting session failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error creating order")
			return
		}
		defer session.EndSession(ctx)

		now := time.Now()
		var created models.Order
		useFallbackNumber := false

		checkout := func(sessCtx mongo.SessionContext) (interface{}, error) {
			var cart models.Cart
			err := db.Collection("carts").FindOne(sessCtx, bson.M{"userId": userID}).Decode(&cart)
			if err == mongo.ErrNoDocuments || (err == nil && len(cart.Items) == 0) {
				return nil, errEmptyCart
			}
			if err != nil {
				return nil, err
			}

			productByID := make(map[primitive.ObjectID]*models.Product, len(cart.Items))
			for _, line := range cart.Items {
				var product models.Product
				err := db.Collection("products").FindOne(sessCtx, bson.M{"_id": line.ProductID}).Decode(&product)
				if err == mongo.ErrNoDocuments {
					return nil, productUnavailableError{ProductName: line.ProductName}
				}
				if err != nil {
					return nil, err
				}
				productByID[line.ProductID] = &product
			}

			items, err := buildOrderItems(cart.Items, productByID)
			if err != nil {
				return nil, err
			}

			// Conditional decrement: the stock guard in the filter makes the
			// write a no-op when a concurrent checkout got there first.
			for _, item := range items {
				filter := bson.M{
					"_id":           item.Product,
					"stockQuantity": bson.M{"$gte": item.Quantity},
				}
				update := bson.M{
					"$inc": bson.M{"stockQuantity": -item.Quantity},
					"$set": bson.M{"updatedAt": now},
				}
				res, err := db.Collection("products").UpdateOne(sessCtx, filter, update)
				if err != nil {
					return nil, err
				}
				if res.MatchedCount == 0 {
					product := productByID[item.Product]
					return nil, insufficientStockError{
						ProductName: item.ProductName,
						Available:   product.StockQuantity,
						Requested:   item.Quantity,
					}
				}

				_, err = db.Collection("products").UpdateOne(sessCtx,
					bson.M{"_id": item.Product, "stockQuantity": bson.M{"$lte": 0}},
					bson.M{"$set": bson.M{"inStock": false, "updatedAt": now}},
				)
				if err != nil {
					return nil, err
				}
			}

			orderNumber := fallbackOrderNumber(now)
			if !useFallbackNumber {
				orderNumber, err = nextOrderNumber(sessCtx, db, now)
				if err != nil {
					return nil, err
				}
			}

			order := models.Order{
				OrderNumber: orderNumber,
				User:        userID,
				Items:       items,
				ShippingAddress: models.ShippingAddress{
					FullName:   strings.TrimSpace(req.ShippingAddress.FullName),
					Address:    strings.TrimSpace(req.ShippingAddress.Address),
					City:       strings.TrimSpace(req.ShippingAddress.City),
					State:      strings.TrimSpace(req.ShippingAddress.State),
					PostalCode: strings.TrimSpace(req.ShippingAddress.PostalCode),
					Country:    country,
					Phone:      strings.TrimSpace(req.ShippingAddress.Phone),
				},
				PaymentMethod: paymentMethod,
				PaymentStatus: models.PaymentStatusPending,
				OrderStatus:   models.OrderStatusPending,
				ShippingCost:  cfg.ShippingCost,
				Currency:      "INR",
				Notes:         strings.TrimSpace(req.Notes),
				StatusHistory: []models.StatusHistoryEntry{{
					Status:    models.OrderStatusPending,
					Timestamp: now,
					Comment:   "Order placed successfully",
				}},
				CreatedAt: now,
				UpdatedAt: now,
			}
			order.CalculateTotals()
			if cfg.TaxRate > 0 {
				order.Tax = order.Subtotal * cfg.TaxRate
				order.CalculateTotals()
			}

			res, err := db.Collection("orders").InsertOne(sessCtx, order)
			if err != nil {
				return nil, err
			}
			if id, ok := res.InsertedID.(primitive.ObjectID); ok {
				order.ID = id
			}

			cart.Clear()
			cart.Version++
			if _, err := db.Collection("carts").ReplaceOne(sessCtx, bson.M{"_id": cart.ID}, cart); err != nil {
				return nil, err
			}

			created = order
			return nil, nil
		}

		_, err = session.WithTransaction(ctx, checkout)
		if mongo.IsDuplicateKeyError(err) && !useFallbackNumber {
			// Sequence collision with a concurrent checkout. Retry once
			// with a timestamp-based number on a fresh transaction.
			useFallbackNumber = true
			_, err = session.WithTransaction(ctx, checkout)
		}
		if err != nil {
			if errors.Is(err, errEmptyCart) {
				respondWithError(c, http.StatusBadRequest, route, "Cart is empty")
				return
			}
			var stockErr insufficientStockError
			if errors.As(err, &stockErr) {
				respondWithError(c, http.StatusBadRequest, route,
					fmt.Sprintf("Insufficient stock for %s. Only %d available", stockErr.ProductName, stockErr.Available))
				return
			}
			var unavailableErr productUnavailableError
			if errors.As(err, &unavailableErr) {
				respondWithError(c, http.StatusBadRequest, route,
					fmt.Sprintf("%s is no longer available", unavailableErr.ProductName))
				return
			}
			log.Println("[ORDER] [ERROR] checkout transaction failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error creating order")
			return
		}

		log.Printf("[ORDER] [INFO] order %s created for user %s, total %.2f",
			created.OrderNumber, userID.Hex(), created.Total)
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Order placed successfully",
			"order":   created,
		})
	}
}

/* =========================
   LIST / DETAIL
========================= */

func GetUserOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/user"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 10)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid pagination parameters")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		filter := bson.M{"user": userID}
		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ORDER] [ERROR] counting orders failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving orders")
			return
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			log.Println("[ORDER] [ERROR] listing orders failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving orders")
			return
		}
		defer cursor.Close(ctx)

		orders := make([]models.Order, 0)
		if err := cursor.All(ctx, &orders); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving orders")
			return
		}

		pages := totalPages(total, limit)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orders":  orders,
			"pagination": gin.H{
				"currentPage": page,
				"totalPages":  pages,
				"totalOrders": total,
				"hasMore":     page < pages,
			},
		})
	}
}

func GetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/:orderId"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID, "user": userID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Order not found")
			return
		}
		if err != nil {
			log.Println("[ORDER] [ERROR] fetching order failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

/* =========================
   CANCEL
========================= */

// cancellationReasonOrDefault keeps the recorded reason non-empty; a cancel
// without an explicit reason is attributed to the customer.
func cancellationReasonOrDefault(input string) string {
	if reason := strings.TrimSpace(input); reason != "" {
		return reason
	}
	return "Cancelled by customer"
}

// restockIncrements maps each product of a cancelled order to the quantity
// that must be returned to stock, the exact inverse of the checkout
// decrement. Quantities for the same product are summed.
func restockIncrements(items []models.OrderItem) map[primitive.ObjectID]int {
	increments := make(map[primitive.ObjectID]int, len(items))
	for _, item := range items {
		increments[item.Product] += item.Quantity
	}
	return increments
}

// restockOrderItems returns reserved stock to the products of a cancelled
// order. Runs inside the caller's transaction.
func restockOrderItems(sessCtx mongo.SessionContext, db *mongo.Database, items []models.OrderItem, now time.Time) error {
	for productID, quantity := range restockIncrements(items) {
		_, err := db.Collection("products").UpdateOne(sessCtx,
			bson.M{"_id": productID},
			bson.M{
				"$inc": bson.M{"stockQuantity": quantity},
				"$set": bson.M{"inStock": true, "updatedAt": now},
			},
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func CancelOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/orders/:orderId/cancel"
		defer handlePanic(c, route)

		userID, ok := userIDFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order ID")
			return
		}

		var req cancelOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
			respondValidationError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[ORDER] [ERROR] starting session failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error cancelling order")
			return
		}
		defer session.EndSession(ctx)

		var cancelled models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var order models.Order
			err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID, "user": userID}).Decode(&order)
			if err != nil {
				return nil, err
			}

			now := time.Now()
			if err := order.UpdateStatus(models.OrderStatusCancelled, "Cancelled by customer", userID, "User"); err != nil {
				return nil, err
			}
			order.CancellationReason = cancellationReasonOrDefault(req.Reason)

			if err := restockOrderItems(sessCtx, db, order.Items, now); err != nil {
				return nil, err
			}

			if _, err := db.Collection("orders").ReplaceOne(sessCtx, bson.M{"_id": order.ID}, order); err != nil {
				return nil, err
			}

			cancelled = order
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, route, "Order not found")
				return
			}
			var transitionErr models.StatusTransitionError
			if errors.As(err, &transitionErr) {
				respondWithError(c, http.StatusBadRequest, route,
					"Order cannot be cancelled at this stage")
				return
			}
			log.Println("[ORDER] [ERROR] cancel transaction failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error cancelling order")
			return
		}

		log.Printf("[ORDER] [INFO] order %s cancelled by user %s", cancelled.OrderNumber, userID.Hex())
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Order cancelled successfully",
			"order":   cancelled,
		})
	}
}
