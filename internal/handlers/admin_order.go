package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"premierparts-backend/internal/models"
)

type updateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	Comment        string `json:"comment"`
	TrackingNumber string `json:"trackingNumber"`
}

/* =======================
   LIST (ADMIN)
======================= */

func AdminGetOrders(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid pagination parameters")
			return
		}

		filter := bson.M{}

		if status := strings.TrimSpace(c.Query("status")); status != "" {
			if !models.IsValidOrderStatus(status) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
				return
			}
			filter["orderStatus"] = status
		}

		if paymentStatus := strings.TrimSpace(c.Query("paymentStatus")); paymentStatus != "" {
			filter["paymentStatus"] = paymentStatus
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"orderNumber": bson.M{"$regex": search, "$options": "i"}},
				{"shippingAddress.fullName": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("orders").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ADMIN-ORDER] [ERROR] counting orders failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving orders")
			return
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("orders").Find(ctx, filter, opts)
		if err != nil {
			log.Println("[ADMIN-ORDER] [ERROR] listing orders failed:", err)
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
			},
		})
	}
}

/* =======================
   DETAIL (ADMIN)
======================= */

func AdminGetOrder(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/orders/:orderId"
		defer handlePanic(c, route)

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var order models.Order
		err = db.Collection("orders").FindOne(ctx, bson.M{"_id": orderID}).Decode(&order)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Order not found")
			return
		}
		if err != nil {
			log.Println("[ADMIN-ORDER] [ERROR] fetching order failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving order")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

/* =======================
   STATUS UPDATE
======================= */

// UpdateOrderStatus advances an order through the fulfilment pipeline. An
// admin cancellation returns the reserved stock the same way a customer
// cancellation does, so cancel-and-restock stays a single atomic step.
func UpdateOrderStatus(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/orders/:orderId/status"
		defer handlePanic(c, route)

		admin := adminFromContext(c)
		if admin == nil {
			respondWithError(c, http.StatusUnauthorized, route, "Unauthorized")
			return
		}

		orderID, err := primitive.ObjectIDFromHex(c.Param("orderId"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order ID")
			return
		}

		var req updateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		status := strings.ToLower(strings.TrimSpace(req.Status))
		if !models.IsValidOrderStatus(status) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid order status")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := db.Client().StartSession()
		if err != nil {
			log.Println("[ADMIN-ORDER] [ERROR] starting session failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating order status")
			return
		}
		defer session.EndSession(ctx)

		var updated models.Order
		_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
			var order models.Order
			if err := db.Collection("orders").FindOne(sessCtx, bson.M{"_id": orderID}).Decode(&order); err != nil {
				return nil, err
			}

			now := time.Now()
			if err := order.UpdateStatus(status, strings.TrimSpace(req.Comment), admin.ID, "Admin"); err != nil {
				return nil, err
			}

			if tracking := strings.TrimSpace(req.TrackingNumber); tracking != "" {
				order.TrackingNumber = tracking
			}

			if status == models.OrderStatusCancelled {
				if err := restockOrderItems(sessCtx, db, order.Items, now); err != nil {
					return nil, err
				}
			}

			if _, err := db.Collection("orders").ReplaceOne(sessCtx, bson.M{"_id": order.ID}, order); err != nil {
				return nil, err
			}

			updated = order
			return nil, nil
		})
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				respondWithError(c, http.StatusNotFound, route, "Order not found")
				return
			}
			var transitionErr models.StatusTransitionError
			if errors.As(err, &transitionErr) {
				respondWithError(c, http.StatusBadRequest, route, transitionErr.Error())
				return
			}
			log.Println("[ADMIN-ORDER] [ERROR] status update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating order status")
			return
		}

		log.Printf("[ADMIN-ORDER] [INFO] order %s moved to %s by admin %s",
			updated.OrderNumber, status, admin.Email)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Order status updated successfully",
			"order":   updated,
		})
	}
}
