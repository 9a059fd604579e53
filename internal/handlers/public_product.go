package handlers

import (
	"context"
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

/*
GET /api/products
- storefront listing, active products only
- optional category / search filters, paginated
*/
func GetProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products"
		defer handlePanic(c, route)

		if err := ensureDBConnection(c.Request.Context(), db); err != nil {
			respondWithError(c, http.StatusServiceUnavailable, route, "Database unavailable")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 12)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid pagination parameters")
			return
		}

		filter := bson.M{"isActive": true}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] counting products failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving products")
			return
		}

		findOptions := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit)

		cursor, err := db.Collection("products").Find(ctx, filter, findOptions)
		if err != nil {
			log.Println("[PRODUCT] [ERROR] listing products failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving products")
			return
		}
		defer cursor.Close(ctx)

		products := make([]models.Product, 0)
		if err := cursor.All(ctx, &products); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving products")
			return
		}

		pages := totalPages(total, limit)
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"products": products,
			"pagination": gin.H{
				"currentPage":   page,
				"totalPages":    pages,
				"totalProducts": total,
				"hasMore":       page < pages,
			},
		})
	}
}

// GetProductByID serves the product detail page. Inactive products are hidden
// from the storefront and read as not found.
func GetProductByID(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/products/:id"
		defer handlePanic(c, route)

		productID, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var product models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": productID, "isActive": true}).Decode(&product)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			log.Println("[PRODUCT] [ERROR] fetching product failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving product")
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "product": product})
	}
}

// GetCategories exposes the configured category allow-list to the storefront.
func GetCategories(categories []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "categories": categories})
	}
}
