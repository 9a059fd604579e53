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

	"premierparts-backend/internal/config"
	"premierparts-backend/internal/models"
)

/* =======================
   LIST (ADMIN)
======================= */

// GetAllProducts lists the full catalog for the back office, inactive
// products included.
func GetAllProducts(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/products"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid pagination parameters")
			return
		}

		filter := bson.M{}

		if category := strings.TrimSpace(c.Query("category")); category != "" {
			filter["category"] = category
		}

		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"name": bson.M{"$regex": search, "$options": "i"}},
				{"description": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		if isActive := strings.TrimSpace(c.Query("isActive")); isActive != "" {
			filter["isActive"] = strings.EqualFold(isActive, "true")
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("products").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] counting products failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving products")
			return
		}

		opts := options.Find().
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetSort(bson.D{{Key: "createdAt", Value: -1}})

		cursor, err := db.Collection("products").Find(ctx, filter, opts)
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] listing products failed:", err)
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
			},
		})
	}
}

/* =======================
   CREATE
======================= */

func CreateProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/products"
		defer handlePanic(c, route)

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondWithError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondMultipartError(c, err)
			return
		}

		name := strings.TrimSpace(input.Name)
		if !input.NameSet || name == "" {
			respondWithError(c, http.StatusBadRequest, route, "Product name is required")
			return
		}

		if !input.PriceSet || input.Price <= 0 {
			respondWithError(c, http.StatusBadRequest, route, "Valid price is required")
			return
		}

		if !input.CategorySet || !cfg.IsAllowedCategory(input.Category) {
			respondWithError(c, http.StatusBadRequest, route, "Invalid category")
			return
		}

		if !input.StockSet {
			respondWithError(c, http.StatusBadRequest, route, "Stock quantity is required")
			return
		}
		if input.Stock < 0 {
			respondWithError(c, http.StatusBadRequest, route, "Stock quantity must be zero or greater")
			return
		}

		isActive := true
		if input.IsActiveSet {
			isActive = input.IsActive
		}

		now := time.Now()
		product := models.Product{
			Name:          name,
			Description:   strings.TrimSpace(input.Description),
			Price:         input.Price,
			Category:      input.Category,
			Image:         input.ImagePath,
			InStock:       input.Stock > 0,
			StockQuantity: input.Stock,
			Specifications: models.Specifications{
				Material:   input.Material,
				Dimensions: input.Dimensions,
				Weight:     input.Weight,
				Finish:     input.Finish,
			},
			IsActive:  isActive,
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		res, err := db.Collection("products").InsertOne(ctx, product)
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] insert failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error creating product")
			return
		}
		if id, ok := res.InsertedID.(primitive.ObjectID); ok {
			product.ID = id
		}

		log.Printf("[ADMIN-PRODUCT] [INFO] product created: %s (%s)", product.Name, product.ID.Hex())
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Product created successfully",
			"product": product,
		})
	}
}

/* =======================
   UPDATE
======================= */

func UpdateProduct(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		if !strings.HasPrefix(c.GetHeader("Content-Type"), "multipart/form-data") {
			respondWithError(c, http.StatusUnsupportedMediaType, route, "multipart/form-data required")
			return
		}

		input, err := parseMultipartProductRequest(c)
		if err != nil {
			respondMultipartError(c, err)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] fetch failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating product")
			return
		}

		updateSet := bson.M{"updatedAt": time.Now()}

		if input.NameSet {
			name := strings.TrimSpace(input.Name)
			if name == "" {
				respondWithError(c, http.StatusBadRequest, route, "Product name is required")
				return
			}
			updateSet["name"] = name
		}
		if input.PriceSet {
			if input.Price <= 0 {
				respondWithError(c, http.StatusBadRequest, route, "Valid price is required")
				return
			}
			updateSet["price"] = input.Price
		}
		if input.CategorySet {
			if !cfg.IsAllowedCategory(input.Category) {
				respondWithError(c, http.StatusBadRequest, route, "Invalid category")
				return
			}
			updateSet["category"] = input.Category
		}
		if input.DescriptionSet {
			updateSet["description"] = strings.TrimSpace(input.Description)
		}
		if input.StockSet {
			if input.Stock < 0 {
				respondWithError(c, http.StatusBadRequest, route, "Stock quantity must be zero or greater")
				return
			}
			updateSet["stockQuantity"] = input.Stock
			updateSet["inStock"] = input.Stock > 0
		}
		if input.IsActiveSet {
			updateSet["isActive"] = input.IsActive
		}
		if input.MaterialSet {
			updateSet["specifications.material"] = input.Material
		}
		if input.DimensionsSet {
			updateSet["specifications.dimensions"] = input.Dimensions
		}
		if input.WeightSet {
			updateSet["specifications.weight"] = input.Weight
		}
		if input.FinishSet {
			updateSet["specifications.finish"] = input.Finish
		}

		existingImage := strings.TrimSpace(existing.Image)
		if input.ImageSet && strings.TrimSpace(input.ImagePath) != "" {
			updateSet["image"] = input.ImagePath
		}

		result, err := db.Collection("products").UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": updateSet})
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating product")
			return
		}
		if result.MatchedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		if input.ImageSet && existingImage != "" && existingImage != input.ImagePath {
			if err := safeDeleteUpload(existingImage); err != nil {
				log.Printf("[ADMIN-PRODUCT] [WARN] old image delete failed: %v", err)
			}
		}

		var updated models.Product
		if err := db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&updated); err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] reload failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error updating product")
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Product updated successfully",
			"product": updated,
		})
	}
}

/* =======================
   DELETE
======================= */

// DeleteProduct removes the product and its stored image. Orders keep their
// own snapshots, so past purchases survive the delete.
func DeleteProduct(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "DELETE /api/admin/products/:id"
		defer handlePanic(c, route)

		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid product ID")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var existing models.Product
		err = db.Collection("products").FindOne(ctx, bson.M{"_id": id}).Decode(&existing)
		if err == mongo.ErrNoDocuments {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}
		if err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Error deleting product")
			return
		}

		res, err := db.Collection("products").DeleteOne(ctx, bson.M{"_id": id})
		if err != nil {
			log.Println("[ADMIN-PRODUCT] [ERROR] delete failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error deleting product")
			return
		}
		if res.DeletedCount == 0 {
			respondWithError(c, http.StatusNotFound, route, "Product not found")
			return
		}

		if err := safeDeleteUpload(existing.Image); err != nil {
			log.Printf("[ADMIN-PRODUCT] [WARN] image delete failed: %v", err)
		}

		log.Printf("[ADMIN-PRODUCT] [INFO] product deleted: %s (%s)", existing.Name, id.Hex())
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Product deleted successfully",
		})
	}
}
