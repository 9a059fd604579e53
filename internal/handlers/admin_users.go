package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"premierparts-backend/internal/models"
)

// GetUsers lists registered customers for the back office.
func GetUsers(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/admin/users"
		defer handlePanic(c, route)

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"), 20)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, route, "Invalid pagination parameters")
			return
		}

		filter := bson.M{}
		if search := strings.TrimSpace(c.Query("search")); search != "" {
			filter["$or"] = []bson.M{
				{"username": bson.M{"$regex": search, "$options": "i"}},
				{"email": bson.M{"$regex": search, "$options": "i"}},
			}
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		total, err := db.Collection("users").CountDocuments(ctx, filter)
		if err != nil {
			log.Println("[ADMIN-USER] [ERROR] counting users failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving users")
			return
		}

		opts := options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip((page - 1) * limit).
			SetLimit(limit).
			SetProjection(bson.M{"passwordHash": 0})

		cursor, err := db.Collection("users").Find(ctx, filter, opts)
		if err != nil {
			log.Println("[ADMIN-USER] [ERROR] listing users failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving users")
			return
		}
		defer cursor.Close(ctx)

		users := make([]models.User, 0)
		if err := cursor.All(ctx, &users); err != nil {
			respondWithError(c, http.StatusInternalServerError, route, "Error retrieving users")
			return
		}

		pages := totalPages(total, limit)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"users":   users,
			"pagination": gin.H{
				"currentPage": page,
				"totalPages":  pages,
				"totalUsers":  total,
			},
		})
	}
}
