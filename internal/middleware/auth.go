package middleware

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

	"premierparts-backend/internal/models"
)

// AdminAuth validates admin bearer tokens and re-loads the admin document so
// role changes and deactivation take effect without waiting for token expiry.
func AdminAuth(db *mongo.Database, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := parseBearerToken(c.GetHeader("Authorization"), secret)
		if err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] token rejected:", err)
			abortUnauthorized(c, err)
			return
		}

		userType, _ := claims["userType"].(string)
		if userType != "admin" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Admin privileges required.",
			})
			return
		}

		idValue, _ := claims["id"].(string)
		adminID, err := primitive.ObjectIDFromHex(strings.TrimSpace(idValue))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid token"})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var admin models.Admin
		if err := db.Collection("admins").FindOne(ctx, bson.M{"_id": adminID}).Decode(&admin); err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] admin lookup failed:", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Admin not found"})
			return
		}

		if !admin.IsActive {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Admin account is deactivated",
			})
			return
		}

		c.Set("admin", &admin)
		c.Next()
	}
}

// SuperAdminAuth additionally requires the superadmin role. Runs after
// AdminAuth in the chain.
func SuperAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, ok := c.Get("admin")
		admin, _ := value.(*models.Admin)
		if !ok || admin == nil || admin.Role != models.AdminRoleSuperAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Access denied. Super admin privileges required.",
			})
			return
		}
		c.Next()
	}
}
