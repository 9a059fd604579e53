package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"premierparts-backend/internal/config"
	"premierparts-backend/internal/models"
)

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AdminChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

// AdminLogin authenticates a back-office account. Five consecutive failed
// password checks lock the account for the configured window; during the
// window even a correct password is rejected.
func AdminLogin(db *mongo.Database, cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/auth/login"
		defer handlePanic(c, route)

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email == "" || strings.TrimSpace(req.Password) == "" {
			respondWithError(c, http.StatusBadRequest, route, "Email and password are required")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		var admin models.Admin
		if err := db.Collection("admins").FindOne(ctx, bson.M{"email": email}).Decode(&admin); err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] login lookup failed for:", email)
			respondWithError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}

		if !admin.IsActive {
			respondWithError(c, http.StatusForbidden, route, "Account is deactivated. Please contact system administrator.")
			return
		}

		now := time.Now()
		if admin.IsLocked(now) {
			respondWithError(c, http.StatusLocked, route, "Account is temporarily locked due to too many failed login attempts")
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
			admin.RegisterFailure(now, cfg.MaxLoginAttempts, cfg.LockoutDuration)
			if _, err := db.Collection("admins").UpdateByID(ctx, admin.ID, bson.M{
				"$set": bson.M{
					"loginAttempts": admin.LoginAttempts,
					"lockUntil":     admin.LockUntil,
					"updatedAt":     admin.UpdatedAt,
				},
			}); err != nil {
				log.Println("[ADMIN-AUTH] [ERROR] failed to persist lockout state:", err)
			}
			log.Printf("[ADMIN-AUTH] [ERROR] invalid credentials for %s (attempt %d)", email, admin.LoginAttempts)
			respondWithError(c, http.StatusUnauthorized, route, "Invalid credentials")
			return
		}

		admin.RegisterSuccess(now)
		if _, err := db.Collection("admins").UpdateByID(ctx, admin.ID, bson.M{
			"$set": bson.M{
				"loginAttempts": 0,
				"lastLogin":     admin.LastLogin,
				"updatedAt":     admin.UpdatedAt,
			},
			"$unset": bson.M{"lockUntil": ""},
		}); err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] failed to reset lockout state:", err)
		}

		token, err := issueAdminToken(&admin, cfg.JWTSecret, cfg.AdminTokenTTL)
		if err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] token generation failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Token generation failed")
			return
		}

		log.Println("[ADMIN-AUTH] [INFO] admin login succeeded:", admin.Email)
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"token":   token,
			"admin": gin.H{
				"id":        admin.ID.Hex(),
				"name":      admin.Name,
				"email":     admin.Email,
				"role":      admin.Role,
				"lastLogin": admin.LastLogin,
			},
		})
	}
}

func AdminLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		if admin := adminFromContext(c); admin != nil {
			log.Println("[ADMIN-AUTH] [INFO] admin logout:", admin.Email)
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
	}
}

func AdminProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := adminFromContext(c)
		if admin == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Admin not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "admin": admin})
	}
}

func AdminVerifyToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		admin := adminFromContext(c)
		if admin == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Admin not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Token is valid",
			"admin": gin.H{
				"id":        admin.ID.Hex(),
				"name":      admin.Name,
				"email":     admin.Email,
				"role":      admin.Role,
				"lastLogin": admin.LastLogin,
			},
		})
	}
}

func AdminChangePassword(db *mongo.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PUT /api/admin/auth/change-password"
		defer handlePanic(c, route)

		admin := adminFromContext(c)
		if admin == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Admin not found"})
			return
		}

		var req AdminChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			respondWithError(c, http.StatusUnauthorized, route, "Current password is incorrect")
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] password hash failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Server error")
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if _, err := db.Collection("admins").UpdateByID(ctx, admin.ID, bson.M{
			"$set": bson.M{"passwordHash": string(hash), "updatedAt": time.Now()},
		}); err != nil {
			log.Println("[ADMIN-AUTH] [ERROR] password update failed:", err)
			respondWithError(c, http.StatusInternalServerError, route, "Server error")
			return
		}

		log.Println("[ADMIN-AUTH] [INFO] admin password changed:", admin.Email)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password updated successfully"})
	}
}

func adminFromContext(c *gin.Context) *models.Admin {
	value, ok := c.Get("admin")
	if !ok {
		return nil
	}
	admin, _ := value.(*models.Admin)
	return admin
}

func issueAdminToken(admin *models.Admin, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":       admin.ID.Hex(),
		"email":    admin.Email,
		"role":     admin.Role,
		"userType": "admin",
		"exp":      time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
