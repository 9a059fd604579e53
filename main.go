package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"premierparts-backend/internal/config"
	"premierparts-backend/internal/database"
	"premierparts-backend/internal/handlers"
	"premierparts-backend/internal/middleware"
)

func main() {
	config.Load()

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(config.AppEnv.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureProductIndexes(db); err != nil {
		log.Printf("product index warning: %v", err)
	}
	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureAdminIndexes(db); err != nil {
		log.Printf("admin index warning: %v", err)
	}
	if err := database.EnsureCartIndexes(db); err != nil {
		log.Printf("cart index warning: %v", err)
	}
	if err := database.EnsureOrderIndexes(db); err != nil {
		log.Printf("order index warning: %v", err)
	}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.Static("/uploads", "./public/uploads")

	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"success": true, "status": "ok"})
	})

	users := r.Group("/api/users")
	{
		users.POST("/register", handlers.Register(db, config.AppEnv.JWTSecret, config.AppEnv.CustomerTokenTTL))
		users.POST("/login", handlers.Login(db, config.AppEnv.JWTSecret, config.AppEnv.CustomerTokenTTL))
	}

	products := r.Group("/api/products")
	{
		products.GET("", handlers.GetProducts(db))
		products.GET("/categories", handlers.GetCategories(config.AppEnv.Categories))
		products.GET("/:id", handlers.GetProductByID(db))
	}

	cart := r.Group("/api/cart")
	cart.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		cart.GET("", handlers.GetCart(db))
		cart.GET("/count", handlers.GetCartCount(db))
		cart.POST("/add", handlers.AddToCart(db))
		cart.PUT("/update", handlers.UpdateCartItem(db))
		cart.DELETE("/remove/:productId", handlers.RemoveCartItem(db))
		cart.DELETE("/clear", handlers.ClearCart(db))
	}

	orders := r.Group("/api/orders")
	orders.Use(middleware.UserAuth(config.AppEnv.JWTSecret))
	{
		orders.POST("", handlers.CreateOrder(db, config.AppEnv))
		orders.GET("/user", handlers.GetUserOrders(db))
		orders.GET("/:orderId", handlers.GetOrder(db))
		orders.PUT("/:orderId/cancel", handlers.CancelOrder(db))
	}

	adminAuth := r.Group("/api/admin/auth")
	{
		adminAuth.POST("/login", handlers.AdminLogin(db, config.AppEnv))
		adminAuth.POST("/logout", handlers.AdminLogout())

		protected := adminAuth.Group("")
		protected.Use(middleware.AdminAuth(db, config.AppEnv.JWTSecret))
		{
			protected.GET("/profile", handlers.AdminProfile())
			protected.GET("/verify", handlers.AdminVerifyToken())
			protected.PUT("/change-password", handlers.AdminChangePassword(db))
		}
	}

	admin := r.Group("/api/admin")
	admin.Use(middleware.AdminAuth(db, config.AppEnv.JWTSecret))
	{
		admin.GET("/products", handlers.GetAllProducts(db))
		admin.POST("/products", handlers.CreateProduct(db, config.AppEnv))
		admin.PUT("/products/:id", handlers.UpdateProduct(db, config.AppEnv))
		admin.DELETE("/products/:id", handlers.DeleteProduct(db))

		admin.GET("/orders", handlers.AdminGetOrders(db))
		admin.GET("/orders/:orderId", handlers.AdminGetOrder(db))
		admin.PUT("/orders/:orderId/status", handlers.UpdateOrderStatus(db))

		admin.GET("/users", middleware.SuperAdminAuth(), handlers.GetUsers(db))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r.Run(":" + port)
}
