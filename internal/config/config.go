package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI         string
	DBName           string
	JWTSecret        string
	CustomerTokenTTL time.Duration
	AdminTokenTTL    time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	TaxRate          float64
	ShippingCost     float64
	Categories       []string
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:         getEnvOrDefault("MONGO_URI", ""),
		DBName:           getEnvOrDefault("DB_NAME", "premierparts"),
		JWTSecret:        getEnvOrDefault("JWT_SECRET", ""),
		CustomerTokenTTL: getDurationEnv("CUSTOMER_TOKEN_TTL", 30, 24*time.Hour),
		AdminTokenTTL:    getDurationEnv("ADMIN_TOKEN_TTL", 24, time.Hour),
		MaxLoginAttempts: getIntEnv("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:  getDurationEnv("LOCKOUT_DURATION", 15, time.Minute),
		TaxRate:          getFloatEnv("TAX_RATE", 0),
		ShippingCost:     getFloatEnv("SHIPPING_COST", 0),
		Categories:       getListEnv("PRODUCT_CATEGORIES", defaultCategories),
	}
}

// defaultCategories is the seed catalog taxonomy. Stored documents may carry
// categories outside this list; the allow-list only gates new writes.
var defaultCategories = []string{
	"Brass Cable Glands",
	"Electrical Components",
	"Brass Screws & Fittings",
	"Custom Parts",
}

// IsAllowedCategory reports whether name is on the configured allow-list.
// Comparison is case-insensitive so legacy free-form values keep validating.
func (c Config) IsAllowedCategory(name string) bool {
	trimmed := strings.TrimSpace(name)
	for _, allowed := range c.Categories {
		if strings.EqualFold(allowed, trimmed) {
			return true
		}
	}
	return false
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil && parsed >= 0 {
			return parsed
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
