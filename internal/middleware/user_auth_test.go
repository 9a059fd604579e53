package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "test-secret"

func signedUserToken(t *testing.T, userID string, ttl time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"userId": userID,
		"exp":    time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func runUserAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	recorder := httptest.NewRecorder()
	reached := false

	r := gin.New()
	r.GET("/protected", UserAuth(testSecret), func(c *gin.Context) {
		reached = true
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	r.ServeHTTP(recorder, req)
	return recorder, reached
}

func TestUserAuthAcceptsValidToken(t *testing.T) {
	userID := primitive.NewObjectID().Hex()
	recorder, reached := runUserAuth(t, "Bearer "+signedUserToken(t, userID, time.Hour))

	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", recorder.Code, recorder.Body.String())
	}
	if !reached {
		t.Fatal("handler not reached with valid token")
	}
}

func TestUserAuthRejectsMissingToken(t *testing.T) {
	recorder, reached := runUserAuth(t, "")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if reached {
		t.Fatal("handler reached without token")
	}
}

func TestUserAuthRejectsExpiredToken(t *testing.T) {
	userID := primitive.NewObjectID().Hex()
	recorder, reached := runUserAuth(t, "Bearer "+signedUserToken(t, userID, -time.Minute))

	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if reached {
		t.Fatal("handler reached with expired token")
	}
}

func TestUserAuthRejectsBadFormat(t *testing.T) {
	recorder, _ := runUserAuth(t, "Token abc")
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
}

func TestUserAuthRejectsNonObjectIDClaim(t *testing.T) {
	recorder, reached := runUserAuth(t, "Bearer "+signedUserToken(t, "not-an-object-id", time.Hour))
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", recorder.Code)
	}
	if reached {
		t.Fatal("handler reached with malformed userId claim")
	}
}
