package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func parseProductForm(t *testing.T, build func(w *multipart.Writer)) (MultipartProductInput, error) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	build(writer)
	_ = writer.Close()

	req := httptest.NewRequest("POST", "/api/admin/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req

	return parseMultipartProductRequest(c)
}

func TestParseMultipartProductRequest_FullForm(t *testing.T) {
	parsed, err := parseProductForm(t, func(w *multipart.Writer) {
		_ = w.WriteField("name", "  Brass Cable Gland M20  ")
		_ = w.WriteField("description", "Nickel plated")
		_ = w.WriteField("price", "149.50")
		_ = w.WriteField("category", "Brass Cable Glands")
		_ = w.WriteField("stockQuantity", "25")
		_ = w.WriteField("isActive", "true")
		_ = w.WriteField("material", "Brass")
		_ = w.WriteField("finish", "Nickel")
	})
	if err != nil {
		t.Fatalf("parseMultipartProductRequest returned error: %v", err)
	}

	if !parsed.NameSet || parsed.Name != "Brass Cable Gland M20" {
		t.Fatalf("expected trimmed name, got %+v", parsed)
	}
	if !parsed.PriceSet || parsed.Price != 149.50 {
		t.Fatalf("expected price=149.50, got %+v", parsed)
	}
	if !parsed.StockSet || parsed.Stock != 25 {
		t.Fatalf("expected stock=25, got %+v", parsed)
	}
	if !parsed.IsActiveSet || !parsed.IsActive {
		t.Fatalf("expected isActive=true, got %+v", parsed)
	}
	if !parsed.MaterialSet || parsed.Material != "Brass" {
		t.Fatalf("expected material=Brass, got %+v", parsed)
	}
	if parsed.ImageSet {
		t.Fatalf("expected no image, got %+v", parsed)
	}
}

func TestParseMultipartProductRequest_AbsentFieldsStayUnset(t *testing.T) {
	parsed, err := parseProductForm(t, func(w *multipart.Writer) {
		_ = w.WriteField("name", "Hex Bolt")
	})
	if err != nil {
		t.Fatalf("parseMultipartProductRequest returned error: %v", err)
	}

	if parsed.PriceSet || parsed.StockSet || parsed.CategorySet || parsed.IsActiveSet {
		t.Fatalf("expected only name to be set, got %+v", parsed)
	}
}

func TestParseMultipartProductRequest_CheckboxOnValue(t *testing.T) {
	parsed, err := parseProductForm(t, func(w *multipart.Writer) {
		_ = w.WriteField("isActive", "on")
	})
	if err != nil {
		t.Fatalf("parseMultipartProductRequest returned error: %v", err)
	}
	if !parsed.IsActiveSet || !parsed.IsActive {
		t.Fatalf("expected isActive=true from checkbox value, got %+v", parsed)
	}
}

func TestParseMultipartProductRequest_RejectsBadNumbers(t *testing.T) {
	if _, err := parseProductForm(t, func(w *multipart.Writer) {
		_ = w.WriteField("price", "abc")
	}); err == nil {
		t.Fatal("expected error for non-numeric price")
	}

	if _, err := parseProductForm(t, func(w *multipart.Writer) {
		_ = w.WriteField("stockQuantity", "12.5")
	}); err == nil {
		t.Fatal("expected error for non-integer stock")
	}
}
