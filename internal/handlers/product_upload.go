package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

/*
=======================
  INPUT STRUCT
=======================
*/

// MultipartProductInput carries the parsed product form. The Set flags
// distinguish "field absent" from "field sent empty" so updates can be
// partial.
type MultipartProductInput struct {
	Name           string
	NameSet        bool
	Description    string
	DescriptionSet bool
	Price          float64
	PriceSet       bool
	Category       string
	CategorySet    bool
	Stock          int
	StockSet       bool
	IsActive       bool
	IsActiveSet    bool
	Material       string
	MaterialSet    bool
	Dimensions     string
	DimensionsSet  bool
	Weight         string
	WeightSet      bool
	Finish         string
	FinishSet      bool
	ImagePath      string
	ImageSet       bool
}

/*
=======================
  PARSER
=======================
*/

func parseMultipartProductRequest(c *gin.Context) (MultipartProductInput, error) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		log.Println("[UPLOAD] [ERROR] multipart parse failed:", err)
		return MultipartProductInput{}, err
	}

	input := MultipartProductInput{}

	// ---- STRING FIELDS ----

	if value, ok := c.GetPostForm("name"); ok {
		input.Name = strings.TrimSpace(value)
		input.NameSet = true
	}

	if value, ok := c.GetPostForm("description"); ok {
		input.Description = strings.TrimSpace(value)
		input.DescriptionSet = true
	}

	if value, ok := c.GetPostForm("category"); ok {
		input.Category = strings.TrimSpace(value)
		input.CategorySet = true
	}

	if value, ok := c.GetPostForm("material"); ok {
		input.Material = strings.TrimSpace(value)
		input.MaterialSet = true
	}

	if value, ok := c.GetPostForm("dimensions"); ok {
		input.Dimensions = strings.TrimSpace(value)
		input.DimensionsSet = true
	}

	if value, ok := c.GetPostForm("weight"); ok {
		input.Weight = strings.TrimSpace(value)
		input.WeightSet = true
	}

	if value, ok := c.GetPostForm("finish"); ok {
		input.Finish = strings.TrimSpace(value)
		input.FinishSet = true
	}

	// ---- NUMBER FIELDS ----

	if value, ok := c.GetPostForm("price"); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Price = parsed
		input.PriceSet = true
	}

	if value, ok := c.GetPostForm("stockQuantity"); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.Stock = parsed
		input.StockSet = true
	}

	// ---- BOOL FIELDS ----

	if value, ok := c.GetPostForm("isActive"); ok {
		parsed, err := parseBoolValue(value)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.IsActive = parsed
		input.IsActiveSet = true
	}

	// ---- IMAGE FILE ----

	file, err := c.FormFile("image")
	if err == nil {
		imagePath, err := saveProductImage(file)
		if err != nil {
			return MultipartProductInput{}, err
		}
		input.ImagePath = imagePath
		input.ImageSet = true
	} else {
		// missing-file error text differs across gin versions
		if !errors.Is(err, http.ErrMissingFile) &&
			!strings.Contains(err.Error(), "no such file") {
			return MultipartProductInput{}, err
		}
	}

	return input, nil
}

/*
=======================
  IMAGE SAVE
=======================
*/

func saveProductImage(file *multipart.FileHeader) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if extension == "" {
		return "", fmt.Errorf("image file extension is required")
	}
	allowedExtensions := map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".gif":  {},
		".webp": {},
	}
	if _, ok := allowedExtensions[extension]; !ok {
		return "", fmt.Errorf("unsupported image type: %s", extension)
	}
	const maxImageSize = 5 << 20
	if file.Size > maxImageSize {
		return "", fmt.Errorf("image file too large (max 5MB)")
	}

	filename := uuid.NewString() + extension

	dir := filepath.Join(publicRootDir, "uploads", "products")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] [ERROR] creating directory %s: %v", dir, err)
		return "", err
	}

	fullPath := filepath.Join(dir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] [ERROR] creating file %s: %v", fullPath, err)
		return "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		log.Printf("[UPLOAD] [ERROR] opening upload %s: %v", file.Filename, err)
		return "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] [ERROR] writing file %s: %v", fullPath, err)
		return "", err
	}

	// path stored on the product document
	return filepath.ToSlash(filepath.Join("uploads", "products", filename)), nil
}

/*
=======================
  HELPERS
=======================
*/

func parseBoolValue(value string) (bool, error) {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "on" {
		return true, nil
	}
	return strconv.ParseBool(value)
}

func respondMultipartError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
}
