package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// saveEvidenceImage validates and stores the uploaded "image" form file,
// returning its public URL path. The returned error is a *fiber.Error rendered
// by the app's error handler.
func saveEvidenceImage(c *fiber.Ctx) (string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return "", fiber.NewError(fiber.StatusBadRequest, "No image file provided")
	}

	// Validate file type
	ext := strings.ToLower(filepath.Ext(file.Filename))
	allowed := map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}
	if !allowed[ext] {
		return "", fiber.NewError(fiber.StatusBadRequest, "Only jpg, png, and webp images are allowed")
	}

	// Limit to 5MB
	if file.Size > 5*1024*1024 {
		return "", fiber.NewError(fiber.StatusBadRequest, "Image must be under 5MB")
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	if err := os.MkdirAll(uploadsDir, 0755); err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to create uploads directory")
	}

	filename := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	savePath := filepath.Join(uploadsDir, filename)

	if err := c.SaveFile(file, savePath); err != nil {
		return "", fiber.NewError(fiber.StatusInternalServerError, "Failed to save image")
	}

	return fmt.Sprintf("/uploads/%s", filename), nil
}

// UploadImage stores a standalone image (tile headers, avatars) and returns
// its URL.
func UploadImage(c *fiber.Ctx) error {
	imageURL, fiberErr := saveEvidenceImage(c)
	if fiberErr != nil {
		return fiberErr
	}
	return c.JSON(fiber.Map{
		"url": imageURL,
	})
}
