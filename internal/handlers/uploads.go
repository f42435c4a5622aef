package handlers

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"social-backend/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// saveUpload writes a multipart file under UPLOAD_DIR with a unique name and
// returns the stored filename and the URL it is served from. Documents keep
// only these references; the files themselves live outside the store.
func saveUpload(c *fiber.Ctx, fileHeader *multipart.FileHeader, ownerID string) (string, string, error) {
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	// Generate unique filename preserving extension
	ext := filepath.Ext(fileHeader.Filename)
	filename := fmt.Sprintf("%s_%d%s", ownerID, time.Now().UnixNano(), ext)
	destPath := filepath.Join(uploadDir, filename)

	if err := c.SaveFile(fileHeader, destPath); err != nil {
		return "", "", fmt.Errorf("failed to save file: %w", err)
	}

	base := utils.GetEnv("BASE_URL", "")
	url := "/uploads/" + filename
	if base != "" {
		url = fmt.Sprintf("%s/uploads/%s", base, filename)
	}
	return filename, url, nil
}

// removeUpload cleans a stored file up when the document insert that should
// reference it failed.
func removeUpload(filename string) {
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
	_ = os.Remove(filepath.Join(uploadDir, filename))
}
