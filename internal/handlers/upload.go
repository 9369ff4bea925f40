package handlers

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/flopysoft/flopy-crm/internal/config"
)

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// saveImage validates and stores an uploaded image under a generated
// name, returning the stored filename.
func saveImage(c *fiber.Ctx, cfg *config.Config, field string) (string, *multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, fmt.Errorf("no file uploaded")
	}
	if header.Size > cfg.MaxUploadSize {
		return "", nil, fmt.Errorf("file exceeds the %d byte limit", cfg.MaxUploadSize)
	}
	contentType := header.Header.Get("Content-Type")
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return "", nil, fmt.Errorf("unsupported image type %s", contentType)
	}
	filename := uuid.New().String() + ext
	if err := c.SaveFile(header, filepath.Join(cfg.UploadDir, filename)); err != nil {
		return "", nil, fmt.Errorf("failed to store upload: %w", err)
	}
	return filename, header, nil
}
