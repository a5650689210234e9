// ABOUTME: Product image upload handling with size limit and name scheme
// ABOUTME: Replaced images are unlinked unless they are the placeholder

package web

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// maxUploadBytes limits product image uploads to 5 MB.
const maxUploadBytes = 5 << 20

// defaultImageURL is the placeholder shown for products without a photo.
// It is never deleted.
const defaultImageURL = "/img/default.jpg"

// saveUploadedImage stores the optional "image" form file and returns
// its public URL. Returns ("", nil) when the form carries no image.
func (s *Server) saveUploadedImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading image upload: %w", err)
	}
	defer func() { _ = file.Close() }()

	if header.Size > maxUploadBytes {
		return "", fmt.Errorf("image exceeds %d byte limit", maxUploadBytes)
	}

	if err := os.MkdirAll(s.config.UploadsDir, 0755); err != nil {
		return "", fmt.Errorf("creating uploads directory: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := "flor-" + strconv.FormatInt(time.Now().UnixMilli(), 10) + ext

	dst, err := os.Create(filepath.Join(s.config.UploadsDir, name))
	if err != nil {
		return "", fmt.Errorf("creating image file: %w", err)
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, io.LimitReader(file, maxUploadBytes)); err != nil {
		return "", fmt.Errorf("writing image file: %w", err)
	}

	return "/img/" + name, nil
}

// removeImage unlinks a previously uploaded product image. The default
// placeholder and anything outside the uploads dir are left alone.
func (s *Server) removeImage(imageURL string) {
	if imageURL == "" || imageURL == defaultImageURL || !strings.HasPrefix(imageURL, "/img/") {
		return
	}

	path := filepath.Join(s.config.UploadsDir, filepath.Base(imageURL))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove image", "path", path, "error", err)
	}
}
