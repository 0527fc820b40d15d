package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"task-manager/backend/logging"
)

const maxUploadSize = 10 << 20 // 10 MB

// allowedImageType reports whether the uploaded content type is one of the
// accepted image formats.
func allowedImageType(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	}
	return false
}

// uploadFilename builds the stored name: upload timestamp plus the original
// filename, stripped of any client-supplied directory components.
func uploadFilename(now time.Time, originalName string) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), filepath.Base(originalName))
}

func uploadDir() string {
	dir := os.Getenv("UPLOAD_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

type UploadHandler struct{}

func NewUploadHandler() *UploadHandler {
	return &UploadHandler{}
}

// UploadImage accepts a multipart image upload, stores it under the upload
// directory and returns the reference path for use in attachments or
// profile images. Only .jpeg, .jpg and .png are accepted.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form", err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No image file uploaded", nil)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !allowedImageType(contentType) {
		writeError(w, http.StatusBadRequest, "Only .jpeg, .jpg and .png formats are allowed", nil)
		return
	}

	dir := uploadDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_DIR_CREATE_FAILED, Description: Failed to create upload directory %s: %v", dir, err)
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	filename := uploadFilename(time.Now(), header.Filename)
	destPath := filepath.Join(dir, filename)

	dest, err := os.Create(destPath)
	if err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_SAVE_FAILED, Description: Failed to create upload file %s: %v", destPath, err)
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}
	defer dest.Close()

	if _, err := io.Copy(dest, file); err != nil {
		logging.Logger.Errorf("Event ID: UPLOAD_WRITE_FAILED, Description: Failed to write upload file %s: %v", destPath, err)
		writeError(w, http.StatusInternalServerError, "Server error", err)
		return
	}

	logging.Logger.Infof("Event ID: UPLOAD_SAVED, Description: Image %s stored as %s", header.Filename, filename)
	writeJSON(w, http.StatusOK, map[string]string{"imageUrl": "/uploads/" + filename})
}
