package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAllowedImageType(t *testing.T) {
	for _, contentType := range []string{"image/jpeg", "image/jpg", "image/png"} {
		if !allowedImageType(contentType) {
			t.Fatalf("expected %q to be allowed", contentType)
		}
	}
	for _, contentType := range []string{"image/gif", "application/pdf", "text/html", ""} {
		if allowedImageType(contentType) {
			t.Fatalf("expected %q to be rejected", contentType)
		}
	}
}

func TestUploadFilename(t *testing.T) {
	now := time.UnixMilli(1693928392000)

	if got := uploadFilename(now, "image.jpg"); got != "1693928392000-image.jpg" {
		t.Fatalf("unexpected filename: %q", got)
	}

	// Client-supplied directory components must not escape the upload dir.
	if got := uploadFilename(now, "../../etc/passwd.png"); got != "1693928392000-passwd.png" {
		t.Fatalf("unexpected filename: %q", got)
	}
}

func multipartImage(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	return body, writer.FormDataContentType()
}

func TestUploadImage_PNGAccepted(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", dir)

	body, contentType := multipartImage(t, "avatar.png", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	NewUploadHandler().UploadImage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(resp.ImageURL, "/uploads/") || !strings.HasSuffix(resp.ImageURL, "-avatar.png") {
		t.Fatalf("unexpected image reference: %q", resp.ImageURL)
	}

	stored, err := filepath.Glob(filepath.Join(dir, "*-avatar.png"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected 1 stored file, got %d", len(stored))
	}
	content, err := os.ReadFile(stored[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(content) != "png-bytes" {
		t.Fatalf("stored content corrupted: %q", content)
	}
}

func TestUploadImage_GIFRejected(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("UPLOAD_DIR", dir)

	body, contentType := multipartImage(t, "animation.gif", "image/gif", []byte("gif-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	NewUploadHandler().UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "formats are allowed") {
		t.Fatalf("expected descriptive rejection, got %s", rec.Body.String())
	}

	stored, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("rejected upload must not be stored, found %d files", len(stored))
	}
}

func TestUploadImage_MissingFileRejected(t *testing.T) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	writer.WriteField("other", "value")
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/upload-image", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	NewUploadHandler().UploadImage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
