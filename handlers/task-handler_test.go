package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"task-manager/backend/middleware"
	"task-manager/backend/services"
	"task-manager/backend/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseAssignedTo(t *testing.T) {
	u1 := primitive.NewObjectID()
	u2 := primitive.NewObjectID()

	cases := []struct {
		name    string
		raw     string
		wantErr bool
		wantLen int
	}{
		{"valid array", `["` + u1.Hex() + `","` + u2.Hex() + `"]`, false, 2},
		{"empty array", `[]`, false, 0},
		{"string instead of array", `"` + u1.Hex() + `"`, true, 0},
		{"number instead of array", `123`, true, 0},
		{"object instead of array", `{"id":"x"}`, true, 0},
		{"null", `null`, true, 0},
		{"array with invalid id", `["not-a-hex-id"]`, true, 0},
	}

	for _, tc := range cases {
		ids, err := parseAssignedTo(json.RawMessage(tc.raw))
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%s: expected error", tc.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if len(ids) != tc.wantLen {
			t.Fatalf("%s: expected %d ids, got %d", tc.name, tc.wantLen, len(ids))
		}
	}
}

func TestParseAssignedTo_MissingField(t *testing.T) {
	if _, err := parseAssignedTo(nil); err == nil {
		t.Fatalf("expected error for missing assignedTo")
	}
}

func adminToken(t *testing.T) string {
	t.Helper()
	token, err := utils.GenerateToken(primitive.NewObjectID().Hex(), "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return token
}

// Malformed assignedTo is rejected in the handler, before any persistence
// could happen; the service here has no store behind it on purpose.
func TestCreateTask_MalformedAssignedToRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := NewTaskHandler(services.NewTaskService(nil, nil, nil))
	protected := middleware.Protect(http.HandlerFunc(handler.CreateTask))

	body := `{"title":"Ship release","assignedTo":"not-an-array"}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Message != "assignedTo must be an array of user IDs" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestCreateTask_MissingTitleRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := NewTaskHandler(services.NewTaskService(nil, nil, nil))
	protected := middleware.Protect(http.HandlerFunc(handler.CreateTask))

	body := `{"assignedTo":[]}`
	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateTask_NoAuthContextRejected(t *testing.T) {
	handler := NewTaskHandler(services.NewTaskService(nil, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	handler.CreateTask(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestGetTaskByID_InvalidIDFormatRejected(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := NewTaskHandler(services.NewTaskService(nil, nil, nil))
	protected := middleware.Protect(http.HandlerFunc(handler.GetTaskByID))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/not-an-id", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken(t))
	rec := httptest.NewRecorder()
	protected.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
