package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"task-manager/backend/logging"
	"task-manager/backend/middleware"
	"task-manager/backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeServiceError maps service sentinel errors to HTTP statuses; anything
// unrecognized is a storage failure and surfaces as a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found", nil)
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found", nil)
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, "Access forbidden: insufficient permissions", nil)
	case errors.Is(err, services.ErrInvalidAssignedTo),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidPriority):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		logging.Logger.Errorf("Event ID: SERVER_ERROR, Description: Unhandled service error: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error", err)
	}
}

// requesterFromRequest builds the service requester from the claims that
// the Protect middleware stored in the context.
func requesterFromRequest(r *http.Request) (services.Requester, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return services.Requester{}, false
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return services.Requester{}, false
	}
	return services.Requester{ID: userID, Role: claims.Role}, true
}
