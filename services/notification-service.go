package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"task-manager/backend/logging"
	"task-manager/backend/models"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationService delivers assignment notifications to the external
// notifications collaborator. Delivery is best effort: failures are logged
// and never fail the originating request.
type NotificationService struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	baseURL    string
}

func NewNotificationService(httpClient *http.Client, breaker *gobreaker.CircuitBreaker, baseURL string) *NotificationService {
	return &NotificationService{
		httpClient: httpClient,
		breaker:    breaker,
		baseURL:    baseURL,
	}
}

type taskAssignedNotification struct {
	TaskID    string   `json:"taskId"`
	TaskTitle string   `json:"taskTitle"`
	UserIDs   []string `json:"userIds"`
	Message   string   `json:"message"`
}

// NotifyTaskAssigned posts a notification for every user newly carried on
// the task's assignee list. A nil service or empty base URL disables
// delivery.
func (s *NotificationService) NotifyTaskAssigned(task *models.Task, assignees []primitive.ObjectID) {
	if s == nil || s.baseURL == "" || len(assignees) == 0 {
		return
	}

	userIDs := make([]string, 0, len(assignees))
	for _, id := range assignees {
		userIDs = append(userIDs, id.Hex())
	}

	payload := taskAssignedNotification{
		TaskID:    task.ID.Hex(),
		TaskTitle: task.Title,
		UserIDs:   userIDs,
		Message:   fmt.Sprintf("You have been assigned to task: %s", task.Title),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logging.Logger.Errorf("Event ID: NOTIFICATION_MARSHAL_FAILED, Description: Failed to marshal notification for task %s: %v", task.ID.Hex(), err)
		return
	}

	_, err = s.breaker.Execute(func() (interface{}, error) {
		resp, err := s.httpClient.Post(s.baseURL+"/api/notifications", "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			return nil, fmt.Errorf("notifications service returned status %d", resp.StatusCode)
		}
		return nil, nil
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: NOTIFICATION_SEND_FAILED, Description: Failed to send assignment notification for task %s: %v", task.ID.Hex(), err)
		return
	}

	logging.Logger.Infof("Event ID: NOTIFICATION_SENT, Description: Assignment notification sent for task %s to %d users", task.ID.Hex(), len(userIDs))
}
