package services

import (
	"context"
	"fmt"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Requester identifies the authenticated caller of a service operation.
type Requester struct {
	ID   primitive.ObjectID
	Role string
}

func (r Requester) IsAdmin() bool {
	return r.Role == models.RoleAdmin
}

type TaskService struct {
	tasksCollection *mongo.Collection
	usersCollection *mongo.Collection
	notifications   *NotificationService
}

func NewTaskService(tasksCollection, usersCollection *mongo.Collection, notifications *NotificationService) *TaskService {
	return &TaskService{
		tasksCollection: tasksCollection,
		usersCollection: usersCollection,
		notifications:   notifications,
	}
}

// ScopeFilter is the role predicate composed into every task query and
// count: admins see everything, members only tasks assigned to them.
func ScopeFilter(requester Requester) bson.M {
	if requester.IsAdmin() {
		return bson.M{}
	}
	return bson.M{"assignedTo": requester.ID}
}

// scopedFilter merges the role predicate with extra conditions.
func scopedFilter(requester Requester, extra bson.M) bson.M {
	filter := ScopeFilter(requester)
	for k, v := range extra {
		filter[k] = v
	}
	return filter
}

// TaskCreateInput carries the fields accepted when creating or fully
// updating a task.
type TaskCreateInput struct {
	Title         string
	Description   string
	Priority      models.TaskPriority
	DueDate       time.Time
	AssignedTo    []primitive.ObjectID
	Attachments   []string
	TodoChecklist []models.ChecklistItem
}

// GetTasks returns all tasks visible to the requester, optionally filtered
// by status, together with the status summary. The four summary counts are
// separate queries and are not transactionally consistent with each other;
// a task changing status mid-request can make them disagree with `all`.
func (s *TaskService) GetTasks(requester Requester, statusFilter models.TaskStatus) (*models.TaskListResponse, error) {
	filter := ScopeFilter(requester)
	if statusFilter != "" {
		if !statusFilter.IsValid() {
			return nil, ErrInvalidStatus
		}
		filter = scopedFilter(requester, bson.M{"status": statusFilter})
	}

	cursor, err := s.tasksCollection.Find(context.Background(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(context.Background())

	var tasks []models.Task
	if err := cursor.All(context.Background(), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}

	responses, err := s.attachAssigneeDetails(tasks)
	if err != nil {
		return nil, err
	}

	summary, err := s.statusSummary(requester)
	if err != nil {
		return nil, err
	}

	return &models.TaskListResponse{Tasks: responses, StatusSummary: *summary}, nil
}

// statusSummary computes the role-scoped counts for all tasks and for each
// of the three statuses, independent of any active status filter.
func (s *TaskService) statusSummary(requester Requester) (*models.StatusSummary, error) {
	all, err := s.tasksCollection.CountDocuments(context.Background(), ScopeFilter(requester))
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %v", err)
	}

	counts := make(map[models.TaskStatus]int64, 3)
	for _, status := range []models.TaskStatus{models.StatusPending, models.StatusInProgress, models.StatusCompleted} {
		count, err := s.tasksCollection.CountDocuments(context.Background(), scopedFilter(requester, bson.M{"status": status}))
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks with status %s: %v", status, err)
		}
		counts[status] = count
	}

	return &models.StatusSummary{
		All:             all,
		PendingTasks:    counts[models.StatusPending],
		InProgressTasks: counts[models.StatusInProgress],
		CompletedTasks:  counts[models.StatusCompleted],
	}, nil
}

// attachAssigneeDetails expands assignee ids to user summaries and attaches
// the derived completed checklist count to every task.
func (s *TaskService) attachAssigneeDetails(tasks []models.Task) ([]models.TaskResponse, error) {
	idSet := make(map[primitive.ObjectID]struct{})
	for _, task := range tasks {
		for _, id := range task.AssignedTo {
			idSet[id] = struct{}{}
		}
	}

	summaries := make(map[primitive.ObjectID]models.UserSummary, len(idSet))
	if len(idSet) > 0 {
		ids := make([]primitive.ObjectID, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}

		cursor, err := s.usersCollection.Find(context.Background(), bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve assignees: %v", err)
		}
		defer cursor.Close(context.Background())

		var users []models.UserSummary
		if err := cursor.All(context.Background(), &users); err != nil {
			return nil, fmt.Errorf("failed to decode assignees: %v", err)
		}
		for _, user := range users {
			summaries[user.ID] = user
		}
	}

	responses := make([]models.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		assignees := make([]models.UserSummary, 0, len(task.AssignedTo))
		for _, id := range task.AssignedTo {
			if summary, ok := summaries[id]; ok {
				assignees = append(assignees, summary)
			}
		}
		responses = append(responses, models.TaskResponse{
			Task:               task,
			AssignedTo:         assignees,
			CompletedTodoCount: task.CompletedTodoCount(),
		})
	}
	return responses, nil
}

// GetTaskByID returns a single task with assignee details. Members may only
// read tasks they are assigned to.
func (s *TaskService) GetTaskByID(requester Requester, taskID primitive.ObjectID) (*models.TaskResponse, error) {
	var task models.Task
	err := s.tasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !requester.IsAdmin() && !task.IsAssignedTo(requester.ID) {
		return nil, ErrForbidden
	}

	responses, err := s.attachAssigneeDetails([]models.Task{task})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// validateAssignees checks that every assignee id references an existing
// user.
func (s *TaskService) validateAssignees(assignedTo []primitive.ObjectID) error {
	if assignedTo == nil {
		return ErrInvalidAssignedTo
	}
	if len(assignedTo) == 0 {
		return nil
	}

	count, err := s.usersCollection.CountDocuments(context.Background(), bson.M{"_id": bson.M{"$in": assignedTo}})
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %v", err)
	}
	if count != int64(len(uniqueIDs(assignedTo))) {
		return ErrUserNotFound
	}
	return nil
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// CreateTask persists a new task created by an admin. Status defaults to
// pending, priority to medium; createdBy is set once and never changes.
func (s *TaskService) CreateTask(creatorID primitive.ObjectID, input TaskCreateInput) (*models.TaskResponse, error) {
	if err := s.validateAssignees(input.AssignedTo); err != nil {
		return nil, err
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.IsValid() {
		return nil, ErrInvalidPriority
	}
	if input.Attachments == nil {
		input.Attachments = []string{}
	}
	if input.TodoChecklist == nil {
		input.TodoChecklist = []models.ChecklistItem{}
	}

	now := time.Now()
	task := models.Task{
		ID:            primitive.NewObjectID(),
		Title:         input.Title,
		Description:   input.Description,
		Priority:      input.Priority,
		Status:        models.StatusPending,
		DueDate:       input.DueDate,
		CreatedBy:     creatorID,
		AssignedTo:    input.AssignedTo,
		Attachments:   input.Attachments,
		TodoChecklist: input.TodoChecklist,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := s.tasksCollection.InsertOne(context.Background(), task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by user %s with %d assignees", task.ID.Hex(), creatorID.Hex(), len(task.AssignedTo))
	s.notifications.NotifyTaskAssigned(&task, task.AssignedTo)

	responses, err := s.attachAssigneeDetails([]models.Task{task})
	if err != nil {
		return nil, err
	}
	return &responses[0], nil
}

// TaskUpdateInput carries the optional fields of a partial task update.
// Nil pointers mean "leave unchanged".
type TaskUpdateInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	Status        *models.TaskStatus
	DueDate       *time.Time
	AssignedTo    []primitive.ObjectID
	HasAssignedTo bool
	Attachments   []string
	TodoChecklist []models.ChecklistItem
}

// restrictedToAssigneeFields reports whether the update only touches the
// fields a non-admin assignee is allowed to change (status and checklist).
func (in TaskUpdateInput) restrictedToAssigneeFields() bool {
	return in.Title == nil && in.Description == nil && in.Priority == nil &&
		in.DueDate == nil && !in.HasAssignedTo && in.Attachments == nil
}

// UpdateTask applies a partial update. Admins may change any field; a
// member assigned to the task may only change status and checklist.
func (s *TaskService) UpdateTask(requester Requester, taskID primitive.ObjectID, input TaskUpdateInput) (*models.TaskResponse, error) {
	var task models.Task
	err := s.tasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}

	if !requester.IsAdmin() {
		if !task.IsAssignedTo(requester.ID) {
			return nil, ErrForbidden
		}
		if !input.restrictedToAssigneeFields() {
			return nil, ErrForbidden
		}
	}

	set := bson.M{"updatedAt": time.Now()}
	if input.Title != nil {
		set["title"] = *input.Title
	}
	if input.Description != nil {
		set["description"] = *input.Description
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		set["priority"] = *input.Priority
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		set["status"] = *input.Status
	}
	if input.DueDate != nil {
		set["dueDate"] = *input.DueDate
	}
	if input.HasAssignedTo {
		if err := s.validateAssignees(input.AssignedTo); err != nil {
			return nil, err
		}
		set["assignedTo"] = input.AssignedTo
	}
	if input.Attachments != nil {
		set["attachments"] = input.Attachments
	}
	if input.TodoChecklist != nil {
		set["todoChecklist"] = input.TodoChecklist
	}

	result, err := s.tasksCollection.UpdateOne(context.Background(), bson.M{"_id": taskID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrTaskNotFound
	}

	if input.HasAssignedTo {
		s.notifications.NotifyTaskAssigned(&task, input.AssignedTo)
	}

	return s.GetTaskByID(requester, taskID)
}

// DeleteTask removes a task. The admin-only gate is enforced by the route
// middleware before this runs.
func (s *TaskService) DeleteTask(taskID primitive.ObjectID) error {
	result, err := s.tasksCollection.DeleteOne(context.Background(), bson.M{"_id": taskID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted", taskID.Hex())
	return nil
}

// UpdateTaskStatus transitions a task to any of the three statuses; no
// ordering between statuses is enforced.
func (s *TaskService) UpdateTaskStatus(requester Requester, taskID primitive.ObjectID, status models.TaskStatus) (*models.TaskResponse, error) {
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	return s.UpdateTask(requester, taskID, TaskUpdateInput{Status: &status})
}

// UpdateTaskChecklist replaces the task checklist with the submitted items,
// preserving the submitted order. Items may be added or removed.
func (s *TaskService) UpdateTaskChecklist(requester Requester, taskID primitive.ObjectID, items []models.ChecklistItem) (*models.TaskResponse, error) {
	if items == nil {
		items = []models.ChecklistItem{}
	}
	return s.UpdateTask(requester, taskID, TaskUpdateInput{TodoChecklist: items})
}

// GetDashboardData aggregates counts across all tasks for the admin
// dashboard.
func (s *TaskService) GetDashboardData() (*models.DashboardData, error) {
	return s.dashboardData(Requester{Role: models.RoleAdmin})
}

// GetUserDashboardData aggregates the same counts restricted to tasks
// assigned to the caller.
func (s *TaskService) GetUserDashboardData(userID primitive.ObjectID) (*models.DashboardData, error) {
	return s.dashboardData(Requester{ID: userID, Role: models.RoleMember})
}

func (s *TaskService) dashboardData(requester Requester) (*models.DashboardData, error) {
	summary, err := s.statusSummary(requester)
	if err != nil {
		return nil, err
	}

	overdue, err := s.tasksCollection.CountDocuments(context.Background(), scopedFilter(requester, bson.M{
		"status":  bson.M{"$ne": models.StatusCompleted},
		"dueDate": bson.M{"$lt": time.Now()},
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to count overdue tasks: %v", err)
	}

	priorityLevels := make(map[string]int64, 3)
	for _, priority := range []models.TaskPriority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		count, err := s.tasksCollection.CountDocuments(context.Background(), scopedFilter(requester, bson.M{"priority": priority}))
		if err != nil {
			return nil, fmt.Errorf("failed to count tasks with priority %s: %v", priority, err)
		}
		priorityLevels[string(priority)] = count
	}

	findOptions := options.Find().SetSort(bson.M{"createdAt": -1}).SetLimit(10)
	cursor, err := s.tasksCollection.Find(context.Background(), ScopeFilter(requester), findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve recent tasks: %v", err)
	}
	defer cursor.Close(context.Background())

	var recent []models.Task
	if err := cursor.All(context.Background(), &recent); err != nil {
		return nil, fmt.Errorf("failed to decode recent tasks: %v", err)
	}

	recentResponses, err := s.attachAssigneeDetails(recent)
	if err != nil {
		return nil, err
	}

	return &models.DashboardData{
		Statistics: models.DashboardStatistics{
			TotalTasks:      summary.All,
			PendingTasks:    summary.PendingTasks,
			InProgressTasks: summary.InProgressTasks,
			CompletedTasks:  summary.CompletedTasks,
			OverdueTasks:    overdue,
		},
		Charts: models.DashboardCharts{
			TaskDistribution: map[string]int64{
				"All":        summary.All,
				"Pending":    summary.PendingTasks,
				"InProgress": summary.InProgressTasks,
				"Completed":  summary.CompletedTasks,
			},
			TaskPriorityLevels: priorityLevels,
		},
		RecentTasks: recentResponses,
	}, nil
}
