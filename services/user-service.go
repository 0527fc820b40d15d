package services

import (
	"context"
	"fmt"
	"html"
	"os"
	"strings"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type UserService struct {
	usersCollection *mongo.Collection
	tasksCollection *mongo.Collection
}

func NewUserService(usersCollection, tasksCollection *mongo.Collection) *UserService {
	return &UserService{
		usersCollection: usersCollection,
		tasksCollection: tasksCollection,
	}
}

// RegisterInput carries the fields accepted at registration. A caller that
// presents the configured admin invite token is registered as admin.
type RegisterInput struct {
	Name             string
	Email            string
	Password         string
	ProfileImageURL  string
	AdminInviteToken string
}

// RegisterUser creates a new user and issues a token for the session.
func (s *UserService) RegisterUser(input RegisterInput) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	var existing models.User
	if err := s.usersCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&existing); err == nil {
		return nil, "", ErrEmailTaken
	}

	if err := utils.ValidatePassword(input.Password); err != nil {
		return nil, "", err
	}

	hashedPassword, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	role := models.RoleMember
	inviteToken := os.Getenv("ADMIN_INVITE_TOKEN")
	if inviteToken != "" && input.AdminInviteToken == inviteToken {
		role = models.RoleAdmin
	}

	now := time.Now()
	user := models.User{
		ID:              primitive.NewObjectID(),
		Name:            html.EscapeString(input.Name),
		Email:           email,
		Password:        hashedPassword,
		ProfileImageURL: input.ProfileImageURL,
		Role:            role,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if _, err := s.usersCollection.InsertOne(context.Background(), user); err != nil {
		return nil, "", fmt.Errorf("failed to save user: %v", err)
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_REGISTERED, Description: User %s registered with role %s", user.ID.Hex(), user.Role)
	return &user, token, nil
}

// LoginUser verifies credentials and returns the user together with a
// fresh token.
func (s *UserService) LoginUser(email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user models.User
	err := s.usersCollection.FindOne(context.Background(), bson.M{"email": email}).Decode(&user)
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	if !utils.CheckPassword(user.Password, password) {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	logging.Logger.Infof("Event ID: USER_LOGIN, Description: User %s logged in", user.ID.Hex())
	return &user, token, nil
}

// GetUsers returns all members with their per-user task counts attached.
// The counts are computed at read time with the same status predicates the
// task listing uses.
func (s *UserService) GetUsers() ([]models.UserWithTaskCounts, error) {
	cursor, err := s.usersCollection.Find(context.Background(), bson.M{"role": models.RoleMember})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %v", err)
	}
	defer cursor.Close(context.Background())

	var users []models.User
	if err := cursor.All(context.Background(), &users); err != nil {
		return nil, fmt.Errorf("failed to decode users: %v", err)
	}

	result := make([]models.UserWithTaskCounts, 0, len(users))
	for _, user := range users {
		counts := models.UserWithTaskCounts{User: user}
		statuses := []struct {
			status models.TaskStatus
			target *int64
		}{
			{models.StatusPending, &counts.PendingTasks},
			{models.StatusInProgress, &counts.InProgressTasks},
			{models.StatusCompleted, &counts.CompletedTasks},
		}
		for _, entry := range statuses {
			count, err := s.tasksCollection.CountDocuments(context.Background(), bson.M{
				"assignedTo": user.ID,
				"status":     entry.status,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to count tasks for user %s: %v", user.ID.Hex(), err)
			}
			*entry.target = count
		}
		result = append(result, counts)
	}

	return result, nil
}

// GetUserByID returns a single user without the password hash.
func (s *UserService) GetUserByID(userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.usersCollection.FindOne(context.Background(), bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %v", err)
	}
	return &user, nil
}

// DeleteUser removes a user account. Tasks keep their assignee references;
// task reads simply stop resolving the removed user.
func (s *UserService) DeleteUser(userID primitive.ObjectID) error {
	result, err := s.usersCollection.DeleteOne(context.Background(), bson.M{"_id": userID})
	if err != nil {
		return fmt.Errorf("failed to delete user: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrUserNotFound
	}

	logging.Logger.Infof("Event ID: USER_DELETED, Description: User %s deleted", userID.Hex())
	return nil
}

// ProfileUpdateInput carries the optional self-service profile fields.
type ProfileUpdateInput struct {
	Name            *string
	Email           *string
	Password        *string
	ProfileImageURL *string
}

// UpdateProfile lets the authenticated user change their own profile. A new
// token is issued because the email claim may have changed.
func (s *UserService) UpdateProfile(userID primitive.ObjectID, input ProfileUpdateInput) (*models.User, string, error) {
	set := bson.M{"updatedAt": time.Now()}
	if input.Name != nil {
		set["name"] = html.EscapeString(*input.Name)
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		var existing models.User
		err := s.usersCollection.FindOne(context.Background(), bson.M{"email": email, "_id": bson.M{"$ne": userID}}).Decode(&existing)
		if err == nil {
			return nil, "", ErrEmailTaken
		}
		set["email"] = email
	}
	if input.Password != nil {
		if err := utils.ValidatePassword(*input.Password); err != nil {
			return nil, "", err
		}
		hashed, err := utils.HashPassword(*input.Password)
		if err != nil {
			return nil, "", err
		}
		set["password"] = hashed
	}
	if input.ProfileImageURL != nil {
		set["profileImageUrl"] = *input.ProfileImageURL
	}

	result, err := s.usersCollection.UpdateOne(context.Background(), bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return nil, "", fmt.Errorf("failed to update profile: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, "", ErrUserNotFound
	}

	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, "", err
	}

	token, err := utils.GenerateToken(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %v", err)
	}

	return user, token, nil
}
