package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"task-manager/backend/handlers"
	"task-manager/backend/logging"
	"task-manager/backend/middleware"
	"task-manager/backend/services"
	"task-manager/backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// protect and adminProtect compose the auth middleware for the route table.
func protect(h http.HandlerFunc) http.Handler {
	return middleware.Protect(h)
}

func adminProtect(h http.HandlerFunc) http.Handler {
	return middleware.Protect(middleware.AdminOnly(h))
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Task Manager Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	tasksCollection := client.Database(mongoDBName).Collection("tasks")
	usersCollection := client.Database(mongoDBName).Collection("users")

	httpClient := utils.NewHTTPClient()
	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})

	notificationService := services.NewNotificationService(httpClient, notificationsBreaker, os.Getenv("NOTIFICATIONS_SERVICE_URL"))
	taskService := services.NewTaskService(tasksCollection, usersCollection, notificationService)
	userService := services.NewUserService(usersCollection, tasksCollection)

	taskHandler := handlers.NewTaskHandler(taskService)
	userHandler := handlers.NewUserHandler(userService)
	authHandler := handlers.NewAuthHandler(userService)
	uploadHandler := handlers.NewUploadHandler()

	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/auth/register", authHandler.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods(http.MethodPost)
	r.Handle("/api/auth/profile", protect(authHandler.GetProfile)).Methods(http.MethodGet)
	r.Handle("/api/auth/profile", protect(authHandler.UpdateProfile)).Methods(http.MethodPut)
	r.Handle("/api/auth/upload-image", protect(uploadHandler.UploadImage)).Methods(http.MethodPost)

	// User management routes
	r.Handle("/api/users", adminProtect(userHandler.GetUsers)).Methods(http.MethodGet)
	r.Handle("/api/users/{id}", protect(userHandler.GetUserByID)).Methods(http.MethodGet)
	r.Handle("/api/users/{id}", adminProtect(userHandler.DeleteUser)).Methods(http.MethodDelete)

	// Task routes
	r.Handle("/api/tasks/dashboard-data", adminProtect(taskHandler.GetDashboardData)).Methods(http.MethodGet)
	r.Handle("/api/tasks/user-dashboard-data", protect(taskHandler.GetUserDashboardData)).Methods(http.MethodGet)
	r.Handle("/api/tasks", protect(taskHandler.GetTasks)).Methods(http.MethodGet)
	r.Handle("/api/tasks", adminProtect(taskHandler.CreateTask)).Methods(http.MethodPost)
	r.Handle("/api/tasks/{id}", protect(taskHandler.GetTaskByID)).Methods(http.MethodGet)
	r.Handle("/api/tasks/{id}", protect(taskHandler.UpdateTask)).Methods(http.MethodPut)
	r.Handle("/api/tasks/{id}", adminProtect(taskHandler.DeleteTask)).Methods(http.MethodDelete)
	r.Handle("/api/tasks/{id}/status", protect(taskHandler.UpdateTaskStatus)).Methods(http.MethodPut)
	r.Handle("/api/tasks/{id}/todo", protect(taskHandler.UpdateTaskChecklist)).Methods(http.MethodPut)

	// Stored uploads are served back under /uploads/
	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	r.PathPrefix("/uploads/").Handler(http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadDir))))

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
