package handlers

import (
	"context"
	"net/http"
	"time"

	"taskboard/internal/middleware"
	"taskboard/internal/models"

	"github.com/gin-gonic/gin"
)

// UserStore is the user persistence used by the handlers.
// *repository.UserRepository implements it.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID, name, passwordHash string) error
	UpdateRefreshToken(ctx context.Context, userID, refreshToken string) error
	LinkGoogle(ctx context.Context, userID, googleID, picture string) error
	AddPerson(ctx context.Context, userID, email string) (bool, []string, error)
	ListPeople(ctx context.Context, userID string) ([]string, error)
	ListDirectory(ctx context.Context, excludeID string) ([]models.User, error)
}

// TaskStore is the task persistence used by the handlers.
// *repository.TaskRepository implements it.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, taskID string) (*models.Task, error)
	ListForUser(ctx context.Context, userID, email string, since time.Time) ([]models.Task, error)
	Replace(ctx context.Context, task *models.Task) error
	SetChecklistItem(ctx context.Context, taskID, itemID string, done bool) (*models.Task, error)
	Delete(ctx context.Context, taskID string) error
}

// AnalyticsStore computes board analytics.
// *repository.AnalyticsRepository implements it.
type AnalyticsStore interface {
	GetAnalytics(ctx context.Context, userID, email string) (models.Analytics, error)
}

// currentUser reads the identity set by middleware.AuthMiddleware and
// writes a 401 when it is missing.
func currentUser(c *gin.Context) (userID, email string, ok bool) {
	id, exists := c.Get(middleware.ContextUserID)
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "unauthorized",
			Message: "User not authenticated",
		})
		return "", "", false
	}
	userID, _ = id.(string)
	email = c.GetString(middleware.ContextEmail)
	return userID, email, true
}

func serverError(c *gin.Context, message string) {
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "server_error",
		Message: message,
	})
}

func validationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
