package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userRepo UserStore
	timeout  time.Duration
}

func NewUserHandler(userRepo UserStore, timeout time.Duration) *UserHandler {
	return &UserHandler{userRepo: userRepo, timeout: timeout}
}

// GetMe godoc
// @Summary Current user
// @Tags user
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /user [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	user, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "user_not_found",
			Message: "User not found",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateMe godoc
// @Summary Update name and/or password
// @Tags user
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param payload body models.UpdateUserRequest true "Changes"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /user [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	name := utils.SanitizeText(req.Name)
	if name == "" && req.NewPassword == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "validation_error",
			Message: "No updates provided",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	user, err := h.userRepo.FindByID(ctx, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error:   "user_not_found",
			Message: "User not found",
		})
		return
	}

	var passwordHash string
	if req.NewPassword != "" {
		if user.Password != "" && utils.CheckPassword(user.Password, req.OldPassword) != nil {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Old password is incorrect",
			})
			return
		}
		if strings.TrimSpace(req.NewPassword) != req.NewPassword {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error:   "validation_error",
				Message: "Password must not start or end with spaces",
			})
			return
		}
		passwordHash, err = utils.HashPassword(req.NewPassword)
		if err != nil {
			serverError(c, "Failed to process password")
			return
		}
	}

	if err := h.userRepo.UpdateProfile(ctx, userID, name, passwordHash); err != nil {
		serverError(c, "Failed to update user")
		return
	}

	if name != "" {
		user.Name = name
	}
	c.JSON(http.StatusOK, user)
}
