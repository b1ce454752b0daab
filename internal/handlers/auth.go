package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"

	"taskboard/config"
	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	ProviderEmail  = "email"
	ProviderGoogle = "google"
)

type AuthHandler struct {
	cfg      *config.Config
	userRepo UserStore

	// googleProfile exchanges an authorization code for the Google user profile
	googleProfile func(ctx context.Context, code string) (*googleOAuth2.Userinfo, error)
}

func NewAuthHandler(cfg *config.Config, userRepo UserStore) *AuthHandler {
	h := &AuthHandler{
		cfg:      cfg,
		userRepo: userRepo,
	}
	h.googleProfile = h.exchangeGoogleCode
	return h
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.RegisterRequest true "Account data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	email := utils.NormalizeEmail(req.Email)

	existingUser, err := h.userRepo.FindByEmail(ctx, email)
	if err == nil && existingUser != nil {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Error:   "user_exists",
			Message: "User with this email already exists",
		})
		return
	}
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		log.Println("Register - FindByEmail error:", err)
		serverError(c, "Failed to look up user")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		serverError(c, "Failed to process password")
		return
	}

	user := &models.User{
		Email:    email,
		Password: hashedPassword,
		Name:     utils.SanitizeText(req.Name),
		Provider: ProviderEmail,
		People:   []string{},
	}

	if err := h.userRepo.Create(ctx, user); err != nil {
		log.Println("Register - Create error:", err)
		serverError(c, "Failed to create user")
		return
	}

	h.issueTokens(ctx, c, http.StatusCreated, user)
}

// Login godoc
// @Summary Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	user, err := h.userRepo.FindByEmail(ctx, utils.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{
				Error:   "invalid_credentials",
				Message: "Invalid email or password",
			})
			return
		}
		log.Println("Login - FindByEmail error:", err)
		serverError(c, "Failed to find user")
		return
	}

	if user.Password == "" {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Please use " + user.Provider + " to sign in",
		})
		return
	}

	if err := utils.CheckPassword(user.Password, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_credentials",
			Message: "Invalid email or password",
		})
		return
	}

	h.issueTokens(ctx, c, http.StatusOK, user)
}

// GoogleAuth godoc
// @Summary Sign in with a Google authorization code
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.GoogleAuthRequest true "Authorization code"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/google [post]
func (h *AuthHandler) GoogleAuth(c *gin.Context) {
	var req models.GoogleAuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	profile, err := h.googleProfile(ctx, req.Code)
	if err != nil {
		log.Println("GoogleAuth - profile error:", err)
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "google_auth_failed",
			Message: "Failed to verify Google account",
		})
		return
	}

	user, err := h.userRepo.FindByGoogleID(ctx, profile.Id)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		serverError(c, "Failed to find user")
		return
	}

	if user == nil {
		email := utils.NormalizeEmail(profile.Email)
		existingUser, err := h.userRepo.FindByEmail(ctx, email)
		switch {
		case err == nil:
			// Link the Google account to the existing email user
			if err := h.userRepo.LinkGoogle(ctx, existingUser.ID.Hex(), profile.Id, profile.Picture); err != nil {
				serverError(c, "Failed to link Google account")
				return
			}
			existingUser.GoogleID = profile.Id
			user = existingUser
		case errors.Is(err, mongo.ErrNoDocuments):
			user = &models.User{
				Email:    email,
				Name:     profile.Name,
				Provider: ProviderGoogle,
				GoogleID: profile.Id,
				Picture:  profile.Picture,
				People:   []string{},
			}
			if err := h.userRepo.Create(ctx, user); err != nil {
				serverError(c, "Failed to create user")
				return
			}
		default:
			serverError(c, "Failed to find user")
			return
		}
	}

	h.issueTokens(ctx, c, http.StatusOK, user)
}

func (h *AuthHandler) exchangeGoogleCode(ctx context.Context, code string) (*googleOAuth2.Userinfo, error) {
	conf := &oauth2.Config{
		ClientID:     h.cfg.GoogleClientID,
		ClientSecret: h.cfg.GoogleClientSecret,
		RedirectURL:  h.cfg.FrontendURL, // Must match what frontend used
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			"openid",
		},
		Endpoint: google.Endpoint,
	}

	token, err := conf.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	svc, err := googleOAuth2.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx, token)))
	if err != nil {
		return nil, err
	}
	return svc.Userinfo.Get().Context(ctx).Do()
}

// RefreshToken godoc
// @Summary Rotate the token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body models.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} map[string]string
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}

	claims, err := utils.ValidateToken(req.RefreshToken, h.cfg.JWTSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_refresh_token",
			Message: "Invalid or expired refresh token",
		})
		return
	}

	if claims.TokenType != utils.TokenTypeRefresh {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_token_type",
			Message: "Token is not a refresh token",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	user, err := h.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_refresh_token",
			Message: "User not found",
		})
		return
	}

	if user.RefreshToken != req.RefreshToken {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error:   "invalid_refresh_token",
			Message: "Refresh token not found or revoked",
		})
		return
	}

	accessToken, refreshToken, ok := h.generateTokens(ctx, c, user)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// Logout godoc
// @Summary Revoke the refresh token
// @Tags auth
// @Security ApiKeyAuth
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if err := h.userRepo.UpdateRefreshToken(ctx, userID, ""); err != nil {
		serverError(c, "Failed to logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// issueTokens generates and stores a token pair and writes the auth response.
func (h *AuthHandler) issueTokens(ctx context.Context, c *gin.Context, status int, user *models.User) {
	accessToken, refreshToken, ok := h.generateTokens(ctx, c, user)
	if !ok {
		return
	}

	c.JSON(status, models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
}

func (h *AuthHandler) generateTokens(ctx context.Context, c *gin.Context, user *models.User) (string, string, bool) {
	accessToken, err := utils.GenerateAccessToken(user.ID.Hex(), user.Email, h.cfg.JWTSecret, h.cfg.JWTAccessExpiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate access token",
		})
		return "", "", false
	}

	refreshToken, err := utils.GenerateRefreshToken(user.ID.Hex(), user.Email, h.cfg.JWTSecret, h.cfg.JWTRefreshExpiration)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate refresh token",
		})
		return "", "", false
	}

	if err := h.userRepo.UpdateRefreshToken(ctx, user.ID.Hex(), refreshToken); err != nil {
		log.Println("UpdateRefreshToken error:", err, "UserID:", user.ID.Hex())
		serverError(c, "Failed to store refresh token")
		return "", "", false
	}
	user.RefreshToken = refreshToken

	return accessToken, refreshToken, true
}
