package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"taskboard/internal/models"
	"taskboard/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Name:            "  Ada <b>Lovelace</b> ",
		Email:           "Ada@Example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[models.AuthResponse](t, w)
	require.NotEmpty(t, reg.AccessToken)
	require.NotEmpty(t, reg.RefreshToken)
	require.Equal(t, "Ada Lovelace", reg.User.Name)
	require.Equal(t, "ada@example.com", reg.User.Email)
	require.NotContains(t, w.Body.String(), "password")

	claims, err := utils.ValidateToken(reg.AccessToken, env.cfg.JWTSecret)
	require.NoError(t, err)
	require.Equal(t, utils.TokenTypeAccess, claims.TokenType)
	require.Equal(t, reg.User.ID.Hex(), claims.UserID)

	w = env.do(t, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "ada@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[models.AuthResponse](t, w)
	require.NotEmpty(t, login.AccessToken)
	require.Equal(t, "Ada Lovelace", login.User.Name)

	stored, err := env.users.FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	require.Equal(t, login.RefreshToken, stored.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Ada", "ada@example.com", "secret1")

	w := env.do(t, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Name: "Other", Email: "ADA@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	requireError(t, w, http.StatusConflict, "user_exists")
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := map[string]models.RegisterRequest{
		"password mismatch": {Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret2"},
		"short password":    {Name: "Ada", Email: "ada@example.com", Password: "abc", ConfirmPassword: "abc"},
		"bad email":         {Name: "Ada", Email: "not-an-email", Password: "secret1", ConfirmPassword: "secret1"},
		"missing name":      {Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/register", "", req)
			requireError(t, w, http.StatusBadRequest, "validation_error")
		})
	}
}

func TestLoginFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "Ada", "ada@example.com", "secret1")
	require.NoError(t, env.users.Create(context.Background(), &models.User{
		Name: "Gus", Email: "gus@example.com", Provider: ProviderGoogle, GoogleID: "g-1",
	}))

	w := env.do(t, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "ada@example.com", Password: "wrong-pw"})
	requireError(t, w, http.StatusUnauthorized, "invalid_credentials")

	w = env.do(t, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "nobody@example.com", Password: "secret1"})
	requireError(t, w, http.StatusUnauthorized, "invalid_credentials")

	w = env.do(t, http.MethodPost, "/api/login", "", models.LoginRequest{Email: "gus@example.com", Password: "secret1"})
	resp := requireError(t, w, http.StatusUnauthorized, "invalid_credentials")
	require.Equal(t, "Please use google to sign in", resp.Message)

	w = env.do(t, http.MethodPost, "/api/login", "", `{"email":`)
	requireError(t, w, http.StatusBadRequest, "validation_error")
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	first := decode[models.AuthResponse](t, w)

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode[map[string]string](t, w)
	require.NotEmpty(t, rotated["accessToken"])
	require.NotEqual(t, first.RefreshToken, rotated["refreshToken"])

	// the old refresh token was replaced
	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	requireError(t, w, http.StatusUnauthorized, "invalid_refresh_token")

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: first.AccessToken})
	requireError(t, w, http.StatusUnauthorized, "invalid_token_type")

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: "garbage"})
	requireError(t, w, http.StatusUnauthorized, "invalid_refresh_token")
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodPost, "/api/register", "", models.RegisterRequest{
		Name: "Ada", Email: "ada@example.com", Password: "secret1", ConfirmPassword: "secret1",
	})
	auth := decode[models.AuthResponse](t, w)

	w = env.do(t, http.MethodPost, "/api/auth/logout", auth.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/auth/refresh", "", models.RefreshTokenRequest{RefreshToken: auth.RefreshToken})
	requireError(t, w, http.StatusUnauthorized, "invalid_refresh_token")

	w = env.do(t, http.MethodPost, "/api/auth/logout", "", nil)
	requireError(t, w, http.StatusUnauthorized, "unauthorized")
}

func newGoogleRouter(env *testEnv, profile *googleOAuth2.Userinfo, err error) *gin.Engine {
	h := NewAuthHandler(env.cfg, env.users)
	h.googleProfile = func(ctx context.Context, code string) (*googleOAuth2.Userinfo, error) {
		if code != "good-code" {
			return nil, errors.New("bad code")
		}
		return profile, err
	}
	r := gin.New()
	r.POST("/api/auth/google", h.GoogleAuth)
	return r
}

func TestGoogleAuthCreatesUser(t *testing.T) {
	env := newTestEnv(t)
	env.router = newGoogleRouter(env, &googleOAuth2.Userinfo{
		Id: "g-42", Email: "Gus@Example.com", Name: "Gus", Picture: "https://pics/gus.png",
	}, nil)

	w := env.do(t, http.MethodPost, "/api/auth/google", "", models.GoogleAuthRequest{Code: "good-code"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.AuthResponse](t, w)
	require.Equal(t, "gus@example.com", resp.User.Email)
	require.Equal(t, ProviderGoogle, resp.User.Provider)

	stored, err := env.users.FindByGoogleID(context.Background(), "g-42")
	require.NoError(t, err)
	require.Equal(t, resp.User.ID, stored.ID)

	// a second sign-in finds the same account
	w = env.do(t, http.MethodPost, "/api/auth/google", "", models.GoogleAuthRequest{Code: "good-code"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, resp.User.ID, decode[models.AuthResponse](t, w).User.ID)
	require.Len(t, env.users.users, 1)
}

func TestGoogleAuthLinksExistingEmail(t *testing.T) {
	env := newTestEnv(t)
	ada, _ := env.seedUser(t, "Ada", "ada@example.com", "secret1")
	env.router = newGoogleRouter(env, &googleOAuth2.Userinfo{Id: "g-7", Email: "ada@example.com", Name: "Ada G"}, nil)

	w := env.do(t, http.MethodPost, "/api/auth/google", "", models.GoogleAuthRequest{Code: "good-code"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Equal(t, ada.ID, decode[models.AuthResponse](t, w).User.ID)

	linked, err := env.users.FindByGoogleID(context.Background(), "g-7")
	require.NoError(t, err)
	require.Equal(t, ada.ID, linked.ID)
	require.Equal(t, ProviderEmail, linked.Provider)
}

func TestGoogleAuthRejectsBadCode(t *testing.T) {
	env := newTestEnv(t)
	env.router = newGoogleRouter(env, nil, nil)

	w := env.do(t, http.MethodPost, "/api/auth/google", "", models.GoogleAuthRequest{Code: "bad"})
	requireError(t, w, http.StatusUnauthorized, "google_auth_failed")

	w = env.do(t, http.MethodPost, "/api/auth/google", "", `{}`)
	requireError(t, w, http.StatusBadRequest, "validation_error")
}

func TestExpiredAccessTokenRejected(t *testing.T) {
	env := newTestEnv(t)
	ada, _ := env.seedUser(t, "Ada", "ada@example.com", "secret1")
	expired, err := utils.GenerateAccessToken(ada.ID.Hex(), ada.Email, env.cfg.JWTSecret, -time.Minute)
	require.NoError(t, err)

	w := env.do(t, http.MethodGet, "/api/user", expired, nil)
	requireError(t, w, http.StatusUnauthorized, "invalid_token")
}
