package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/oakmart/storefront/internal/hash"
	"github.com/oakmart/storefront/internal/models"
)

func newAuthHandler(env *testEnv) *AuthHandler {
	return &AuthHandler{
		DB:            env.DB,
		JWTSecret:     []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Publisher:     env.Rec,
	}
}

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	payload := map[string]string{"username": "test_user", "password": "password"}

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", payload, 0, "")
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Equal(t, "test_user", user.Username)
	require.Equal(t, "user", user.Role)
	require.NotEmpty(t, user.ID)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	require.NotEqual(t, "password", stored.PasswordHash)

	// duplicate username is rejected
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/register", payload, 0, "")
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	_, c := env.doJSONRequest(http.MethodPost, "/api/v1/register", map[string]string{
		"username": "u", "password": "123",
	}, 0, "")
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusBadRequest, he.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	pwHash, err := hash.HashPassword("password")
	require.NoError(t, err)
	env.DB.Create(&models.User{Username: "test_user", PasswordHash: pwHash, Role: "user"})

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "test_user", "password": "password",
	}, 0, "")
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["access_token"])
	require.NotEmpty(t, resp["refresh_token"])
	require.Equal(t, false, resp["is_admin"])

	// a refresh token row was stored
	var count int64
	env.DB.Model(&models.RefreshToken{}).Count(&count)
	require.EqualValues(t, 1, count)

	// wrong password
	_, c = env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "test_user", "password": "wrong",
	}, 0, "")
	loginErr := h.Login(c)
	he, ok := loginErr.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}

func TestLogOutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	pwHash, _ := hash.HashPassword("password")
	env.DB.Create(&models.User{Username: "test_user", PasswordHash: pwHash, Role: "user"})

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "test_user", "password": "password",
	}, 0, "")
	require.NoError(t, h.Login(c))

	var resp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	recOut, cOut := env.doJSONRequest(http.MethodPost, "/api/v1/logout", nil, 0, "")
	cOut.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: resp.RefreshToken})
	require.NoError(t, h.LogOut(cOut))
	require.Equal(t, http.StatusOK, recOut.Code)

	var stored models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", resp.RefreshToken).First(&stored).Error)
	require.True(t, stored.Revoked)
}

func TestRefreshRotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	h := newAuthHandler(env)

	pwHash, _ := hash.HashPassword("password")
	env.DB.Create(&models.User{Username: "test_user", PasswordHash: pwHash, Role: "user"})

	rec, c := env.doJSONRequest(http.MethodPost, "/api/v1/login", map[string]string{
		"username": "test_user", "password": "password",
	}, 0, "")
	require.NoError(t, h.Login(c))

	var loginResp struct {
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &loginResp))

	recRef, cRef := env.doJSONRequest(http.MethodPost, "/api/v1/refresh", nil, 0, "")
	cRef.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: loginResp.RefreshToken})
	require.NoError(t, h.Refresh(cRef))
	require.Equal(t, http.StatusOK, recRef.Code)

	var refResp struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.Unmarshal(recRef.Body.Bytes(), &refResp))
	require.NotEmpty(t, refResp.AccessToken)
	require.NotEqual(t, loginResp.RefreshToken, refResp.RefreshToken)

	// the old refresh token is now revoked and cannot be reused
	var old models.RefreshToken
	require.NoError(t, env.DB.Where("token = ?", loginResp.RefreshToken).First(&old).Error)
	require.True(t, old.Revoked)

	_, cAgain := env.doJSONRequest(http.MethodPost, "/api/v1/refresh", nil, 0, "")
	cAgain.Request().AddCookie(&http.Cookie{Name: "refreshToken", Value: loginResp.RefreshToken})
	err := h.Refresh(cAgain)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError")
	require.Equal(t, http.StatusUnauthorized, he.Code)
}
