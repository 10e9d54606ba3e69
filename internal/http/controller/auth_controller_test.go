package controller_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/wallart-storefront/internal/http/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authRouter(a *fakeAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ac := controller.NewAuthController(a)

	router := gin.New()
	router.GET("/login", ac.LoginPage)
	router.POST("/login", ac.Login)
	router.POST("/logout", ac.Logout)
	return router
}

func postLogin(router *gin.Engine, email, password string) *httptest.ResponseRecorder {
	values := url.Values{}
	values.Set("email", email)
	values.Set("password", password)
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthController_Login(t *testing.T) {
	tests := []struct {
		name           string
		auth           *fakeAuth
		email          string
		password       string
		expectedStatus int
		expectCookie   bool
	}{
		{
			name:           "valid credentials redirect to admin",
			auth:           &fakeAuth{email: "admin@example.com", password: "s3cret"},
			email:          "admin@example.com",
			password:       "s3cret",
			expectedStatus: http.StatusSeeOther,
			expectCookie:   true,
		},
		{
			name:           "wrong password",
			auth:           &fakeAuth{email: "admin@example.com", password: "s3cret"},
			email:          "admin@example.com",
			password:       "guess",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing password",
			auth:           &fakeAuth{email: "admin@example.com", password: "s3cret"},
			email:          "admin@example.com",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "malformed email",
			auth:           &fakeAuth{email: "admin@example.com", password: "s3cret"},
			email:          "admin",
			password:       "s3cret",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "user store failure",
			auth:           &fakeAuth{err: errors.New("connection refused")},
			email:          "admin@example.com",
			password:       "s3cret",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postLogin(authRouter(tt.auth), tt.email, tt.password)

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectCookie {
				assert.Equal(t, "/admin", w.Header().Get("Location"))
				assert.Contains(t, w.Header().Get("Set-Cookie"), "signed-token")
			} else {
				assert.Empty(t, w.Header().Get("Set-Cookie"))
			}
		})
	}
}

func TestAuthController_LoginPage(t *testing.T) {
	w := httptest.NewRecorder()
	authRouter(&fakeAuth{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "password")
}

func TestAuthController_Logout(t *testing.T) {
	a := &fakeAuth{}
	w := httptest.NewRecorder()
	authRouter(a).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/logout", nil))

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, 1, a.cleared)
}
