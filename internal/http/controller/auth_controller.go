package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/iyhunko/wallart-storefront/internal/auth"
	"github.com/iyhunko/wallart-storefront/internal/http/middleware"
)

// AuthController handles sign-in and sign-out.
type AuthController struct {
	auth       auth.Service
	validation *Validation
}

// NewAuthController creates a new AuthController backed by authService.
func NewAuthController(authService auth.Service) *AuthController {
	return &AuthController{
		auth:       authService,
		validation: NewValidation(),
	}
}

// LoginRequest holds the sign-in form.
type LoginRequest struct {
	Email    string `form:"email" validate:"notblank,email"`
	Password string `form:"password" validate:"notblank"`
}

// LoginPage describes how to sign in. Signed-in visitors never reach it; the session gate
// redirects them to the admin area.
func (ac *AuthController) LoginPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "sign in with a POST to /login",
		"fields":  []string{"email", "password"},
	})
}

// Login checks the credentials, sets the session cookie and redirects to the admin area.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindWith(&req, binding.Form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form: " + err.Error()})
		return
	}
	if fieldErrs := ac.validation.Validate(req); len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials form", "fields": fieldErrs})
		return
	}

	session, err := ac.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			slog.Warn("Failed sign-in", slog.String("email", req.Email))
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		slog.Error("Sign-in failed", slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	ac.auth.IssueCookie(c.Writer, session)
	slog.Info("Admin signed in", slog.String("email", session.Email))
	c.Redirect(http.StatusSeeOther, middleware.AdminPath)
}

// Logout clears the session cookie and redirects to the login page.
func (ac *AuthController) Logout(c *gin.Context) {
	ac.auth.ClearCookie(c.Writer)
	c.Redirect(http.StatusSeeOther, middleware.LoginPath)
}
