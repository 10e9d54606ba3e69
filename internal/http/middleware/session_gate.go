package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/wallart-storefront/internal/auth"
	"github.com/iyhunko/wallart-storefront/internal/metrics"
)

const (
	// LoginPath is where visitors without a session are sent.
	LoginPath = "/login"
	// AdminPath is the root of the protected area.
	AdminPath = "/admin"

	sessionKey = "session"
)

// IsProtected reports whether path belongs to the admin area: /admin or anything under /admin/.
func IsProtected(path string) bool {
	return path == AdminPath || strings.HasPrefix(path, AdminPath+"/")
}

// SessionGate guards the admin area. Requests to the admin area without a valid session are
// redirected to the login page, and GET requests to the login page that already carry a valid
// session are redirected to the admin area. Every other request passes through untouched.
// Session validity is decided by the auth collaborator alone.
func (m *Middleware) SessionGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		switch {
		case IsProtected(path):
			session, ok := m.authenticate(c)
			if !ok {
				redirect(c, LoginPath)
				return
			}
			c.Set(sessionKey, session)

		case path == LoginPath && c.Request.Method == http.MethodGet:
			if session, ok := m.authenticate(c); ok {
				c.Set(sessionKey, session)
				redirect(c, AdminPath)
				return
			}
		}

		c.Next()
	}
}

// RequireSession rejects requests without a valid session with 401. Meant for JSON endpoints.
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		session, ok := m.authenticate(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(sessionKey, session)
		c.Next()
	}
}

// SessionFrom returns the session stored by SessionGate or RequireSession.
func SessionFrom(c *gin.Context) (*auth.Session, bool) {
	value, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	session, ok := value.(*auth.Session)
	return session, ok
}

func (m *Middleware) authenticate(c *gin.Context) (*auth.Session, bool) {
	session, err := m.auth.Authenticate(c.Request)
	if err != nil {
		if !errors.Is(err, auth.ErrNoSession) {
			slog.Warn("Rejected session", slog.Any("err", err), slog.String("path", c.Request.URL.Path))
		}
		return nil, false
	}
	if session.Refreshed {
		m.auth.IssueCookie(c.Writer, session)
	}
	return session, true
}

func redirect(c *gin.Context, target string) {
	metrics.GateRedirects.WithLabelValues(target).Inc()
	c.Redirect(http.StatusSeeOther, target)
	c.Abort()
}
