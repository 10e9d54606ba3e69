// Package auth signs admins in and answers whether a request carries a valid session.
// Sessions are HS256 JWTs carried in an HttpOnly cookie whose name stays private to this package.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/iyhunko/wallart-storefront/internal/config"
	"github.com/iyhunko/wallart-storefront/internal/model"
	"github.com/iyhunko/wallart-storefront/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const sessionCookieName = "wallart_session"

var (
	// ErrNoSession is returned when the request carries no session token.
	ErrNoSession = errors.New("no session")

	// ErrInvalidSession is returned when the session token is malformed, expired or forged.
	ErrInvalidSession = errors.New("invalid session")

	// ErrInvalidCredentials is returned by SignIn for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Service is what HTTP handlers need from the auth collaborator.
type Service interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	Authenticate(r *http.Request) (*Session, error)
	IssueCookie(w http.ResponseWriter, session *Session)
	ClearCookie(w http.ResponseWriter)
}

// Session is an authenticated admin session.
type Session struct {
	UserID    uuid.UUID
	Email     string
	Role      string
	Token     string
	ExpiresAt time.Time
	// Refreshed is set when Authenticate re-signed the token; the caller should re-issue the cookie.
	Refreshed bool
}

type sessionClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// Authenticator implements Service on top of a UserStore.
type Authenticator struct {
	users        repository.UserStore
	secret       []byte
	ttl          time.Duration
	secureCookie bool
	now          func() time.Time
}

// NewAuthenticator creates an Authenticator from the auth configuration.
func NewAuthenticator(users repository.UserStore, conf config.Auth) *Authenticator {
	return &Authenticator{
		users:        users,
		secret:       []byte(conf.JWTSecret),
		ttl:          conf.SessionTTL,
		secureCookie: conf.CookieSecure,
		now:          time.Now,
	}
}

// refreshWindow is how close to expiry a token must be before Authenticate re-signs it.
func (a *Authenticator) refreshWindow() time.Duration {
	return a.ttl / 4
}

// SignIn checks the password of an admin account and starts a session.
func (a *Authenticator) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := a.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Role != model.RoleAdmin {
		return nil, ErrInvalidCredentials
	}

	return a.newSession(user.ID, user.Email, user.Role)
}

func (a *Authenticator) newSession(userID uuid.UUID, email, role string) (*Session, error) {
	now := a.now()
	expiresAt := now.Add(a.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			Subject:   userID.String(),
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		},
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{
		UserID:    userID,
		Email:     email,
		Role:      role,
		Token:     signed,
		ExpiresAt: time.Unix(expiresAt.Unix(), 0),
	}, nil
}

// Authenticate validates the session carried by r. Sessions close to expiry are refreshed.
func (a *Authenticator) Authenticate(r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}

	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}
	if claims.Role != model.RoleAdmin {
		return nil, fmt.Errorf("%w: role %q", ErrInvalidSession, claims.Role)
	}

	expiresAt := time.Unix(claims.ExpiresAt, 0)
	if expiresAt.Sub(a.now()) > a.refreshWindow() {
		return &Session{
			UserID:    userID,
			Email:     claims.Email,
			Role:      claims.Role,
			Token:     cookie.Value,
			ExpiresAt: expiresAt,
		}, nil
	}

	session, err := a.newSession(userID, claims.Email, claims.Role)
	if err != nil {
		return nil, err
	}
	session.Refreshed = true
	return session, nil
}

// IssueCookie writes the session cookie.
func (a *Authenticator) IssueCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		MaxAge:   int(session.ExpiresAt.Sub(a.now()).Seconds()),
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// EnsureAdmin creates the admin account when it does not exist yet. An empty email disables seeding.
func EnsureAdmin(ctx context.Context, users repository.UserStore, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		slog.Info("Admin seeding skipped: no admin email configured")
		return nil
	}

	_, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	if password == "" {
		return fmt.Errorf("admin %s does not exist and no password is configured: %w", email, config.ErrMissingConfig)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Administrator",
		Role:         model.RoleAdmin,
	}
	if err := users.CreateUser(ctx, admin); err != nil {
		var uniqueErr *repository.UniqueConstraintError
		if errors.As(err, &uniqueErr) {
			// created concurrently by another instance
			return nil
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	slog.Info("Admin account created", slog.String("email", admin.Email))
	return nil
}
