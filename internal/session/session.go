package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/bahadkc/deger360/internal/apperror"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Claims carried by a session token
type Claims struct {
	UserID string
	Role   string
}

// Manager issues and validates signed session tokens and builds the cookie
// that carries them
type Manager struct {
	secret      []byte
	ttl         time.Duration
	cookieName  string
	forceSecure bool
	now         func() time.Time
}

func NewManager(secret string, ttl time.Duration, cookieName string, forceSecure bool) *Manager {
	return &Manager{
		secret:      []byte(secret),
		ttl:         ttl,
		cookieName:  cookieName,
		forceSecure: forceSecure,
		now:         time.Now,
	}
}

// WithClock replaces the time source used for expiry
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// Issue signs a token for the user
func (m *Manager) Issue(userID, role string) (string, time.Time, error) {
	issued := m.now()
	expires := issued.Add(m.ttl)

	claims := jwt.MapClaims{
		"id":   userID,
		"role": role,
		"iat":  issued.Unix(),
		"exp":  expires.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Validate parses a token. Any failure is reported as unauthorized.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &apperror.Error{Kind: apperror.KindUnauthorized, Message: "Unauthorized", Err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	userID, _ := claims["id"].(string)
	if userID == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}
	role, _ := claims["role"].(string)

	return &Claims{UserID: userID, Role: role}, nil
}

// TokenFromRequest reads the session cookie, falling back to a bearer token
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}

// Cookie builds the session cookie for a response to r
func (m *Manager) Cookie(r *http.Request, token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   IsSecureRequest(r, m.forceSecure),
		SameSite: http.SameSiteLaxMode,
	}
}

// ClearCookie expires the session cookie
func (m *Manager) ClearCookie(r *http.Request) *http.Cookie {
	cookie := m.Cookie(r, "")
	cookie.MaxAge = -1
	return cookie
}

// IsSecureRequest detects HTTPS from the connection or a terminating proxy
func IsSecureRequest(r *http.Request, force bool) bool {
	if force {
		return true
	}
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
