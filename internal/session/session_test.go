package session

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bahadkc/deger360/internal/apperror"
)

func TestIssueAndValidate(t *testing.T) {
	m := NewManager("test-secret", time.Hour, "sid", false)

	token, expires, err := m.Issue("user-1", "lawyer")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Errorf("expiry %v is not in the future", expires)
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "lawyer" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestValidateRejects(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	m := NewManager("test-secret", time.Hour, "sid", false).WithClock(func() time.Time { return now })

	token, _, err := m.Issue("user-1", "admin")
	if err != nil {
		t.Fatal(err)
	}

	other := NewManager("other-secret", time.Hour, "sid", false).WithClock(func() time.Time { return now })
	if _, err := other.Validate(token); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("wrong secret: got %v, want unauthorized", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := m.Validate(token); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("expired: got %v, want unauthorized", err)
	}

	if _, err := m.Validate(""); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("empty: got %v, want unauthorized", err)
	}
	if _, err := m.Validate("not-a-token"); !apperror.Is(err, apperror.KindUnauthorized) {
		t.Errorf("garbage: got %v, want unauthorized", err)
	}
}

func TestTokenFromRequest(t *testing.T) {
	m := NewManager("s", time.Hour, "sid", false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := m.TokenFromRequest(req); got != "" {
		t.Errorf("no credentials: got %q", got)
	}

	req.Header.Set("Authorization", "Bearer abc")
	if got := m.TokenFromRequest(req); got != "abc" {
		t.Errorf("bearer: got %q", got)
	}

	req.AddCookie(&http.Cookie{Name: "sid", Value: "from-cookie"})
	if got := m.TokenFromRequest(req); got != "from-cookie" {
		t.Errorf("cookie should win: got %q", got)
	}
}

func TestCookieSecureDetection(t *testing.T) {
	m := NewManager("s", 24*time.Hour, "sid", false)

	plain := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	cookie := m.Cookie(plain, "tok")
	if cookie.Secure {
		t.Error("plain http should not get a secure cookie")
	}
	if !cookie.HttpOnly || cookie.SameSite != http.SameSiteLaxMode || cookie.Path != "/" {
		t.Errorf("unexpected cookie attributes: %+v", cookie)
	}
	if cookie.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", cookie.MaxAge)
	}

	proxied := httptest.NewRequest(http.MethodGet, "http://example.com/", nil)
	proxied.Header.Set("X-Forwarded-Proto", "https")
	if !m.Cookie(proxied, "tok").Secure {
		t.Error("forwarded https should get a secure cookie")
	}

	direct := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	direct.TLS = &tls.ConnectionState{}
	if !m.Cookie(direct, "tok").Secure {
		t.Error("tls request should get a secure cookie")
	}

	forced := NewManager("s", time.Hour, "sid", true)
	if !forced.Cookie(plain, "tok").Secure {
		t.Error("forced secure should override detection")
	}

	if m.ClearCookie(plain).MaxAge >= 0 {
		t.Error("cleared cookie should expire immediately")
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("yilmaz.4567")
	if err != nil {
		t.Fatal(err)
	}
	if !CheckPasswordHash("yilmaz.4567", hash) {
		t.Error("correct password rejected")
	}
	if CheckPasswordHash("yilmaz.0000", hash) {
		t.Error("wrong password accepted")
	}
}
