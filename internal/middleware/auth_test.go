package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T, want string, called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		id, ok := GetUserIDFromContext(r.Context())
		if !ok {
			t.Fatalf("user id not in context")
		}
		if id != want {
			t.Fatalf("user id from context = %q, want %q", id, want)
		}
	})
}

func TestAuthMiddleware_WithBearerToken(t *testing.T) {
	m := NewAuthMiddleware("test-secret", time.Hour)

	nextCalled := false
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+m.IssueToken("user-42"))

	m.Middleware(protected(t, "user-42", &nextCalled)).ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, nextCalled, "next handler was not called")
}

func TestAuthMiddleware_WithValidCookie(t *testing.T) {
	m := NewAuthMiddleware("test-secret", time.Hour)

	w := httptest.NewRecorder()
	m.SetAuthCookie(w, m.IssueToken("user-42"))
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies, "no cookies set by SetAuthCookie")

	nextCalled := false
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.AddCookie(cookies[0])

	m.Middleware(protected(t, "user-42", &nextCalled)).ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, nextCalled, "next handler was not called")
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	m := NewAuthMiddleware("test-secret", time.Hour)
	other := NewAuthMiddleware("other-secret", time.Hour)

	expired := NewAuthMiddleware("test-secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	valid := m.IssueToken("user-42")
	tampered := strings.Replace(valid, "user-42", "user-43", 1)

	tests := []struct {
		name   string
		header string
	}{
		{name: "no token"},
		{name: "garbage", header: "Bearer nonsense"},
		{name: "foreign signature", header: "Bearer " + other.IssueToken("user-42")},
		{name: "tampered user id", header: "Bearer " + tampered},
		{name: "expired", header: "Bearer " + expired.IssueToken("user-42")},
		{name: "wrong scheme", header: "Basic " + valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			m.Middleware(next).ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
		})
	}
}

func TestNewAuthMiddleware_RandomKeyWhenSecretEmpty(t *testing.T) {
	a := NewAuthMiddleware("", 0)
	b := NewAuthMiddleware("", 0)

	assert.Len(t, a.secretKey, 32)
	assert.Equal(t, defaultTokenTTL, a.ttl)

	_, ok := b.parseToken(a.IssueToken("u1"))
	assert.False(t, ok)
}
