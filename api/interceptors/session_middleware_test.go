package interceptors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/lettermail/go-lettermail-server/types"
)

type stubValidator struct {
	user *types.User
	err  error
}

func (s *stubValidator) Validate(ctx context.Context, token string) (*types.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func newTestRouter(validator SessionValidator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/protected", SessionMiddleware(validator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetInt64("userID")})
	})
	return router
}

func TestSessionMiddleware_NoCookie(t *testing.T) {
	router := newTestRouter(&stubValidator{err: types.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}
}

func TestSessionMiddleware_UnknownToken(t *testing.T) {
	router := newTestRouter(&stubValidator{err: types.ErrNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", w.Code)
	}

	// the stale cookie must be cleared
	setCookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(setCookie, SessionCookieName+"=") || !strings.Contains(setCookie, "Max-Age=0") {
		t.Fatalf("stale session cookie not cleared: %q", setCookie)
	}
}

func TestSessionMiddleware_ValidToken(t *testing.T) {
	user := &types.User{ID: 42, FullName: "Alice Carter", Email: "alice@example.com"}
	router := newTestRouter(&stubValidator{user: user})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "good-token"})
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "42") {
		t.Fatalf("handler did not see the user id: %s", w.Body.String())
	}
}
