package interceptors

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/types"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session"

// SessionValidator resolves a session token to its user. Expired and
// unknown tokens are both types.ErrNotFound.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*types.User, error)
}

// SessionMiddleware authenticates requests from the session cookie and
// stores the resolved user in the gin context under "user" and "userID".
// Requests with a missing, unknown or expired token are rejected with 401
// and the stale cookie is cleared.
func SessionMiddleware(validator SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(SessionCookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
			return
		}

		user, vErr := validator.Validate(c.Request.Context(), token)
		if vErr != nil {
			if errors.Is(vErr, types.ErrNotFound) {
				clearSessionCookie(c)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			global.Logger.Log("error", "failed to validate session", "error", vErr.Error())
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

func clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", global.Conf.Session.SecureCookie, true)
}
