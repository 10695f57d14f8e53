package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kebisafe/kebisafe/internal/security"
)

const (
	SessionCookie   = "kebisafe_session"
	SessionIDKey    = "session_id"
	SessionTokenKey = "session_token"
)

// Session resolves the owner session from the Authorization header or the
// session cookie. It never aborts: anonymous requests proceed and the
// handlers decide what an anonymous caller may do.
func Session(sessions *security.Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token = strings.TrimPrefix(header, "Bearer ")
		} else if cookie, err := c.Cookie(SessionCookie); err == nil {
			token = cookie
		}

		if token != "" {
			if sessionID, err := sessions.Resolve(c.Request.Context(), token); err == nil {
				c.Set(SessionIDKey, sessionID)
				c.Set(SessionTokenKey, token)
			}
		}

		c.Next()
	}
}
