package auth

import (
	"net/http"

	"github.com/lucasvital/todocomplete/internal/domain"

	"github.com/gin-gonic/gin"
)

const SessionCookieName = "session_id"

const (
	contextKeyIdentity = "identity"
	contextKeySession  = "session_id"
)

// SessionIDFromContext returns the session ID set by RequireSession.
func SessionIDFromContext(c *gin.Context) string {
	return c.GetString(contextKeySession)
}

// IdentityFromContext returns the identity set by RequireSession.
func IdentityFromContext(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return domain.Identity{}, false
	}
	who, ok := v.(domain.Identity)
	return who, ok
}

// RequireSession returns a middleware that checks for a valid session cookie
// and sets the current identity in context. If missing or invalid, responds with 401.
func RequireSession(sessions Sessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := c.Cookie(SessionCookieName)
		if err != nil || sessionID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		who, ok := sessions.Get(c.Request.Context(), sessionID)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}
		c.Set(contextKeyIdentity, who)
		c.Set(contextKeySession, sessionID)
		c.Next()
	}
}
