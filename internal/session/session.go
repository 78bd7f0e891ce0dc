package session

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderName = "X-Session-ID"
	QueryParam = "session_id"
	contextKey = "session_id"
	maxLen     = 64
)

// Middleware scopes every request to a session id taken from the
// X-Session-ID header or the session_id query parameter. Requests without
// one get a fresh id, echoed back in the response header.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderName))
		if id == "" {
			id = strings.TrimSpace(c.Query(QueryParam))
		}
		if id == "" {
			id = uuid.NewString()
		} else if !valid(id) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid session id",
			})
			return
		}

		c.Set(contextKey, id)
		c.Header(HeaderName, id)
		c.Next()
	}
}

// From returns the session id set by Middleware.
func From(c *gin.Context) string {
	return c.GetString(contextKey)
}

func valid(id string) bool {
	if len(id) > maxLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}
