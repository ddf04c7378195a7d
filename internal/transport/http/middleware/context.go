package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/campushub/identity-service/internal/core/domain"
)

const (
	// TraceIDHeader carries the caller-supplied trace identifier.
	TraceIDHeader = "X-Trace-ID"
	// TraceIDKey is the gin context key for the trace identifier.
	TraceIDKey = "trace_id"

	identityKey = "identity"
	sessionKey  = "session"
)

// AuthMode records which credential authenticated the request.
type AuthMode string

const (
	AuthModeBearer  AuthMode = "bearer"
	AuthModeSession AuthMode = "session"
)

// Identity is the authenticated principal attached by the gateway. Bearer
// requests carry the role baked into the token; session requests carry the
// role read freshly from the store.
type Identity struct {
	AccountID int64
	Email     string
	Role      domain.Role
	Mode      AuthMode
}

// EnrichContext assigns each request a trace identifier, echoed in the
// response headers.
func EnrichContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID retrieves the trace identifier from the context.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(TraceIDKey); exists {
		if id, ok := traceID.(string); ok {
			return id
		}
	}
	return ""
}

// GetIdentity returns the authenticated principal, if any.
func GetIdentity(c *gin.Context) (Identity, bool) {
	value, exists := c.Get(identityKey)
	if !exists {
		return Identity{}, false
	}
	identity, ok := value.(Identity)
	return identity, ok
}

// GetSession returns the verified session attached to the request, if any.
// Bearer requests have one only when they also presented a session token.
func GetSession(c *gin.Context) (*domain.Session, bool) {
	value, exists := c.Get(sessionKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*domain.Session)
	return session, ok
}
