package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campushub/identity-service/internal/core/domain"
	"github.com/campushub/identity-service/internal/infra/security"
	"github.com/campushub/identity-service/internal/usecase"
)

// SessionTokenHeader carries the opaque session token.
const SessionTokenHeader = "X-Session-Token"

type errorBody struct {
	Message string `json:"message"`
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, errorBody{Message: message})
}

// AuthGateway authenticates each request in one of two modes. A Bearer token,
// when present, is the primary credential: it must verify, and a session
// header riding along is extended best-effort only. Without a Bearer token
// the session header is the primary credential and must verify on its own.
// A failed primary credential never falls back to the other mode.
func AuthGateway(signer *security.TokenSigner, sessions *usecase.SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		sessionToken := strings.TrimSpace(c.GetHeader(SessionTokenHeader))

		switch {
		case authHeader != "":
			scheme, token, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				abortUnauthorized(c, "invalid authorization format: expected 'Bearer <token>'")
				return
			}

			claims, err := signer.Parse(strings.TrimSpace(token))
			if err != nil {
				abortUnauthorized(c, "invalid or expired token")
				return
			}

			c.Set(identityKey, Identity{
				AccountID: claims.AccountID,
				Email:     claims.Email,
				Role:      claims.Role,
				Mode:      AuthModeBearer,
			})

			// A session riding along with a valid bearer credential is kept
			// alive opportunistically; its failure is not the request's
			// problem.
			if sessionToken != "" {
				if session, err := sessions.Extend(c.Request.Context(), sessionToken); err == nil {
					c.Set(sessionKey, session)
				}
			}

		case sessionToken != "":
			session, err := sessions.Extend(c.Request.Context(), sessionToken)
			if err != nil {
				abortUnauthorized(c, "invalid or expired session")
				return
			}

			account, err := sessions.Account(c.Request.Context(), session)
			if err != nil {
				abortUnauthorized(c, "invalid or expired session")
				return
			}

			c.Set(identityKey, Identity{
				AccountID: account.ID,
				Email:     account.Email,
				Role:      account.Role,
				Mode:      AuthModeSession,
			})
			c.Set(sessionKey, session)

		default:
			abortUnauthorized(c, "no credential supplied")
			return
		}

		c.Next()
	}
}

// RequireRole rejects authenticated callers whose role is not in the allowed
// set.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		identity, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c, "authentication required")
			return
		}

		if _, ok := allowed[identity.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Message: "insufficient permissions"})
			return
		}

		c.Next()
	}
}
