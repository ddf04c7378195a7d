package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/identity-service/internal/transport/http/middleware"
	"github.com/campushub/identity-service/internal/usecase"
)

// SessionHandler serves session issuance and revocation.
type SessionHandler struct {
	sessions *usecase.SessionService
}

// NewSessionHandler constructs the session handler.
func NewSessionHandler(sessions *usecase.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create handles POST /sessions. Issuance is decoupled from login: the caller
// proves identity with a bearer token and trades it for a long-lived opaque
// credential. A session cannot mint another session.
func (h *SessionHandler) Create(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}
	if identity.Mode != middleware.AuthModeBearer {
		c.JSON(http.StatusForbidden, MessageResponse{Message: "session creation requires a bearer token"})
		return
	}

	var req SessionCreateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid session payload"})
			return
		}
	}

	created, err := h.sessions.Create(c.Request.Context(), identity.AccountID, req.DeviceInfo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "session creation failed"})
		return
	}

	c.JSON(http.StatusCreated, SessionCreateResponse{
		Token:     created.Token,
		ExpiresAt: created.Session.ExpiresAt,
	})
}

// List handles GET /sessions.
func (h *SessionHandler) List(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}

	sessions, err := h.sessions.List(c.Request.Context(), identity.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "session listing failed"})
		return
	}

	payload := make([]SessionPayload, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, newSessionPayload(session))
	}

	c.JSON(http.StatusOK, SessionListResponse{Sessions: payload, Total: len(payload)})
}

// RevokeCurrent handles DELETE /sessions/current, revoking the session that
// authenticated (or rode along with) this request.
func (h *SessionHandler) RevokeCurrent(c *gin.Context) {
	if _, ok := middleware.GetIdentity(c); !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}

	if _, ok := middleware.GetSession(c); !ok {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "no session token supplied"})
		return
	}

	token := c.GetHeader(middleware.SessionTokenHeader)
	if err := h.sessions.Invalidate(c.Request.Context(), token); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionNotFound, Status: http.StatusUnauthorized, Message: "invalid or expired session"},
		}, http.StatusInternalServerError, "session revocation failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session revoked"})
}

// RevokeAll handles DELETE /sessions, revoking every session of the caller.
func (h *SessionHandler) RevokeAll(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}

	revoked, err := h.sessions.InvalidateAll(c.Request.Context(), identity.AccountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, MessageResponse{Message: "session revocation failed"})
		return
	}

	c.JSON(http.StatusOK, SessionRevokeAllResponse{
		Message: "sessions revoked",
		Revoked: revoked,
	})
}
