package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushub/identity-service/internal/transport/http/middleware"
	"github.com/campushub/identity-service/internal/usecase"
)

// ProfileHandler serves the caller's own account view.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

// NewProfileHandler constructs the profile handler.
func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Get handles GET /profile.
func (h *ProfileHandler) Get(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}

	account, err := h.profiles.Get(c.Request.Context(), identity.AccountID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "profile lookup failed")
		return
	}

	c.JSON(http.StatusOK, newProfileResponse(account))
}

// Update handles PUT /profile. The response wraps the refreshed view under
// "profile" alongside a confirmation message.
func (h *ProfileHandler) Update(c *gin.Context) {
	identity, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, MessageResponse{Message: "authentication required"})
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "invalid profile payload"})
		return
	}

	account, err := h.profiles.Update(c.Request.Context(), identity.AccountID, usecase.ProfileUpdate{
		FullName:   req.FullName,
		Phone:      req.Phone,
		RollNumber: req.RollNumber,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "profile update failed")
		return
	}

	c.JSON(http.StatusOK, ProfileUpdateResponse{
		Message: "profile updated",
		Profile: newProfileResponse(account),
	})
}
