package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/campushub/identity-service/internal/infra/logger"
	"github.com/campushub/identity-service/internal/usecase"
)

// AuthHandler serves registration, the two-step login, and password reset.
type AuthHandler struct {
	registration *usecase.RegistrationService
	auth         *usecase.AuthService
	reset        *usecase.PasswordResetService
	dispatcher   NotificationDispatcher
	echoOTP      bool
	logger       *zap.Logger
}

// NewAuthHandler constructs the authentication handler. echoOTP echoes issued
// codes in responses; configuration refuses it in production.
func NewAuthHandler(
	registration *usecase.RegistrationService,
	auth *usecase.AuthService,
	reset *usecase.PasswordResetService,
	dispatcher NotificationDispatcher,
	echoOTP bool,
	log *zap.Logger,
) *AuthHandler {
	if dispatcher == nil {
		dispatcher = noopDispatcher{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{
		registration: registration,
		auth:         auth,
		reset:        reset,
		dispatcher:   dispatcher,
		echoOTP:      echoOTP,
		logger:       log,
	}
}

var otpErrorCases = []ErrorCase{
	{Err: usecase.ErrCodeInvalid, Status: http.StatusUnauthorized, Message: "invalid code"},
	{Err: usecase.ErrCodeExpired, Status: http.StatusUnauthorized, Message: "code expired"},
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email and password are required"})
		return
	}

	profile := map[string]any{}
	if req.Phone != "" {
		profile["phone"] = req.Phone
	}
	if req.RollNumber != "" {
		profile["roll_number"] = req.RollNumber
	}

	account, issued, err := h.registration.Register(c.Request.Context(), req.Email, req.Password, req.FullName, profile)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAlreadyRegistered, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrUnclassifiableEmail, Status: http.StatusBadRequest, Message: "email does not belong to the institution"},
			{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet complexity requirements"},
		}, http.StatusInternalServerError, "registration failed")
		return
	}

	h.deliver(c, CodeNotification{
		Email:    account.Email,
		FullName: account.FullName,
		Purpose:  PurposeVerification,
		Code:     issued.Code,
		Expires:  issued.ExpiresAt,
	})

	resp := RegisterResponse{
		Message: "verification code sent",
		Role:    account.Role,
	}
	if h.echoOTP {
		resp.DevOtp = issued.Code
	}

	c.JSON(http.StatusCreated, resp)
}

// Verify handles POST /auth/verify.
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email and code are required"})
		return
	}

	verified, err := h.registration.Verify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, otpErrorCases, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, VerifyResponse{
		Message:  "account verified",
		Token:    verified.Token,
		Role:     verified.Account.Role,
		ID:       verified.Account.ID,
		FullName: verified.Account.FullName,
	})
}

// Login handles POST /auth/login (step A).
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email and password are required"})
		return
	}

	challenge, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid credentials"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	purpose := PurposeLogin
	message := "login code sent"
	if challenge.NeedsVerification {
		purpose = PurposeVerification
		message = "account not verified, verification code sent"
	}

	h.deliver(c, CodeNotification{
		Email:   req.Email,
		Purpose: purpose,
		Code:    challenge.Code.Code,
		Expires: challenge.Code.ExpiresAt,
	})

	resp := LoginResponse{
		Message:           message,
		NeedsVerification: challenge.NeedsVerification,
	}
	if h.echoOTP {
		resp.DevOtp = challenge.Code.Code
	}

	c.JSON(http.StatusOK, resp)
}

// LoginVerify handles POST /auth/login/verify (step B).
func (h *AuthHandler) LoginVerify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email and code are required"})
		return
	}

	result, err := h.auth.LoginVerify(c.Request.Context(), req.Email, req.Code)
	if err != nil {
		RespondWithMappedError(c, err, otpErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginVerifyResponse{
		Message:        "login successful",
		Token:          result.Token,
		Role:           result.Account.Role,
		ID:             result.Account.ID,
		FullName:       result.Account.FullName,
		StudentProfile: result.StudentProfile,
	})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email is required"})
		return
	}

	issued, err := h.reset.Forgot(c.Request.Context(), req.Email)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
		}, http.StatusInternalServerError, "password reset failed")
		return
	}

	h.deliver(c, CodeNotification{
		Email:   req.Email,
		Purpose: PurposePasswordReset,
		Code:    issued.Code,
		Expires: issued.ExpiresAt,
	})

	resp := ForgotPasswordResponse{Message: "password reset code sent"}
	if h.echoOTP {
		resp.DevOtp = issued.Code
	}

	c.JSON(http.StatusOK, resp)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, MessageResponse{Message: "email, code, and new password are required"})
		return
	}

	err := h.reset.Reset(c.Request.Context(), req.Email, req.Code, req.NewPassword)
	if err != nil {
		RespondWithMappedError(c, err, append(otpErrorCases,
			ErrorCase{Err: usecase.ErrPasswordPolicyViolation, Status: http.StatusBadRequest, Message: "password does not meet complexity requirements"},
		), http.StatusInternalServerError, "password reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password reset successful"})
}

func (h *AuthHandler) deliver(c *gin.Context, payload CodeNotification) {
	if err := h.dispatcher.SendCode(c.Request.Context(), payload); err != nil {
		h.logger.Warn("code dispatch failed",
			zap.String("email", logger.MaskEmail(payload.Email)),
			zap.String("purpose", payload.Purpose))
	}
}
