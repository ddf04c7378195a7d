package handlers

import (
	"time"

	"github.com/campushub/identity-service/internal/core/domain"
)

// MessageResponse is the uniform body for plain outcomes and all non-2xx
// responses.
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest defines the registration payload. Full name, phone, and
// roll number are optional seed attributes for the profile.
type RegisterRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required"`
	FullName   string `json:"fullName"`
	Phone      string `json:"phone"`
	RollNumber string `json:"rollNumber"`
}

// RegisterResponse reports the classified role and, in development with the
// echo flag on, the issued code.
type RegisterResponse struct {
	Message string      `json:"message"`
	Role    domain.Role `json:"role"`
	DevOtp  string      `json:"devOtp,omitempty"`
}

// VerifyRequest holds the code submission payload, shared by registration
// verification and login step B.
type VerifyRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyResponse is returned after a successful verification, carrying the
// freshly signed bearer token.
type VerifyResponse struct {
	Message  string      `json:"message"`
	Token    string      `json:"token"`
	Role     domain.Role `json:"role"`
	ID       int64       `json:"id"`
	FullName string      `json:"fullName"`
}

// LoginRequest defines the login step A payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse reports that a code was sent, and whether the account still
// needs its initial verification.
type LoginResponse struct {
	Message           string `json:"message"`
	NeedsVerification bool   `json:"needsVerification,omitempty"`
	DevOtp            string `json:"devOtp,omitempty"`
}

// LoginVerifyResponse extends VerifyResponse with directory attributes for
// student accounts.
type LoginVerifyResponse struct {
	Message        string         `json:"message"`
	Token          string         `json:"token"`
	Role           domain.Role    `json:"role"`
	ID             int64          `json:"id"`
	FullName       string         `json:"fullName"`
	StudentProfile map[string]any `json:"studentProfile,omitempty"`
}

// ForgotPasswordRequest initiates a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPasswordResponse reports that a reset code was sent.
type ForgotPasswordResponse struct {
	Message string `json:"message"`
	DevOtp  string `json:"devOtp,omitempty"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// ProfileResponse is the caller's account view.
type ProfileResponse struct {
	ID             int64          `json:"id"`
	Email          string         `json:"email"`
	Role           domain.Role    `json:"role"`
	FullName       string         `json:"fullName"`
	Phone          string         `json:"phone,omitempty"`
	RollNumber     string         `json:"rollNumber,omitempty"`
	ProfileDetails map[string]any `json:"profileDetails,omitempty"`
}

// ProfileUpdateResponse confirms an update and returns the resulting view.
type ProfileUpdateResponse struct {
	Message string          `json:"message"`
	Profile ProfileResponse `json:"profile"`
}

// ProfileUpdateRequest carries the updatable profile fields. Absent fields
// keep their current values.
type ProfileUpdateRequest struct {
	FullName   *string `json:"fullName"`
	Phone      *string `json:"phone"`
	RollNumber *string `json:"rollNumber"`
}

// SessionCreateRequest optionally labels the new session with device info.
type SessionCreateRequest struct {
	DeviceInfo string `json:"deviceInfo"`
}

// SessionCreateResponse returns the opaque token exactly once.
type SessionCreateResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SessionPayload is the list view of a session. The token hash never leaves
// the service.
type SessionPayload struct {
	ID             string    `json:"id"`
	DeviceInfo     *string   `json:"deviceInfo,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	LastAccessedAt time.Time `json:"lastAccessedAt"`
	ExpiresAt      time.Time `json:"expiresAt"`
	Active         bool      `json:"active"`
}

// SessionListResponse wraps the caller's sessions.
type SessionListResponse struct {
	Sessions []SessionPayload `json:"sessions"`
	Total    int              `json:"total"`
}

// SessionRevokeAllResponse summarises a bulk revocation.
type SessionRevokeAllResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadinessResponse reports per-dependency readiness.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func newSessionPayload(session domain.Session) SessionPayload {
	return SessionPayload{
		ID:             session.ID,
		DeviceInfo:     session.DeviceInfo,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		ExpiresAt:      session.ExpiresAt,
		Active:         session.Active,
	}
}

func newProfileResponse(account *domain.Account) ProfileResponse {
	return ProfileResponse{
		ID:             account.ID,
		Email:          account.Email,
		Role:           account.Role,
		FullName:       account.FullName,
		Phone:          account.ProfileString("phone"),
		RollNumber:     account.ProfileString("roll_number"),
		ProfileDetails: account.Profile,
	}
}
