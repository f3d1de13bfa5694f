package users

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/instasora/user-service/internal/domain"
	"github.com/instasora/user-service/internal/http/middleware"
	"github.com/instasora/user-service/internal/httputil"
	"github.com/instasora/user-service/internal/service"
)

// Handler handles account endpoints.
type Handler struct {
	logger *slog.Logger
	users  *service.UserService
}

// NewHandler creates a new users handler.
func NewHandler(logger *slog.Logger, users *service.UserService) *Handler {
	return &Handler{logger: logger, users: users}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail"`
	Password        string `json:"password"`
}

// LoginResponse carries the bearer token and the profile of the
// authenticated user.
type LoginResponse struct {
	Token string               `json:"token"`
	User  *service.UserProfile `json:"user"`
}

// ForgotPasswordRequest represents a password reset request.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest carries a reset token and the replacement password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// UpdateProfileRequest carries the mutable profile fields.
type UpdateProfileRequest struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
	Private         bool   `json:"isPrivate"`
}

// ChangePasswordRequest carries the current and replacement passwords.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// Register handles user registration.
// POST /api/v1/user/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Username == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	user, err := h.users.Register(r.Context(), service.RegisterParams{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailTaken):
			httputil.Error(w, http.StatusConflict, "email already in use")
		case errors.Is(err, domain.ErrUsernameTaken):
			httputil.Error(w, http.StatusConflict, "username already taken")
		case errors.Is(err, domain.ErrInvalidEmail):
			httputil.Error(w, http.StatusBadRequest, "invalid email address")
		case errors.Is(err, domain.ErrInvalidUsername):
			httputil.Error(w, http.StatusBadRequest, "invalid username format: must be 3-30 characters, alphanumeric/underscore/hyphen, start with alphanumeric")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, domain.ErrNameTooLong):
			httputil.Error(w, http.StatusBadRequest, "name must be at most 100 characters")
		default:
			h.logger.Error("registration failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	httputil.Message(w, http.StatusCreated, "User registered successfully. Please check your email to verify your account.")
}

// VerifyEmail consumes a verification token from the query string.
// GET /api/v1/user/verify-email?token=...
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httputil.Error(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.users.VerifyEmail(r.Context(), token); err != nil {
		if errors.Is(err, domain.ErrInvalidVerificationToken) {
			httputil.Error(w, http.StatusBadRequest, "invalid verification token")
			return
		}
		h.logger.Error("email verification failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "verification failed")
		return
	}

	httputil.Message(w, http.StatusOK, "Email verified successfully")
}

// Login handles credential login.
// POST /api/v1/user/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UsernameOrEmail == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "usernameOrEmail and password are required")
		return
	}

	token, profile, err := h.users.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			httputil.Error(w, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, domain.ErrAccountDisabled):
			httputil.Error(w, http.StatusForbidden, "account not verified. please check your email")
		default:
			h.logger.Error("login failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "login failed")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, LoginResponse{Token: token, User: profile})
}

// ForgotPassword starts the password reset flow.
// POST /api/v1/user/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	if err := h.users.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "no account found for this email")
			return
		}
		h.logger.Error("password reset request failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "password reset request failed")
		return
	}

	httputil.Message(w, http.StatusOK, "Password reset email sent")
}

// ResetPassword consumes a reset token and sets the new password.
// POST /api/v1/user/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Token == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "token and newPassword are required")
		return
	}

	if err := h.users.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidResetToken):
			httputil.Error(w, http.StatusBadRequest, "invalid reset token")
		case errors.Is(err, domain.ErrResetTokenExpired):
			httputil.Error(w, http.StatusBadRequest, "reset token expired")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		default:
			h.logger.Error("password reset failed", "error", err)
			httputil.Error(w, http.StatusInternalServerError, "password reset failed")
		}
		return
	}

	httputil.Message(w, http.StatusOK, "Password reset successfully")
}

// Profile returns the authenticated user's profile.
// GET /api/v1/user/profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			httputil.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to load profile", "error", err, "user_id", userID)
		httputil.Error(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// UpdateProfile overwrites the authenticated user's mutable profile fields.
// PUT /api/v1/user/profile
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.users.UpdateProfile(r.Context(), userID, service.UpdateProfileParams{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Bio:             req.Bio,
		ProfileImageURL: req.ProfileImageURL,
		Private:         req.Private,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrBioTooLong):
			httputil.Error(w, http.StatusBadRequest, "bio must be at most 150 characters")
		case errors.Is(err, domain.ErrNameTooLong):
			httputil.Error(w, http.StatusBadRequest, "name must be at most 100 characters")
		case errors.Is(err, domain.ErrUserNotFound):
			httputil.Error(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("failed to update profile", "error", err, "user_id", userID)
			httputil.Error(w, http.StatusInternalServerError, "failed to update profile")
		}
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// ChangePassword replaces the password after verifying the current one.
// POST /api/v1/user/change-password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "currentPassword and newPassword are required")
		return
	}

	if err := h.users.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, domain.ErrWrongPassword):
			httputil.Error(w, http.StatusBadRequest, "wrong password")
		case errors.Is(err, domain.ErrWeakPassword):
			httputil.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		case errors.Is(err, domain.ErrUserNotFound):
			httputil.Error(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("failed to change password", "error", err, "user_id", userID)
			httputil.Error(w, http.StatusInternalServerError, "failed to change password")
		}
		return
	}

	httputil.Message(w, http.StatusOK, "Password changed successfully")
}
