package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/domain"
)

// DefaultResetTokenTTL is the password-reset token lifetime.
const DefaultResetTokenTTL = time.Hour

// Config holds user service settings.
type Config struct {
	ResetTokenTTL time.Duration
}

// UserService orchestrates account operations over injected collaborators.
type UserService struct {
	config Config
	store  UserStore
	hasher PasswordHasher
	tokens TokenIssuer
	mailer Mailer
	logger *slog.Logger
}

// NewUserService creates a user service. The mailer may be nil when no
// transport is configured; verification and reset flows then skip dispatch.
func NewUserService(config Config, store UserStore, hasher PasswordHasher, tokens TokenIssuer, mailer Mailer, logger *slog.Logger) *UserService {
	if config.ResetTokenTTL == 0 {
		config.ResetTokenTTL = DefaultResetTokenTTL
	}
	return &UserService{
		config: config,
		store:  store,
		hasher: hasher,
		tokens: tokens,
		mailer: mailer,
		logger: logger,
	}
}

// RegisterParams are the registration inputs.
type RegisterParams struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// Register creates a disabled local account and dispatches a verification
// email. The conflict error names the field that collided.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (*domain.User, error) {
	if err := auth.ValidateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := auth.ValidateUsername(params.Username); err != nil {
		return nil, err
	}
	if err := auth.ValidatePassword(params.Password); err != nil {
		return nil, err
	}
	firstName := auth.SanitizeName(params.FirstName)
	lastName := auth.SanitizeName(params.LastName)
	if err := auth.ValidateName(firstName); err != nil {
		return nil, err
	}
	if err := auth.ValidateName(lastName); err != nil {
		return nil, err
	}
	email := auth.NormalizeEmail(params.Email)

	// Optimistic checks give a friendly error before hashing; the unique
	// indexes at insert time remain the final authority.
	if exists, err := s.store.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrEmailTaken
	}
	if exists, err := s.store.ExistsByUsername(ctx, params.Username); err != nil {
		return nil, err
	} else if exists {
		return nil, domain.ErrUsernameTaken
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, err
	}

	token := uuid.NewString()
	user := &domain.User{
		Username:          params.Username,
		Email:             email,
		PasswordHash:      hash,
		FirstName:         firstName,
		LastName:          lastName,
		Role:              domain.RoleUser,
		Enabled:           false,
		VerificationToken: &token,
	}

	if err := s.store.Create(ctx, user); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		s.mailer.SendVerification(user.Email, token)
	}

	return user, nil
}

// VerifyEmail consumes a verification token, enabling the account. A token
// can only be consumed once; a second submission fails with invalid-token.
func (s *UserService) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidVerificationToken
	}
	_, err := s.store.ConsumeVerificationToken(ctx, token)
	return err
}

// Login authenticates an identifier (username or email) and password, and
// issues a bearer token. Unknown identifier and wrong password fail with
// the same error; a disabled account is rejected only after the credential
// pair has been proven.
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, *UserProfile, error) {
	user, err := s.store.GetByEmailOrUsername(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", nil, domain.ErrInvalidCredentials
	}

	if !user.Enabled {
		return "", nil, domain.ErrAccountDisabled
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", nil, err
	}
	return token, profileOf(user), nil
}

// ForgotPassword stores a reset token with a fixed expiry and dispatches
// the reset email.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.store.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return err
	}

	token := uuid.NewString()
	expiry := time.Now().Add(s.config.ResetTokenTTL)
	if err := s.store.SetResetToken(ctx, user.ID, token, expiry); err != nil {
		return err
	}

	if s.mailer != nil {
		s.mailer.SendPasswordReset(user.Email, token)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password hash.
// The expiry is checked against the real current time, and again inside
// the conditional store write.
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidResetToken
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.store.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidResetToken
		}
		return err
	}
	if user.ResetTokenExpired(time.Now()) {
		return domain.ErrResetTokenExpired
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.ConsumeResetToken(ctx, token, hash)
}

// Profile returns the profile projection for a user id.
func (s *UserService) Profile(ctx context.Context, id int64) (*UserProfile, error) {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// UpdateProfileParams carries exactly the mutable profile fields.
// Credentials, role and tokens are not reachable through this type.
type UpdateProfileParams struct {
	FirstName       string
	LastName        string
	Bio             string
	ProfileImageURL string
	Private         bool
}

// UpdateProfile overwrites the mutable profile fields and returns the
// updated projection.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, params UpdateProfileParams) (*UserProfile, error) {
	if err := auth.ValidateBio(params.Bio); err != nil {
		return nil, err
	}
	firstName := auth.SanitizeName(params.FirstName)
	lastName := auth.SanitizeName(params.LastName)
	if err := auth.ValidateName(firstName); err != nil {
		return nil, err
	}
	if err := auth.ValidateName(lastName); err != nil {
		return nil, err
	}

	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = firstName
	user.LastName = lastName
	user.Bio = params.Bio
	user.ProfileImageURL = params.ProfileImageURL
	user.Private = params.Private

	if err := s.store.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}
	return profileOf(user), nil
}

// ChangePassword replaces the hash after verifying the current password.
// A wrong current password leaves the stored hash untouched.
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return domain.ErrWrongPassword
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdatePassword(ctx, user.ID, hash)
}

// UserProfile is the outward projection of an account.
type UserProfile struct {
	ID              int64       `json:"id"`
	FirstName       string      `json:"firstName"`
	LastName        string      `json:"lastName"`
	Username        string      `json:"username"`
	Email           string      `json:"email"`
	Bio             string      `json:"bio"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Private         bool        `json:"isPrivate"`
	Role            domain.Role `json:"role"`
}

func profileOf(user *domain.User) *UserProfile {
	return &UserProfile{
		ID:              user.ID,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Username:        user.Username,
		Email:           user.Email,
		Bio:             user.Bio,
		ProfileImageURL: user.ProfileImageURL,
		Private:         user.Private,
		Role:            user.Role,
	}
}
