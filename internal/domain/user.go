package domain

import "time"

// Role is the access role of a user account.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Field length limits enforced at validation and in the schema.
const (
	MaxUsernameLen = 30
	MaxNameLen     = 100
	MaxBioLen      = 150
)

// User represents the account. Verification and reset tokens live on the
// row itself and are nulled when consumed.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string

	FirstName       string
	LastName        string
	Bio             string
	ProfileImageURL string
	Private         bool

	Role    Role
	Enabled bool

	VerificationToken *string

	ResetPasswordToken  *string
	ResetPasswordExpiry *time.Time

	OAuth2Provider *string
	OAuth2ID       *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResetTokenExpired reports whether the pending reset token is unusable at
// the given instant. A token expires at its stored instant, not after it.
func (u *User) ResetTokenExpired(now time.Time) bool {
	if u.ResetPasswordToken == nil || u.ResetPasswordExpiry == nil {
		return true
	}
	return !now.Before(*u.ResetPasswordExpiry)
}

// HasFederatedIdentity reports whether the account is linked to an OAuth2
// provider.
func (u *User) HasFederatedIdentity() bool {
	return u.OAuth2Provider != nil && u.OAuth2ID != nil
}
