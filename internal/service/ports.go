package service

import (
	"context"
	"time"

	"github.com/instasora/user-service/internal/domain"
)

// UserStore is the persistence port. *repository.UsersRepository satisfies
// it; tests substitute an in-memory fake. Implementations enforce the
// unique indexes on username, email and the OAuth2 identity pair, returning
// the matching domain error on violation — that rejection is the
// correctness backstop when optimistic checks race.
type UserStore interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// GetByEmailOrUsername matches the identifier against the email field
	// case-insensitively (stored emails are lowercase) and the username
	// field exactly.
	GetByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error)
	GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error)
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ConsumeVerificationToken(ctx context.Context, token string) (*domain.User, error)
	SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error
	ConsumeResetToken(ctx context.Context, token, passwordHash string) error
	UpdateProfile(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	LinkProvider(ctx context.Context, id int64, provider, providerID string) error
}

// PasswordHasher is the one-way credential hashing port.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// TokenIssuer signs bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}

// Mailer is the fire-and-forget notification port. Implementations must
// not block the caller; delivery outcome is never reported back.
type Mailer interface {
	SendVerification(email, token string)
	SendPasswordReset(email, token string)
}
