package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/instasora/user-service/internal/domain"
)

// Unique constraint names from migrations/0001_users.sql. The indexes are
// the final authority on uniqueness when concurrent requests race past the
// optimistic existence checks.
const (
	constraintEmail    = "users_email_key"
	constraintUsername = "users_username_key"
	constraintIdentity = "users_oauth2_identity_key"
)

const userColumns = `
	id, username, email, password_hash, first_name, last_name, bio,
	profile_image_url, is_private, role, enabled, verification_token,
	reset_password_token, reset_password_expiry, oauth2_provider, oauth2_id,
	created_at, updated_at`

// UsersRepository handles user persistence.
type UsersRepository struct {
	db *sql.DB
}

// NewUsersRepository creates a new users repository.
func NewUsersRepository(db *sql.DB) *UsersRepository {
	return &UsersRepository{db: db}
}

// Create inserts a new user and fills in the system-assigned id and
// timestamps. Unique-index violations are translated to domain errors so
// callers can retry or report the colliding field.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			username, email, password_hash, first_name, last_name, bio,
			profile_image_url, is_private, role, enabled, verification_token,
			oauth2_provider, oauth2_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.Bio,
		user.ProfileImageURL, user.Private, user.Role, user.Enabled,
		user.VerificationToken, user.OAuth2Provider, user.OAuth2ID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return translateUniqueViolation(err)
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// GetByUsername retrieves a user by username.
func (r *UsersRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// GetByEmail retrieves a user by email.
func (r *UsersRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

// GetByEmailOrUsername resolves a login identifier against either field in
// a single query. Stored emails are lowercase, so the email side of the
// match folds the identifier; usernames match exactly.
func (r *UsersRepository) GetByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE email = lower($1) OR username = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, identifier))
}

// GetByProvider retrieves a user by the (provider, subject id) pair.
func (r *UsersRepository) GetByProvider(ctx context.Context, provider, providerID string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE oauth2_provider = $1 AND oauth2_id = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, provider, providerID))
}

// GetByResetToken retrieves a user by pending password-reset token.
func (r *UsersRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT` + userColumns + ` FROM users WHERE reset_password_token = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, token))
}

// ExistsByEmail checks if a user exists by email.
func (r *UsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// ExistsByUsername checks if a user exists by username.
func (r *UsersRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	return exists, err
}

// ConsumeVerificationToken enables the account holding the token and clears
// it in one statement, so a token can only ever be consumed once. Returns
// ErrInvalidVerificationToken when no row holds the token, which covers
// unknown and already-consumed tokens alike.
func (r *UsersRepository) ConsumeVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	query := `
		UPDATE users
		SET enabled = true, verification_token = NULL, updated_at = NOW()
		WHERE verification_token = $1
		RETURNING` + userColumns
	user, err := r.scanOne(r.db.QueryRowContext(ctx, query, token))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidVerificationToken
	}
	return user, err
}

// SetResetToken stores a pending password-reset token and its expiry.
func (r *UsersRepository) SetResetToken(ctx context.Context, id int64, token string, expiry time.Time) error {
	query := `
		UPDATE users
		SET reset_password_token = $2, reset_password_expiry = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query, id, token, expiry)
}

// ConsumeResetToken writes the new password hash and clears the token and
// expiry in one conditional statement. The expiry guard in the WHERE clause
// makes the database the final arbiter against racing or stale submissions;
// zero rows affected means the token lapsed between validation and write.
func (r *UsersRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_password_token = NULL,
		    reset_password_expiry = NULL, updated_at = NOW()
		WHERE reset_password_token = $1 AND reset_password_expiry > NOW()
	`
	result, err := r.db.ExecContext(ctx, query, token, passwordHash)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrResetTokenExpired
	}
	return nil
}

// UpdateProfile overwrites exactly the mutable profile fields.
func (r *UsersRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, bio = $4,
		    profile_image_url = $5, is_private = $6, updated_at = NOW()
		WHERE id = $1
	`
	return r.execOne(ctx, query,
		user.ID, user.FirstName, user.LastName, user.Bio,
		user.ProfileImageURL, user.Private,
	)
}

// UpdatePassword replaces the stored password hash.
func (r *UsersRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`
	return r.execOne(ctx, query, id, passwordHash)
}

// LinkProvider attaches an OAuth2 identity to an existing account. An
// account already linked to a different identity is never overwritten;
// re-linking the same pair is a no-op success.
func (r *UsersRepository) LinkProvider(ctx context.Context, id int64, provider, providerID string) error {
	query := `
		UPDATE users
		SET oauth2_provider = $2, oauth2_id = $3, updated_at = NOW()
		WHERE id = $1
		  AND (oauth2_provider IS NULL
		       OR (oauth2_provider = $2 AND oauth2_id = $3))
	`
	result, err := r.db.ExecContext(ctx, query, id, provider, providerID)
	if err != nil {
		return translateUniqueViolation(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrIdentityLinked
	}
	return nil
}

func (r *UsersRepository) execOne(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UsersRepository) scanOne(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.Bio,
		&user.ProfileImageURL, &user.Private, &user.Role, &user.Enabled,
		&user.VerificationToken,
		&user.ResetPasswordToken, &user.ResetPasswordExpiry,
		&user.OAuth2Provider, &user.OAuth2ID,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// translateUniqueViolation maps Postgres unique-index rejections (class
// 23505) to domain errors by constraint name.
func translateUniqueViolation(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != "23505" {
		return err
	}
	switch pqErr.Constraint {
	case constraintEmail:
		return domain.ErrEmailTaken
	case constraintUsername:
		return domain.ErrUsernameTaken
	case constraintIdentity:
		return domain.ErrIdentityLinked
	}
	return err
}
