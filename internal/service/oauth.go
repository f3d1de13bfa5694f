package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/instasora/user-service/internal/auth"
	"github.com/instasora/user-service/internal/domain"
)

// maxUsernameAttempts bounds the disambiguation loop. Suffixes run
// base, base0, base1, ...; hitting the bound means something other than
// normal contention is wrong.
const maxUsernameAttempts = 100

// CompleteOAuth2 finishes a federated login from a provider's raw claim
// set and returns a bearer token for the resolved local user.
//
// Resolution order: an exact (provider, subject) match reuses that user;
// an email match links the identity onto the existing account; otherwise a
// new enabled account is created with an unusable random password.
func (s *UserService) CompleteOAuth2(ctx context.Context, provider string, rawClaims map[string]any) (string, error) {
	claims, err := auth.AdapterFor(provider)(rawClaims)
	if err != nil {
		return "", err
	}

	user, err := s.store.GetByProvider(ctx, provider, claims.ProviderID)
	if err == nil {
		return s.tokens.Issue(user)
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return "", err
	}

	if claims.Email != "" {
		email := auth.NormalizeEmail(claims.Email)
		existing, err := s.store.GetByEmail(ctx, email)
		if err == nil {
			if err := s.store.LinkProvider(ctx, existing.ID, provider, claims.ProviderID); err != nil {
				return "", err
			}
			s.logger.Info("linked oauth2 identity to existing account",
				"provider", provider, "user_id", existing.ID)
			return s.tokens.Issue(existing)
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			return "", err
		}
	}

	user, err = s.createFederatedUser(ctx, provider, claims)
	if err != nil {
		return "", err
	}
	return s.tokens.Issue(user)
}

// createFederatedUser inserts a new enabled account for a first federated
// login. The username-disambiguation loop retries on the unique-index
// rejection at insert time rather than trusting a prior existence check,
// so concurrent first logins for the same local-part cannot collide.
func (s *UserService) createFederatedUser(ctx context.Context, provider string, claims auth.ProviderClaims) (*domain.User, error) {
	// The account has no usable local password.
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	email := auth.NormalizeEmail(claims.Email)
	if email == "" {
		// Providers may withhold the address (github with a private email).
		// A per-identity placeholder keeps the email column populated and
		// unique without ever matching a real address.
		email = placeholderEmail(provider, claims.ProviderID)
	}

	base := usernameBase(auth.NormalizeEmail(claims.Email))
	providerID := claims.ProviderID
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		user := &domain.User{
			Username:       usernameCandidate(base, attempt),
			Email:          email,
			PasswordHash:   hash,
			FirstName:      clipName(auth.SanitizeName(claims.FirstName)),
			LastName:       clipName(auth.SanitizeName(claims.LastName)),
			Role:           domain.RoleUser,
			Enabled:        true,
			OAuth2Provider: &provider,
			OAuth2ID:       &providerID,
		}

		err := s.store.Create(ctx, user)
		if err == nil {
			s.logger.Info("created account from oauth2 login",
				"provider", provider, "user_id", user.ID, "username", user.Username)
			return user, nil
		}
		if errors.Is(err, domain.ErrUsernameTaken) {
			continue
		}
		if errors.Is(err, domain.ErrEmailTaken) || errors.Is(err, domain.ErrIdentityLinked) {
			// A concurrent first login for this same identity may have won
			// the insert; reuse its row.
			if existing, getErr := s.store.GetByProvider(ctx, provider, providerID); getErr == nil {
				return existing, nil
			}
			// Only a provider-supplied address may link onto the account
			// that holds it. Placeholder addresses never link.
			if errors.Is(err, domain.ErrEmailTaken) && claims.Email != "" {
				existing, getErr := s.store.GetByEmail(ctx, email)
				if getErr != nil {
					return nil, getErr
				}
				if linkErr := s.store.LinkProvider(ctx, existing.ID, provider, providerID); linkErr != nil {
					return nil, linkErr
				}
				return existing, nil
			}
		}
		return nil, err
	}
	return nil, fmt.Errorf("could not find a free username for %q", base)
}

// placeholderEmail builds a non-routable unique address for identities
// whose provider withheld the email claim.
func placeholderEmail(provider, providerID string) string {
	return fmt.Sprintf("%s.%s@users.noreply.instasora.com", provider, providerID)
}

// clipName bounds a name to the schema limit without splitting a rune.
func clipName(name string) string {
	for len(name) > domain.MaxNameLen {
		_, size := utf8.DecodeLastRuneInString(name)
		name = name[:len(name)-size]
	}
	return name
}

// usernameBase derives the starting username from the email local-part.
func usernameBase(email string) string {
	local, _, found := strings.Cut(email, "@")
	if !found || local == "" {
		return "user"
	}
	if len(local) > domain.MaxUsernameLen {
		local = local[:domain.MaxUsernameLen]
	}
	return local
}

// usernameCandidate returns base for the first attempt, then base0,
// base1, ... Suffixed candidates stay within the username length limit.
func usernameCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := strconv.Itoa(attempt - 1)
	if len(base)+len(suffix) > domain.MaxUsernameLen {
		base = base[:domain.MaxUsernameLen-len(suffix)]
	}
	return base + suffix
}
