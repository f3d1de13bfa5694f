package auth

import (
	"fmt"
	"strings"
)

// Provider names with dedicated claim adapters. Any other provider falls
// back to the generic adapter.
const (
	ProviderGoogle = "google"
	ProviderGitHub = "github"
)

// ProviderClaims is the normalized identity extracted from a provider's
// raw claim set.
type ProviderClaims struct {
	ProviderID string
	Email      string
	FirstName  string
	LastName   string
}

// ClaimAdapter normalizes one provider's raw claims map. Adapters are pure
// functions; supporting a new provider means adding an adapter, not
// branching in the callback handler.
type ClaimAdapter func(raw map[string]any) (ProviderClaims, error)

// AdapterFor returns the claim adapter for a provider name.
func AdapterFor(provider string) ClaimAdapter {
	switch provider {
	case ProviderGoogle:
		return GoogleClaimAdapter
	case ProviderGitHub:
		return GitHubClaimAdapter
	default:
		return GenericClaimAdapter
	}
}

// GoogleClaimAdapter normalizes OpenID Connect claims:
// sub, email, given_name, family_name.
func GoogleClaimAdapter(raw map[string]any) (ProviderClaims, error) {
	sub := stringClaim(raw, "sub")
	if sub == "" {
		return ProviderClaims{}, fmt.Errorf("google claims: missing sub")
	}
	return ProviderClaims{
		ProviderID: sub,
		Email:      stringClaim(raw, "email"),
		FirstName:  stringClaim(raw, "given_name"),
		LastName:   stringClaim(raw, "family_name"),
	}, nil
}

// GitHubClaimAdapter normalizes GitHub user claims: id, email and a single
// combined name, split on the first space.
func GitHubClaimAdapter(raw map[string]any) (ProviderClaims, error) {
	id := stringClaim(raw, "id")
	if id == "" {
		return ProviderClaims{}, fmt.Errorf("github claims: missing id")
	}
	first, last := splitName(stringClaim(raw, "name"))
	return ProviderClaims{
		ProviderID: id,
		Email:      stringClaim(raw, "email"),
		FirstName:  first,
		LastName:   last,
	}, nil
}

// GenericClaimAdapter normalizes the common fallback shape:
// id, email, first_name, last_name.
func GenericClaimAdapter(raw map[string]any) (ProviderClaims, error) {
	id := stringClaim(raw, "id")
	if id == "" {
		return ProviderClaims{}, fmt.Errorf("provider claims: missing id")
	}
	return ProviderClaims{
		ProviderID: id,
		Email:      stringClaim(raw, "email"),
		FirstName:  stringClaim(raw, "first_name"),
		LastName:   stringClaim(raw, "last_name"),
	}, nil
}

// splitName splits a combined display name on the first space. A name with
// no space yields an empty last name.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ""
	}
	if i := strings.IndexByte(name, ' '); i >= 0 {
		return name[:i], strings.TrimSpace(name[i+1:])
	}
	return name, ""
}

// stringClaim reads a claim as a string, rendering numeric subject ids
// (GitHub sends id as a JSON number) without an exponent.
func stringClaim(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return v
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%.0f", v), ".")
	case int64:
		return fmt.Sprintf("%d", v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
