package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/instasora/user-service/internal/domain"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid", email: "user@example.com"},
		{name: "valid with plus", email: "user+tag@example.com"},
		{name: "uppercase normalized", email: "User@Example.COM"},
		{name: "empty", email: "", wantErr: true},
		{name: "missing domain", email: "user@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "no at sign", email: "userexample.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 250) + "@x.co", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEmail(%q) error = %v, wantErr %v", tt.email, err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid", username: "jane_doe"},
		{name: "valid with hyphen", username: "jane-doe"},
		{name: "valid numeric suffix", username: "alice0"},
		{name: "max length", username: strings.Repeat("a", 30)},
		{name: "too long", username: strings.Repeat("a", 31), wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "empty", username: "", wantErr: true},
		{name: "starts with underscore", username: "_jane", wantErr: true},
		{name: "contains at sign", username: "jane@doe", wantErr: true},
		{name: "contains space", username: "jane doe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUsername(%q) error = %v, wantErr %v", tt.username, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); !errors.Is(err, domain.ErrWeakPassword) {
		t.Errorf("ValidatePassword(short) = %v, want %v", err, domain.ErrWeakPassword)
	}
	if err := ValidatePassword("long enough password"); err != nil {
		t.Errorf("ValidatePassword(valid) = %v", err)
	}
}

func TestValidateName(t *testing.T) {
	if err := ValidateName(strings.Repeat("n", domain.MaxNameLen)); err != nil {
		t.Errorf("ValidateName(at limit) = %v", err)
	}
	if err := ValidateName(strings.Repeat("n", domain.MaxNameLen+1)); !errors.Is(err, domain.ErrNameTooLong) {
		t.Errorf("ValidateName(over limit) = %v, want %v", err, domain.ErrNameTooLong)
	}
	if err := ValidateName(""); err != nil {
		t.Errorf("ValidateName(empty) = %v", err)
	}
}

func TestValidateBio(t *testing.T) {
	if err := ValidateBio(strings.Repeat("b", domain.MaxBioLen)); err != nil {
		t.Errorf("ValidateBio(at limit) = %v", err)
	}
	if err := ValidateBio(strings.Repeat("b", domain.MaxBioLen+1)); !errors.Is(err, domain.ErrBioTooLong) {
		t.Errorf("ValidateBio(over limit) = %v, want %v", err, domain.ErrBioTooLong)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  Jane  ", want: "Jane"},
		{name: "strips control chars", input: "Ja\x00ne\x1b", want: "Jane"},
		{name: "escapes html", input: "<b>Jane</b>", want: "&lt;b&gt;Jane&lt;/b&gt;"},
		{name: "keeps unicode letters", input: "Søren", want: "Søren"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
