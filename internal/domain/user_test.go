package domain

import (
	"testing"
	"time"
)

func TestResetTokenExpired(t *testing.T) {
	now := time.Now()
	token := "tok"

	tests := []struct {
		name   string
		token  *string
		expiry *time.Time
		want   bool
	}{
		{
			name: "no token pending",
			want: true,
		},
		{
			name:  "token without expiry",
			token: &token,
			want:  true,
		},
		{
			name:   "expiry in the future",
			token:  &token,
			expiry: timePtr(now.Add(time.Hour)),
			want:   false,
		},
		{
			name:   "expiry exactly now",
			token:  &token,
			expiry: &now,
			want:   true,
		},
		{
			name:   "expiry in the past",
			token:  &token,
			expiry: timePtr(now.Add(-time.Minute)),
			want:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{ResetPasswordToken: tt.token, ResetPasswordExpiry: tt.expiry}
			if got := u.ResetTokenExpired(now); got != tt.want {
				t.Errorf("ResetTokenExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasFederatedIdentity(t *testing.T) {
	provider := "google"
	id := "sub-123"

	u := &User{}
	if u.HasFederatedIdentity() {
		t.Error("user without provider fields should not report a federated identity")
	}

	u.OAuth2Provider = &provider
	if u.HasFederatedIdentity() {
		t.Error("provider without subject id should not report a federated identity")
	}

	u.OAuth2ID = &id
	if !u.HasFederatedIdentity() {
		t.Error("user with provider and subject id should report a federated identity")
	}
}

func timePtr(t time.Time) *time.Time { return &t }
