package repository

import (
	"errors"
	"testing"

	"github.com/lib/pq"

	"github.com/instasora/user-service/internal/domain"
)

func TestTranslateUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{
			name: "email constraint",
			err:  &pq.Error{Code: "23505", Constraint: constraintEmail},
			want: domain.ErrEmailTaken,
		},
		{
			name: "username constraint",
			err:  &pq.Error{Code: "23505", Constraint: constraintUsername},
			want: domain.ErrUsernameTaken,
		},
		{
			name: "oauth2 identity constraint",
			err:  &pq.Error{Code: "23505", Constraint: constraintIdentity},
			want: domain.ErrIdentityLinked,
		},
		{
			name: "unrelated constraint passes through",
			err:  &pq.Error{Code: "23505", Constraint: "other_key"},
			want: nil, // expect the original error back
		},
		{
			name: "non-unique-violation passes through",
			err:  &pq.Error{Code: "23503", Constraint: constraintEmail},
			want: nil,
		},
		{
			name: "plain error passes through",
			err:  errors.New("boom"),
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateUniqueViolation(tt.err)
			if tt.want != nil {
				if !errors.Is(got, tt.want) {
					t.Errorf("translateUniqueViolation() = %v, want %v", got, tt.want)
				}
				return
			}
			if got != tt.err {
				t.Errorf("translateUniqueViolation() = %v, want original error %v", got, tt.err)
			}
		})
	}
}

func TestTranslateUniqueViolation_WrappedError(t *testing.T) {
	wrapped := &pq.Error{Code: "23505", Constraint: constraintUsername}
	got := translateUniqueViolation(wrap(wrapped))
	if !errors.Is(got, domain.ErrUsernameTaken) {
		t.Errorf("translateUniqueViolation(wrapped) = %v, want %v", got, domain.ErrUsernameTaken)
	}
}

func wrap(err error) error {
	return &wrapError{err}
}

type wrapError struct{ err error }

func (w *wrapError) Error() string { return "query failed: " + w.err.Error() }
func (w *wrapError) Unwrap() error { return w.err }
