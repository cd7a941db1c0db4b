package core

import (
	"errors"
	"testing"
)

func TestValidateUser(t *testing.T) {
	tests := []struct {
		name    string
		user    *User
		wantErr error
	}{
		{
			name:    "valid user",
			user:    &User{ID: "1", Username: "alice", Email: "a@x.com"},
			wantErr: nil,
		},
		{
			name:    "valid user without email",
			user:    &User{ID: "1", Username: "alice"},
			wantErr: nil,
		},
		{
			name:    "nil user",
			user:    nil,
			wantErr: ErrInvalidUser,
		},
		{
			name:    "blank username",
			user:    &User{ID: "1", Username: "  "},
			wantErr: ErrEmptyUsername,
		},
		{
			name:    "missing id",
			user:    &User{Username: "alice"},
			wantErr: ErrEmptyUserID,
		},
		{
			name: "reserved attribute",
			user: &User{ID: "1", Username: "alice", Attributes: map[string]Value{
				FieldEmail: String("shadow"),
			}},
			wantErr: ErrReservedAttribute,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUser(tt.user)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateUser() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateUser() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidUser) {
				t.Errorf("ValidateUser() error = %v, should wrap ErrInvalidUser", err)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	if err := ValidateCredentials("alice", "pw123"); err != nil {
		t.Errorf("ValidateCredentials() error = %v", err)
	}
	if err := ValidateCredentials("", "pw123"); !errors.Is(err, ErrEmptyUsername) {
		t.Errorf("ValidateCredentials() error = %v, want ErrEmptyUsername", err)
	}
	if err := ValidateCredentials("alice", ""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("ValidateCredentials() error = %v, want ErrEmptyPassword", err)
	}
}
