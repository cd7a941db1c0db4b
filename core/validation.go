// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"strings"
)

// ValidateUser validates a User according to domain rules.
//
// Validation rules:
//   - Username must not be blank
//   - ID must not be blank
//   - Attributes must not use the built-in field names
//
// NOT validated:
//   - Email (the store keeps whatever the caller supplies)
//   - Key (derived by the record model)
func ValidateUser(user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user is nil", ErrInvalidUser)
	}

	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyUsername)
	}

	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyUserID)
	}

	for name := range user.Attributes {
		if IsReservedField(name) {
			return fmt.Errorf("%w: %w: %q", ErrInvalidUser, ErrReservedAttribute, name)
		}
	}

	return nil
}

// ValidateCredentials checks the inputs of an account creation.
func ValidateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyUsername)
	}
	if password == "" {
		return fmt.Errorf("%w: %w", ErrInvalidUser, ErrEmptyPassword)
	}
	return nil
}
