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

import "errors"

// Error taxonomy shared by the storage layers.
var (
	// ErrConnection indicates the store is unreachable or not ready.
	ErrConnection = errors.New("connection error")

	// ErrValidation indicates an input was empty after sanitization, or a
	// field set had nothing left to store.
	ErrValidation = errors.New("validation error")

	// ErrStoreOperation indicates the underlying store call failed.
	ErrStoreOperation = errors.New("store operation failed")

	// ErrEncoding indicates a value could not be serialized.
	ErrEncoding = errors.New("encoding error")

	// ErrDecoding indicates stored data could not be deserialized.
	ErrDecoding = errors.New("decoding error")
)

// Domain validation errors
var (
	// ErrInvalidUser indicates a User failed validation.
	ErrInvalidUser = errors.New("invalid user")

	// ErrEmptyUsername indicates the Username field is empty.
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrEmptyPassword indicates a password was not supplied.
	ErrEmptyPassword = errors.New("password cannot be empty")

	// ErrEmptyUserID indicates the ID field is empty.
	ErrEmptyUserID = errors.New("user id cannot be empty")

	// ErrReservedAttribute indicates an attribute shadows a built-in user field.
	ErrReservedAttribute = errors.New("attribute name is reserved")
)
