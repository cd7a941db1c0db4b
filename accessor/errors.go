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


package accessor

import "errors"

var (
	// ErrInvalidRetryAttempts is returned by Connect when the accessor was
	// configured with fewer than one attempt.
	ErrInvalidRetryAttempts = errors.New("retry attempts must be at least 1")

	// ErrNoDriverFactory is returned when the process accessor is requested
	// before it was created and no factory was supplied.
	ErrNoDriverFactory = errors.New("accessor not initialized and no driver factory given")
)
