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


// Package storage provides the storage abstraction layer for hashstore.
//
// This package defines the Driver interface that decouples the accessor from
// the store behind it, together with the serializer used to turn structured
// values into strings the store can keep. Drivers live in subpackages:
//
//   - storage/redis: a Redis server reached through go-redis
//   - storage/badger: an embedded BadgerDB database (on disk or in memory)
//
// # Key Layout
//
// Drivers receive fully composed keys. The accessor builds them as
// "namespace:key"; drivers must store them verbatim so data written by other
// clients of the same store stays addressable.
//
// # Serialization
//
// Serialize and Deserialize form a JSON round trip for core.Value. Hash
// fields go through EncodeField/DecodeField: strings are kept verbatim,
// numbers, booleans and null use their JSON literals, and lists and maps are
// serialized. On read every field that parses as JSON is decoded, so a value
// written as a nested map comes back as a map.
//
// A string that is itself a JSON scalar literal ("42", "true", "null") is
// indistinguishable from the typed value once stored and reads back typed.
// Callers that need the exact text use core.Value.Text.
//
// # Thread Safety
//
// All driver implementations must be thread-safe and support concurrent
// access from multiple goroutines.
//
// # Context Support
//
// All driver methods except Close accept context.Context for cancellation
// and timeout support.
package storage
