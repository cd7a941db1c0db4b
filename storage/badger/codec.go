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


package badger

import (
	"fmt"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/hashstore/storage"
)

// marshalHash encodes a hash as a field count followed by name/value pairs
// in name order, so equal hashes always encode to equal bytes.
func marshalHash(fields map[string]string) []byte {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)

	size := varint.Int.Size(len(names))
	for _, name := range names {
		size += ord.String.Size(name) + ord.String.Size(fields[name])
	}

	buf := make([]byte, size)
	n := varint.Int.Marshal(len(names), buf)
	for _, name := range names {
		n += ord.String.Marshal(name, buf[n:])
		n += ord.String.Marshal(fields[name], buf[n:])
	}
	return buf
}

// unmarshalHash decodes bytes produced by marshalHash.
func unmarshalHash(data []byte) (map[string]string, error) {
	count, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: field count: %w", storage.ErrSerializationFailed, err)
	}
	if count < 0 || count > len(data) {
		return nil, fmt.Errorf("%w: field count %d", storage.ErrSerializationFailed, count)
	}

	fields := make(map[string]string, count)
	for i := 0; i < count; i++ {
		name, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: field %d name: %w", storage.ErrTruncatedData, i, err)
		}
		n += m
		value, m, err := ord.String.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: field %q value: %w", storage.ErrTruncatedData, name, err)
		}
		n += m
		fields[name] = value
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", storage.ErrSerializationFailed, len(data)-n)
	}
	return fields, nil
}
