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


package storage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/poiesic/hashstore/core"
)

// Serialize encodes a value into its storage-safe JSON form.
// Fails with core.ErrEncoding if the value holds a non-finite number.
func Serialize(v core.Value) (string, error) {
	data, err := v.MarshalJSON()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Deserialize decodes a string produced by Serialize.
// Fails with core.ErrDecoding on malformed input.
func Deserialize(data string) (core.Value, error) {
	var v core.Value
	if err := v.UnmarshalJSON([]byte(data)); err != nil {
		return core.Null(), err
	}
	return v, nil
}

// EncodeField renders a hash field value as the string the store keeps.
// Strings are stored verbatim so existing data stays readable by other
// clients; numbers, booleans and null use their JSON literals; lists and maps
// are serialized.
func EncodeField(v core.Value) (string, error) {
	switch v.Kind() {
	case core.KindString:
		s, _ := v.AsString()
		return s, nil
	case core.KindNumber:
		n, _ := v.AsNumber()
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return "", fmt.Errorf("%w: unsupported number %v", core.ErrEncoding, n)
		}
		return strconv.FormatFloat(n, 'f', -1, 64), nil
	case core.KindBool:
		b, _ := v.AsBool()
		return strconv.FormatBool(b), nil
	case core.KindNull:
		return "null", nil
	default:
		return Serialize(v)
	}
}

// DecodeField reverses EncodeField. A stored string decodes to a number,
// boolean, null, list or map only when EncodeField of that value gives back
// exactly the same text, so "1.0", "1e3" or a map with spaces stay strings.
// Everything else is returned as a string.
func DecodeField(raw string) core.Value {
	if !looksLikeJSON(raw) {
		return core.String(raw)
	}
	v, err := Deserialize(raw)
	if err != nil {
		return core.String(raw)
	}
	if encoded, err := EncodeField(v); err != nil || encoded != raw {
		return core.String(raw)
	}
	return v
}

func looksLikeJSON(raw string) bool {
	if raw == "" {
		return false
	}
	switch raw {
	case "true", "false", "null":
		return true
	}
	switch c := raw[0]; {
	case c == '{', c == '[', c == '-':
		return true
	case c >= '0' && c <= '9':
		return true
	}
	return false
}

// EncodeFields encodes every value of a hash.
func EncodeFields(fields map[string]core.Value) (map[string]string, error) {
	out := make(map[string]string, len(fields))
	for name, v := range fields {
		encoded, err := EncodeField(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
		out[name] = encoded
	}
	return out, nil
}

// DecodeFields decodes every value of a stored hash.
func DecodeFields(raw map[string]string) map[string]core.Value {
	out := make(map[string]core.Value, len(raw))
	for name, s := range raw {
		out[name] = DecodeField(s)
	}
	return out
}
