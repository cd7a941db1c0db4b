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


package sanitize

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/hashstore/core"
	"github.com/poiesic/hashstore/storage"
)

// Denylist is the set of characters a Sanitizer removes.
type Denylist string

const (
	// DefaultDenylist removes backslashes and both quote characters.
	DefaultDenylist Denylist = `\"'`

	// ExtendedDenylist also removes characters that carry meaning in common
	// query and template syntaxes.
	ExtendedDenylist Denylist = `\"'@!{}()|-=>`
)

// Custom builds a denylist from an arbitrary set of characters.
// Duplicates are ignored.
func Custom(chars string) Denylist {
	seen := make(map[rune]bool, len(chars))
	var b strings.Builder
	for _, r := range chars {
		if seen[r] {
			continue
		}
		seen[r] = true
		b.WriteRune(r)
	}
	return Denylist(b.String())
}

// ParseDenylist resolves a configuration value. "default" (or an empty
// string) and "extended" name the built-in lists; anything else is taken as
// a literal set of characters.
func ParseDenylist(s string) Denylist {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "default":
		return DefaultDenylist
	case "extended":
		return ExtendedDenylist
	}
	return Custom(s)
}

// Contains reports whether r is denylisted.
func (d Denylist) Contains(r rune) bool {
	return strings.ContainsRune(string(d), r)
}

// pattern compiles the denylist into a character class. Every rune is
// written as a hex escape so class metacharacters need no special casing.
func (d Denylist) pattern() string {
	if d == "" {
		return ""
	}
	var b strings.Builder
	b.WriteByte('[')
	for _, r := range string(d) {
		fmt.Fprintf(&b, `\x{%x}`, r)
	}
	b.WriteByte(']')
	return b.String()
}

// Sanitizer removes denylisted characters from strings, lists and maps.
// It is safe for concurrent use.
type Sanitizer struct {
	denylist Denylist
	re       *regexp.Regexp
}

// New creates a sanitizer for the given denylist. An empty denylist yields a
// sanitizer that leaves strings untouched.
func New(d Denylist) *Sanitizer {
	s := &Sanitizer{denylist: d}
	if p := d.pattern(); p != "" {
		s.re = regexp.MustCompile(p)
	}
	return s
}

// Default returns a sanitizer over DefaultDenylist.
func Default() *Sanitizer {
	return New(DefaultDenylist)
}

// Denylist returns the characters this sanitizer removes.
func (s *Sanitizer) Denylist() Denylist {
	return s.denylist
}

// String removes every denylisted character from str.
func (s *Sanitizer) String(str string) string {
	if s.re == nil {
		return str
	}
	return s.re.ReplaceAllString(str, "")
}

// Array returns a sanitized copy of list. Nested lists are sanitized
// recursively and stay lists; maps are sanitized and serialized to a string.
// A list that contains itself fails with core.ErrEncoding.
func (s *Sanitizer) Array(list []core.Value) ([]core.Value, error) {
	if err := core.List(list...).CheckCycles(); err != nil {
		return nil, err
	}
	return s.array(list)
}

func (s *Sanitizer) array(list []core.Value) ([]core.Value, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]core.Value, 0, len(list))
	for i, item := range list {
		clean, err := s.member(item)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, clean)
	}
	return out, nil
}

// Object returns a sanitized copy of m with the same keys. Map values are
// sanitized and serialized to a string; list values are sanitized with Array.
// A map that contains itself fails with core.ErrEncoding.
func (s *Sanitizer) Object(m map[string]core.Value) (map[string]core.Value, error) {
	if err := core.Map(m).CheckCycles(); err != nil {
		return nil, err
	}
	return s.object(m)
}

func (s *Sanitizer) object(m map[string]core.Value) (map[string]core.Value, error) {
	out := make(map[string]core.Value, len(m))
	// Sorted so the first failure reported is deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		clean, err := s.member(m[k])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = clean
	}
	return out, nil
}

// Value sanitizes a single value of any kind. A top level map stays a map.
func (s *Sanitizer) Value(v core.Value) (core.Value, error) {
	if err := v.CheckCycles(); err != nil {
		return core.Null(), err
	}
	switch v.Kind() {
	case core.KindString:
		str, _ := v.AsString()
		return core.String(s.String(str)), nil
	case core.KindList:
		items, _ := v.AsList()
		clean, err := s.array(items)
		if err != nil {
			return core.Null(), err
		}
		return core.List(clean...), nil
	case core.KindMap:
		m, _ := v.AsMap()
		clean, err := s.object(m)
		if err != nil {
			return core.Null(), err
		}
		return core.Map(clean), nil
	default:
		return v, nil
	}
}

// member sanitizes a value held inside a list or map.
func (s *Sanitizer) member(v core.Value) (core.Value, error) {
	switch v.Kind() {
	case core.KindString:
		str, _ := v.AsString()
		if m, ok := serializedMap(str); ok {
			return s.serializeMap(m)
		}
		return core.String(s.String(str)), nil
	case core.KindList:
		items, _ := v.AsList()
		clean, err := s.array(items)
		if err != nil {
			return core.Null(), err
		}
		return core.List(clean...), nil
	case core.KindMap:
		m, _ := v.AsMap()
		return s.serializeMap(m)
	default:
		return v, nil
	}
}

func (s *Sanitizer) serializeMap(m map[string]core.Value) (core.Value, error) {
	clean, err := s.object(m)
	if err != nil {
		return core.Null(), err
	}
	data, err := storage.Serialize(core.Map(clean))
	if err != nil {
		return core.Null(), err
	}
	return core.String(data), nil
}

// serializedMap reports whether str is a map exactly as serializeMap writes
// it: compact JSON with sorted keys. Any other text, JSON or not, is a plain
// string.
func serializedMap(str string) (map[string]core.Value, bool) {
	if !strings.HasPrefix(str, "{") {
		return nil, false
	}
	v, err := storage.Deserialize(str)
	if err != nil {
		return nil, false
	}
	m, ok := v.AsMap()
	if !ok {
		return nil, false
	}
	if canonical, err := storage.Serialize(v); err != nil || canonical != str {
		return nil, false
	}
	if m == nil {
		m = map[string]core.Value{}
	}
	return m, true
}
