package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
)

var (
	_ json.Marshaler   = Value{}
	_ json.Unmarshaler = (*Value)(nil)
)

// MarshalJSON encodes v as compact JSON with map keys in sorted order.
// HTML characters are not escaped. Non-finite numbers and values that
// contain themselves fail with ErrEncoding.
func (v Value) MarshalJSON() ([]byte, error) {
	if err := v.CheckCycles(); err != nil {
		return nil, err
	}
	buf, err := v.appendJSON(nil)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (v Value) appendJSON(buf []byte) ([]byte, error) {
	switch v.kind {
	case KindNull:
		return append(buf, "null"...), nil
	case KindBool:
		return strconv.AppendBool(buf, v.b), nil
	case KindNumber:
		return appendNumber(buf, v.n)
	case KindString:
		return appendString(buf, v.s)
	case KindList:
		buf = append(buf, '[')
		for i, item := range v.list {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = item.appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			if buf, err = appendString(buf, k); err != nil {
				return nil, err
			}
			buf = append(buf, ':')
			if buf, err = v.m[k].appendJSON(buf); err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	}
	return nil, fmt.Errorf("%w: unknown value kind %s", ErrEncoding, v.kind)
}

// appendNumber follows the float formatting used by encoding/json so that
// serialized numbers look the same as the ones produced by other encoders.
func appendNumber(buf []byte, n float64) ([]byte, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, fmt.Errorf("%w: unsupported number %v", ErrEncoding, n)
	}
	format := byte('f')
	if abs := math.Abs(n); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	buf = strconv.AppendFloat(buf, n, format, -1, 64)
	if format == 'e' {
		// clean up e-09 to e-9
		if l := len(buf); l >= 4 && buf[l-4] == 'e' && buf[l-3] == '-' && buf[l-2] == '0' {
			buf[l-2] = buf[l-1]
			buf = buf[:l-1]
		}
	}
	return buf, nil
}

func appendString(buf []byte, s string) ([]byte, error) {
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return append(buf, bytes.TrimRight(out.Bytes(), "\n")...), nil
}

// UnmarshalJSON decodes any JSON document into v. Malformed input fails with
// ErrDecoding.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrDecoding, err)
	}
	decoded, ok := FromAny(raw)
	if !ok {
		return fmt.Errorf("%w: unsupported document", ErrDecoding)
	}
	*v = decoded
	return nil
}
