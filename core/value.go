package core

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is the zero Kind; the zero Value is null.
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON-shaped application value: null, boolean, number, string,
// list or map. Values are treated as immutable once built; constructors take
// ownership of the slices and maps passed to them.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	list []Value
	m    map[string]Value
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Int wraps an integer as a Number.
func Int(i int64) Value { return Number(float64(i)) }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List wraps a sequence of values. An empty sequence is stored as nil so that
// equal lists compare equal regardless of how they were built.
func List(items ...Value) Value {
	if len(items) == 0 {
		items = nil
	}
	return Value{kind: KindList, list: items}
}

// Map wraps a field mapping. An empty mapping is stored as nil.
func Map(fields map[string]Value) Value {
	if len(fields) == 0 {
		fields = nil
	}
	return Value{kind: KindMap, m: fields}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsList returns the items held by v. The returned slice must not be modified.
func (v Value) AsList() ([]Value, bool) { return v.list, v.kind == KindList }

// AsMap returns the fields held by v. The returned map must not be modified.
func (v Value) AsMap() (map[string]Value, bool) { return v.m, v.kind == KindMap }

// Len returns the number of items of a list or fields of a map, 0 otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		return 0
	}
}

// Text renders v as plain text: strings verbatim, numbers in shortest decimal
// form, booleans as true/false, null as the empty string and composites as
// JSON.
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList, KindMap:
		data, err := v.MarshalJSON()
		if err != nil {
			return ""
		}
		return string(data)
	default:
		return ""
	}
}

// Equal reports whether v and other are structurally equal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	case KindList:
		return slices.EqualFunc(v.list, other.list, Value.Equal)
	case KindMap:
		return maps.EqualFunc(v.m, other.m, Value.Equal)
	}
	return false
}

// Any converts v into plain Go values: nil, bool, float64, string, []any and
// map[string]any.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.list))
		for i, item := range v.list {
			out[i] = item.Any()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m))
		for k, item := range v.m {
			out[k] = item.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts an arbitrary Go value into a Value.
//
// Supported inputs are nil, Value, booleans, every integer and float kind,
// strings, slices and arrays, and maps keyed by strings; pointers and
// interfaces are followed. Functions, channels and other kinds that have no
// JSON shape report ok == false. Inside slices and maps such members are
// dropped rather than failing the whole conversion. An input that contains
// itself reports ok == false.
func FromAny(x any) (Value, bool) {
	v, err := Convert(x)
	return v, err == nil
}

// Convert is FromAny with the reason for a failure: an input that contains
// itself or has no JSON shape fails with ErrEncoding.
func Convert(x any) (Value, error) {
	v, ok, err := convert(x, path{})
	if err != nil {
		return Value{}, err
	}
	if !ok {
		return Value{}, fmt.Errorf("%w: unsupported type %T", ErrEncoding, x)
	}
	return v, nil
}

// MapFromAny converts a string-keyed map into Value fields, dropping members
// that cannot be represented. A map that contains itself fails with
// ErrEncoding.
func MapFromAny(m map[string]any) (map[string]Value, error) {
	v, err := Convert(m)
	if err != nil {
		return nil, err
	}
	fields, _ := v.AsMap()
	if fields == nil {
		fields = map[string]Value{}
	}
	return fields, nil
}

// convert reports ok == false for members that are dropped and an error for
// cycles, which fail the whole conversion.
func convert(x any, p path) (Value, bool, error) {
	switch t := x.(type) {
	case nil:
		return Null(), true, nil
	case Value:
		if err := t.checkCycles(p); err != nil {
			return Value{}, false, err
		}
		return t, true, nil
	case bool:
		return Bool(t), true, nil
	case string:
		return String(t), true, nil
	case float64:
		return Number(t), true, nil
	case int:
		return Int(int64(t)), true, nil
	case int64:
		return Int(t), true, nil
	}
	return convertReflect(reflect.ValueOf(x), p)
}

func convertReflect(rv reflect.Value, p path) (Value, bool, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null(), true, nil
	case reflect.Interface:
		if rv.IsNil() {
			return Null(), true, nil
		}
		return convert(rv.Elem().Interface(), p)
	case reflect.Pointer:
		if rv.IsNil() {
			return Null(), true, nil
		}
		r := ref{ptr: rv.Pointer(), n: -2}
		if err := p.enter(r); err != nil {
			return Value{}, false, err
		}
		defer p.leave(r)
		return convert(rv.Elem().Interface(), p)
	case reflect.Bool:
		return Bool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), true, nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), true, nil
	case reflect.String:
		return String(rv.String()), true, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice {
			if rv.IsNil() {
				return Null(), true, nil
			}
			if rv.Len() > 0 {
				r := ref{ptr: rv.Pointer(), n: rv.Len()}
				if err := p.enter(r); err != nil {
					return Value{}, false, err
				}
				defer p.leave(r)
			}
		}
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			val, ok, err := convert(rv.Index(i).Interface(), p)
			if err != nil {
				return Value{}, false, err
			}
			if ok {
				items = append(items, val)
			}
		}
		return List(items...), true, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, false, nil
		}
		if rv.IsNil() {
			return Null(), true, nil
		}
		r := ref{ptr: rv.Pointer(), n: -1}
		if err := p.enter(r); err != nil {
			return Value{}, false, err
		}
		defer p.leave(r)

		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			val, ok, err := convert(iter.Value().Interface(), p)
			if err != nil {
				return Value{}, false, err
			}
			if ok {
				fields[iter.Key().String()] = val
			}
		}
		return Map(fields), true, nil
	default:
		// func, chan, complex, struct, unsafe.Pointer
		return Value{}, false, nil
	}
}
