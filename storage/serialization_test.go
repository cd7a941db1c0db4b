package storage

import (
	"math"
	"testing"

	"github.com/poiesic/hashstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name  string
		value core.Value
	}{
		{"null", core.Null()},
		{"bool", core.Bool(false)},
		{"integer", core.Int(123)},
		{"negative fraction", core.Number(-0.25)},
		{"string", core.String("value1")},
		{"empty list", core.List()},
		{"empty map", core.Map(nil)},
		{"exponent forms", core.List(core.Number(1e21), core.Number(1e-7), core.Number(5e-324), core.Number(-1e300))},
		{"non-ascii", core.Map(map[string]core.Value{"ключ": core.String("héllo 日本語 🎉")})},
		{"list of maps", core.List(
			core.Map(map[string]core.Value{"a": core.List()}),
			core.Map(nil),
			core.Map(map[string]core.Value{"b": core.List(core.Map(map[string]core.Value{"c": core.Number(-3)}))}),
		)},
		{"nested", core.Map(map[string]core.Value{
			"a": core.Int(1),
			"b": core.List(core.String("x"), core.Null(), core.Map(map[string]core.Value{"c": core.Bool(true)})),
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Serialize(tt.value)
			require.NoError(t, err)

			decoded, err := Deserialize(data)
			require.NoError(t, err)
			assert.True(t, tt.value.Equal(decoded), "round trip of %s", data)
		})
	}
}

func TestSerialize_NonFinite(t *testing.T) {
	_, err := Serialize(core.Map(map[string]core.Value{"n": core.Number(math.Inf(1))}))
	assert.ErrorIs(t, err, core.ErrEncoding)
}

func TestDeserialize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"truncated object", `{"a":1`},
		{"trailing garbage", `[1] x`},
		{"bare word", `value`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.data)
			assert.ErrorIs(t, err, core.ErrDecoding)
		})
	}
}

func TestEncodeField(t *testing.T) {
	tests := []struct {
		name  string
		value core.Value
		want  string
	}{
		{"string verbatim", core.String("value1"), "value1"},
		{"integer", core.Int(123), "123"},
		{"fraction", core.Number(2.5), "2.5"},
		{"bool", core.Bool(true), "true"},
		{"null", core.Null(), "null"},
		{"list", core.List(core.String("a"), core.Int(1)), `["a",1]`},
		{"map", core.Map(map[string]core.Value{"k": core.String("v")}), `{"k":"v"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EncodeField(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeField_NaN(t *testing.T) {
	_, err := EncodeField(core.Number(math.NaN()))
	assert.ErrorIs(t, err, core.ErrEncoding)
}

func TestDecodeField(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want core.Value
	}{
		{"plain text", "value1", core.String("value1")},
		{"empty", "", core.String("")},
		{"integer", "123", core.Int(123)},
		{"negative", "-4.5", core.Number(-4.5)},
		{"bool", "false", core.Bool(false)},
		{"null", "null", core.Null()},
		{"serialized map", `{"k":"v"}`, core.Map(map[string]core.Value{"k": core.String("v")})},
		{"serialized list", `[1,2]`, core.List(core.Int(1), core.Int(2))},
		{"brace text", "{not json", core.String("{not json")},
		{"leading zero", "0123", core.String("0123")},
		{"dash text", "-dash", core.String("-dash")},
		{"fraction", "0.5", core.Number(0.5)},
		{"trailing zero", "1.0", core.String("1.0")},
		{"exponent", "1e3", core.String("1e3")},
		{"padded fraction", "10.50", core.String("10.50")},
		{"beyond float precision", "12345678901234567890", core.String("12345678901234567890")},
		{"spaced map", `{ "k": "v" }`, core.String(`{ "k": "v" }`)},
		{"unsorted map", `{"b":1,"a":2}`, core.String(`{"b":1,"a":2}`)},
		{"spaced list", `[1, 2]`, core.String(`[1, 2]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeField(tt.raw)
			assert.True(t, tt.want.Equal(got), "DecodeField(%q) = %v", tt.raw, got.Any())
		})
	}
}

func TestFieldRoundTrip(t *testing.T) {
	values := map[string]core.Value{
		"string":          core.String("plain"),
		"numeric string":  core.String("1000"),
		"non-ascii":       core.String("héllo 日本語 🎉"),
		"negative":        core.Number(-42),
		"large":           core.Number(1e21),
		"small":           core.Number(1e-7),
		"subnormal":       core.Number(5e-324),
		"bool":            core.Bool(true),
		"null":            core.Null(),
		"empty list":      core.List(),
		"empty map":       core.Map(nil),
		"list of maps":    core.List(core.Map(map[string]core.Value{"a": core.List(core.Int(1), core.Map(nil))}), core.Map(map[string]core.Value{"b": core.String("日本")})),
		"map of lists":    core.Map(map[string]core.Value{"l": core.List(core.List(), core.Number(-0.5), core.Number(1e21))}),
		"looks like json": core.String(`{"k":1}x`),
	}

	for name, v := range values {
		t.Run(name, func(t *testing.T) {
			raw, err := EncodeField(v)
			require.NoError(t, err)

			got := DecodeField(raw)
			if name == "numeric string" {
				// indistinguishable from the number once stored
				assert.Equal(t, core.Int(1000), got)
				return
			}
			assert.True(t, v.Equal(got), "round trip of %v gave %v (%q)", v.Any(), got.Any(), raw)
		})
	}
}

func TestEncodeDecodeFields(t *testing.T) {
	fields := map[string]core.Value{
		"field1": core.String("value1"),
		"field2": core.String("value2"),
		"field3": core.Int(123),
		"nested": core.Map(map[string]core.Value{"deep": core.List(core.Bool(true))}),
	}

	encoded, err := EncodeFields(fields)
	require.NoError(t, err)
	assert.Equal(t, "123", encoded["field3"])
	assert.Equal(t, `{"deep":[true]}`, encoded["nested"])

	decoded := DecodeFields(encoded)
	assert.Equal(t, fields, decoded)
}

func TestEncodeFields_Error(t *testing.T) {
	_, err := EncodeFields(map[string]core.Value{"bad": core.Number(math.NaN())})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEncoding)
	assert.Contains(t, err.Error(), `"bad"`)
}
