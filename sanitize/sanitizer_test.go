package sanitize

import (
	"testing"

	"github.com/poiesic/hashstore/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDenylist(t *testing.T) {
	assert.Equal(t, DefaultDenylist, ParseDenylist(""))
	assert.Equal(t, DefaultDenylist, ParseDenylist("default"))
	assert.Equal(t, ExtendedDenylist, ParseDenylist(" Extended "))
	assert.Equal(t, Denylist("@#"), ParseDenylist("@#@"))
}

func TestString(t *testing.T) {
	tests := []struct {
		name     string
		denylist Denylist
		input    string
		want     string
	}{
		{"quotes", DefaultDenylist, `O'Brien "quoted"`, "OBrien quoted"},
		{"backslash", DefaultDenylist, `a\b\\c`, "abc"},
		{"clean", DefaultDenylist, "plain text", "plain text"},
		{"empty", DefaultDenylist, "", ""},
		{"default keeps punctuation", DefaultDenylist, "a-b=c", "a-b=c"},
		{"extended", ExtendedDenylist, `x@y!{z}(w)|v-u=t>s'`, "xyzwvuts"},
		{"class metacharacters", Custom(`]^-[`), "a]b^c-d[e", "abcde"},
		{"non-ascii", Custom("é"), "café", "caf"},
		{"empty denylist", Custom(""), `a"b`, `a"b`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.denylist).String(tt.input))
		})
	}
}

func TestArray(t *testing.T) {
	s := Default()

	input := []core.Value{
		core.String(`it's`),
		core.Int(3),
		core.Bool(true),
		core.Null(),
		core.List(core.String(`"nested"`)),
		core.Map(map[string]core.Value{"name": core.String("O'Brien")}),
	}

	got, err := s.Array(input)
	require.NoError(t, err)
	require.Len(t, got, len(input))

	assert.Equal(t, core.String("its"), got[0])
	assert.Equal(t, core.Int(3), got[1])
	assert.Equal(t, core.Bool(true), got[2])
	assert.Equal(t, core.Null(), got[3])
	assert.Equal(t, core.List(core.String("nested")), got[4])
	assert.Equal(t, core.String(`{"name":"OBrien"}`), got[5])

	// input untouched
	assert.Equal(t, core.String(`it's`), input[0])
	assert.Equal(t, core.List(core.String(`"nested"`)), input[4])
}

func TestArray_Empty(t *testing.T) {
	got, err := Default().Array(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestObject(t *testing.T) {
	s := Default()

	input := map[string]core.Value{
		"name":  core.String(`Ann "the" O'Hara`),
		"age":   core.Int(30),
		"tags":  core.List(core.String("a'"), core.Map(map[string]core.Value{"k": core.String(`v\`)})),
		"prefs": core.Map(map[string]core.Value{"theme": core.String("dark'"), "inner": core.Map(map[string]core.Value{"x": core.Int(1)})}),
	}

	got, err := s.Object(input)
	require.NoError(t, err)

	assert.Len(t, got, 4)
	assert.Equal(t, core.String("Ann the OHara"), got["name"])
	assert.Equal(t, core.Int(30), got["age"])
	assert.Equal(t, core.List(core.String("a"), core.String(`{"k":"v"}`)), got["tags"])

	prefs, ok := got["prefs"].AsString()
	require.True(t, ok, "nested map should be serialized to a string")
	assert.Equal(t, `{"inner":"{\"x\":1}","theme":"dark"}`, prefs)

	name, _ := input["name"].AsString()
	assert.Equal(t, `Ann "the" O'Hara`, name, "input must not be mutated")
}

func TestObject_FromAnyDropsFunctions(t *testing.T) {
	fields, err := core.MapFromAny(map[string]any{
		"fn":   func() int { return 1 },
		"name": "O'Brien",
	})
	require.NoError(t, err)

	got, err := Default().Object(fields)
	require.NoError(t, err)
	assert.Equal(t, map[string]core.Value{"name": core.String("OBrien")}, got)
}

func TestObject_OnlyDroppedMembers(t *testing.T) {
	fields, err := core.MapFromAny(map[string]any{"fn": func() {}})
	require.NoError(t, err)

	got, err := Default().Object(fields)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdempotence(t *testing.T) {
	values := []core.Value{
		core.String(`a"b'c\d`),
		core.List(core.String(`x'`), core.Map(map[string]core.Value{"q": core.String(`"`)}), core.List(core.Int(1))),
		core.Map(map[string]core.Value{
			"s":    core.String(`it's`),
			"deep": core.Map(map[string]core.Value{"a": core.Map(map[string]core.Value{"b": core.String(`c"`)})}),
			"list": core.List(core.Map(map[string]core.Value{"k": core.Number(1.5)})),
		}),
	}

	for _, denylist := range []Denylist{DefaultDenylist, ExtendedDenylist, Custom("@")} {
		s := New(denylist)
		for _, v := range values {
			once, err := s.Value(v)
			require.NoError(t, err)
			twice, err := s.Value(once)
			require.NoError(t, err)
			assert.True(t, once.Equal(twice), "denylist %q: %v != %v", denylist, once.Any(), twice.Any())
		}
	}
}

func TestSanitizedStringsAreClean(t *testing.T) {
	s := New(ExtendedDenylist)
	got, err := s.Object(map[string]core.Value{
		"a": core.String(`{(x)} | y => 'z' "w" @! -`),
		"b": core.List(core.String(`=>`), core.String(`\`)),
	})
	require.NoError(t, err)

	a, _ := got["a"].AsString()
	for _, r := range a {
		assert.False(t, s.Denylist().Contains(r), "rune %q survived", r)
	}
	items, _ := got["b"].AsList()
	for _, item := range items {
		text, _ := item.AsString()
		assert.Empty(t, text)
	}
}

func TestValue_Scalars(t *testing.T) {
	s := Default()
	for _, v := range []core.Value{core.Null(), core.Bool(false), core.Number(-2)} {
		got, err := s.Value(v)
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestObject_JSONObjectStrings(t *testing.T) {
	s := Default()

	got, err := s.Object(map[string]core.Value{
		"compact": core.String(`{"x":"y"}`),
		"spaced":  core.String(`{ "x": "y" }`),
		"list":    core.String(`["x"]`),
	})
	require.NoError(t, err)

	// compact JSON with sorted keys is taken as an earlier serialized map
	assert.Equal(t, core.String(`{"x":"y"}`), got["compact"])
	// anything else follows the string rule
	assert.Equal(t, core.String(`{ x: y }`), got["spaced"])
	assert.Equal(t, core.String(`[x]`), got["list"])

	unsorted, err := s.Object(map[string]core.Value{"u": core.String(`{"b":1,"a":2}`)})
	require.NoError(t, err)
	assert.Equal(t, core.String(`{b:1,a:2}`), unsorted["u"])
}

func TestCyclicInput(t *testing.T) {
	s := Default()

	fields := map[string]core.Value{"name": core.String("x")}
	fields["self"] = core.Map(fields)
	_, err := s.Object(fields)
	assert.ErrorIs(t, err, core.ErrEncoding)

	_, err = s.Value(core.Map(fields))
	assert.ErrorIs(t, err, core.ErrEncoding)

	items := []core.Value{core.String("a"), core.Null()}
	items[1] = core.List(items...)
	_, err = s.Array(items)
	assert.ErrorIs(t, err, core.ErrEncoding)
}

func TestSharedMembersAreNotCycles(t *testing.T) {
	shared := core.Map(map[string]core.Value{"k": core.String("v'")})

	got, err := Default().Object(map[string]core.Value{"a": shared, "b": shared})
	require.NoError(t, err)
	assert.Equal(t, core.String(`{"k":"v"}`), got["a"])
	assert.Equal(t, got["a"], got["b"])
}
