package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	for _, tt := range []struct {
		k    Kind
		want string
	}{
		{Null, "<null>"},
		{Int, "<int>"},
		{Float, "<float>"},
		{Bool, "<bool>"},
		{String, "<string>"},
		{Array, "<array>"},
		{Object, "<object>"},
		{numKinds, "<unknown>"},
		{-1, "<unknown>"},
	} {
		require.Equal(t, tt.want, tt.k.String())
	}
}

func TestParseScalarKinds(t *testing.T) {
	root, _, err := ParseString(`{"a":1,"b":2.5,"c":true,"d":"hi","e":null,"f":[1,2]}`)
	require.NoError(t, err)
	require.Equal(t, Object, root.Kind())

	i, err := root.Field("a").AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(1), i)

	f, err := root.Field("b").AsFloat64()
	require.NoError(t, err)
	require.Equal(t, 2.5, f)

	b, err := root.Field("c").AsBool()
	require.NoError(t, err)
	require.True(t, b)

	s, err := root.Field("d").AsString()
	require.NoError(t, err)
	require.Equal(t, "hi", s)

	require.True(t, root.Field("e").IsNull())

	arr, err := root.Field("f").AsArray()
	require.NoError(t, err)
	require.Len(t, arr, 2)
}

func TestParsePopulatesMetaAccessors(t *testing.T) {
	root, refs, err := ParseString(`{
		"@id": 1,
		"@type": "widget",
		"Name": "gizmo"
	}`)
	require.NoError(t, err)

	id, ok := root.ID()
	require.True(t, ok)
	require.Equal(t, int64(1), id)

	tag, ok := root.Type()
	require.True(t, ok)
	require.Equal(t, "widget", tag)

	require.Same(t, root, refs[1])

	name, err := root.Field("Name").AsString()
	require.NoError(t, err)
	require.Equal(t, "gizmo", name)

	// Meta keys must not leak into the ordinary field list.
	for _, f := range root.Fields() {
		require.NotEqual(t, "@id", f.Key)
		require.NotEqual(t, "@type", f.Key)
	}
}

func TestParseRefNode(t *testing.T) {
	root, _, err := ParseString(`{"@ref": 7}`)
	require.NoError(t, err)

	id, ok := root.Ref()
	require.True(t, ok)
	require.Equal(t, int64(7), id)
}

func TestParseItemsKeysValue(t *testing.T) {
	root, _, err := ParseString(`{
		"@type": "int[]",
		"@items": [1,2,3]
	}`)
	require.NoError(t, err)

	items, ok := root.Items()
	require.True(t, ok)
	require.Len(t, items, 3)

	boxed, _, err := ParseString(`{"@type": "long", "value": 42}`)
	require.NoError(t, err)
	v, ok := boxed.Value()
	require.True(t, ok)
	n, err := v.AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(42), n)
}

func TestParseMappingKeysAligned(t *testing.T) {
	root, _, err := ParseString(`{
		"@type": "map",
		"@keys": [1,2],
		"@items": ["one","two"]
	}`)
	require.NoError(t, err)

	keys := root.Keys()
	items, ok := root.Items()
	require.True(t, ok)
	require.Len(t, keys, 2)
	require.Len(t, items, 2)

	k0, _ := keys[0].AsInt64()
	v0, _ := items[0].AsString()
	require.Equal(t, int64(1), k0)
	require.Equal(t, "one", v0)
}

func TestParseRejectsTrailingData(t *testing.T) {
	_, _, err := ParseString(`{"a":1} garbage`)
	require.Error(t, err)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{
		`{`,
		`[1,2`,
		`{"a":}`,
		`{"a" 1}`,
		`tru`,
	} {
		_, _, err := ParseString(s)
		require.Error(t, err, "input %q should fail to parse", s)
	}
}

func TestFieldAndIndexDegradeToNull(t *testing.T) {
	root, _, err := ParseString(`[1,2,3]`)
	require.NoError(t, err)

	require.True(t, root.Field("missing").IsNull())
	require.True(t, root.Index(99).IsNull())
	require.True(t, root.Index(-1).IsNull())
}
