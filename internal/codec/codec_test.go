package codec

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zenobiuszeto/json-io/internal/intern"
	"github.com/zenobiuszeto/json-io/internal/tree"
)

type point struct {
	X, Y int
}

// The root value passed to Marshal has no declared static type (it is
// Go's own interface{} argument), so it is always treated as a non-
// inferable position and picks up an "@type" tag. A struct field with a
// concrete declared type, by contrast, is inferable whenever its runtime
// type matches — these tests nest values one level down in a nestHolder
// field to exercise that common case instead.
type nestHolder struct {
	P     point
	Nums  []int
	Strs  map[string]int
	Table map[int]string
	Chars []Char
}

func TestMarshalInlinesFieldWithMatchingDeclaredType(t *testing.T) {
	out, err := NewWriter().Marshal(nestHolder{P: point{X: 1, Y: 2}})
	require.NoError(t, err)
	require.NotContains(t, string(out), `"@type":"codec.point"`)
	require.Contains(t, string(out), `"P":{"X":1,"Y":2}`)
}

func TestMarshalInlinesHomogeneousSliceField(t *testing.T) {
	out, err := NewWriter().Marshal(nestHolder{Nums: []int{1, 2, 3}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"Nums":[1,2,3]`)
}

func TestMarshalInlinesStringKeyedMapField(t *testing.T) {
	out, err := NewWriter().Marshal(nestHolder{Strs: map[string]int{"a": 1}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"Strs":{"a":1}`)
}

func TestMarshalWrapsNonStringKeyedMapField(t *testing.T) {
	out, err := NewWriter().Marshal(nestHolder{Table: map[int]string{1: "one"}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"@keys"`)
	require.Contains(t, string(out), `"@items"`)
}

func TestMarshalCharSliceAsStringField(t *testing.T) {
	out, err := NewWriter().Marshal(nestHolder{Chars: []Char{'h', 'i'}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"Chars":"hi"`)
}

func TestMarshalSharedPointerGetsSingleID(t *testing.T) {
	shared := &point{X: 9, Y: 9}
	type holder struct{ A, B *point }
	out, err := NewWriter().Marshal(holder{A: shared, B: shared})
	require.NoError(t, err)
	require.Equal(t, 1, countOccurrences(string(out), `"@id"`))
	require.Equal(t, 1, countOccurrences(string(out), `"@ref"`))
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func TestUnmarshalPlainStruct(t *testing.T) {
	var p point
	require.NoError(t, Unmarshal([]byte(`{"X":3,"Y":4}`), &p))
	require.Equal(t, point{X: 3, Y: 4}, p)
}

func TestUnmarshalRejectsNonPointerTarget(t *testing.T) {
	var p point
	err := Unmarshal([]byte(`{}`), p)
	require.Error(t, err)
}

func TestUnmarshalSharedPointerAliasesSameMemory(t *testing.T) {
	type holder struct{ A, B *point }
	var h holder
	err := Unmarshal([]byte(`{"A":{"@id":1,"X":5,"Y":6},"B":{"@ref":1}}`), &h)
	require.NoError(t, err)
	require.Same(t, h.A, h.B)
	require.Equal(t, 5, h.A.X)
}

func TestUnmarshalForwardReference(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	type holder struct{ Nodes []*node }
	var h holder
	err := Unmarshal([]byte(`{"Nodes":[{"@ref":5},{"@id":5,"Name":"two","Next":null}]}`), &h)
	require.NoError(t, err)
	require.Len(t, h.Nodes, 2)
	require.Same(t, h.Nodes[1], h.Nodes[0])
	require.Equal(t, "two", h.Nodes[0].Name)
}

func TestUnmarshalUndefinedRefFails(t *testing.T) {
	type holder struct{ A *point }
	var h holder
	err := Unmarshal([]byte(`{"A":{"@ref":99}}`), &h)
	require.ErrorIs(t, err, ErrUndefinedRef)
}

func TestUnmarshalMapValueForwardReference(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	type holder struct{ M map[string]*node }
	var h holder
	err := Unmarshal([]byte(`{"M":{"a":{"@ref":1},"b":{"@id":1,"Name":"x","Next":null}}}`), &h)
	require.NoError(t, err)
	require.Same(t, h.M["a"], h.M["b"])
	require.Equal(t, "x", h.M["a"].Name)
}

func TestRegistryRoundTrip(t *testing.T) {
	type widget struct{ N int }
	RegisterName("codec_test.widget", widget{})

	name := TypeName(reflect.TypeOf(widget{}))
	require.Equal(t, "codec_test.widget", name)

	resolved, ok := ResolveName("codec_test.widget")
	require.True(t, ok)
	require.Equal(t, reflect.TypeOf(widget{}), resolved)
}

func TestCoerceScalarWidensIntegerLiteral(t *testing.T) {
	v, err := coerceScalar(tree.NewInt(7), reflect.TypeOf(int8(0)))
	require.NoError(t, err)
	require.Equal(t, int8(7), v.Interface())
}

func TestCoerceScalarNarrowsFloatToInt(t *testing.T) {
	v, err := coerceScalar(tree.NewFloat(3.9), reflect.TypeOf(int(0)))
	require.NoError(t, err)
	require.Equal(t, 3, v.Interface())
}

func TestCoerceTimeFromEpochMillis(t *testing.T) {
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	v, err := coerceScalar(tree.NewFloat(float64(want.UnixMilli())), timeType)
	require.NoError(t, err)
	require.True(t, want.Equal(v.Interface().(time.Time)))
}

func TestCoerceCharRejectsMultiRune(t *testing.T) {
	_, err := coerceScalar(tree.NewString("ab"), charType)
	require.Error(t, err)
}

func TestShortTagRoundTrip(t *testing.T) {
	for _, sample := range []interface{}{
		"s", false, int8(1), int16(1), int32(1), int64(1), float64(1), float32(1),
	} {
		typ := reflect.TypeOf(sample)
		tag, ok := shortTag(typ)
		require.True(t, ok)
		resolved, ok := resolveShortTag(tag)
		require.True(t, ok)
		require.Equal(t, typ.Kind(), resolved.Kind())
	}
}

func TestCoerceScalarEmptyStringCoercesToZeroValue(t *testing.T) {
	v, err := coerceScalar(tree.NewString(""), reflect.TypeOf(int(0)))
	require.NoError(t, err)
	require.Equal(t, 0, v.Interface())

	v, err = coerceScalar(tree.NewString(""), reflect.TypeOf(false))
	require.NoError(t, err)
	require.Equal(t, false, v.Interface())

	v, err = coerceScalar(tree.NewString(""), timeType)
	require.NoError(t, err)
	require.True(t, v.Interface().(time.Time).IsZero())

	v, err = coerceScalar(tree.NewString(""), charType)
	require.NoError(t, err)
	require.Equal(t, Char(0), v.Interface())
}

func TestUnmarshalInternsRepeatedSmallInts(t *testing.T) {
	type holder struct{ A, B interface{} }
	var h holder
	require.NoError(t, Unmarshal([]byte(`{"A":5,"B":5}`), &h))
	require.Equal(t, h.A, h.B)
	require.Equal(t, intern.Int64(5), h.A)
}

func TestUnmarshalInternsRepeatedBools(t *testing.T) {
	type holder struct{ A, B interface{} }
	var h holder
	require.NoError(t, Unmarshal([]byte(`{"A":true,"B":true}`), &h))
	require.Equal(t, intern.Bool(true), h.A)
	require.Equal(t, intern.Bool(true), h.B)
}

func TestUnmarshalInternsRepeatedLowChars(t *testing.T) {
	type holder struct{ A, B interface{} }
	var h holder
	require.NoError(t, Unmarshal([]byte(`{"A":{"@type":"char","value":"x"},"B":{"@type":"char","value":"x"}}`), &h))
	require.Equal(t, intern.LowChar('x'), h.A)
	require.Equal(t, intern.LowChar('x'), h.B)
}

func TestMarshalCharSliceBehindInterfaceRoundTrips(t *testing.T) {
	type holder struct{ Chars interface{} }
	out, err := NewWriter().Marshal(holder{Chars: []Char{'h', 'i'}})
	require.NoError(t, err)
	require.Contains(t, string(out), `"@type":"char[]"`)

	var h holder
	require.NoError(t, Unmarshal(out, &h))
	require.Equal(t, []Char{'h', 'i'}, h.Chars)
}

func TestUnmarshalNonPointerTargetErrorIsErrCodec(t *testing.T) {
	var p point
	err := Unmarshal([]byte(`{}`), p)
	require.ErrorIs(t, err, ErrCodec)
}

func TestUnmarshalKeysItemsLengthMismatchErrorIsErrCodec(t *testing.T) {
	type holder struct{ M map[int]string }
	var h holder
	err := Unmarshal([]byte(`{"M":{"@keys":[1,2],"@items":["one"]}}`), &h)
	require.ErrorIs(t, err, ErrCodec)
}
