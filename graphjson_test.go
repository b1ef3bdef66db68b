package graphjson

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type Node3 struct {
	Name string
	Next *Node3
}

func TestThreeCycleSingleID(t *testing.T) {
	a := &Node3{Name: "a"}
	b := &Node3{Name: "b"}
	c := &Node3{Name: "c"}
	a.Next = b
	b.Next = c
	c.Next = a

	data, err := Marshal(a)
	require.NoError(t, err)

	count := 0
	for i := 0; i+4 <= len(data); i++ {
		if string(data[i:i+4]) == `@id"` {
			count++
		}
	}
	require.Equal(t, 1, count, "exactly one node in a three-cycle gets @id: %s", data)

	var out Node3
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, "a", out.Name)
	require.Equal(t, "b", out.Next.Name)
	require.Equal(t, "c", out.Next.Next.Name)
	require.Same(t, &out, out.Next.Next.Next)
}

type Leaf struct {
	Value int
}

type SharedHolder struct {
	First  *Leaf
	Second *Leaf
}

func TestSharedAliasedLeafPreservesIdentity(t *testing.T) {
	shared := &Leaf{Value: 42}
	h := &SharedHolder{First: shared, Second: shared}

	data, err := Marshal(h)
	require.NoError(t, err)

	var out SharedHolder
	require.NoError(t, Unmarshal(data, &out))
	require.Same(t, out.First, out.Second)
	require.Equal(t, 42, out.First.Value)
}

type ByteHolder struct {
	Payload []byte
}

func TestByteSliceFidelity(t *testing.T) {
	h := &ByteHolder{Payload: []byte{0, 1, 2, 255, 128}}
	data, err := Marshal(h)
	require.NoError(t, err)

	var out ByteHolder
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, h.Payload, out.Payload)
}

type AnyHolder struct {
	Items []interface{}
}

func TestHeterogeneousGenericArray(t *testing.T) {
	Register(Leaf{})
	h := &AnyHolder{Items: []interface{}{"str", int64(7), true, &Leaf{Value: 9}}}
	data, err := Marshal(h)
	require.NoError(t, err)

	var out AnyHolder
	require.NoError(t, Unmarshal(data, &out))
	require.Len(t, out.Items, 4)
	require.Equal(t, "str", out.Items[0])
	require.Equal(t, int64(7), out.Items[1])
	require.Equal(t, true, out.Items[2])
	leaf, ok := out.Items[3].(*Leaf)
	require.True(t, ok)
	require.Equal(t, 9, leaf.Value)
}

type IntKeyedHolder struct {
	Table map[int]string
}

func TestUntypedMappingNonStringKeys(t *testing.T) {
	h := &IntKeyedHolder{Table: map[int]string{1: "one", 2: "two", 3: "three"}}
	data, err := Marshal(h)
	require.NoError(t, err)

	var out IntKeyedHolder
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, h.Table, out.Table)
}

type ArrayHolder struct {
	Nodes []*Node3
}

// A Marshal call never emits an "@ref" ahead of its "@id" (the id is
// stamped at the first, and therefore earliest, occurrence), so this
// exercises the reader directly against hand-authored input where the
// reference precedes its definition in byte order.
func TestForwardReferenceInArray(t *testing.T) {
	data := []byte(`{"Nodes":[{"@ref":5},{"@id":5,"Name":"two","Next":null}]}`)

	var out ArrayHolder
	require.NoError(t, Unmarshal(data, &out))
	require.Len(t, out.Nodes, 2)
	require.Same(t, out.Nodes[0], out.Nodes[1])
	require.Equal(t, "two", out.Nodes[0].Name)
}

func TestDecodeIntermediateShape(t *testing.T) {
	node, err := DecodeIntermediate([]byte(`{"Name":"x","Next":null}`))
	require.NoError(t, err)
	s, err := node.Field("Name").AsString()
	require.NoError(t, err)
	require.Equal(t, "x", s)
	require.True(t, node.Field("Next").IsNull())
}

func TestMarshalUnmarshalRoundTripsSimpleValue(t *testing.T) {
	h := &Leaf{Value: 123}
	data, err := Marshal(h)
	require.NoError(t, err)

	var out Leaf
	require.NoError(t, Unmarshal(data, &out))
	require.Equal(t, 123, out.Value)
}
