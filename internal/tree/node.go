// Package tree is the intermediate-tree half of the JSON lexer/parser: the
// parsed, not-yet-instantiated representation of a document, carrying the
// reserved @type/@id/@ref/@items/@keys/value slots alongside ordinary
// object fields, with field order retained via []Field rather than
// erased into a map.
package tree

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrType is returned when a Node is asked for an accessor its Kind does
// not support.
var ErrType = errors.New("tree: type error")

// Kind identifies the shape of a parsed value.
type Kind int

// The kinds a Node may hold.
const (
	Null Kind = iota
	Int
	Float
	Bool
	String
	Array
	Object
	numKinds
)

var kindNames = [numKinds]string{
	"<null>", "<int>", "<float>", "<bool>", "<string>", "<array>", "<object>",
}

func (k Kind) String() string {
	if k < 0 || k >= numKinds {
		return "<unknown>"
	}
	return kindNames[k]
}

// Field is one ordered key/value pair of an Object node. Keys beginning
// with '@' are reserved; see Node's meta accessors.
type Field struct {
	Key string
	Val *Node
}

// Node is one value of the parsed intermediate tree. Besides the ordinary
// scalar/array/object shapes, an Object node may carry the reserved
// @type, @id, @ref, @items, @keys and value slots; at most one of @ref or
// the (@id, @type, fields...) combination is meaningful on a given node.
type Node struct {
	kind Kind

	i int64
	f float64
	b bool
	s string

	arr  []*Node // Array elements, or an Object's @items payload
	keys []*Node // an Object's @keys payload, aligned with arr/items

	obj []Field // ordered user fields (Object kind only)

	typeTag string
	hasType bool

	id    int64
	hasID bool

	ref    int64
	hasRef bool

	hasItems bool

	value    *Node
	hasValue bool
}

// NewNull returns a null node.
func NewNull() *Node { return &Node{kind: Null} }

// NewInt returns an integer scalar node.
func NewInt(v int64) *Node { return &Node{kind: Int, i: v} }

// NewFloat returns a floating point scalar node.
func NewFloat(v float64) *Node { return &Node{kind: Float, f: v} }

// NewBool returns a boolean scalar node.
func NewBool(v bool) *Node { return &Node{kind: Bool, b: v} }

// NewString returns a string scalar node.
func NewString(v string) *Node { return &Node{kind: String, s: v} }

// NewArray returns an array node wrapping items.
func NewArray(items []*Node) *Node { return &Node{kind: Array, arr: items} }

// NewObject returns an object node with the given ordered user fields.
func NewObject(fields []Field) *Node { return &Node{kind: Object, obj: fields} }

// Kind reports the node's shape.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// IsNull reports whether n is absent or an explicit JSON null.
func (n *Node) IsNull() bool { return n == nil || n.kind == Null }

// AsInt64 extracts an integer value.
func (n *Node) AsInt64() (int64, error) {
	if n != nil && n.kind == Int {
		return n.i, nil
	}
	return 0, fmt.Errorf("%w: not an integer: %v", ErrType, n)
}

// AsFloat64 extracts a float value; an Int node is converted to float64,
// which is exact only for magnitudes up to 2^53.
func (n *Node) AsFloat64() (float64, error) {
	if n == nil {
		return 0, fmt.Errorf("%w: not a number: %v", ErrType, n)
	}
	switch n.kind {
	case Float:
		return n.f, nil
	case Int:
		return float64(n.i), nil
	}
	return 0, fmt.Errorf("%w: not a number: %v", ErrType, n)
}

// AsBool extracts a boolean value.
func (n *Node) AsBool() (bool, error) {
	if n != nil && n.kind == Bool {
		return n.b, nil
	}
	return false, fmt.Errorf("%w: not a boolean: %v", ErrType, n)
}

// AsString extracts a string value.
func (n *Node) AsString() (string, error) {
	if n != nil && n.kind == String {
		return n.s, nil
	}
	return "", fmt.Errorf("%w: not a string: %v", ErrType, n)
}

// AsArray extracts the array node's elements.
func (n *Node) AsArray() ([]*Node, error) {
	if n != nil && n.kind == Array {
		return n.arr, nil
	}
	return nil, fmt.Errorf("%w: not an array: %v", ErrType, n)
}

// Fields returns an Object node's ordered user fields (meta keys excluded).
func (n *Node) Fields() []Field {
	if n == nil || n.kind != Object {
		return nil
	}
	return n.obj
}

// Type returns the node's @type tag, if any.
func (n *Node) Type() (string, bool) {
	if n == nil {
		return "", false
	}
	return n.typeTag, n.hasType
}

// SetType stamps the @type tag.
func (n *Node) SetType(tag string) { n.typeTag = tag; n.hasType = true }

// ID returns the node's @id, if any.
func (n *Node) ID() (int64, bool) {
	if n == nil {
		return 0, false
	}
	return n.id, n.hasID
}

// SetID stamps the @id.
func (n *Node) SetID(id int64) { n.id = id; n.hasID = true }

// Ref returns the node's @ref, if any. A node carrying a ref is a pure
// reference placeholder and has no other meaningful fields.
func (n *Node) Ref() (int64, bool) {
	if n == nil {
		return 0, false
	}
	return n.ref, n.hasRef
}

// SetRef stamps the @ref.
func (n *Node) SetRef(id int64) { n.ref = id; n.hasRef = true }

// Items returns the node's @items payload (array elements, sequence
// elements, or mapping values), if any.
func (n *Node) Items() ([]*Node, bool) {
	if n == nil || !n.hasItems {
		return nil, false
	}
	return n.arr, true
}

// SetItems stamps the @items payload.
func (n *Node) SetItems(items []*Node) { n.arr = items; n.hasItems = true }

// Keys returns the node's @keys payload (paired positionally with Items),
// if any.
func (n *Node) Keys() []*Node { return n.keys }

// SetKeys stamps the @keys payload.
func (n *Node) SetKeys(keys []*Node) { n.keys = keys }

// Value returns the node's value payload (a boxed leaf's scalar), if any.
func (n *Node) Value() (*Node, bool) {
	if n == nil || !n.hasValue {
		return nil, false
	}
	return n.value, true
}

// SetValue stamps the value payload.
func (n *Node) SetValue(v *Node) { n.value = v; n.hasValue = true }

// Field looks up a user field by name, fluent-style: a missing field or a
// non-object receiver yields a null node rather than an error, so chained
// lookups on malformed paths degrade to null instead of panicking.
func (n *Node) Field(name string) *Node {
	if n == nil || n.kind != Object {
		return NewNull()
	}
	for _, f := range n.obj {
		if f.Key == name {
			return f.Val
		}
	}
	return NewNull()
}

// Index looks up an array element by position, fluent-style.
func (n *Node) Index(i int) *Node {
	if n == nil || n.kind != Array {
		return NewNull()
	}
	if i < 0 || i >= len(n.arr) {
		return NewNull()
	}
	return n.arr[i]
}

// String renders a debug representation. It is not guaranteed to be valid
// JSON and should not be used to serialize a Node.
func (n *Node) String() string {
	if n == nil {
		return "null"
	}
	switch n.kind {
	case Null:
		return "null"
	case Int:
		return strconv.FormatInt(n.i, 10)
	case Float:
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	case Bool:
		if n.b {
			return "true"
		}
		return "false"
	case String:
		return strconv.Quote(n.s)
	case Array:
		out := "["
		for i, v := range n.arr {
			if i > 0 {
				out += ", "
			}
			out += v.String()
		}
		return out + "]"
	case Object:
		out := "{"
		if n.hasType {
			out += fmt.Sprintf("@type:%s ", n.typeTag)
		}
		if n.hasID {
			out += fmt.Sprintf("@id:%d ", n.id)
		}
		if n.hasRef {
			out += fmt.Sprintf("@ref:%d", n.ref)
		}
		for i, f := range n.obj {
			if i > 0 {
				out += ", "
			}
			out += strconv.Quote(f.Key) + ": " + f.Val.String()
		}
		return out + "}"
	}
	return "<unknown>"
}
