// Package graphjson serializes and deserializes arbitrary in-memory Go
// object graphs as JSON, preserving pointer identity, cycles, and shared
// substructure through "@type"/"@id"/"@ref"/"@items"/"@keys"/"value"
// meta-keys, without requiring participating types to implement any
// interface.
//
// Marshal traces the graph once to find every node reachable more than
// once, then emits it in a single pass, stamping "@id" only where a later
// "@ref" will need to point back. Unmarshal parses the document into an
// intermediate tree first, then builds live Go values from it, resolving
// both backward and forward references against the tree's complete
// "@id" table.
package graphjson

import (
	"github.com/zenobiuszeto/json-io/internal/codec"
	"github.com/zenobiuszeto/json-io/internal/tree"
)

// Char is a single UTF-16-width code unit. Use it for fields that should
// round-trip through the wire's compact "char" leaf representation
// instead of being treated as a numeric array element.
type Char = codec.Char

// Class names a registered Go type by reference, for fields that hold a
// type identity rather than a value of that type.
type Class = codec.Class

// Node is the parsed, not-yet-instantiated representation of one JSON
// value, as produced by DecodeIntermediate.
type Node = tree.Node

// Register binds a concrete type to its default wire name (its package
// path and type name), so values of that type can be round-tripped
// through interface{}-typed positions. Call it once per process, at
// init time, for every concrete type that may appear behind an
// interface{} field, slice element, or map value.
func Register(sample interface{}) { codec.Register(sample) }

// RegisterName binds a concrete type to an explicit wire name, for types
// whose default name would be unstable or unexported.
func RegisterName(name string, sample interface{}) { codec.RegisterName(name, sample) }
