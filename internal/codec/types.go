// Package codec holds the writer and reader halves of the graph codec:
// the reference tracer and JSON emitter, and the two-pass graph rebuild
// with eager shell allocation and post-build map rehashing.
package codec

import (
	"reflect"

	"github.com/zenobiuszeto/json-io/internal/intern"
)

// Char is the leaf type that maps to the wire's "char" tag: a single
// UTF-16 code unit. A []Char or [N]Char sequence is emitted as a single
// JSON string rather than an array of codes. It is an alias for
// intern.Char so the interning tables can hand out a Char-typed cached
// instance directly, with no reboxing conversion at the call site.
type Char = intern.Char

// Class is the leaf type that maps to the wire's "class" tag: a reference
// to a registered type, round-tripped by name rather than by value.
type Class struct {
	Type reflect.Type
}

var (
	charType  = reflect.TypeOf(Char(0))
	classType = reflect.TypeOf(Class{})
)
