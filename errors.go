package graphjson

import (
	"errors"
	"fmt"

	"github.com/zenobiuszeto/json-io/internal/codec"
	"github.com/zenobiuszeto/json-io/internal/tree"
)

// ErrCodec is the root of this package's error taxonomy. Every error
// Marshal or Unmarshal returns wraps it, so callers can write a single
// errors.Is(err, graphjson.ErrCodec) check regardless of which stage
// failed.
var ErrCodec = errors.New("graphjson: error")

var (
	// ErrLex covers every failure to parse the JSON text: bad escapes,
	// unterminated strings, invalid literals, and also bracket and
	// key/value faults such as mismatched brackets or a missing ':'.
	ErrLex = fmt.Errorf("%w: lexical error", ErrCodec)
	// ErrStructure covers parsed JSON whose value has the wrong shape for
	// its destination: a number where a string is expected, or neither an
	// array nor @items where a sequence is expected. Faults in the JSON
	// text itself are reported as ErrLex, not here.
	ErrStructure = fmt.Errorf("%w: structural error", ErrCodec)
	// ErrSemantic covers a @type naming an unregistered type, or a
	// reference whose concrete type cannot be determined without one.
	// Sibling fields beside an @ref are ignored rather than rejected.
	ErrSemantic = fmt.Errorf("%w: semantic error", ErrCodec)
	// ErrInstantiate covers the remaining codec failures: a value that
	// cannot be built into the requested Go type (a non-pointer Unmarshal
	// target, mismatched @keys/@items lengths, an array too short for its
	// elements, a leaf kind with no conversion) and a Go kind Marshal
	// cannot encode.
	ErrInstantiate = fmt.Errorf("%w: instantiation error", ErrCodec)
	// ErrReference covers a dangling @ref: one naming an id with no
	// matching @id anywhere in the document.
	ErrReference = fmt.Errorf("%w: reference error", ErrCodec)
)

// classify maps an internal parse/build error onto this package's public
// taxonomy, by its wrapped sentinel.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, tree.ErrParse):
		return fmt.Errorf("%w: %v", ErrLex, err)
	case errors.Is(err, tree.ErrType):
		return fmt.Errorf("%w: %v", ErrStructure, err)
	case errors.Is(err, codec.ErrUndefinedRef):
		return fmt.Errorf("%w: %v", ErrReference, err)
	case errors.Is(err, codec.ErrUnknownType):
		return fmt.Errorf("%w: %v", ErrSemantic, err)
	case errors.Is(err, codec.ErrCodec):
		return fmt.Errorf("%w: %v", ErrInstantiate, err)
	default:
		return fmt.Errorf("%w: %w", ErrCodec, err)
	}
}
