package codec

import (
	"errors"
	"fmt"
)

// ErrCodec is the root of this package's error taxonomy: every failure
// raised by the package's own encode and build steps wraps it. Errors from
// the tree package pass through under their own sentinels instead:
// tree.ErrParse for unparsable input, and tree.ErrType when a node's shape
// does not fit its destination.
var ErrCodec = errors.New("codec: error")

// ErrUndefinedRef is returned when an "@ref" names an id with no matching
// "@id" anywhere in the document.
var ErrUndefinedRef = fmt.Errorf("%w: @ref to undefined @id", ErrCodec)

// ErrUnknownType is returned when an "@type" tag cannot be resolved
// against the type registry, or when a value must be decoded into an
// interface{} position with neither a registered tag nor an inferable
// declared type.
var ErrUnknownType = fmt.Errorf("%w: unresolved @type", ErrCodec)
