package tree

import "io"

// GraphWriter is the optional custom-write hook a type may declare: when
// a type implements it, the writer invokes it instead of walking its
// fields one by one.
type GraphWriter interface {
	WriteGraphJSON(w io.Writer) error
}

// GraphReader is the optional custom-read hook counterpart. It receives the
// object's ordered, already-parsed user fields (meta keys excluded).
type GraphReader interface {
	ReadGraphJSON(fields []Field) error
}
