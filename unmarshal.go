package graphjson

import (
	"github.com/zenobiuszeto/json-io/internal/codec"
	"github.com/zenobiuszeto/json-io/internal/tree"
)

// Unmarshal parses data and builds it into target, which must be a
// non-nil pointer. Forward and backward "@ref"s anywhere in the document
// resolve against its complete "@id" table.
func Unmarshal(data []byte, target interface{}) error {
	if err := codec.Unmarshal(data, target); err != nil {
		return classify(err)
	}
	return nil
}

// DecodeIntermediate parses data into the intermediate tree without
// instantiating any Go value, for tools that need to inspect a document's
// shape (its "@type" tags, reference graph, field names) before or
// instead of building it.
func DecodeIntermediate(data []byte) (*Node, error) {
	root, _, err := tree.Parse(data)
	if err != nil {
		return nil, classify(err)
	}
	return root, nil
}
