package graphjson

import "github.com/zenobiuszeto/json-io/internal/codec"

// Marshal serializes v into its JSON object-graph encoding. v is typically
// a pointer to a struct; cycles and shared substructure reachable from v
// are preserved via "@id"/"@ref".
func Marshal(v interface{}) ([]byte, error) {
	w := codec.NewWriter()
	data, err := w.Marshal(v)
	if err != nil {
		return nil, classify(err)
	}
	return data, nil
}
