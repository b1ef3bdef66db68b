package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	graphjson "github.com/zenobiuszeto/json-io"
)

// newEncodeCmd round-trips a document through the Go value graph and
// re-emits it as canonical graphjson: decode into an interface{} (a
// registered @type picks its Go type; otherwise the interface{} shape
// rules apply, so a plain object becomes a map[string]interface{}) then
// marshal it straight back out.
func newEncodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encode [file]",
		Short: "Decode a document and re-emit it as canonical graphjson",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			var value interface{}
			if err := graphjson.Unmarshal(data, &value); err != nil {
				return fmt.Errorf("decode: %w", err)
			}

			out, err := graphjson.Marshal(value)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			return writeOutput(out)
		},
	}
}

// writeOutput prints data to stdout, pretty-printing it first when the
// --indent flag is set.
func writeOutput(data []byte) error {
	if resolved.Indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return fmt.Errorf("indent output: %w", err)
		}
		data = buf.Bytes()
	}
	_, err := os.Stdout.Write(append(data, '\n'))
	return err
}
