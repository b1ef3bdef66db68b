package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	graphjson "github.com/zenobiuszeto/json-io"
)

// newInspectCmd fully decodes a document into Go values (any types
// registered via graphjson.Register/RegisterName resolve to their concrete
// struct; anything else falls back to the interface{} shape rules) and
// dumps the resulting graph, including the pointer identities spew reveals
// for shared and cyclic substructures.
func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [file]",
		Short: "Fully decode a document and dump the resulting Go value graph",
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

			spew.Dump(value)
			return nil
		},
	}
}
