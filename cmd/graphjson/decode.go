package main

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	graphjson "github.com/zenobiuszeto/json-io"
)

// newDecodeCmd parses a document into the intermediate tree only, without
// instantiating any Go value, and dumps its shape: useful for inspecting a
// document's @id/@ref graph and @type tags before committing to a target
// type.
func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode [file]",
		Short: "Parse a document into the intermediate tree and dump its shape",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := readInput(args)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			root, err := graphjson.DecodeIntermediate(data)
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}

			spew.Dump(root)
			return nil
		},
	}
}
