// Package main provides the graphjson CLI: a thin driver over the
// encode/decode/inspect operations the graphjson package implements.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/zenobiuszeto/json-io/internal/config"
	"github.com/zenobiuszeto/json-io/log"
)

var (
	logCfg     = log.NewConfig()
	configPath string
	indent     bool

	resolved config.Merged
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "graphjson",
		Short:         "Inspect and round-trip object-graph JSON documents",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return bootstrap(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	logCfg.RegisterFlags(pf)
	pf.StringVar(&configPath, "config", "", "optional YAML file of default flag values")
	pf.BoolVar(&indent, "indent", true, "pretty-print emitted JSON")

	if err := logCfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	rootCmd.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads the optional config file, merges it under whichever
// flags the user actually set, and wires up the default logger from the
// result.
func bootstrap(cmd *cobra.Command) error {
	file, err := config.Load(configPath)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	resolved = config.Resolve(file,
		logCfg.Level, logCfg.Format,
		flags.Changed(logCfg.Flags.Level), flags.Changed(logCfg.Flags.Format),
		indent, flags.Changed("indent"),
	)

	handler := log.NewHandler(os.Stderr, mustLevel(resolved.LogLevel), log.Format(resolved.LogFormat))
	slog.SetDefault(slog.New(handler))
	return nil
}

func mustLevel(s string) slog.Level {
	lvl, err := log.GetLevel(s)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
