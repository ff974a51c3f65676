// Package main provides the memgraphctl CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/config"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// cliFlags holds the global flags every subcommand shares: where the
// database lives and how results should be rendered.
type cliFlags struct {
	dataDir  string
	inMemory bool
	cfgFile  string
	format   string
}

var flags cliFlags

func main() {
	rootCmd := &cobra.Command{
		Use:   "memgraphctl",
		Short: "memgraphctl - operate an embedded conversation graph database",
		Long: `memgraphctl is the command-line interface to a memgraph database:
an embedded, append-dominant graph store recording the causal structure
of LLM conversations (sessions, prompts, responses, tool invocations,
templates, and agents, connected by typed edges).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "./data", "database directory")
	rootCmd.PersistentFlags().BoolVar(&flags.inMemory, "in-memory", false, "run against an ephemeral in-memory store instead of --data-dir")
	rootCmd.PersistentFlags().StringVar(&flags.cfgFile, "config", "", "optional YAML config file (overrides --data-dir/--in-memory defaults)")
	rootCmd.PersistentFlags().StringVar(&flags.format, "format", "text", "output format: text|json|yaml|table")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("memgraphctl v%s (%s)\n", version, commit)
		},
	})

	rootCmd.AddCommand(
		newSessionCmd(),
		newNodeCmd(),
		newEdgeCmd(),
		newQueryCmd(),
		newTraverseCmd(),
		newAdminCmd(),
		newIOCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// openEngine resolves the global flags into a config.Config and opens
// the engine. --config, when set, takes priority over --data-dir/--in-memory.
func openEngine() (*engine.Engine, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return engine.Open(cfg)
}

// runE wraps a subcommand body so every error path prints its one-line
// "kind: message" explanation exactly once via printErr, regardless of
// which subcommand produced it, before cobra turns it into an exit code.
func runE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			printErr(err)
			return err
		}
		return nil
	}
}

func resolveConfig() (config.Config, error) {
	if flags.cfgFile != "" {
		return config.LoadYAML(flags.cfgFile)
	}
	cfg := config.Config{
		Path:     flags.dataDir,
		InMemory: flags.inMemory,
	}
	return cfg.Normalized(), nil
}
