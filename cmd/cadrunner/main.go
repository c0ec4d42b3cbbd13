// Command cadrunner executes one script build in isolation. It reads a
// single JSON envelope from stdin, builds the script through a geometry
// bridge subprocess, writes intermediate artifacts into the workspace, and
// emits one JSON output document on stdout. Diagnostics go to stderr only.
package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/cadexec/geometry/proc"
	"github.com/jonwraymond/cadexec/runner"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		bridgeCommand string
		bridgeArgs    []string
		verbose       bool
	)

	cmd := &cobra.Command{
		Use:   "cadrunner",
		Short: "Isolated one-shot script build runner",
		Long: `cadrunner is the isolation boundary of the execution pipeline: it is
spawned once per parameter set, reads the build envelope from stdin, and
writes exactly one output document to stdout.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "cadrunner"})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}

			if bridgeCommand == "" {
				return fmt.Errorf("--bridge is required")
			}
			kernel, err := proc.StartCommand(cmd.Context(), bridgeCommand, bridgeArgs...)
			if err != nil {
				return fmt.Errorf("start geometry bridge: %w", err)
			}
			defer kernel.Close()

			return runner.Run(cmd.Context(), os.Stdin, os.Stdout, kernel, logger)
		},
	}
	cmd.Flags().StringVar(&bridgeCommand, "bridge", "", "geometry bridge command")
	cmd.Flags().StringArrayVar(&bridgeArgs, "bridge-arg", nil, "argument passed to the bridge command (repeatable)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}
