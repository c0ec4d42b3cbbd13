// Command cadexecd is the script-execution daemon. It exposes the tool
// catalog over newline-delimited JSON on stdio: one request per line in,
// one response per line out.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jonwraymond/cadexec/config"
	"github.com/jonwraymond/cadexec/env"
	"github.com/jonwraymond/cadexec/gateway"
	"github.com/jonwraymond/cadexec/geometry/proc"
	"github.com/jonwraymond/cadexec/introspect"
	"github.com/jonwraymond/cadexec/parts"
	"github.com/jonwraymond/cadexec/runner"
	"github.com/jonwraymond/cadexec/store"
	"github.com/jonwraymond/cadexec/toolset"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "cadexecd",
		Short: "Parametric CAD script execution daemon",
		Long: `cadexecd executes parametric construction scripts in isolated
per-workspace runtimes and serves export, introspection, and part-library
tools over newline-delimited JSON on stdin/stdout.`,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file path (default ./cadexec.yaml when present)")
	return cmd
}

func runDaemon(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "cadexecd",
		ReportTimestamp: true,
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.BridgeCommand == "" {
		return errors.New("bridge_command is required")
	}
	kernel, err := proc.StartCommand(ctx, cfg.BridgeCommand, cfg.BridgeArgs...)
	if err != nil {
		return fmt.Errorf("start geometry bridge: %w", err)
	}
	defer kernel.Close()

	provisioner := &env.UVProvisioner{
		RuntimeVersion: cfg.RuntimeVersion,
		BasePackage:    cfg.BasePackage,
		Logger:         logger.With("component", "env"),
	}
	envMgr := env.NewManager(provisioner, logger.With("component", "env"))

	st := store.New(cfg.StoreMaxResults)

	gw, err := gateway.New(gateway.Config{
		Env: envMgr,
		Invoker: &runner.Subprocess{
			Args:    cfg.RunnerArgs,
			Timeout: cfg.RunnerTimeout,
			Logger:  logger.With("component", "runner"),
		},
		Store:  st,
		Logger: logger.With("component", "gateway"),
	})
	if err != nil {
		return err
	}

	disp, err := introspect.New(st, kernel, logger.With("component", "introspect"))
	if err != nil {
		return err
	}

	library, err := parts.NewIndexer(parts.Config{
		LibraryDir: cfg.LibraryDir,
		PreviewDir: cfg.PreviewDir,
		Kernel:     kernel,
		Logger:     logger.With("component", "parts"),
	})
	if err != nil {
		return err
	}

	svc, err := toolset.New(toolset.Config{
		Gateway:    gw,
		Env:        envMgr,
		Dispatcher: disp,
		Library:    library,
		Logger:     logger.With("component", "toolset"),
	})
	if err != nil {
		return err
	}

	logger.Info("serving tool catalog on stdio",
		"tools", len(svc.Tools()), "library", cfg.LibraryDir)
	return toolset.ServeStdio(ctx, os.Stdin, os.Stdout, svc)
}
