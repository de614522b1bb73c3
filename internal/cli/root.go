// Package cli provides the command-line interface for virtadm.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"virtadm/internal/config"
	"virtadm/internal/convert"
	"virtadm/internal/logging"
	"virtadm/internal/pathstore"
	"virtadm/internal/toolrun"
	"virtadm/internal/virt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app bundles the collaborators the command handlers need. Tests build one
// with an in-memory store and a fake runner instead of the production wiring.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	store  pathstore.Store
	virt   *virt.Client
	conv   *convert.Converter
	out    io.Writer
}

// commandContext returns the execution context for one external tool run,
// bounded by the configured timeout when one is set.
func (a *app) commandContext() (context.Context, context.CancelFunc) {
	if a.cfg.ToolTimeoutSec > 0 {
		return context.WithTimeout(context.Background(), time.Duration(a.cfg.ToolTimeoutSec)*time.Second)
	}
	return context.WithCancel(context.Background())
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// current is the app for the running invocation, built in PersistentPreRunE.
var current *app

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "virtadm",
	Short: "Manage libvirt VMs and convert OVA/QCOW2 images",
	Long: `virtadm administers local libvirt/KVM virtual machines and converts
appliance images between the OVA and QCOW2 formats.

Conversion commands remember the last source and destination paths per
direction, so flags may be omitted on repeat runs. Use "virtadm paths" to
inspect the remembered paths.

Exit codes:
  0  success
  1  internal error
  2  missing argument (no flag and no remembered path)
  3  validation error
  4  external tool not found
  5  external tool failed
  6  path store error
  7  virtual machine not found`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipWiring(cmd) {
			return nil
		}

		if err := config.Load(); err != nil {
			return err
		}

		logger, err := logging.New(verbose)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}

		store, err := pathstore.OpenSQLite(config.Global.StorePath)
		if err != nil {
			return err
		}

		runner := toolrun.NewExecRunner(logger)
		current = &app{
			cfg:    config.Global,
			logger: logger,
			store:  store,
			virt:   virt.NewClient(runner, config.Global.VirshBin, logger),
			conv:   convert.NewConverter(runner, config.Global.QemuImgBin, logger),
			out:    os.Stdout,
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if current != nil {
			current.store.Close()
			current.logger.Sync()
		}
	},
}

// skipWiring reports whether the command needs no config, logger, or store.
// The check walks the ancestry so completion subcommands (whose own Name is
// the shell, e.g. "bash") are covered too.
func skipWiring(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "version", "completion", "help":
			return true
		}
	}
	return false
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(osCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(ovaToQcow2Cmd)
	rootCmd.AddCommand(qcow2ToOvaCmd)
	rootCmd.AddCommand(netCompatCmd)
	rootCmd.AddCommand(pathsCmd)
}
