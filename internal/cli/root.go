// SPDX-License-Identifier: EPL-2.0

// Package cli implements the multitrack command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ik5/multitrack/internal/config"
	"github.com/ik5/multitrack/internal/logger"
)

// app is the state shared by every command.
type app struct {
	cfgFile  string
	envFiles []string
	logLevel string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand builds the multitrack command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "multitrack",
		Short: "Multi-track audio engine",
		Long: `multitrack loads a project's tracks, plays them in sync, records new takes
and renders the ensemble to a stereo WAV file.

Configuration is read from --config, .env files and MULTITRACK_ environment
variables, in increasing order of precedence.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML)")
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "env files to load (default .env)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level")

	root.AddCommand(
		newMixCmd(a),
		newWaveformCmd(a),
		newProbeCmd(a),
		newRecordCmd(a),
		newServeCmd(a),
		newConfigCmd(),
	)
	return root
}

// setup loads the configuration and builds the logger. Commands under
// config skip it so a broken file can be replaced.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if p := cmd.Parent(); p != nil && p.Name() == "config" {
		return nil
	}

	if err := config.LoadDotEnv(a.envFiles...); err != nil {
		return err
	}

	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}, cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// Execute runs the command line until it finishes or the process is
// interrupted.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
