// Package cmd holds the robocore command line.
package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sfunderbots/robocore/config"
	"github.com/sfunderbots/robocore/observability"
	"github.com/spf13/cobra"
)

// app is what the persistent pre-run hands to subcommands.
type app struct {
	cfgFile string
	store   *config.Store
	logs    io.Closer
}

// NewRootCmd builds a fresh command tree, so tests never share flag state.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "robocore",
		Short:         "Decision and control core for small-size robot soccer.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			logger, closer := observability.NewLogger(cfg.Logger, cmd.ErrOrStderr())
			slog.SetDefault(logger)
			a.store = config.NewStore(*cfg)
			a.logs = closer
			slog.Debug("configuration loaded", "file", a.cfgFile, "max_robot_id", cfg.Rules.MaxRobotID)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logs == nil {
				return nil
			}
			if err := a.logs.Close(); err != nil {
				return fmt.Errorf("close log file: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./robocore.yaml)")
	root.AddCommand(newRunCmd(a), newStepCmd(a))
	return root
}
