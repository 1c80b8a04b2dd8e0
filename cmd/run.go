package cmd

import (
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/sfunderbots/robocore/setup"
	"github.com/spf13/cobra"
)

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every node threaded and serve adapters on the unix socket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.store.Snapshot()
			socketPath := cfg.IPC.SocketPath

			// Unix sockets leave behind a file on unclean shutdown; remove it so we can rebind.
			if err := os.RemoveAll(socketPath); err != nil {
				return fmt.Errorf("clean up socket %s: %w", socketPath, err)
			}
			ln, err := net.Listen("unix", socketPath)
			if err != nil {
				return fmt.Errorf("listen on %s: %w", socketPath, err)
			}
			defer os.Remove(socketPath)

			p, err := setup.Build(a.store)
			if err != nil {
				return err
			}
			defer p.Close()

			slog.Info("starting robocore", "socket", socketPath, "control_period", cfg.Tracker.ControlPeriod)
			if err := p.Run(ctx, ln); err != nil {
				return err
			}
			slog.Info("shutting down")
			return nil
		},
	}
}
