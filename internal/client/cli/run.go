package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func (c *CLI) runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Deliver queued messages and evict expired cache entries until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return c.app.Run(ctx)
		},
	}
}
