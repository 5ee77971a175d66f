package cli

import (
	"bufio"
	"fmt"

	"github.com/dmitrijs2005/chatkeeper/internal/client/app"
	"github.com/dmitrijs2005/chatkeeper/internal/client/config"
	"github.com/dmitrijs2005/chatkeeper/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// CLI owns the state shared by the command tree: the resolved config and
// the app opened for the running command.
type CLI struct {
	v       *viper.Viper
	opts    []app.Option
	envFile string

	cfg *config.Config
	app *app.App
	in  *bufio.Reader
}

// New returns a CLI; opts are passed to app.New after the defaults.
func New(opts ...app.Option) *CLI {
	return &CLI{v: viper.New(), opts: opts}
}

// Command builds the root command.
func (c *CLI) Command() (*cobra.Command, error) {
	root := &cobra.Command{
		Use:               "chatkeeper",
		Short:             "Offline-capable chat client store",
		SilenceUsage:      true,
		PersistentPreRunE: c.setup,
	}
	if err := config.BindFlags(root.PersistentFlags(), c.v); err != nil {
		return nil, err
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with CHATKEEPER_* variables")

	root.AddCommand(
		c.serverCommand(),
		c.syncCommand(),
		c.sendCommand(),
		c.outboxCommand(),
		c.cacheCommand(),
		c.runCommand(),
	)
	return root, nil
}

func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return err
	}
	cfg, err := config.Load(c.v)
	if err != nil {
		return err
	}
	c.cfg = cfg

	log := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	opts := append([]app.Option{app.WithLogger(log)}, c.opts...)
	a, err := app.New(cmd.Context(), cfg, opts...)
	if err != nil {
		return fmt.Errorf("failed to open local store: %w", err)
	}
	c.app = a
	c.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// Close releases the app opened by the last command, if any.
func (c *CLI) Close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}
