package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) serverCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Manage chat server endpoints and sessions",
	}

	var name string
	var activate bool
	add := &cobra.Command{
		Use:   "add <id> <base-url>",
		Short: "Register or update a server",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := c.app.Servers.Register(cmd.Context(), args[0], name, args[1])
			if err != nil {
				return err
			}
			if activate {
				if err := c.app.Servers.Activate(cmd.Context(), srv.ID); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "server %s saved\n", srv.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "display name (defaults to the host)")
	add.Flags().BoolVar(&activate, "activate", false, "make it the active server")

	use := &cobra.Command{
		Use:   "use <id>",
		Short: "Make a server the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Servers.Activate(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active server: %s\n", args[0])
			return nil
		},
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := c.app.Servers.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, s := range list {
				marker := " "
				if s.IsActive {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %-20s %-24s %-12s %s\n", marker, s.ID, s.Name, s.ConnectionStatus, s.BaseURL)
			}
			return nil
		},
	}

	var token, refresh string
	login := &cobra.Command{
		Use:   "login [id]",
		Short: "Store an access token for a server (the active one by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.serverID(cmd, args)
			if err != nil {
				return err
			}
			if token == "" {
				token, err = GetSecret(c.in, "Access token", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			if token == "" {
				return fmt.Errorf("empty access token")
			}
			if err := c.app.Servers.StoreTokens(cmd.Context(), id, token, refresh); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged in to %s\n", id)
			return nil
		},
	}
	login.Flags().StringVar(&token, "token", "", "access token (prompted when empty)")
	login.Flags().StringVar(&refresh, "refresh-token", "", "refresh token")

	logout := &cobra.Command{
		Use:   "logout [id]",
		Short: "Forget the stored tokens of a server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.serverID(cmd, args)
			if err != nil {
				return err
			}
			if err := c.app.Servers.ClearTokens(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "logged out of %s\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, use, ls, login, logout)
	return cmd
}

func (c *CLI) serverID(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	return c.app.ActiveServerID(cmd.Context())
}
