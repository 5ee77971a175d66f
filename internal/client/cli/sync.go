package cli

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func (c *CLI) syncCommand() *cobra.Command {
	var all bool
	var search string

	cmd := &cobra.Command{
		Use:   "sync [conversation-id]",
		Short: "Pull conversations from the active server",
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return errors.New("pass a conversation id or --all, not both")
			case !all && len(args) != 1:
				return errors.New("pass a conversation id or --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			if !all {
				if err := c.app.SyncConversation(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(w, "synced %s\n", args[0])
				return nil
			}

			rep, err := c.app.SyncAll(cmd.Context(), search)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "synced %d conversations\n", len(rep.Synced))
			if len(rep.Failed) == 0 {
				return nil
			}
			ids := make([]string, 0, len(rep.Failed))
			for id := range rep.Failed {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", id, rep.Failed[id])
			}
			return fmt.Errorf("%d conversations failed to sync", len(rep.Failed))
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "sync every conversation the server lists")
	cmd.Flags().StringVar(&search, "search", "", "only conversations matching this search (with --all)")
	return cmd
}
