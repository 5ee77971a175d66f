package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/spf13/cobra"
)

var errCacheMiss = errors.New("cache miss")

func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the encrypted local cache",
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List cache entries and usage per type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.Cache.ListEntries(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range entries {
				expires := "never"
				if e.ExpiresAt != nil {
					expires = e.ExpiresAt.Local().Format(time.DateTime)
				}
				fmt.Fprintf(w, "%-32s %-12s %10d %-19s %s\n",
					e.Key, e.CacheType, e.SizeBytes, expires, e.AccessedAt.Local().Format(time.DateTime))
			}

			usage, err := c.app.Cache.Usage(cmd.Context())
			if err != nil {
				return err
			}
			types := make([]string, 0, len(usage))
			for t := range usage {
				types = append(types, string(t))
			}
			sort.Strings(types)
			for _, t := range types {
				fmt.Fprintf(w, "total %-12s %d bytes\n", t, usage[models.CacheType(t)])
			}
			return nil
		},
	}

	get := &cobra.Command{
		Use:   "get <key>",
		Short: "Write the decrypted value of a key to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, ok, err := c.app.Cache.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", errCacheMiss, args[0])
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var cacheType string
	var ttl time.Duration
	put := &cobra.Command{
		Use:   "put <key> [file]",
		Short: "Encrypt and store a value (read from stdin without a file)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ct, err := models.ParseCacheType(cacheType)
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 2 {
				data, err = os.ReadFile(args[1])
			} else {
				data, err = io.ReadAll(c.in)
			}
			if err != nil {
				return err
			}

			if ttl > 0 {
				exp := time.Now().Add(ttl)
				err = c.app.Cache.Put(cmd.Context(), args[0], ct, data, &exp)
			} else {
				prefs, perr := c.app.Preferences.Get(cmd.Context(), c.cfg.UserID)
				if perr != nil {
					return perr
				}
				err = c.app.Cache.PutWithPolicy(cmd.Context(), args[0], ct, data, prefs.CachePolicy)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d bytes)\n", args[0], len(data))
			return nil
		},
	}
	put.Flags().StringVar(&cacheType, "type", string(models.CacheTypeConversation), "cache type: conversation, message, file, preference")
	put.Flags().DurationVar(&ttl, "ttl", 0, "time to live (defaults to the cache policy retention)")

	evict := &cobra.Command{
		Use:   "evict",
		Short: "Delete expired entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := c.app.Cache.EvictExpired(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "evicted %d\n", n)
			return nil
		},
	}

	prune := &cobra.Command{
		Use:   "prune",
		Short: "Evict expired entries and trim the cache to the policy size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.app.PruneCache(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "expired %d, trimmed %d\n", rep.Expired, rep.Trimmed)
			return nil
		},
	}

	cmd.AddCommand(ls, get, put, evict, prune)
	return cmd
}
