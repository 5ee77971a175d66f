package cli

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/chatkeeper/internal/client/models"
	"github.com/spf13/cobra"
)

func (c *CLI) sendCommand() *cobra.Command {
	var files []string
	var maxRetries int

	cmd := &cobra.Command{
		Use:   "send <conversation-id> [text...]",
		Short: "Queue a message for delivery (text is read from stdin when omitted)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args[1:], " ")
			if text == "" {
				var err error
				text, err = GetMultiline(c.in, "Message", cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			if text == "" && len(files) == 0 {
				return errors.New("empty message")
			}

			attachments := make([]models.QueuedAttachment, 0, len(files))
			for _, f := range files {
				a, err := queuedAttachment(f)
				if err != nil {
					return err
				}
				attachments = append(attachments, a)
			}

			e, err := c.app.Sync.Enqueue(cmd.Context(), args[0], text, attachments, maxRetries)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", e.ID)
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "attach a local file (repeatable)")
	cmd.Flags().IntVar(&maxRetries, "max-retries", 0, "delivery attempts before giving up (0 uses the default)")
	return cmd
}

func queuedAttachment(path string) (models.QueuedAttachment, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.QueuedAttachment{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return models.QueuedAttachment{}, fmt.Errorf("attachment %s: %w", path, err)
	}
	if info.IsDir() {
		return models.QueuedAttachment{}, fmt.Errorf("attachment %s is a directory", path)
	}

	a := models.QueuedAttachment{FilePath: abs}
	size := info.Size()
	a.SizeBytes = &size
	if mt := mime.TypeByExtension(filepath.Ext(abs)); mt != "" {
		a.MimeType = &mt
	}
	return a, nil
}

func (c *CLI) outboxCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and deliver queued messages",
	}

	ls := &cobra.Command{
		Use:   "ls",
		Short: "List queued messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := c.app.Store.Queue.List(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, e := range entries {
				next := "-"
				if e.NextRetryAt != nil {
					next = e.NextRetryAt.Local().Format(time.DateTime)
				}
				errMsg := ""
				if e.ErrorMessage != nil {
					errMsg = *e.ErrorMessage
				}
				fmt.Fprintf(w, "%s %-20s %-10s %d/%d %-19s %s\n",
					e.ID, e.ConversationID, e.ProcessingState, e.RetryCount, e.MaxRetries, next, errMsg)
			}
			return nil
		},
	}

	flush := &cobra.Command{
		Use:   "flush",
		Short: "Send every message that is due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.app.FlushOutbox(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d, failed %d\n", rep.Sent, rep.Failed)
			return nil
		},
	}

	cmd.AddCommand(ls, flush)
	return cmd
}
