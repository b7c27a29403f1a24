// Package admin implements the moderator CLI.
package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"lennonwall/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// EventSource is the subscription the watch command reads from. *redis.PubSub
// satisfies it.
type EventSource interface {
	Channel(opts ...redis.ChannelOption) <-chan *redis.Message
	Close() error
}

// RootOptions holds global flags and the lazily opened backends.
type RootOptions struct {
	Format string // "json" | "text"

	OpenStorage func() (storage.Storage, error)
	OpenEvents  func(ctx context.Context) (EventSource, error)
}

// NewRootCommand creates the root admin command.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lennonwall-admin",
		Short: "Inspect the Lennon Wall database",
		Long: `Moderator tools for the Lennon Wall.

Hidden messages cannot be restored from here: moderation is automatic
and one-way.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newReportsCommand(opts))
	cmd.AddCommand(newHiddenCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))

	return cmd
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
