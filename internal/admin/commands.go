package admin

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"lennonwall/backend/internal/storage"

	"github.com/spf13/cobra"
)

const previewLength = 60

func newStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show message, like and report totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.OpenStorage()
			if err != nil {
				return err
			}
			counts, err := s.GetCounts()
			if err != nil {
				return fmt.Errorf("count rows: %w", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd, map[string]int64{
					"messages": counts.Messages,
					"visible":  counts.Messages - counts.Hidden,
					"hidden":   counts.Hidden,
					"likes":    counts.Likes,
					"reports":  counts.Reports,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "messages: %d\n", counts.Messages)
			fmt.Fprintf(out, "visible:  %d\n", counts.Messages-counts.Hidden)
			fmt.Fprintf(out, "hidden:   %d\n", counts.Hidden)
			fmt.Fprintf(out, "likes:    %d\n", counts.Likes)
			fmt.Fprintf(out, "reports:  %d\n", counts.Reports)
			return nil
		},
	}
}

func newReportsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reports <message_id>",
		Short: "List the reports filed against a message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.OpenStorage()
			if err != nil {
				return err
			}
			msg, err := s.GetMessage(args[0])
			if err != nil {
				return fmt.Errorf("get message: %w", err)
			}
			if msg == nil {
				return fmt.Errorf("message %s not found", args[0])
			}
			reports, err := s.GetReportsForMessage(msg.ID)
			if err != nil {
				return fmt.Errorf("get reports: %w", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd, reports)
			}
			out := cmd.OutOrStdout()
			state := "visible"
			if msg.Hidden {
				state = "hidden"
			}
			fmt.Fprintf(out, "%s (%s): %s\n", msg.ID, state, preview(msg.Content))
			if len(reports) == 0 {
				fmt.Fprintln(out, "no reports")
				return nil
			}
			for _, r := range reports {
				line := fmt.Sprintf("%s  %-13s", r.CreatedAt.Format(time.RFC3339), r.Reason)
				if r.Details != nil {
					line += "  " + preview(*r.Details)
				}
				fmt.Fprintln(out, strings.TrimRight(line, " "))
			}
			return nil
		},
	}
}

func newHiddenCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hidden",
		Short: "List messages hidden by moderation, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.OpenStorage()
			if err != nil {
				return err
			}
			msgs, err := s.GetHiddenMessages()
			if err != nil {
				return fmt.Errorf("get hidden messages: %w", err)
			}

			if opts.Format == "json" {
				return writeJSON(cmd, msgs)
			}
			out := cmd.OutOrStdout()
			if len(msgs) == 0 {
				fmt.Fprintln(out, "no hidden messages")
				return nil
			}
			for _, m := range msgs {
				fmt.Fprintf(out, "%s  %s  %s\n", m.ID, m.CreatedAt.Format(time.RFC3339), preview(m.Content))
			}
			return nil
		},
	}
}

func newWatchCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow live wall events from Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			src, err := opts.OpenEvents(ctx)
			if err != nil {
				return err
			}
			defer src.Close()

			ch := src.Channel()
			out := cmd.OutOrStdout()
			for {
				select {
				case <-ctx.Done():
					return nil
				case msg, ok := <-ch:
					if !ok {
						return nil
					}
					if opts.Format == "json" {
						fmt.Fprintln(out, msg.Payload)
						continue
					}
					e, err := storage.DecodeEvent(msg.Payload)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "skipping malformed event: %v\n", err)
						continue
					}
					line := fmt.Sprintf("%s  %-16s %s", e.At.Format(time.RFC3339), e.Type, e.MessageID)
					if e.ReportCount > 0 {
						line += fmt.Sprintf("  reports=%d", e.ReportCount)
					}
					fmt.Fprintln(out, line)
				}
			}
		},
	}
}

func preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= previewLength {
		return s
	}
	return string([]rune(s)[:previewLength]) + "…"
}
