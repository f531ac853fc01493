package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/macropath/macropath/internal/macrosdk"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newChatCmd())
}

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask the nutrition assistant",
	}
	cmd.AddCommand(newChatSendCmd(), newChatHistoryCmd())
	return cmd
}

func newChatSendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				reply, err := a.sdk.Chat.Send(ctx, strings.Join(args, " "))
				if err != nil {
					return err
				}
				renderMessage(cmd.OutOrStdout(), reply)
				return nil
			})
		},
	}
}

func newChatHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent messages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app) error {
				messages, err := a.sdk.Chat.History(ctx, limit)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(messages) == 0 {
					fmt.Fprintln(out, lightGray.Render("No messages yet"))
					return nil
				}
				for i := range messages {
					renderMessage(out, &messages[i])
				}
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of messages, 0 for all")
	return cmd
}

func renderMessage(w io.Writer, m *macrosdk.ChatMessage) {
	who := green.Bold(true).Render("assistant")
	if m.Role == macrosdk.RoleUser {
		who = cyan.Bold(true).Render("you")
	}

	when := ""
	if !m.CreatedAt.IsZero() {
		when = gray.Render(humanize.Time(m.CreatedAt))
	}
	fmt.Fprintf(w, "%s %s\n%s\n\n", who, when, m.Content)
}
