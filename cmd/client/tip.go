package main

import (
	"fmt"
	"io"

	"github.com/macropath/macropath/internal/tips"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newTipCmd())
}

func newTipCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "tip",
		Short: "Print the tip of the day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			renderTips(cmd.OutOrStdout(), tips.Today(count))
			return nil
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of tips")
	return cmd
}

func renderTips(w io.Writer, list []tips.Tip) {
	for _, t := range list {
		fmt.Fprintf(w, "%s\n%s\n\n", cyan.Bold(true).Render(t.Title), t.Body)
	}
}
