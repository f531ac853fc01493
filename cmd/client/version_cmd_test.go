package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/macropath/macropath/internal/version"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestVersionCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"detailed", []string{"version"}, version.Detailed()},
		{"short", []string{"version", "--short"}, version.Short()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "macropath"}
			cmd.AddCommand(newVersionCmd())

			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			require.NoError(t, cmd.Execute())
			require.Equal(t, tt.want, strings.TrimSpace(out.String()))
		})
	}
}
