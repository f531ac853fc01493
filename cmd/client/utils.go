package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// https://github.com/muesli/termenv/blob/master/ansicolors.go
	red       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lightGray = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
)

const headerArt = `
 __  __                      ____       _   _
|  \/  | __ _  ___ _ __ ___ |  _ \ __ _| |_| |__
| |\/| |/ _' |/ __| '__/ _ \| |_) / _' | __| '_ \
| |  | | (_| | (__| | | (_) |  __/ (_| | |_| | | |
|_|  |_|\__,_|\___|_|  \___/|_|   \__,_|\__|_| |_|
`

func showHeader(w io.Writer) {
	fmt.Fprintln(w, cyan.Bold(true).Render(strings.TrimPrefix(headerArt, "\n")))
}

// printKV prints aligned "key  value" rows.
func printKV(w io.Writer, rows ...[2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, len(r[0]))
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s  %s\n", gray.Render(fmt.Sprintf("%-*s", width, r[0])), r[1])
	}
}

func success(w io.Writer, msg string) {
	fmt.Fprintln(w, green.Render(msg))
}
