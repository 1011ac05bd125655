// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/stachectl/main.go
// Summary: CLI client: dials the stached Unix socket, sends one
// ipcwire.Command and prints the ipcwire.Reply as JSON.
// Usage: `stachectl workspaces`, `stachectl focus-window left`, etc.
// Notes: Cobra command tree grounded on DimaJoyti-AIOS/cmd/aios-daemon's
// root-command-with-subcommands style, via internal/ipcwire's wire-stable Op
// taxonomy. There are no subcommands for the windows-for-pid query, moving a
// window to a workspace, or sending a window or workspace to a screen. Workspace/
// window list replies render as a terminal-width-aware table (golang.org/
// x/term, the same package the teacher uses for raw-mode terminal setup
// in texel/desktop.go) when stdout is a terminal, falling back to JSON
// when piped.

package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/marcosmoura/stache/internal/ipcwire"
)

var socketPath string

func main() {
	root := &cobra.Command{
		Use:   "stachectl",
		Short: "Control the stached tiling window manager daemon",
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", ipcwire.SocketPath(), "Unix socket path for stached")

	root.AddCommand(
		queryCmd("workspaces", ipcwire.OpGetWorkspaces, nil),
		queryCmd("focused-workspace", ipcwire.OpGetFocusedWorkspace, nil),
		queryCmd("focused-window", ipcwire.OpGetFocusedWindow, nil),
		nameArgCmd("workspace", ipcwire.OpGetWorkspaceByName),
		switchWorkspaceCmd(),
		setLayoutCmd(),
		nameArgCmd("balance", ipcwire.OpBalanceWorkspace),
		directionCmd("focus-window", ipcwire.OpFocusWindow),
		directionCmd("swap-window", ipcwire.OpSwapWindow),
		resizeCmd(),
		presetCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stachectl: %v\n", err)
		os.Exit(1)
	}
}

func queryCmd(use string, op ipcwire.Op, build func(args []string) ipcwire.Command) *cobra.Command {
	return &cobra.Command{
		Use: use,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := ipcwire.Command{Op: op}
			if build != nil {
				c = build(args)
			}
			return roundtrip(c)
		},
	}
}

func nameArgCmd(use string, op ipcwire.Op) *cobra.Command {
	return &cobra.Command{
		Use:  use + " <name>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundtrip(ipcwire.Command{Op: op, Name: args[0], WorkspaceName: args[0]})
		},
	}
}

func switchWorkspaceCmd() *cobra.Command {
	return &cobra.Command{
		Use:  "switch-workspace <name>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundtrip(ipcwire.Command{Op: ipcwire.OpSwitchWorkspace, Name: args[0]})
		},
	}
}

func setLayoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:  "set-layout <workspace> <layout>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundtrip(ipcwire.Command{Op: ipcwire.OpSetLayout, WorkspaceName: args[0], Layout: args[1]})
		},
	}
}

func directionCmd(use string, op ipcwire.Op) *cobra.Command {
	return &cobra.Command{
		Use:  use + " <up|down|left|right|next|previous>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundtrip(ipcwire.Command{Op: op, Direction: args[0]})
		},
	}
}

func resizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:  "resize-focused <width|height> <delta>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid delta %q: %w", args[1], err)
			}
			return roundtrip(ipcwire.Command{Op: ipcwire.OpResizeFocused, Axis: args[0], Delta: int32(delta)})
		},
	}
}

func presetCmd() *cobra.Command {
	return &cobra.Command{
		Use:  "apply-preset <name>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return roundtrip(ipcwire.Command{Op: ipcwire.OpApplyPreset, PresetName: args[0]})
		},
	}
}

func roundtrip(cmd ipcwire.Command) error {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := ipcwire.WriteJSON(conn, ipcwire.FrameRequest, cmd, false); err != nil {
		return fmt.Errorf("send command: %w", err)
	}

	var reply ipcwire.Reply
	if _, err := ipcwire.ReadJSON(conn, &reply); err != nil {
		return fmt.Errorf("read reply: %w", err)
	}
	if reply.Error != "" {
		return fmt.Errorf("%s", reply.Error)
	}

	printReply(reply)
	return nil
}

// printReply renders workspace/window list replies as a table sized to the
// terminal width when stdout is a terminal, falling back to indented JSON
// otherwise (piped output, non-list replies).
func printReply(reply ipcwire.Reply) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		printJSON(reply)
		return
	}

	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		width = 80
	}

	switch {
	case len(reply.Workspaces) > 0:
		printWorkspaceTable(reply.Workspaces, width)
	case len(reply.Windows) > 0:
		printWindowTable(reply.Windows, width)
	default:
		printJSON(reply)
	}
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "stachectl: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func printWorkspaceTable(workspaces []ipcwire.WorkspaceView, width int) {
	titleWidth := clampColumn(width, 40)
	fmt.Printf("%-20s %-12s %-10s %s\n", "NAME", "SCREEN", "LAYOUT", "WINDOWS")
	for _, w := range workspaces {
		windows := fmt.Sprintf("%d", len(w.WindowIDs))
		line := fmt.Sprintf("%-20s %-12s %-10s %s", w.Name, w.ScreenID, w.Layout, windows)
		fmt.Println(truncate(line, titleWidth+44))
	}
}

func printWindowTable(windows []ipcwire.WindowView, width int) {
	titleWidth := clampColumn(width, 40)
	fmt.Printf("%-8s %-8s %-20s %s\n", "ID", "PID", "APP", "TITLE")
	for _, w := range windows {
		line := fmt.Sprintf("%-8d %-8d %-20s %s", w.ID, w.PID, w.AppName, w.Title)
		fmt.Println(truncate(line, titleWidth+40))
	}
}

func clampColumn(termWidth, max int) int {
	if termWidth-40 < max {
		if termWidth-40 < 10 {
			return 10
		}
		return termWidth - 40
	}
	return max
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return strings.TrimSpace(s[:max-1]) + "…"
}
