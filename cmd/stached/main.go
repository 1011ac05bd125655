// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: cmd/stached/main.go
// Summary: Daemon entrypoint: wires internal/core against the platform
// backends, exposes the Unix socket IPC server, and watches the
// configuration file. A change is reported on stderr; the new configuration
// is not applied to the running Actor.
// Usage: Run `stached` (optionally with --socket) to start the daemon in
// the foreground; stachectl connects to the same socket.
// Notes: Signal-driven shutdown follows cmd/texelation/lifecycle/daemon.go's
// signal.Notify(SIGINT, SIGTERM) idiom; the cobra root command wrapper
// follows DimaJoyti-AIOS/cmd/aios-daemon's Run-func pattern.

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcosmoura/stache/internal/core"
	"github.com/marcosmoura/stache/internal/ipcserver"
	"github.com/marcosmoura/stache/internal/ipcwire"
	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/observer"
	"github.com/marcosmoura/stache/internal/screenreg"
	"github.com/marcosmoura/stache/internal/wininv"
	"github.com/marcosmoura/stache/internal/wmconfig"
)

func main() {
	var socketPath string

	rootCmd := &cobra.Command{
		Use:   "stached",
		Short: "Stache tiling window manager daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(socketPath)
		},
	}
	rootCmd.Flags().StringVar(&socketPath, "socket", ipcwire.SocketPath(), "Unix socket path for stachectl")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "stached: %v\n", err)
		os.Exit(1)
	}
}

func run(socketPath string) error {
	cfg, err := wmconfig.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c, err := core.New(platformBackends(), cfg)
	if err != nil {
		return fmt.Errorf("wire subsystems: %w", err)
	}

	if ok := c.WatchConfig(func(newCfg wmconfig.Config) {
		fmt.Fprintln(os.Stderr, "stached: config changed, reload not yet hot-applied to a running Actor")
		_ = newCfg
	}); !ok {
		fmt.Fprintln(os.Stderr, "stached: no config directory found, running with defaults and no hot-reload")
	}

	os.Remove(socketPath)
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go ipcserver.Serve(ctx, ln, c.Actor)

	fmt.Fprintf(os.Stderr, "stached: listening on %s\n", socketPath)
	c.Run(ctx)

	if c.Config != nil {
		c.Config.Close()
	}
	return nil
}

// platformBackends wires the noop Screen/Window/Observer backends. A real
// macOS Accessibility/Core Graphics implementation is a peripheral
// collaborator outside this repo's scope. The noop backends report one
// 1920x1080 display and no windows, accept every window operation as a
// no-op, and observe no OS events; they do not put Core into degraded mode.
func platformBackends() core.Backends {
	return core.Backends{
		Screen:   noopScreenBackend{},
		Window:   noopWindowBackend{},
		Observer: noopObserverBackend{},
	}
}

type noopScreenBackend struct{}

func (noopScreenBackend) ConnectedDisplays() ([]screenreg.DisplayInfo, error) {
	return []screenreg.DisplayInfo{{
		NativeID: "main", Name: "Main", IsMain: true,
		Frame:       model.Rect{W: 1920, H: 1080},
		UsableFrame: model.Rect{W: 1920, H: 1080},
	}}, nil
}

func (noopScreenBackend) Subscribe(onChange func()) bool { return false }

type noopWindowBackend struct{}

func (noopWindowBackend) ListAllWindows() ([]model.Window, error) { return nil, nil }
func (noopWindowBackend) GetWindow(id model.WindowID) (model.Window, error) {
	return model.Window{}, wininv.ErrWindowNotFound
}
func (noopWindowBackend) ResolveHandle(id model.WindowID, pid int32) (wininv.Handle, error) {
	return nil, wininv.ErrWindowNotFound
}
func (noopWindowBackend) SetFrame(handle wininv.Handle, frame model.Rect) error { return nil }
func (noopWindowBackend) Focus(handle wininv.Handle) error                     { return nil }
func (noopWindowBackend) HideApp(pid int32) error                              { return nil }
func (noopWindowBackend) UnhideApp(pid int32) error                            { return nil }
func (noopWindowBackend) Close(handle wininv.Handle) error                     { return nil }

type noopObserverBackend struct{}

func (noopObserverBackend) Subscribe(onEvent func(observer.RawEvent)) (func(), bool) {
	return func() {}, false
}
func (noopObserverBackend) WindowReady(id model.WindowID) (model.Rect, string, bool) {
	return model.Rect{}, "", true
}
