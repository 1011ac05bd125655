// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/wm/messages.go
// Summary: The full message taxonomy the Workspace Actor (L6) accepts.
// Usage: Callers build a message value and send it on Actor.Commands(); query
// messages embed a Reply channel the Actor always closes after answering.
// Notes: Taxonomy transcribed verbatim from spec §4.6's table; handler
// bodies are grounded on original_source's tiling/manager/mod.rs
// (TilingManager::handle_new_window/handle_window_destroyed/handle_screen_change).

package wm

import "github.com/marcosmoura/stache/internal/model"

// ScreenSelector picks a screen for cross-screen operations.
type ScreenSelector struct {
	ScreenID string // empty means "the next/other screen", resolved by the Actor
}

// Preset is a named floating-window placement.
type Preset struct {
	Name           string
	WidthPct       float64 // 0 means "use WidthPx"
	HeightPct      float64
	WidthPx        int32
	HeightPx       int32
	X, Y           int32
	Center         bool
}

// --- Queries (carry a reply channel; the Actor always closes it) ---

type GetWorkspaces struct{ Reply chan []model.Workspace }
type GetFocusedWorkspace struct {
	ScreenID string
	Reply    chan (*model.Workspace)
}
type GetFocusedWindow struct{ Reply chan (*model.Window) }
type GetWorkspaceByName struct {
	Name  string
	Reply chan (*model.Workspace)
}
type GetWindowsForPid struct {
	PID   int32
	Reply chan []model.Window
}

// --- Workspace commands ---

type SwitchWorkspace struct {
	Name  string
	Reply chan error
}
type SetLayout struct {
	WorkspaceName string
	Variant       model.LayoutVariant
	Reply         chan error
}
type BalanceWorkspace struct {
	WorkspaceName string
	Reply         chan error
}
type SendWorkspaceToScreen struct {
	WorkspaceName string
	Screen        ScreenSelector
	Reply         chan error
}

// --- Window commands ---

type FocusWindow struct {
	Direction model.Direction
	Reply     chan error
}
type SwapWindow struct {
	Direction model.Direction
	Reply     chan error
}
type ResizeFocused struct {
	Axis  layoutAxis
	Delta int32
	Reply chan error
}
type ApplyPreset struct {
	Name  string
	Reply chan error
}
type MoveWindowToWorkspace struct {
	WindowID      model.WindowID
	WorkspaceName string
	Reply         chan error
}
type SendWindowToScreen struct {
	WindowID model.WindowID
	Screen   ScreenSelector
	Reply    chan error
}

// layoutAxis selects which dimension ResizeFocused targets.
type layoutAxis int

const (
	AxisWidth layoutAxis = iota
	AxisHeight
)

// --- OS events (fire-and-forget; no reply) ---

type WindowCreated struct{ WindowID model.WindowID }
type WindowDestroyed struct{ WindowID model.WindowID }
type WindowMoved struct {
	WindowID model.WindowID
	Frame    model.Rect
}
type WindowResized struct {
	WindowID model.WindowID
	Frame    model.Rect
}
type WindowFocused struct{ WindowID model.WindowID }
type WindowTitleChanged struct {
	WindowID model.WindowID
	Title    string
}
type AppLaunched struct {
	PID      int32
	BundleID string
	Name     string
}
type AppTerminated struct{ PID int32 }
type AppHidden struct{ PID int32 }
type AppShown struct{ PID int32 }
type ScreensChanged struct{}
