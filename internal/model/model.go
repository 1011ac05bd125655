// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/model/model.go
// Summary: Shared data model for screens, windows, and workspaces.
// Usage: Imported by every tiling subsystem so cyclic screen/window/workspace
// references are broken by key-based lookups instead of shared pointers.

package model

// Rect is a top-left-origin pixel rectangle.
type Rect struct {
	X, Y int32
	W, H int32
}

// Area returns the rectangle's area in pixels.
func (r Rect) Area() int64 {
	return int64(r.W) * int64(r.H)
}

// ApproxEqual reports whether two rects differ by less than threshold on
// every component. Used by callers to decide whether a reposition is
// perceptible enough to apply (spec's 2px reposition threshold).
func (r Rect) ApproxEqual(other Rect, threshold int32) bool {
	return abs32(r.X-other.X) < threshold &&
		abs32(r.Y-other.Y) < threshold &&
		abs32(r.W-other.W) < threshold &&
		abs32(r.H-other.H) < threshold
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// IsLandscape reports whether the rectangle is wider than (or as wide as) it is tall.
func (r Rect) IsLandscape() bool {
	return r.W >= r.H
}

// Screen identifies a physical display.
type Screen struct {
	ID             string
	Name           string
	IsMain         bool
	Frame          Rect
	UsableFrame    Rect
	RefreshRateHz  uint32
}

// WindowID is the system-assigned, process-session-unique window identity.
type WindowID uint64

// Window is a single manageable OS window.
type Window struct {
	ID            WindowID
	PID           int32
	AppBundleID   string
	AppName       string
	Title         string
	Frame         Rect
	IsHidden      bool
	IsMinimised   bool
	WorkspaceName string
}

// LayoutVariant enumerates the tiling algorithms the Layout Engine implements.
type LayoutVariant int

const (
	LayoutDwindle LayoutVariant = iota
	LayoutSplit
	LayoutSplitVertical
	LayoutSplitHorizontal
	LayoutMonocle
	LayoutMaster
	LayoutGrid
	LayoutFloating
)

// String renders the variant the way config files spell it.
func (v LayoutVariant) String() string {
	switch v {
	case LayoutDwindle:
		return "dwindle"
	case LayoutSplit:
		return "split"
	case LayoutSplitVertical:
		return "split-vertical"
	case LayoutSplitHorizontal:
		return "split-horizontal"
	case LayoutMonocle:
		return "monocle"
	case LayoutMaster:
		return "master"
	case LayoutGrid:
		return "grid"
	case LayoutFloating:
		return "floating"
	default:
		return "floating"
	}
}

// ParseLayoutVariant parses a config-file spelling of a layout variant.
func ParseLayoutVariant(s string) (LayoutVariant, bool) {
	switch s {
	case "dwindle":
		return LayoutDwindle, true
	case "split":
		return LayoutSplit, true
	case "split-vertical":
		return LayoutSplitVertical, true
	case "split-horizontal":
		return LayoutSplitHorizontal, true
	case "monocle":
		return LayoutMonocle, true
	case "master":
		return LayoutMaster, true
	case "grid":
		return LayoutGrid, true
	case "floating":
		return LayoutFloating, true
	default:
		return LayoutFloating, false
	}
}

// Workspace is a named, screen-bound collection of windows laid out by one variant.
type Workspace struct {
	Name            string
	ScreenID        string
	LayoutVariant   LayoutVariant
	WindowIDs       []WindowID
	FocusedWindowID *WindowID
	SplitRatios     []float64
	PresetOnOpen    string
}

// ContainsWindow reports whether id is already tracked by this workspace.
func (w *Workspace) ContainsWindow(id WindowID) bool {
	for _, existing := range w.WindowIDs {
		if existing == id {
			return true
		}
	}
	return false
}

// RemoveWindow removes id from the workspace's window list, if present.
func (w *Workspace) RemoveWindow(id WindowID) {
	for i, existing := range w.WindowIDs {
		if existing == id {
			w.WindowIDs = append(w.WindowIDs[:i], w.WindowIDs[i+1:]...)
			return
		}
	}
}

// Gaps holds the pixel spacing applied uniformly to layout inputs.
type Gaps struct {
	InnerH     float64
	InnerV     float64
	OuterTop   float64
	OuterRight float64
	OuterBottom float64
	OuterLeft  float64
}

// IsZero reports whether every gap value is zero.
func (g Gaps) IsZero() bool {
	return g.InnerH == 0 && g.InnerV == 0 && g.OuterTop == 0 &&
		g.OuterRight == 0 && g.OuterBottom == 0 && g.OuterLeft == 0
}

// Direction is a navigational intent for focus/swap/send operations.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
	DirNext
	DirPrevious
)

// FocusState tracks, per screen, which workspace and window hold focus.
type FocusState struct {
	FocusedWorkspacePerScreen map[string]string
	FocusedWindowID           *WindowID
}

// NewFocusState returns an empty, ready-to-use FocusState.
func NewFocusState() FocusState {
	return FocusState{FocusedWorkspacePerScreen: make(map[string]string)}
}
