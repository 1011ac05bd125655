// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/hotkey/hotkey.go
// Summary: Parses hotkey chord strings into tcell key/modifier pairs and
// dispatches the resulting actions into Actor command messages.
// Usage: ParseChord turns a config string like "Cmd+Shift+Left" into a
// Binding; Dispatch sends the Binding's action as the matching wm message
// and waits for its reply.
// Notes: Chord normalization (Ctrl/Cmd/Alt/Super/Meta/backtick aliases)
// is grounded on original_source/app/native/src/hotkey/mod.rs's
// normalize_shortcut; tcell.Key/ModMask usage is grounded on
// texel/workspace.go's keyControlMode = tcell.KeyCtrlA constant.

package hotkey

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/wm"
)

// Action names, grounded on original_source/app/native/src/hotkey/mod.rs's
// shortcut-to-command table.
const (
	ActionFocusWorkspace   = "focus-workspace"
	ActionWindowFocus      = "window-focus"
	ActionWindowSwap       = "window-swap"
	ActionWindowResize     = "window-resize"
	ActionWindowPreset     = "window-preset"
	ActionWorkspaceBalance = "workspace-balance"
)

// Binding maps one key chord to one Actor action.
type Binding struct {
	Key    tcell.Key
	Ch     rune // set when Key == tcell.KeyRune
	Mods   tcell.ModMask
	Action string
	Arg    string
}

var ErrEmptyChord = errors.New("hotkey: empty chord")
var ErrUnknownKey = errors.New("hotkey: unknown key name")
var ErrUnknownAction = errors.New("hotkey: unknown action")

var modAliases = map[string]tcell.ModMask{
	"ctrl":    tcell.ModCtrl,
	"control": tcell.ModCtrl,
	"cmd":     tcell.ModMeta,
	"command": tcell.ModMeta,
	"super":   tcell.ModMeta,
	"meta":    tcell.ModMeta,
	"alt":     tcell.ModAlt,
	"opt":     tcell.ModAlt,
	"option":  tcell.ModAlt,
	"shift":   tcell.ModShift,
}

var namedKeys = map[string]tcell.Key{
	"up": tcell.KeyUp, "down": tcell.KeyDown, "left": tcell.KeyLeft, "right": tcell.KeyRight,
	"tab": tcell.KeyTab, "space": tcell.KeyRune, "enter": tcell.KeyEnter, "escape": tcell.KeyEsc,
	"backquote": tcell.KeyRune, "`": tcell.KeyRune,
	"f1": tcell.KeyF1, "f2": tcell.KeyF2, "f3": tcell.KeyF3, "f4": tcell.KeyF4,
	"f5": tcell.KeyF5, "f6": tcell.KeyF6, "f7": tcell.KeyF7, "f8": tcell.KeyF8,
	"f9": tcell.KeyF9, "f10": tcell.KeyF10, "f11": tcell.KeyF11, "f12": tcell.KeyF12,
}

// ParseChord parses a chord string such as "Cmd+Shift+Left" or "Ctrl+`"
// into a Binding's Key/Ch/Mods fields (Action/Arg are left zero for the
// caller to fill in from the same config entry).
func ParseChord(chord string) (Binding, error) {
	var b Binding
	if strings.TrimSpace(chord) == "" {
		return b, ErrEmptyChord
	}

	parts := strings.Split(chord, "+")
	key := parts[len(parts)-1]
	for _, part := range parts[:len(parts)-1] {
		mod, ok := modAliases[strings.ToLower(part)]
		if !ok {
			return b, fmt.Errorf("%w: modifier %q", ErrUnknownKey, part)
		}
		b.Mods |= mod
	}

	lower := strings.ToLower(key)
	switch {
	case lower == "`" || lower == "backquote":
		b.Key, b.Ch = tcell.KeyRune, '`'
	case lower == "space":
		b.Key, b.Ch = tcell.KeyRune, ' '
	default:
		if k, ok := namedKeys[lower]; ok {
			b.Key = k
			break
		}
		runes := []rune(key)
		if len(runes) == 1 {
			b.Key, b.Ch = tcell.KeyRune, runes[0]
			break
		}
		return b, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}

	return b, nil
}

// Table is an ordered set of bindings, matched in order on every key event.
type Table []Binding

// Match finds the first binding whose key+modifiers equal the given event,
// returning false if none match.
func (t Table) Match(key tcell.Key, ch rune, mods tcell.ModMask) (Binding, bool) {
	for _, b := range t {
		if b.Mods != mods {
			continue
		}
		if b.Key == tcell.KeyRune && key == tcell.KeyRune {
			if b.Ch == ch {
				return b, true
			}
			continue
		}
		if b.Key == key {
			return b, true
		}
	}
	return Binding{}, false
}

// Poster is the subset of wm.Actor a dispatcher needs; *wm.Actor satisfies
// it via its existing Commands method.
type Poster interface {
	Commands() chan<- any
}

// Dispatch converts a Binding's action into the matching Actor command
// message, sends it, and waits for the reply (or ctx cancellation).
func Dispatch(ctx context.Context, poster Poster, b Binding) error {
	switch b.Action {
	case ActionFocusWorkspace:
		reply := make(chan error, 1)
		return send(ctx, poster, wm.SwitchWorkspace{Name: b.Arg, Reply: reply}, reply)

	case ActionWindowFocus:
		dir, err := parseDirection(b.Arg)
		if err != nil {
			return err
		}
		reply := make(chan error, 1)
		return send(ctx, poster, wm.FocusWindow{Direction: dir, Reply: reply}, reply)

	case ActionWindowSwap:
		dir, err := parseDirection(b.Arg)
		if err != nil {
			return err
		}
		reply := make(chan error, 1)
		return send(ctx, poster, wm.SwapWindow{Direction: dir, Reply: reply}, reply)

	case ActionWindowResize:
		resize, err := parseResizeArg(b.Arg)
		if err != nil {
			return err
		}
		resize.Reply = make(chan error, 1)
		return send(ctx, poster, resize, resize.Reply)

	case ActionWindowPreset:
		reply := make(chan error, 1)
		return send(ctx, poster, wm.ApplyPreset{Name: b.Arg, Reply: reply}, reply)

	case ActionWorkspaceBalance:
		reply := make(chan error, 1)
		return send(ctx, poster, wm.BalanceWorkspace{WorkspaceName: b.Arg, Reply: reply}, reply)

	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, b.Action)
	}
}

func send(ctx context.Context, poster Poster, msg any, reply chan error) error {
	select {
	case poster.Commands() <- msg:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseDirection(s string) (model.Direction, error) {
	switch strings.ToLower(s) {
	case "up":
		return model.DirUp, nil
	case "down":
		return model.DirDown, nil
	case "left":
		return model.DirLeft, nil
	case "right":
		return model.DirRight, nil
	case "next":
		return model.DirNext, nil
	case "previous", "prev":
		return model.DirPrevious, nil
	default:
		return 0, fmt.Errorf("hotkey: unknown direction %q", s)
	}
}

// parseResizeArg parses "width:+20" / "height:-10" style resize arguments.
func parseResizeArg(s string) (wm.ResizeFocused, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return wm.ResizeFocused{}, fmt.Errorf("hotkey: malformed resize arg %q", s)
	}
	axisName, deltaStr := s[:idx], s[idx+1:]

	n, err := strconv.Atoi(deltaStr)
	if err != nil {
		return wm.ResizeFocused{}, fmt.Errorf("hotkey: invalid resize delta %q: %w", deltaStr, err)
	}

	switch strings.ToLower(axisName) {
	case "width":
		return wm.ResizeFocused{Axis: wm.AxisWidth, Delta: int32(n)}, nil
	case "height":
		return wm.ResizeFocused{Axis: wm.AxisHeight, Delta: int32(n)}, nil
	default:
		return wm.ResizeFocused{}, fmt.Errorf("hotkey: unknown resize axis %q", axisName)
	}
}
