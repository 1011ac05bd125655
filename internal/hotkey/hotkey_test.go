// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/hotkey/hotkey_test.go

package hotkey

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/marcosmoura/stache/internal/wm"
)

func TestParseChordModifiersAndKey(t *testing.T) {
	b, err := ParseChord("Cmd+Shift+Left")
	if err != nil {
		t.Fatal(err)
	}
	if b.Mods != tcell.ModMeta|tcell.ModShift || b.Key != tcell.KeyLeft {
		t.Fatalf("unexpected binding: %+v", b)
	}
}

func TestParseChordAliases(t *testing.T) {
	cases := map[string]tcell.ModMask{
		"Ctrl+A":    tcell.ModCtrl,
		"Control+A": tcell.ModCtrl,
		"Super+A":   tcell.ModMeta,
		"Meta+A":    tcell.ModMeta,
		"Alt+A":     tcell.ModAlt,
		"Opt+A":     tcell.ModAlt,
	}
	for chord, want := range cases {
		b, err := ParseChord(chord)
		if err != nil {
			t.Fatalf("%s: %v", chord, err)
		}
		if b.Mods != want {
			t.Fatalf("%s: expected mods %v, got %v", chord, want, b.Mods)
		}
	}
}

func TestParseChordBackquote(t *testing.T) {
	b, err := ParseChord("Cmd+`")
	if err != nil {
		t.Fatal(err)
	}
	if b.Key != tcell.KeyRune || b.Ch != '`' {
		t.Fatalf("expected rune backquote, got %+v", b)
	}
}

func TestParseChordSingleLetter(t *testing.T) {
	b, err := ParseChord("Cmd+K")
	if err != nil {
		t.Fatal(err)
	}
	if b.Key != tcell.KeyRune || b.Ch != 'K' {
		t.Fatalf("expected rune K, got %+v", b)
	}
}

func TestParseChordEmpty(t *testing.T) {
	if _, err := ParseChord(""); err != ErrEmptyChord {
		t.Fatalf("expected ErrEmptyChord, got %v", err)
	}
}

func TestParseChordUnknownModifier(t *testing.T) {
	if _, err := ParseChord("Bogus+A"); err == nil {
		t.Fatal("expected error for unknown modifier")
	}
}

func TestTableMatch(t *testing.T) {
	workspaceBinding, _ := ParseChord("Cmd+1")
	workspaceBinding.Action = ActionFocusWorkspace
	workspaceBinding.Arg = "main"

	table := Table{workspaceBinding}

	b, ok := table.Match(tcell.KeyRune, '1', tcell.ModMeta)
	if !ok || b.Action != ActionFocusWorkspace || b.Arg != "main" {
		t.Fatalf("expected match, got %+v ok=%v", b, ok)
	}

	if _, ok := table.Match(tcell.KeyRune, '2', tcell.ModMeta); ok {
		t.Fatal("expected no match for a different key")
	}
}

type fakePoster struct{ ch chan any }

func (f *fakePoster) Commands() chan<- any { return f.ch }

func TestDispatchFocusWorkspace(t *testing.T) {
	poster := &fakePoster{ch: make(chan any, 1)}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- Dispatch(ctx, poster, Binding{Action: ActionFocusWorkspace, Arg: "main"}) }()

	select {
	case msg := <-poster.ch:
		sw, ok := msg.(wm.SwitchWorkspace)
		if !ok || sw.Name != "main" {
			t.Fatalf("expected SwitchWorkspace{main}, got %#v", msg)
		}
		sw.Reply <- nil
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for dispatched message")
	}

	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDispatchWindowResize(t *testing.T) {
	poster := &fakePoster{ch: make(chan any, 1)}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		done <- Dispatch(ctx, poster, Binding{Action: ActionWindowResize, Arg: "width:20"})
	}()

	msg := <-poster.ch
	resize, ok := msg.(wm.ResizeFocused)
	if !ok || resize.Delta != 20 {
		t.Fatalf("expected ResizeFocused{Delta:20}, got %#v", msg)
	}
	resize.Reply <- nil

	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestDispatchUnknownAction(t *testing.T) {
	poster := &fakePoster{ch: make(chan any, 1)}
	err := Dispatch(context.Background(), poster, Binding{Action: "bogus"})
	if err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestDispatchContextCancelled(t *testing.T) {
	poster := &fakePoster{ch: make(chan any)} // unbuffered, nothing reads it
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := Dispatch(ctx, poster, Binding{Action: ActionWorkspaceBalance, Arg: "main"}); err != ctx.Err() {
		t.Fatalf("expected context error, got %v", err)
	}
}
