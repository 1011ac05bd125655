// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/ipcserver/ipcserver.go
// Summary: Bridges the wire-stable ipcwire.Command/Reply schema to the
// Actor's internal wm message taxonomy, and runs the Unix socket accept
// loop stached exposes to stachectl.
// Usage: Dispatch converts one Command into the matching wm message, sends
// it on the Actor and blocks for the reply; Serve accepts connections and
// calls Dispatch per request frame until ctx is done.
// Notes: Kept out of internal/ipcwire itself so the wire format stays
// versionable independently of in-process actor wiring (see ipcwire's own
// package doc).

package ipcserver

import (
	"context"
	"errors"
	"log"
	"net"

	"github.com/marcosmoura/stache/internal/ipcwire"
	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/wm"
)

// Poster is the subset of wm.Actor a dispatcher needs; *wm.Actor satisfies
// it via its existing Commands method.
type Poster interface {
	Commands() chan<- any
}

func workspaceView(w model.Workspace) ipcwire.WorkspaceView {
	ids := make([]uint64, len(w.WindowIDs))
	for i, id := range w.WindowIDs {
		ids[i] = uint64(id)
	}
	var focused *uint64
	if w.FocusedWindowID != nil {
		v := uint64(*w.FocusedWindowID)
		focused = &v
	}
	return ipcwire.WorkspaceView{
		Name: w.Name, ScreenID: w.ScreenID, Layout: w.LayoutVariant.String(),
		WindowIDs: ids, FocusedWindowID: focused,
	}
}

func windowView(w model.Window) ipcwire.WindowView {
	return ipcwire.WindowView{
		ID: uint64(w.ID), PID: w.PID, AppBundleID: w.AppBundleID,
		AppName: w.AppName, Title: w.Title, WorkspaceName: w.WorkspaceName,
	}
}

func parseDirection(s string) (model.Direction, error) {
	switch s {
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
	case "previous":
		return model.DirPrevious, nil
	default:
		return 0, errors.New("ipcserver: unknown direction " + s)
	}
}

func errReply(err error) ipcwire.Reply {
	if err == nil {
		return ipcwire.Reply{}
	}
	return ipcwire.Reply{Error: err.Error()}
}

// Dispatch converts cmd into the matching wm message, sends it on poster
// and blocks until the Actor replies.
func Dispatch(ctx context.Context, poster Poster, cmd ipcwire.Command) ipcwire.Reply {
	switch cmd.Op {
	case ipcwire.OpGetWorkspaces:
		reply := make(chan []model.Workspace, 1)
		if err := sendWait(ctx, poster, wm.GetWorkspaces{Reply: reply}); err != nil {
			return errReply(err)
		}
		views := make([]ipcwire.WorkspaceView, 0, len(reply))
		for _, w := range <-reply {
			views = append(views, workspaceView(w))
		}
		return ipcwire.Reply{Workspaces: views}

	case ipcwire.OpGetFocusedWorkspace:
		reply := make(chan *model.Workspace, 1)
		if err := sendWait(ctx, poster, wm.GetFocusedWorkspace{ScreenID: cmd.ScreenID, Reply: reply}); err != nil {
			return errReply(err)
		}
		w := <-reply
		if w == nil {
			return ipcwire.Reply{}
		}
		v := workspaceView(*w)
		return ipcwire.Reply{Workspace: &v}

	case ipcwire.OpGetFocusedWindow:
		reply := make(chan *model.Window, 1)
		if err := sendWait(ctx, poster, wm.GetFocusedWindow{Reply: reply}); err != nil {
			return errReply(err)
		}
		w := <-reply
		if w == nil {
			return ipcwire.Reply{}
		}
		v := windowView(*w)
		return ipcwire.Reply{Window: &v}

	case ipcwire.OpGetWorkspaceByName:
		reply := make(chan *model.Workspace, 1)
		if err := sendWait(ctx, poster, wm.GetWorkspaceByName{Name: cmd.Name, Reply: reply}); err != nil {
			return errReply(err)
		}
		w := <-reply
		if w == nil {
			return ipcwire.Reply{}
		}
		v := workspaceView(*w)
		return ipcwire.Reply{Workspace: &v}

	case ipcwire.OpGetWindowsForPID:
		reply := make(chan []model.Window, 1)
		if err := sendWait(ctx, poster, wm.GetWindowsForPid{PID: cmd.PID, Reply: reply}); err != nil {
			return errReply(err)
		}
		views := make([]ipcwire.WindowView, 0, len(reply))
		for _, w := range <-reply {
			views = append(views, windowView(w))
		}
		return ipcwire.Reply{Windows: views}

	case ipcwire.OpSwitchWorkspace:
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.SwitchWorkspace{Name: cmd.Name, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpSetLayout:
		variant, ok := model.ParseLayoutVariant(cmd.Layout)
		if !ok {
			return errReply(errors.New("ipcserver: unknown layout " + cmd.Layout))
		}
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.SetLayout{WorkspaceName: cmd.WorkspaceName, Variant: variant, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpBalanceWorkspace:
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.BalanceWorkspace{WorkspaceName: cmd.WorkspaceName, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpSendWorkspaceScreen:
		reply := make(chan error, 1)
		sel := wm.ScreenSelector{ScreenID: cmd.ScreenID}
		if err := sendWait(ctx, poster, wm.SendWorkspaceToScreen{WorkspaceName: cmd.WorkspaceName, Screen: sel, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpFocusWindow:
		dir, err := parseDirection(cmd.Direction)
		if err != nil {
			return errReply(err)
		}
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.FocusWindow{Direction: dir, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpSwapWindow:
		dir, err := parseDirection(cmd.Direction)
		if err != nil {
			return errReply(err)
		}
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.SwapWindow{Direction: dir, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpResizeFocused:
		var axisMsg wm.ResizeFocused
		switch cmd.Axis {
		case "width":
			axisMsg = wm.ResizeFocused{Axis: wm.AxisWidth, Delta: cmd.Delta}
		case "height":
			axisMsg = wm.ResizeFocused{Axis: wm.AxisHeight, Delta: cmd.Delta}
		default:
			return errReply(errors.New("ipcserver: unknown axis " + cmd.Axis))
		}
		reply := make(chan error, 1)
		axisMsg.Reply = reply
		if err := sendWait(ctx, poster, axisMsg); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpApplyPreset:
		reply := make(chan error, 1)
		if err := sendWait(ctx, poster, wm.ApplyPreset{Name: cmd.PresetName, Reply: reply}); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpMoveWindowWorkspace:
		reply := make(chan error, 1)
		msg := wm.MoveWindowToWorkspace{WindowID: model.WindowID(cmd.WindowID), WorkspaceName: cmd.WorkspaceName, Reply: reply}
		if err := sendWait(ctx, poster, msg); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	case ipcwire.OpSendWindowScreen:
		reply := make(chan error, 1)
		sel := wm.ScreenSelector{ScreenID: cmd.ScreenID}
		msg := wm.SendWindowToScreen{WindowID: model.WindowID(cmd.WindowID), Screen: sel, Reply: reply}
		if err := sendWait(ctx, poster, msg); err != nil {
			return errReply(err)
		}
		return errReply(<-reply)

	default:
		return ipcwire.Reply{Error: "ipcserver: unknown op " + string(cmd.Op)}
	}
}

func sendWait(ctx context.Context, poster Poster, msg any) error {
	select {
	case poster.Commands() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Serve accepts connections on ln, handling each with one goroutine until
// ctx is done. Each connection is read as a stream of request frames; a
// malformed frame ends that connection without affecting others.
func Serve(ctx context.Context, ln net.Listener, poster Poster) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("ipcserver: accept failed: %v", err)
				return
			}
		}
		go handleConn(ctx, conn, poster)
	}
}

func handleConn(ctx context.Context, conn net.Conn, poster Poster) {
	defer conn.Close()
	for {
		var cmd ipcwire.Command
		if _, err := ipcwire.ReadJSON(conn, &cmd); err != nil {
			return
		}
		reply := Dispatch(ctx, poster, cmd)
		if err := ipcwire.WriteJSON(conn, ipcwire.FrameReply, reply, false); err != nil {
			return
		}
	}
}
