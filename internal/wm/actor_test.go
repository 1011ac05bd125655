// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/wm/actor_test.go

package wm

import (
	"errors"
	"testing"
	"time"

	"github.com/marcosmoura/stache/internal/animation"
	"github.com/marcosmoura/stache/internal/eventbus"
	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/rules"
	"github.com/marcosmoura/stache/internal/wininv"
)

type fakeInvBackend struct {
	windows      map[model.WindowID]model.Window
	frames       map[model.WindowID]model.Rect
	hidden       map[int32]bool
	focused      model.WindowID
	closedIDs    []model.WindowID
	resolveCalls int
}

func newFakeInvBackend(windows ...model.Window) *fakeInvBackend {
	b := &fakeInvBackend{
		windows: make(map[model.WindowID]model.Window),
		frames:  make(map[model.WindowID]model.Rect),
		hidden:  make(map[int32]bool),
	}
	for _, w := range windows {
		b.windows[w.ID] = w
		b.frames[w.ID] = w.Frame
	}
	return b
}

func (b *fakeInvBackend) ListAllWindows() ([]model.Window, error) {
	out := make([]model.Window, 0, len(b.windows))
	for _, w := range b.windows {
		out = append(out, w)
	}
	return out, nil
}

func (b *fakeInvBackend) GetWindow(id model.WindowID) (model.Window, error) {
	w, ok := b.windows[id]
	if !ok {
		return model.Window{}, errors.New("not found")
	}
	return w, nil
}

func (b *fakeInvBackend) ResolveHandle(id model.WindowID, pid int32) (wininv.Handle, error) {
	b.resolveCalls++
	if _, ok := b.windows[id]; !ok {
		return nil, errors.New("not found")
	}
	return id, nil
}

func (b *fakeInvBackend) SetFrame(handle wininv.Handle, frame model.Rect) error {
	b.frames[handle.(model.WindowID)] = frame
	return nil
}

func (b *fakeInvBackend) Focus(handle wininv.Handle) error {
	b.focused = handle.(model.WindowID)
	return nil
}

func (b *fakeInvBackend) HideApp(pid int32) error   { b.hidden[pid] = true; return nil }
func (b *fakeInvBackend) UnhideApp(pid int32) error { b.hidden[pid] = false; return nil }
func (b *fakeInvBackend) Close(handle wininv.Handle) error {
	b.closedIDs = append(b.closedIDs, handle.(model.WindowID))
	return nil
}

type fakeObserver struct {
	focusMarks    []model.WindowID
	layoutMarks   [][]model.WindowID
	switchMarked  bool
	switchCooldow bool
}

func (o *fakeObserver) MarkFocusCooldown(id model.WindowID)     { o.focusMarks = append(o.focusMarks, id) }
func (o *fakeObserver) MarkLayoutApplied(ids []model.WindowID)  { o.layoutMarks = append(o.layoutMarks, ids) }
func (o *fakeObserver) MarkSwitchCooldown()                     { o.switchMarked = true }
func (o *fakeObserver) IsInSwitchCooldown() bool                { return o.switchCooldow }

func testScreens() []model.Screen {
	return []model.Screen{
		{ID: "screen-1", Name: "Main", IsMain: true, Frame: model.Rect{W: 1920, H: 1080}, UsableFrame: model.Rect{W: 1920, H: 1080}, RefreshRateHz: 120},
	}
}

func testConfig() Config {
	return Config{
		Workspaces: []WorkspaceConfig{
			{Name: "code", ScreenID: "screen-1", LayoutVariant: model.LayoutDwindle, Rules: []rules.Rule{{AppBundleID: "com.editor"}}},
			{Name: "web", ScreenID: "screen-1", LayoutVariant: model.LayoutMonocle, Rules: []rules.Rule{{AppBundleID: "com.browser"}}},
		},
		Gaps: model.Gaps{},
		Presets: map[string]Preset{
			"center-80": {Name: "center-80", WidthPct: 0.8, HeightPct: 0.8, Center: true},
		},
	}
}

func newTestActor(t *testing.T, backend *fakeInvBackend, observer ObserverController) (*Actor, *wininv.Inventory) {
	t.Helper()
	inv := wininv.New(backend)
	a := New(testConfig(), testScreens(), inv, nil, eventbus.New(), false)
	a.SetObserver(observer)
	engine := animation.NewEngine(a.Applier(), observer, nil, nil)
	engine.SetSettings(animation.Settings{Enabled: false})
	a.SetAnimationEngine(engine)
	return a, inv
}

func TestWindowCreatedAssignsWorkspaceByRule(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.browser", Frame: model.Rect{W: 100, H: 100}})
	a, _ := newTestActor(t, backend, &fakeObserver{})

	a.handleWindowCreated(1)

	w, ok := a.windows[1]
	if !ok {
		t.Fatal("expected window to be tracked")
	}
	if w.WorkspaceName != "web" {
		t.Fatalf("expected rule match to place window in 'web', got %q", w.WorkspaceName)
	}
}

func TestWindowCreatedFallsBackToFirstWorkspace(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.unknown"})
	a, _ := newTestActor(t, backend, &fakeObserver{})

	a.handleWindowCreated(1)

	if got := a.windows[1].WorkspaceName; got != "code" {
		t.Fatalf("expected fallback to first workspace 'code', got %q", got)
	}
}

func TestWindowDestroyedRemovesFromWorkspace(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"})
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)

	a.handleWindowDestroyed(1)

	if _, ok := a.windows[1]; ok {
		t.Fatal("expected window to be removed")
	}
	if a.workspaces["code"].ContainsWindow(1) {
		t.Fatal("expected workspace to no longer contain the window")
	}
}

func TestSwitchWorkspaceHidesLeavingAndShowsEntering(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 200, AppBundleID: "com.browser"},
	)
	observer := &fakeObserver{}
	a, _ := newTestActor(t, backend, observer)
	a.handleWindowCreated(1)
	a.handleWindowCreated(2) // not focused workspace: switches to "web" internally

	if err := a.switchWorkspace("code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if backend.hidden[200] != true {
		t.Fatalf("expected pid 200 (web) hidden after switching to code")
	}
	if backend.hidden[100] == true {
		t.Fatal("expected pid 100 (code) not hidden")
	}
	if !observer.switchMarked {
		t.Fatal("expected switch cooldown to be marked")
	}
}

func TestSwitchWorkspaceToAlreadyFocusedIsNoOp(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"})
	observer := &fakeObserver{}
	a, _ := newTestActor(t, backend, observer)
	a.handleWindowCreated(1) // lands in "code", already the focused workspace on screen-1

	if err := a.switchWorkspace("code"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.hidden[100] {
		t.Fatal("switching to the already-focused workspace must not hide its windows")
	}
	if observer.switchMarked {
		t.Fatal("switching to the already-focused workspace must not mark a switch cooldown")
	}
}

func TestSwitchWorkspaceUnknownReturnsNotFound(t *testing.T) {
	backend := newFakeInvBackend()
	a, _ := newTestActor(t, backend, &fakeObserver{})

	if err := a.switchWorkspace("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFocusWindowNextCyclesThroughWorkspace(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor"},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.focusDirectional(model.DirNext); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.focus.FocusedWindowID == nil || *a.focus.FocusedWindowID != 2 {
		t.Fatalf("expected focus to move to window 2, got %v", a.focus.FocusedWindowID)
	}
}

func TestFocusWindowDirectionalPicksNearestInHalfPlane(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor", Frame: model.Rect{X: 0, Y: 0, W: 500, H: 1000}},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor", Frame: model.Rect{X: 500, Y: 0, W: 500, H: 1000}},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	a.windows[1] = withFrame(a.windows[1], model.Rect{X: 0, Y: 0, W: 500, H: 1000})
	a.windows[2] = withFrame(a.windows[2], model.Rect{X: 500, Y: 0, W: 500, H: 1000})
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.focusDirectional(model.DirRight); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *a.focus.FocusedWindowID != 2 {
		t.Fatalf("expected window 2 to the right, got %v", *a.focus.FocusedWindowID)
	}
}

func TestSwapWindowExchangesOrder(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor"},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.swapDirectional(model.DirNext); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws := a.workspaces["code"]
	if ws.WindowIDs[0] != 2 || ws.WindowIDs[1] != 1 {
		t.Fatalf("expected windows swapped, got %v", ws.WindowIDs)
	}
}

func TestResizeFocusedAdjustsSplitRatios(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor"},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.resizeFocused(AxisWidth, 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws := a.workspaces["code"]
	if len(ws.SplitRatios) != 1 {
		t.Fatalf("expected one cumulative ratio for 2 windows, got %v", ws.SplitRatios)
	}
	if ws.SplitRatios[0] <= 0.5 {
		t.Fatalf("expected widening window 1 to push the split ratio above 0.5, got %v", ws.SplitRatios[0])
	}
}

func TestResizeFocusedReflowsFramesWithNewRatios(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor"},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	if err := a.setLayout("code", model.LayoutSplitHorizontal); err != nil {
		t.Fatalf("setLayout: %v", err)
	}
	a.focus.FocusedWindowID = idPtr(1)

	// Applied frames land in the fake backend's frames map.
	before := backend.frames[1]
	if err := a.resizeFocused(AxisWidth, 200); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	after := backend.frames[1]

	if after.W <= before.W {
		t.Fatalf("expected widening resize to grow window 1's frame beyond %d, got %d", before.W, after.W)
	}
}

func TestBalanceWorkspaceRestoresEqualFrames(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 101, AppBundleID: "com.editor"},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	if err := a.setLayout("code", model.LayoutSplitHorizontal); err != nil {
		t.Fatalf("setLayout: %v", err)
	}
	a.focus.FocusedWindowID = idPtr(1)
	if err := a.resizeFocused(AxisWidth, 400); err != nil {
		t.Fatalf("resizeFocused: %v", err)
	}

	if err := a.balanceWorkspace("code"); err != nil {
		t.Fatalf("balanceWorkspace: %v", err)
	}
	w1 := backend.frames[1]
	w2 := backend.frames[2]
	if diff := w1.W - w2.W; diff < -1 || diff > 1 {
		t.Fatalf("expected balanced workspace to restore near-equal widths, got %d vs %d", w1.W, w2.W)
	}
}

func TestHandleWindowMovedRecoversSplitRatiosFromObservedFrames(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.browser", Frame: model.Rect{W: 960, H: 1080}},
		model.Window{ID: 2, PID: 200, AppBundleID: "com.browser", Frame: model.Rect{X: 960, W: 960, H: 1080}},
	)
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)
	if err := a.setLayout("web", model.LayoutSplitHorizontal); err != nil {
		t.Fatalf("setLayout: %v", err)
	}

	// Simulate the observer forwarding a manual drag-resize: window 1 now
	// occupies 1440/1920 (0.75) of the screen, window 2 the remaining 0.25.
	a.handleWindowMoved(1, model.Rect{X: 0, Y: 0, W: 1440, H: 1080})
	a.handleWindowMoved(2, model.Rect{X: 1440, Y: 0, W: 480, H: 1080})

	ws := a.workspaces["web"]
	if len(ws.SplitRatios) != 1 {
		t.Fatalf("expected one recovered cumulative ratio, got %v", ws.SplitRatios)
	}
	if got := ws.SplitRatios[0]; got < 0.74 || got > 0.76 {
		t.Fatalf("expected recovered ratio near 0.75, got %v", got)
	}
}

func TestApplyPresetForcesFloatingAndCenters(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"})
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.applyPresetToFocused("center-80"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ws := a.workspaces["code"]
	if ws.LayoutVariant != model.LayoutFloating {
		t.Fatalf("expected preset to force floating layout, got %v", ws.LayoutVariant)
	}
	frame := a.windows[1].Frame
	wantW := int32(1920 * 0.8)
	wantH := int32(1080 * 0.8)
	if frame.W != wantW || frame.H != wantH {
		t.Fatalf("expected %dx%d frame, got %dx%d", wantW, wantH, frame.W, frame.H)
	}
	wantX := (1920 - wantW) / 2
	wantY := (1080 - wantH) / 2
	if frame.X != wantX || frame.Y != wantY {
		t.Fatalf("expected centered at (%d,%d), got (%d,%d)", wantX, wantY, frame.X, frame.Y)
	}
}

func TestApplyPresetUnknownNameReturnsNotFound(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"})
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.focus.FocusedWindowID = idPtr(1)

	if err := a.applyPresetToFocused("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveWindowToWorkspaceRelocatesWindow(t *testing.T) {
	backend := newFakeInvBackend(model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"})
	a, _ := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)

	if err := a.moveWindowToWorkspace(1, "web"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.workspaces["code"].ContainsWindow(1) {
		t.Fatal("expected window removed from 'code'")
	}
	if !a.workspaces["web"].ContainsWindow(1) {
		t.Fatal("expected window added to 'web'")
	}
	if a.windows[1].WorkspaceName != "web" {
		t.Fatalf("expected window's workspace name updated, got %q", a.windows[1].WorkspaceName)
	}
}

func TestAppTerminatedPurgesAllWindowsAndHandles(t *testing.T) {
	backend := newFakeInvBackend(
		model.Window{ID: 1, PID: 100, AppBundleID: "com.editor"},
		model.Window{ID: 2, PID: 100, AppBundleID: "com.editor"},
	)
	a, inv := newTestActor(t, backend, &fakeObserver{})
	a.handleWindowCreated(1)
	a.handleWindowCreated(2)

	if err := inv.Focus(1, 100); err != nil {
		t.Fatalf("unexpected error priming the cache: %v", err)
	}
	resolvesBeforeTerminate := backend.resolveCalls

	a.handleAppTerminated(100)

	if _, ok := a.windows[1]; ok {
		t.Fatal("expected window 1 purged")
	}
	if _, ok := a.windows[2]; ok {
		t.Fatal("expected window 2 purged")
	}

	if err := inv.Focus(1, 100); err != nil {
		t.Fatalf("unexpected error re-resolving after purge: %v", err)
	}
	if backend.resolveCalls == resolvesBeforeTerminate {
		t.Fatal("expected PurgePID to invalidate the cached handle, forcing a fresh resolve")
	}
}

func TestQueryWorkspacesReturnsAll(t *testing.T) {
	backend := newFakeInvBackend()
	a, _ := newTestActor(t, backend, &fakeObserver{})
	go a.Run()
	defer a.Stop()

	reply := make(chan []model.Workspace)
	a.Commands() <- GetWorkspaces{Reply: reply}

	select {
	case workspaces := <-reply:
		if len(workspaces) != 2 {
			t.Fatalf("expected 2 configured workspaces, got %d", len(workspaces))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestRunProcessesSwitchWorkspaceCommand(t *testing.T) {
	backend := newFakeInvBackend()
	a, _ := newTestActor(t, backend, &fakeObserver{})
	go a.Run()
	defer a.Stop()

	reply := make(chan error)
	a.Commands() <- SwitchWorkspace{Name: "web", Reply: reply}

	select {
	case err := <-reply:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func idPtr(id model.WindowID) *model.WindowID { return &id }

func withFrame(w model.Window, frame model.Rect) model.Window {
	w.Frame = frame
	return w
}
