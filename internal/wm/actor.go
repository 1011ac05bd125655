// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/wm/actor.go
// Summary: Workspace State & Actor (L6): the single owner of all mutable
// tiling state, serialised by message passing over one command channel.
// Usage: Construct with New, start the run loop with Run (in its own
// goroutine), then send messages on Commands().
// Notes: Field layout adapted from original_source's tiling/manager/mod.rs
// TilingManager. New only sets each screen's initial focused workspace;
// windows that already exist at startup are not enumerated, and a window
// enters the model only through a WindowCreated message. The channel-driven
// run loop replaces
// its mutex-guarded global singleton with the message-passing actor spec
// requires, in the stop-channel/goroutine idiom the teacher's DesktopEngine
// and config hot-reload watcher both use.

package wm

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/marcosmoura/stache/internal/animation"
	"github.com/marcosmoura/stache/internal/eventbus"
	"github.com/marcosmoura/stache/internal/layout"
	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/rules"
	"github.com/marcosmoura/stache/internal/screenreg"
	"github.com/marcosmoura/stache/internal/wininv"
)

// ErrNotFound is returned for unknown workspace/window/screen references.
var ErrNotFound = errors.New("wm: not found")

// ObserverController is the subset of the Observer Pipeline the Actor drives
// directly: marking cooldowns so the Observer ignores its own feedback loop.
type ObserverController interface {
	MarkFocusCooldown(id model.WindowID)
	MarkLayoutApplied(ids []model.WindowID)
	MarkSwitchCooldown()
	IsInSwitchCooldown() bool
}

// WorkspaceConfig is the declarative shape of one configured workspace.
type WorkspaceConfig struct {
	Name          string
	ScreenID      string
	LayoutVariant model.LayoutVariant
	Rules         []rules.Rule
	PresetOnOpen  string
}

// Config is everything the Actor needs at construction time.
type Config struct {
	Workspaces  []WorkspaceConfig
	IgnoreRules []rules.Rule
	Gaps        model.Gaps
	Presets     map[string]Preset
}

// invApplier bridges wininv.Inventory.SetFrame(id, pid, frame) to the
// animation.Applier contract (id, frame). It reads pids from a sync.Map
// kept current by the Actor's goroutine so the Animation Engine's own
// loop goroutine never touches Actor-owned state directly.
type invApplier struct {
	inv      *wininv.Inventory
	pidIndex *sync.Map
}

func (a invApplier) SetFrame(id model.WindowID, frame model.Rect) error {
	pid, _ := a.pidIndex.Load(id)
	p, _ := pid.(int32)
	return a.inv.SetFrame(id, p, frame)
}

// Actor owns every piece of mutable tiling state and processes commands
// strictly one at a time off its own channel.
type Actor struct {
	cmds chan any
	stop chan struct{}

	screens        []model.Screen
	windows        map[model.WindowID]model.Window
	workspaces     map[string]*model.Workspace
	workspaceOrder []string
	workspaceCfg   map[string]WorkspaceConfig
	focus          model.FocusState
	workspacePIDs  map[string][]int32
	presetApplied  map[string]bool

	gaps    model.Gaps
	presets map[string]Preset

	ruleEngine *rules.Engine
	ruleTable  []rules.WorkspaceRules

	inventory  *wininv.Inventory
	screenReg  *screenreg.Registry
	animEngine *animation.Engine
	pidIndex   sync.Map // model.WindowID -> int32, read by the Animation Engine's own goroutine
	observer   ObserverController
	bus        *eventbus.Bus

	degraded bool
}

// New constructs an Actor without its Animation Engine or Observer wired in
// yet — the engine's Applier must close over this Actor's pid index, and the
// Observer's poster must close over this Actor's command channel, so
// construction is two-phase: New, then animation.NewEngine(actor.Applier(),
// ...) and observer.New(actor, ...), then SetAnimationEngine/SetObserver,
// then Run.
func New(cfg Config, screens []model.Screen, inventory *wininv.Inventory, screenReg *screenreg.Registry, bus *eventbus.Bus, degraded bool) *Actor {
	a := &Actor{
		cmds:          make(chan any, 64),
		stop:          make(chan struct{}),
		windows:       make(map[model.WindowID]model.Window),
		workspaces:    make(map[string]*model.Workspace),
		workspaceCfg:  make(map[string]WorkspaceConfig),
		workspacePIDs: make(map[string][]int32),
		presetApplied: make(map[string]bool),
		gaps:          cfg.Gaps,
		presets:       cfg.Presets,
		ruleEngine:    rules.NewEngine(cfg.IgnoreRules),
		inventory:     inventory,
		screenReg:     screenReg,
		bus:           bus,
		screens:       screens,
		degraded:      degraded,
	}

	for _, wc := range cfg.Workspaces {
		a.workspaceOrder = append(a.workspaceOrder, wc.Name)
		a.workspaceCfg[wc.Name] = wc
		a.workspaces[wc.Name] = &model.Workspace{
			Name:          wc.Name,
			ScreenID:      wc.ScreenID,
			LayoutVariant: wc.LayoutVariant,
			PresetOnOpen:  wc.PresetOnOpen,
		}
		a.ruleTable = append(a.ruleTable, rules.WorkspaceRules{WorkspaceName: wc.Name, Rules: wc.Rules})
	}
	a.focus = model.NewFocusState()
	for _, s := range screens {
		if ws := a.firstWorkspaceForScreen(s.ID); ws != "" {
			a.focus.FocusedWorkspacePerScreen[s.ID] = ws
		}
	}

	return a
}

func (a *Actor) firstWorkspaceForScreen(screenID string) string {
	for _, name := range a.workspaceOrder {
		if a.workspaceCfg[name].ScreenID == screenID {
			return name
		}
	}
	return ""
}

// Commands returns the channel callers send messages on.
func (a *Actor) Commands() chan<- any { return a.cmds }

// Stop terminates the run loop after the current message finishes.
func (a *Actor) Stop() { close(a.stop) }

// Run is the Actor's single consumer loop; it must run in its own goroutine
// and never be called from more than one goroutine at a time.
func (a *Actor) Run() {
	for {
		select {
		case <-a.stop:
			return
		case msg := <-a.cmds:
			a.handle(msg)
		}
	}
}

func (a *Actor) handle(msg any) {
	switch m := msg.(type) {
	case GetWorkspaces:
		out := make([]model.Workspace, 0, len(a.workspaceOrder))
		for _, name := range a.workspaceOrder {
			out = append(out, *a.workspaces[name])
		}
		m.Reply <- out
		close(m.Reply)

	case GetFocusedWorkspace:
		name := a.focus.FocusedWorkspacePerScreen[m.ScreenID]
		if ws, ok := a.workspaces[name]; ok {
			cp := *ws
			m.Reply <- &cp
		} else {
			m.Reply <- nil
		}
		close(m.Reply)

	case GetFocusedWindow:
		if a.focus.FocusedWindowID != nil {
			if w, ok := a.windows[*a.focus.FocusedWindowID]; ok {
				cp := w
				m.Reply <- &cp
				close(m.Reply)
				return
			}
		}
		m.Reply <- nil
		close(m.Reply)

	case GetWorkspaceByName:
		if ws, ok := a.workspaces[m.Name]; ok {
			cp := *ws
			m.Reply <- &cp
		} else {
			m.Reply <- nil
		}
		close(m.Reply)

	case GetWindowsForPid:
		var out []model.Window
		for _, w := range a.windows {
			if w.PID == m.PID {
				out = append(out, w)
			}
		}
		m.Reply <- out
		close(m.Reply)

	case SwitchWorkspace:
		m.Reply <- a.switchWorkspace(m.Name)
		close(m.Reply)

	case SetLayout:
		m.Reply <- a.setLayout(m.WorkspaceName, m.Variant)
		close(m.Reply)

	case BalanceWorkspace:
		m.Reply <- a.balanceWorkspace(m.WorkspaceName)
		close(m.Reply)

	case SendWorkspaceToScreen:
		m.Reply <- a.sendWorkspaceToScreen(m.WorkspaceName, m.Screen)
		close(m.Reply)

	case FocusWindow:
		m.Reply <- a.focusDirectional(m.Direction)
		close(m.Reply)

	case SwapWindow:
		m.Reply <- a.swapDirectional(m.Direction)
		close(m.Reply)

	case ResizeFocused:
		m.Reply <- a.resizeFocused(m.Axis, m.Delta)
		close(m.Reply)

	case ApplyPreset:
		m.Reply <- a.applyPresetToFocused(m.Name)
		close(m.Reply)

	case MoveWindowToWorkspace:
		m.Reply <- a.moveWindowToWorkspace(m.WindowID, m.WorkspaceName)
		close(m.Reply)

	case SendWindowToScreen:
		m.Reply <- a.sendWindowToScreen(m.WindowID, m.Screen)
		close(m.Reply)

	case WindowCreated:
		a.handleWindowCreated(m.WindowID)
	case WindowDestroyed:
		a.handleWindowDestroyed(m.WindowID)
	case WindowMoved:
		a.handleWindowMoved(m.WindowID, m.Frame)
	case WindowResized:
		a.handleWindowMoved(m.WindowID, m.Frame)
	case WindowFocused:
		a.handleWindowFocused(m.WindowID)
	case WindowTitleChanged:
		a.handleTitleChanged(m.WindowID, m.Title)
	case AppLaunched:
		// Tracked implicitly via WindowCreated once the app's windows appear.
	case AppTerminated:
		a.handleAppTerminated(m.PID)
	case AppHidden:
	case AppShown:
	case ScreensChanged:
		a.handleScreensChanged()
	}
}

func (a *Actor) screenByID(id string) (model.Screen, bool) {
	for _, s := range a.screens {
		if s.ID == id {
			return s, true
		}
	}
	return model.Screen{}, false
}

// --- invariant helpers ---

// windowOwner reports which workspace (if any) holds id, enforcing invariant
// I1 (a window id appears in at most one workspace).
func (a *Actor) windowOwner(id model.WindowID) (string, bool) {
	if w, ok := a.windows[id]; ok {
		if _, exists := a.workspaces[w.WorkspaceName]; exists {
			return w.WorkspaceName, true
		}
	}
	return "", false
}

// Applier returns the animation.Applier the caller should wire into
// animation.NewEngine before calling SetAnimationEngine.
func (a *Actor) Applier() animation.Applier {
	return invApplier{inv: a.inventory, pidIndex: &a.pidIndex}
}

// SetAnimationEngine completes two-phase construction; call once, before Run.
func (a *Actor) SetAnimationEngine(e *animation.Engine) { a.animEngine = e }

// SetObserver completes two-phase construction; call once, before Run.
func (a *Actor) SetObserver(o ObserverController) { a.observer = o }

// --- window lifecycle (grounded on TilingManager::handle_new_window/handle_window_destroyed) ---

func (a *Actor) handleWindowCreated(id model.WindowID) {
	if _, known := a.windows[id]; known {
		return
	}
	w, err := a.inventory.Get(id)
	if err != nil {
		return
	}

	if a.observer != nil && a.observer.IsInSwitchCooldown() {
		for _, pids := range a.workspacePIDs {
			for _, pid := range pids {
				if pid == w.PID {
					return
				}
			}
		}
	}

	ruleWindow := rules.Window{AppBundleID: w.AppBundleID, AppName: w.AppName, Title: w.Title}
	if a.ruleEngine.IsIgnored(ruleWindow) {
		return
	}

	match, ok := rules.MatchWorkspace(ruleWindow, a.ruleTable)
	wsName := ""
	if ok {
		wsName = match.WorkspaceName
	} else if len(a.workspaceOrder) > 0 {
		wsName = a.workspaceOrder[0]
	} else {
		return
	}

	a.workspacePIDs[wsName] = appendUnique(a.workspacePIDs[wsName], w.PID)

	w.WorkspaceName = wsName
	a.windows[id] = w
	a.pidIndex.Store(id, w.PID)

	ws := a.workspaces[wsName]
	if ws != nil && !ws.ContainsWindow(id) {
		ws.WindowIDs = append(ws.WindowIDs, id)
	}

	isFocused := a.focus.FocusedWorkspacePerScreen[ws.ScreenID] == wsName
	if ws.LayoutVariant == model.LayoutFloating && !a.presetApplied[wsName] {
		if presetName := a.workspaceCfg[wsName].PresetOnOpen; presetName != "" {
			_ = a.applyPresetToWindow(id, presetName)
			a.presetApplied[wsName] = true
		}
	}

	if isFocused {
		a.applyLayout(wsName)
	} else {
		_ = a.switchWorkspace(wsName)
	}

	if a.bus != nil {
		a.bus.Publish(eventbus.Topic("wm", "workspaces-changed"), nil)
	}
}

func appendUnique(pids []int32, pid int32) []int32 {
	for _, p := range pids {
		if p == pid {
			return pids
		}
	}
	return append(pids, pid)
}

func (a *Actor) handleWindowDestroyed(id model.WindowID) {
	if a.observer != nil && a.observer.IsInSwitchCooldown() {
		return
	}
	wsName, ok := a.windowOwner(id)
	delete(a.windows, id)
	a.pidIndex.Delete(id)
	if !ok {
		return
	}
	if ws := a.workspaces[wsName]; ws != nil {
		ws.RemoveWindow(id)
	}
	if a.focus.FocusedWindowID != nil && *a.focus.FocusedWindowID == id {
		a.focus.FocusedWindowID = nil
	}
	a.applyLayout(wsName)
	if a.bus != nil {
		a.bus.Publish(eventbus.Topic("wm", "workspaces-changed"), nil)
	}
}

func (a *Actor) handleWindowMoved(id model.WindowID, frame model.Rect) {
	w, ok := a.windows[id]
	if !ok {
		return
	}
	w.Frame = frame
	a.windows[id] = w
	a.recoverSplitRatios(w.WorkspaceName)
}

// recoverSplitRatios recomputes a split/split-horizontal/split-vertical
// workspace's SplitRatios from its windows' observed frames after a manual
// move/resize (the observer only forwards these once the layout cooldown
// has expired, so this never fires for our own applyLayout output). Other
// variants don't have a flat split axis to recover a ratio vector for.
func (a *Actor) recoverSplitRatios(workspaceName string) {
	ws := a.workspaces[workspaceName]
	if ws == nil {
		return
	}

	var axis layout.Axis
	switch ws.LayoutVariant {
	case model.LayoutSplitHorizontal:
		axis = layout.AxisHorizontal
	case model.LayoutSplitVertical:
		axis = layout.AxisVertical
	case model.LayoutSplit:
		screen, ok := a.screenByID(ws.ScreenID)
		if !ok {
			return
		}
		if screen.UsableFrame.IsLandscape() {
			axis = layout.AxisHorizontal
		} else {
			axis = layout.AxisVertical
		}
	default:
		return
	}

	visible := make([]model.WindowID, 0, len(ws.WindowIDs))
	for _, id := range ws.WindowIDs {
		if w, ok := a.windows[id]; ok && !w.IsHidden && !w.IsMinimised {
			visible = append(visible, id)
		}
	}
	if len(visible) < 2 {
		return
	}

	screen, ok := a.screenByID(ws.ScreenID)
	if !ok {
		return
	}
	frames := make([]model.Rect, len(visible))
	for i, id := range visible {
		frames[i] = a.windows[id].Frame
	}

	inner := layout.InnerRect(screen.UsableFrame, a.gaps)
	if ratios := layout.RatiosFromFrames(frames, inner, a.gaps, axis); ratios != nil {
		ws.SplitRatios = ratios
	}
}

func (a *Actor) handleWindowFocused(id model.WindowID) {
	if _, ok := a.windows[id]; !ok {
		return
	}
	a.focus.FocusedWindowID = &id
	if a.observer != nil {
		a.observer.MarkFocusCooldown(id)
	}
}

func (a *Actor) handleTitleChanged(id model.WindowID, title string) {
	if w, ok := a.windows[id]; ok {
		w.Title = title
		a.windows[id] = w
	}
}

func (a *Actor) handleAppTerminated(pid int32) {
	var toRemove []model.WindowID
	for id, w := range a.windows {
		if w.PID == pid {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		a.handleWindowDestroyed(id)
	}
	a.inventory.PurgePID(pid)
	for name, pids := range a.workspacePIDs {
		filtered := pids[:0]
		for _, p := range pids {
			if p != pid {
				filtered = append(filtered, p)
			}
		}
		a.workspacePIDs[name] = filtered
	}
}

func (a *Actor) handleScreensChanged() {
	if a.screenReg == nil {
		return
	}
	screens, err := a.screenReg.Enumerate()
	if err != nil {
		return
	}
	a.screens = screens
	for name := range a.focus.FocusedWorkspacePerScreen {
		found := false
		for _, s := range screens {
			if s.ID == name {
				found = true
				break
			}
		}
		if !found {
			delete(a.focus.FocusedWorkspacePerScreen, name)
		}
	}
	for _, s := range screens {
		if _, ok := a.focus.FocusedWorkspacePerScreen[s.ID]; !ok {
			if ws := a.firstWorkspaceForScreen(s.ID); ws != "" {
				a.focus.FocusedWorkspacePerScreen[s.ID] = ws
			}
		}
	}
	for _, ws := range a.focus.FocusedWorkspacePerScreen {
		a.applyLayout(ws)
	}
	if a.bus != nil {
		a.bus.Publish(eventbus.Topic("wm", "screens-changed"), screens)
	}
}

// --- layout application ---

func (a *Actor) applyLayout(workspaceName string) {
	ws := a.workspaces[workspaceName]
	if ws == nil {
		return
	}
	screen, ok := a.screenByID(ws.ScreenID)
	if !ok {
		return
	}

	visible := make([]model.WindowID, 0, len(ws.WindowIDs))
	for _, id := range ws.WindowIDs {
		if w, ok := a.windows[id]; ok && !w.IsHidden && !w.IsMinimised {
			visible = append(visible, id)
		}
	}

	opts := layout.Options{}
	placements := layout.Compute(ws.LayoutVariant, visible, screen.UsableFrame, a.gaps, ws.SplitRatios, opts)

	current := make(map[model.WindowID]model.Rect, len(visible))
	observed := make(map[model.WindowID]model.Rect, len(visible))
	for _, id := range visible {
		f := a.windows[id].Frame
		current[id] = f
		observed[id] = f
	}
	filtered := layout.FilterRepositions(placements, current)
	if len(filtered) == 0 {
		return
	}

	targets := make([]animation.Target, len(filtered))
	for i, p := range filtered {
		targets[i] = animation.Target{WindowID: p.WindowID, Frame: p.Frame}
		w := a.windows[p.WindowID]
		w.Frame = p.Frame
		a.windows[p.WindowID] = w
	}

	if a.animEngine != nil {
		a.animEngine.Animate(targets, observed)
	}
}

// --- workspace commands ---

func (a *Actor) switchWorkspace(name string) error {
	target, ok := a.workspaces[name]
	if !ok {
		return ErrNotFound
	}
	screenID := target.ScreenID
	leavingName := a.focus.FocusedWorkspacePerScreen[screenID]
	if leavingName == name {
		return nil
	}

	leavingPIDs := a.pidsExclusiveTo(leavingName, screenID)
	for _, pid := range leavingPIDs {
		if !a.degraded {
			_ = a.inventory.HideApp(pid)
		}
	}

	time.Sleep(10 * time.Millisecond)

	for _, pid := range a.workspacePIDs[name] {
		if !a.degraded {
			_ = a.inventory.UnhideApp(pid)
		}
	}

	a.focus.FocusedWorkspacePerScreen[screenID] = name
	a.applyLayout(name)

	if focused := a.mostRecentlyFocusedWindow(name); focused != nil {
		a.focus.FocusedWindowID = focused
		if !a.degraded {
			_ = a.inventory.Focus(*focused, a.windows[*focused].PID)
		}
	}

	if a.observer != nil {
		a.observer.MarkSwitchCooldown()
	}
	return nil
}

// pidsExclusiveTo returns the PIDs of leavingWorkspace's windows that are not
// also present in the focused workspace of any other screen.
func (a *Actor) pidsExclusiveTo(leavingWorkspace, excludeScreen string) []int32 {
	if leavingWorkspace == "" {
		return nil
	}
	keep := make(map[int32]bool)
	for screenID, wsName := range a.focus.FocusedWorkspacePerScreen {
		if screenID == excludeScreen {
			continue
		}
		for _, pid := range a.workspacePIDs[wsName] {
			keep[pid] = true
		}
	}
	var out []int32
	for _, pid := range a.workspacePIDs[leavingWorkspace] {
		if !keep[pid] {
			out = append(out, pid)
		}
	}
	return out
}

func (a *Actor) mostRecentlyFocusedWindow(workspaceName string) *model.WindowID {
	ws := a.workspaces[workspaceName]
	if ws == nil {
		return nil
	}
	if ws.FocusedWindowID != nil && ws.ContainsWindow(*ws.FocusedWindowID) {
		id := *ws.FocusedWindowID
		return &id
	}
	if len(ws.WindowIDs) > 0 {
		id := ws.WindowIDs[0]
		return &id
	}
	return nil
}

func (a *Actor) setLayout(workspaceName string, variant model.LayoutVariant) error {
	ws, ok := a.workspaces[workspaceName]
	if !ok {
		return ErrNotFound
	}
	ws.LayoutVariant = variant
	a.applyLayout(workspaceName)
	return nil
}

func (a *Actor) balanceWorkspace(workspaceName string) error {
	ws, ok := a.workspaces[workspaceName]
	if !ok {
		return ErrNotFound
	}
	ws.SplitRatios = nil
	a.applyLayout(workspaceName)
	return nil
}

func (a *Actor) sendWorkspaceToScreen(workspaceName string, sel ScreenSelector) error {
	ws, ok := a.workspaces[workspaceName]
	if !ok {
		return ErrNotFound
	}
	screenID := a.resolveScreen(sel, ws.ScreenID)
	if screenID == "" {
		return ErrNotFound
	}
	ws.ScreenID = screenID
	a.applyLayout(workspaceName)
	return nil
}

func (a *Actor) resolveScreen(sel ScreenSelector, current string) string {
	if sel.ScreenID != "" {
		if _, ok := a.screenByID(sel.ScreenID); ok {
			return sel.ScreenID
		}
		return ""
	}
	for i, s := range a.screens {
		if s.ID == current {
			next := a.screens[(i+1)%len(a.screens)]
			return next.ID
		}
	}
	return ""
}

// --- window commands ---

func (a *Actor) focusDirectional(dir model.Direction) error {
	ws := a.focusedWorkspace()
	if ws == nil || len(ws.WindowIDs) == 0 {
		return ErrNotFound
	}
	next := a.pickDirectional(ws, dir)
	if next == nil {
		return ErrNotFound
	}
	a.focus.FocusedWindowID = next
	ws.FocusedWindowID = next
	if a.observer != nil {
		a.observer.MarkFocusCooldown(*next)
	}
	if !a.degraded {
		_ = a.inventory.Focus(*next, a.windows[*next].PID)
	}
	return nil
}

func (a *Actor) swapDirectional(dir model.Direction) error {
	ws := a.focusedWorkspace()
	if ws == nil || a.focus.FocusedWindowID == nil {
		return ErrNotFound
	}
	other := a.pickDirectional(ws, dir)
	if other == nil || *other == *a.focus.FocusedWindowID {
		return ErrNotFound
	}
	cur := *a.focus.FocusedWindowID
	ia, ib := -1, -1
	for i, id := range ws.WindowIDs {
		if id == cur {
			ia = i
		}
		if id == *other {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return ErrNotFound
	}
	ws.WindowIDs[ia], ws.WindowIDs[ib] = ws.WindowIDs[ib], ws.WindowIDs[ia]
	a.applyLayout(ws.Name)
	return nil
}

// focusedWorkspace returns the workspace holding the focused window, or
// else the focused workspace of the first screen that has one.
func (a *Actor) focusedWorkspace() *model.Workspace {
	if a.focus.FocusedWindowID != nil {
		if w, ok := a.windows[*a.focus.FocusedWindowID]; ok {
			if ws, ok := a.workspaces[w.WorkspaceName]; ok {
				return ws
			}
		}
	}
	for _, name := range a.focus.FocusedWorkspacePerScreen {
		if ws := a.workspaces[name]; ws != nil && len(ws.WindowIDs) > 0 {
			return ws
		}
	}
	return nil
}

// pickDirectional resolves next/previous by cycling ws.WindowIDs, and
// up/down/left/right by nearest-centre-in-half-plane, tie-broken by
// perpendicular distance, using each window's observed frame.
func (a *Actor) pickDirectional(ws *model.Workspace, dir model.Direction) *model.WindowID {
	if len(ws.WindowIDs) == 0 {
		return nil
	}
	curIdx := 0
	if a.focus.FocusedWindowID != nil {
		for i, id := range ws.WindowIDs {
			if id == *a.focus.FocusedWindowID {
				curIdx = i
				break
			}
		}
	}

	switch dir {
	case model.DirNext:
		id := ws.WindowIDs[(curIdx+1)%len(ws.WindowIDs)]
		return &id
	case model.DirPrevious:
		id := ws.WindowIDs[(curIdx-1+len(ws.WindowIDs))%len(ws.WindowIDs)]
		return &id
	}

	curFrame := a.windows[ws.WindowIDs[curIdx]].Frame
	cx, cy := centre(curFrame)

	var best *model.WindowID
	bestPrimary := math.Inf(1)
	bestSecondary := math.Inf(1)

	for i, id := range ws.WindowIDs {
		if i == curIdx {
			continue
		}
		f := a.windows[id].Frame
		ox, oy := centre(f)
		var primary, secondary float64
		var inHalfPlane bool
		switch dir {
		case model.DirLeft:
			inHalfPlane = ox < cx
			primary, secondary = cx-ox, math.Abs(oy-cy)
		case model.DirRight:
			inHalfPlane = ox > cx
			primary, secondary = ox-cx, math.Abs(oy-cy)
		case model.DirUp:
			inHalfPlane = oy < cy
			primary, secondary = cy-oy, math.Abs(ox-cx)
		case model.DirDown:
			inHalfPlane = oy > cy
			primary, secondary = oy-cy, math.Abs(ox-cx)
		}
		if !inHalfPlane {
			continue
		}
		if primary < bestPrimary || (primary == bestPrimary && secondary < bestSecondary) {
			bestPrimary, bestSecondary = primary, secondary
			wid := id
			best = &wid
		}
	}
	return best
}

func centre(r model.Rect) (float64, float64) {
	return float64(r.X) + float64(r.W)/2, float64(r.Y) + float64(r.H)/2
}

func (a *Actor) resizeFocused(axis layoutAxis, delta int32) error {
	ws := a.focusedWorkspace()
	if ws == nil || a.focus.FocusedWindowID == nil {
		return ErrNotFound
	}
	idx := -1
	for i, id := range ws.WindowIDs {
		if id == *a.focus.FocusedWindowID {
			idx = i
			break
		}
	}
	if idx < 0 || len(ws.WindowIDs) < 2 {
		return ErrNotFound
	}
	screen, ok := a.screenByID(ws.ScreenID)
	if !ok {
		return ErrNotFound
	}
	var axisSize float64
	if axis == AxisWidth {
		axisSize = float64(screen.UsableFrame.W)
	} else {
		axisSize = float64(screen.UsableFrame.H)
	}
	if axisSize == 0 {
		return ErrNotFound
	}

	n := len(ws.WindowIDs)
	proportions := ws.SplitRatios
	if len(proportions) != n-1 {
		even := make([]float64, n)
		for i := range even {
			even[i] = 1.0 / float64(n)
		}
		proportions = layout.ProportionsToCumulative(even)
	}
	full := layout.CumulativeToProportions(proportions)

	neighbourIdx := idx + 1
	if neighbourIdx >= n {
		neighbourIdx = idx - 1
	}
	if neighbourIdx < 0 {
		return ErrNotFound
	}

	deltaProportion := float64(delta) / axisSize
	updated := layout.AdjustPair(full, idx, neighbourIdx, deltaProportion)
	ws.SplitRatios = layout.ProportionsToCumulative(updated)
	a.applyLayout(ws.Name)
	return nil
}

func (a *Actor) applyPresetToFocused(name string) error {
	if a.focus.FocusedWindowID == nil {
		return ErrNotFound
	}
	return a.applyPresetToWindow(*a.focus.FocusedWindowID, name)
}

func (a *Actor) applyPresetToWindow(id model.WindowID, name string) error {
	preset, ok := a.presets[name]
	if !ok {
		return ErrNotFound
	}
	w, ok := a.windows[id]
	if !ok {
		return ErrNotFound
	}
	ws := a.workspaces[w.WorkspaceName]
	if ws == nil {
		return ErrNotFound
	}
	screen, ok := a.screenByID(ws.ScreenID)
	if !ok {
		return ErrNotFound
	}

	frame := resolvePresetFrame(preset, screen.UsableFrame)
	ws.LayoutVariant = model.LayoutFloating

	previous := w.Frame
	w.Frame = frame
	a.windows[id] = w
	if a.animEngine != nil {
		a.animEngine.Animate([]animation.Target{{WindowID: id, Frame: frame}}, map[model.WindowID]model.Rect{id: previous})
	} else if !a.degraded {
		_ = a.inventory.SetFrame(id, w.PID, frame)
	}
	return nil
}

func resolvePresetFrame(p Preset, usable model.Rect) model.Rect {
	width := p.WidthPx
	if p.WidthPct > 0 {
		width = int32(float64(usable.W) * p.WidthPct)
	}
	height := p.HeightPx
	if p.HeightPct > 0 {
		height = int32(float64(usable.H) * p.HeightPct)
	}
	x, y := p.X, p.Y
	if p.Center {
		x = usable.X + (usable.W-width)/2
		y = usable.Y + (usable.H-height)/2
	}
	return model.Rect{X: x, Y: y, W: width, H: height}
}

func (a *Actor) moveWindowToWorkspace(id model.WindowID, workspaceName string) error {
	w, ok := a.windows[id]
	if !ok {
		return ErrNotFound
	}
	target, ok := a.workspaces[workspaceName]
	if !ok {
		return ErrNotFound
	}
	if old, ok := a.workspaces[w.WorkspaceName]; ok {
		old.RemoveWindow(id)
		a.applyLayout(old.Name)
	}
	target.WindowIDs = append(target.WindowIDs, id)
	w.WorkspaceName = workspaceName
	a.windows[id] = w
	a.applyLayout(workspaceName)
	return nil
}

func (a *Actor) sendWindowToScreen(id model.WindowID, sel ScreenSelector) error {
	w, ok := a.windows[id]
	if !ok {
		return ErrNotFound
	}
	ws := a.workspaces[w.WorkspaceName]
	if ws == nil {
		return ErrNotFound
	}
	screenID := a.resolveScreen(sel, ws.ScreenID)
	if screenID == "" {
		return ErrNotFound
	}
	dest := a.firstWorkspaceForScreen(screenID)
	if dest == "" {
		return ErrNotFound
	}
	return a.moveWindowToWorkspace(id, dest)
}
