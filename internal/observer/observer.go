// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/observer/observer.go
// Summary: Observer Pipeline (L7): normalises raw OS notifications into the
// Actor's message taxonomy, debouncing bursts and suppressing feedback loops
// from the Actor's own programmatic actions.
// Usage: New wraps a Backend; Start begins forwarding. The Actor is handed
// the Pipeline itself (it satisfies wm.ObserverController) so the Animation
// Engine and window-switch logic can mark cooldowns directly.
// Notes: Debounce/cooldown/poll timings (4ms/200ms coalescing, 25ms
// cooldowns, 5ms/25ms window-ready poll, 100ms screen-change delay) are
// transcribed from spec §4.7. The per-key coalescing-timer idiom is
// grounded on internal/effects/timeline.go's Timeline (consulted before
// that package was judged out of domain and removed) and on
// internal/animation/animation.go's own timer-driven loop, which shares the
// same "reset on new event" shape.

package observer

import (
	"log"
	"sync"
	"time"

	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/wm"
)

const (
	fastCoalesce   = 4 * time.Millisecond
	settleCoalesce = 200 * time.Millisecond

	focusCooldown  = 25 * time.Millisecond
	layoutCooldown = 25 * time.Millisecond
	switchCooldown = 25 * time.Millisecond

	windowReadyPollInterval = 5 * time.Millisecond
	windowReadyTimeout      = 25 * time.Millisecond

	screenChangeDelay = 100 * time.Millisecond
)

// Kind enumerates the raw notification classes a Backend can report.
type Kind int

const (
	KindWindowCreated Kind = iota
	KindWindowDestroyed
	KindWindowMoved
	KindWindowResized
	KindWindowFocused
	KindWindowTitleChanged
	KindWindowMinimised
	KindWindowDeminimised
	KindAppLaunched
	KindAppTerminated
	KindAppHidden
	KindAppShown
	KindDisplayChanged
)

// RawEvent is what a Backend reports before normalisation; fields not
// relevant to Kind are left zero-valued.
type RawEvent struct {
	Kind        Kind
	WindowID    model.WindowID
	PID         int32
	Frame       model.Rect
	Title       string
	AppBundleID string
	AppName     string
}

// Backend is the platform surface this package abstracts: the OS
// Accessibility/Workspace notification stream, reduced to a single callback
// registration plus a synchronous window-attribute probe for the
// readiness poll.
type Backend interface {
	// Subscribe registers onEvent for every window and system notification.
	// onEvent must not block; the backend delivers events on its own
	// runloop(s) and callers must not call back into the backend from it.
	// Returns false if the backend cannot observe at all (e.g. missing
	// Accessibility permission), in which case the Pipeline still runs and
	// simply never emits anything.
	Subscribe(onEvent func(RawEvent)) (stop func(), ok bool)
	// WindowReady reports id's current frame and title and whether both are
	// populated yet (false while the window's Accessibility attributes are
	// still settling after creation).
	WindowReady(id model.WindowID) (frame model.Rect, title string, ready bool)
}

// ActorPoster is the Actor's inbound command queue, as seen by the Observer.
type ActorPoster interface {
	Commands() chan<- any
}

type debounceKey struct {
	id   model.WindowID
	kind Kind
}

type debounceEntry struct {
	latest      RawEvent
	fastTimer   *time.Timer
	settleTimer *time.Timer
}

// Pipeline is the Observer Pipeline. It satisfies wm.ObserverController so
// the Actor and Animation Engine can mark cooldowns without importing this
// package back.
type Pipeline struct {
	poster  ActorPoster
	backend Backend

	mu             sync.Mutex
	focusUntil     map[model.WindowID]time.Time
	layoutUntil    map[model.WindowID]time.Time
	switchUntil    time.Time
	debouncers     map[debounceKey]*debounceEntry
	screenTimer    *time.Timer
	stopBackend    func()
}

// New constructs a Pipeline. Start must be called to begin forwarding.
func New(poster ActorPoster, backend Backend) *Pipeline {
	return &Pipeline{
		poster:      poster,
		backend:     backend,
		focusUntil:  make(map[model.WindowID]time.Time),
		layoutUntil: make(map[model.WindowID]time.Time),
		debouncers:  make(map[debounceKey]*debounceEntry),
	}
}

// Start subscribes to the backend. Returns false if the backend could not
// be observed at all; the Pipeline remains usable (cooldowns still work)
// but will never emit events.
func (p *Pipeline) Start() bool {
	stop, ok := p.backend.Subscribe(p.onRaw)
	if ok {
		p.stopBackend = stop
	}
	return ok
}

// Stop unsubscribes from the backend and cancels any pending timers.
func (p *Pipeline) Stop() {
	if p.stopBackend != nil {
		p.stopBackend()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.debouncers {
		if e.fastTimer != nil {
			e.fastTimer.Stop()
		}
		if e.settleTimer != nil {
			e.settleTimer.Stop()
		}
	}
	if p.screenTimer != nil {
		p.screenTimer.Stop()
	}
}

// --- wm.ObserverController ---

// MarkFocusCooldown suppresses incoming focus events for id for a short
// window following a programmatic focus change.
func (p *Pipeline) MarkFocusCooldown(id model.WindowID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.focusUntil[id] = time.Now().Add(focusCooldown)
}

// MarkLayoutApplied suppresses incoming move/resize events for ids for a
// short window following the Animation Engine applying their frames.
func (p *Pipeline) MarkLayoutApplied(ids []model.WindowID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	until := time.Now().Add(layoutCooldown)
	for _, id := range ids {
		p.layoutUntil[id] = until
	}
}

// MarkSwitchCooldown opens a short window following a workspace switch
// during which the Actor drops WindowCreated events for PIDs it already tracks.
func (p *Pipeline) MarkSwitchCooldown() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.switchUntil = time.Now().Add(switchCooldown)
}

// IsInSwitchCooldown reports whether a workspace switch happened recently
// enough that newly-arriving window-created events for known PIDs should be
// treated as re-appearances rather than new windows.
func (p *Pipeline) IsInSwitchCooldown() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().Before(p.switchUntil)
}

// --- raw event handling ---

func (p *Pipeline) post(msg any) {
	select {
	case p.poster.Commands() <- msg:
	default:
		// The Actor's queue is full; per spec, Observer callbacks never
		// block on the Actor. Dropping here is preferable to stalling the
		// OS notification runloop that called us.
		log.Printf("observer: actor command queue full, dropped %T", msg)
	}
}

func (p *Pipeline) onRaw(ev RawEvent) {
	switch ev.Kind {
	case KindWindowCreated:
		go p.forwardWhenReady(ev)
	case KindWindowDestroyed:
		p.post(wm.WindowDestroyed{WindowID: ev.WindowID})
	case KindWindowMoved:
		if p.underLayoutCooldown(ev.WindowID) {
			return
		}
		p.debounce(ev, func(final RawEvent) {
			if p.underLayoutCooldown(final.WindowID) {
				return
			}
			p.post(wm.WindowMoved{WindowID: final.WindowID, Frame: final.Frame})
		})
	case KindWindowResized:
		if p.underLayoutCooldown(ev.WindowID) {
			return
		}
		p.debounce(ev, func(final RawEvent) {
			if p.underLayoutCooldown(final.WindowID) {
				return
			}
			p.post(wm.WindowResized{WindowID: final.WindowID, Frame: final.Frame})
		})
	case KindWindowFocused:
		if p.underFocusCooldown(ev.WindowID) {
			return
		}
		p.post(wm.WindowFocused{WindowID: ev.WindowID})
	case KindWindowTitleChanged:
		p.post(wm.WindowTitleChanged{WindowID: ev.WindowID, Title: ev.Title})
	case KindWindowMinimised, KindWindowDeminimised:
		// Not forwarded: the taxonomy has no message for minimise state. The
		// Actor's IsMinimised flag is the value read from the Window
		// Inventory when the window was first tracked, and layout passes use
		// that cached record.
	case KindAppLaunched:
		p.post(wm.AppLaunched{PID: ev.PID, BundleID: ev.AppBundleID, Name: ev.AppName})
	case KindAppTerminated:
		p.post(wm.AppTerminated{PID: ev.PID})
	case KindAppHidden:
		p.post(wm.AppHidden{PID: ev.PID})
	case KindAppShown:
		p.post(wm.AppShown{PID: ev.PID})
	case KindDisplayChanged:
		p.debounceScreenChange()
	}
}

func (p *Pipeline) underFocusCooldown(id model.WindowID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.focusUntil[id]
	return ok && time.Now().Before(until)
}

func (p *Pipeline) underLayoutCooldown(id model.WindowID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	until, ok := p.layoutUntil[id]
	return ok && time.Now().Before(until)
}

// forwardWhenReady polls the backend until id's frame and title are
// populated (or the timeout elapses), then posts WindowCreated. Runs on its
// own goroutine so it never blocks the backend's notification runloop.
func (p *Pipeline) forwardWhenReady(ev RawEvent) {
	deadline := time.Now().Add(windowReadyTimeout)
	for {
		if _, _, ready := p.backend.WindowReady(ev.WindowID); ready || time.Now().After(deadline) {
			break
		}
		time.Sleep(windowReadyPollInterval)
	}
	p.post(wm.WindowCreated{WindowID: ev.WindowID})
}

// debounce coalesces a burst of events for (id, kind): forward fires at
// most once per fastCoalesce while events keep arriving, and is guaranteed
// to fire once more settleCoalesce after the last event in the burst.
func (p *Pipeline) debounce(ev RawEvent, forward func(RawEvent)) {
	key := debounceKey{id: ev.WindowID, kind: ev.Kind}

	p.mu.Lock()
	entry, ok := p.debouncers[key]
	if !ok {
		entry = &debounceEntry{}
		p.debouncers[key] = entry
	}
	entry.latest = ev

	if entry.fastTimer == nil {
		entry.fastTimer = time.AfterFunc(fastCoalesce, func() {
			p.mu.Lock()
			latest := entry.latest
			entry.fastTimer = nil
			p.mu.Unlock()
			forward(latest)
		})
	}
	if entry.settleTimer != nil {
		entry.settleTimer.Stop()
	}
	entry.settleTimer = time.AfterFunc(settleCoalesce, func() {
		p.mu.Lock()
		latest := entry.latest
		p.mu.Unlock()
		forward(latest)
	})
	p.mu.Unlock()
}

func (p *Pipeline) debounceScreenChange() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.screenTimer != nil {
		p.screenTimer.Stop()
	}
	p.screenTimer = time.AfterFunc(screenChangeDelay, func() {
		p.post(wm.ScreensChanged{})
	})
}
