// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/animation/animation.go
// Summary: Animation Engine (L5): drives windows from their current frames
// to target frames over a bounded duration, synced to display refresh.
// Usage: The Actor hands (window_id, target_frame) batches to Engine.Animate;
// a single internal loop owns the animation table exclusively.
// Notes: Per-key "restart from previous target" and lerp semantics ported
// from original_source's tiling/animation/manager.rs; the timer-driven
// update loop is adapted from internal/effects/timeline.go's Timeline.

package animation

import (
	"math"
	"sync"
	"time"

	"github.com/marcosmoura/stache/internal/model"
)

// Easing is a named easing curve; apply maps progress in [0,1] to eased progress.
type Easing int

const (
	EaseLinear Easing = iota
	EaseIn
	EaseOut
	EaseInOut
	EaseOutExpo
	EaseSpring
)

// ParseEasing parses a config-file spelling of an easing curve.
func ParseEasing(s string) (Easing, bool) {
	switch s {
	case "linear":
		return EaseLinear, true
	case "ease-in":
		return EaseIn, true
	case "ease-out":
		return EaseOut, true
	case "ease-in-out":
		return EaseInOut, true
	case "ease-out-expo":
		return EaseOutExpo, true
	case "spring":
		return EaseSpring, true
	default:
		return EaseLinear, false
	}
}

func apply(e Easing, t float64) float64 {
	switch e {
	case EaseIn:
		return t * t
	case EaseOut:
		return t * (2 - t)
	case EaseInOut:
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	case EaseOutExpo:
		if t >= 1 {
			return 1
		}
		return 1 - math.Pow(2, -10*t)
	case EaseSpring:
		// Damped sinusoid overshoot, settles near 1 well before t=1.
		const c4 = (2 * math.Pi) / 3
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4)*-1 + 1
	default:
		return t
	}
}

// springConverged reports whether a spring-eased animation has settled close
// enough to target that it can be declared complete independent of duration.
func springConverged(start, target model.Rect, eased float64) bool {
	delta := lerp(start, target, eased)
	dx := float64(delta.X - target.X)
	dy := float64(delta.Y - target.Y)
	dw := float64(delta.W - target.W)
	dh := float64(delta.H - target.H)
	return math.Abs(dx) < 0.01 && math.Abs(dy) < 0.01 && math.Abs(dw) < 0.01 && math.Abs(dh) < 0.01
}

func lerpI32(a, b int32, t float64) int32 {
	return int32(math.Round(float64(a) + (float64(b)-float64(a))*t))
}

func lerp(start, target model.Rect, t float64) model.Rect {
	return model.Rect{
		X: lerpI32(start.X, target.X, t),
		Y: lerpI32(start.Y, target.Y, t),
		W: lerpI32(start.W, target.W, t),
		H: lerpI32(start.H, target.H, t),
	}
}

// Settings controls duration and curve for newly started animations.
type Settings struct {
	Enabled  bool
	Duration time.Duration
	Easing   Easing
}

const (
	MinDuration = 50 * time.Millisecond
	MaxDuration = 1000 * time.Millisecond
)

// ClampedDuration returns s.Duration bounded to [MinDuration, MaxDuration].
func (s Settings) ClampedDuration() time.Duration {
	d := s.Duration
	if d < MinDuration {
		d = MinDuration
	}
	if d > MaxDuration {
		d = MaxDuration
	}
	return d
}

// Applier is the Window Inventory's frame-setting capability, the only
// side effect the Animation Engine is allowed to perform.
type Applier interface {
	SetFrame(id model.WindowID, frame model.Rect) error
}

// CooldownMarker lets the engine tell the Observer to ignore move/resize
// events on windows it is about to reposition (spec §4.5 cross-talk).
type CooldownMarker interface {
	MarkLayoutApplied(ids []model.WindowID)
}

type windowAnimation struct {
	start     model.Rect
	target    model.Rect
	startTime time.Time
	duration  time.Duration
	easing    Easing
	cancelled bool
}

func (a *windowAnimation) progress(now time.Time) float64 {
	if a.duration <= 0 {
		return 1
	}
	elapsed := now.Sub(a.startTime)
	t := float64(elapsed) / float64(a.duration)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	return t
}

func (a *windowAnimation) isComplete(now time.Time) bool {
	if a.cancelled {
		return true
	}
	t := a.progress(now)
	if t >= 1 {
		return true
	}
	if a.easing == EaseSpring {
		return springConverged(a.start, a.target, apply(a.easing, t))
	}
	return false
}

func (a *windowAnimation) currentFrame(now time.Time) model.Rect {
	t := a.progress(now)
	eased := apply(a.easing, t)
	return lerp(a.start, a.target, eased)
}

// Engine owns the live animation table and the loop thread that advances it.
// No other component may mutate the table.
type Engine struct {
	mu       sync.Mutex
	settings Settings
	anims    map[model.WindowID]*windowAnimation
	running  bool

	applier        Applier
	cooldown       CooldownMarker
	maxRefreshHz   func() uint32
	displayTicker  func(tick func() bool) (stop func(), ok bool)
}

// NewEngine constructs an Animation Engine.
//
// displayTicker, if non-nil, attempts to drive ticks from a display-link-like
// primary source; it should invoke tick repeatedly until tick returns false,
// then call the returned stop func, and report ok=false if it could not
// start (in which case Engine falls back to a sleep-based loop using
// maxRefreshHz).
func NewEngine(applier Applier, cooldown CooldownMarker, maxRefreshHz func() uint32, displayTicker func(tick func() bool) (func(), bool)) *Engine {
	return &Engine{
		settings:      Settings{Enabled: true, Duration: 200 * time.Millisecond, Easing: EaseInOut},
		anims:         make(map[model.WindowID]*windowAnimation),
		applier:       applier,
		cooldown:      cooldown,
		maxRefreshHz:  maxRefreshHz,
		displayTicker: displayTicker,
	}
}

// SetSettings updates duration/easing/enabled for subsequently started
// animations; in-flight animations keep their original settings.
func (e *Engine) SetSettings(s Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.settings = s
}

// IsEnabled reports whether animations are currently enabled.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Enabled
}

// Target is one (window, target frame) pair to animate.
type Target struct {
	WindowID model.WindowID
	Frame    model.Rect
}

// Animate starts (or replaces) animations for each target. observed supplies
// the window's last-known frame for windows with no in-flight animation;
// windows with an in-flight animation restart from that animation's target
// instead, per spec (prevents visible discontinuity on rapid re-layout).
func (e *Engine) Animate(targets []Target, observed map[model.WindowID]model.Rect) {
	e.mu.Lock()
	settings := e.settings
	if !settings.Enabled {
		e.mu.Unlock()
		for _, t := range targets {
			if e.applier != nil {
				_ = e.applier.SetFrame(t.WindowID, t.Frame)
			}
		}
		return
	}

	duration := settings.ClampedDuration()
	now := time.Now()
	started := make([]model.WindowID, 0, len(targets))

	for _, t := range targets {
		start, ok := e.startFrameFor(t.WindowID, observed, now)
		if !ok {
			e.mu.Unlock()
			if e.applier != nil {
				_ = e.applier.SetFrame(t.WindowID, t.Frame)
			}
			e.mu.Lock()
			continue
		}
		if start == t.Frame {
			continue
		}
		e.anims[t.WindowID] = &windowAnimation{
			start:     start,
			target:    t.Frame,
			startTime: now,
			duration:  duration,
			easing:    settings.Easing,
		}
		started = append(started, t.WindowID)
	}
	needsLoop := len(started) > 0
	e.mu.Unlock()

	if needsLoop {
		if e.cooldown != nil {
			e.cooldown.MarkLayoutApplied(started)
		}
		e.startLoop()
	}
}

// startFrameFor must be called with e.mu held; it reads but does not mutate
// the table except via the caller's subsequent write.
func (e *Engine) startFrameFor(id model.WindowID, observed map[model.WindowID]model.Rect, now time.Time) (model.Rect, bool) {
	if anim, ok := e.anims[id]; ok {
		return anim.target, true
	}
	frame, ok := observed[id]
	return frame, ok
}

// Cancel marks the animation for id, if any, as cancelled; the next tick
// applies its exact target frame and removes it from the table.
func (e *Engine) Cancel(id model.WindowID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if anim, ok := e.anims[id]; ok {
		anim.cancelled = true
	}
}

// CancelAll stops every in-flight animation.
func (e *Engine) CancelAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, anim := range e.anims {
		anim.cancelled = true
	}
}

func (e *Engine) startLoop() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	if e.displayTicker != nil {
		if _, ok := e.displayTicker(e.tick); ok {
			return
		}
	}
	go e.fallbackLoop()
}

// tick advances every animation one step and reports whether the loop
// should continue (the table is non-empty after applying completions).
func (e *Engine) tick() bool {
	e.mu.Lock()
	now := time.Now()
	completed := make([]model.WindowID, 0)
	type pendingFrame struct {
		id    model.WindowID
		frame model.Rect
	}
	toApply := make([]pendingFrame, 0, len(e.anims))

	for id, anim := range e.anims {
		if anim.isComplete(now) {
			toApply = append(toApply, pendingFrame{id, anim.target})
			completed = append(completed, id)
		} else {
			toApply = append(toApply, pendingFrame{id, anim.currentFrame(now)})
		}
	}
	for _, id := range completed {
		delete(e.anims, id)
	}
	more := len(e.anims) > 0
	if !more {
		e.running = false
	}
	e.mu.Unlock()

	if e.applier != nil {
		for _, a := range toApply {
			_ = e.applier.SetFrame(a.id, a.frame)
		}
	}
	return more
}

func (e *Engine) fallbackLoop() {
	hz := uint32(120)
	if e.maxRefreshHz != nil {
		if v := e.maxRefreshHz(); v > 0 {
			hz = v
		}
	}
	frameDuration := time.Duration(1_000_000/hz) * time.Microsecond

	for {
		if !e.tick() {
			return
		}
		time.Sleep(frameDuration)
	}
}
