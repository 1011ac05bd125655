// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/core/core.go
// Summary: Wires every L1-L7 subsystem into one running instance, replacing
// the teacher's/original's process-wide OnceLock/LazyLock singletons with
// explicit, owned construction (spec §9 Design Notes).
// Usage: New builds and wires everything without starting it; Run starts the
// Observer and the Actor, blocks until ctx is done, then calls Stop.
// Notes: Construction order follows the two-phase dependency chain each
// layer's own package doc explains: Actor before Animation Engine, Actor
// before Observer Pipeline.

package core

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/marcosmoura/stache/internal/animation"
	"github.com/marcosmoura/stache/internal/eventbus"
	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/observer"
	"github.com/marcosmoura/stache/internal/rules"
	"github.com/marcosmoura/stache/internal/screenreg"
	"github.com/marcosmoura/stache/internal/wininv"
	"github.com/marcosmoura/stache/internal/wm"
	"github.com/marcosmoura/stache/internal/wmconfig"
)

// Backends bundles the three platform surfaces Core needs; a real daemon
// supplies macOS Accessibility/Core Graphics implementations, tests and
// other platforms supply fakes.
type Backends struct {
	Screen   screenreg.Backend
	Window   wininv.Backend
	Observer observer.Backend
	// DisplayTicker, if non-nil, drives the Animation Engine from a
	// display-link-like primary source instead of a sleep-based fallback.
	DisplayTicker func(tick func() bool) (stop func(), ok bool)
	// MaxRefreshHz overrides the Animation Engine's fallback frame rate
	// source; nil defaults to the Screen Registry's MaxRefreshRate.
	MaxRefreshHz func() uint32
}

// Core owns every subsystem for one running instance.
type Core struct {
	Bus        *eventbus.Bus
	ScreenReg  *screenreg.Registry
	Inventory  *wininv.Inventory
	Actor      *wm.Actor
	Animation  *animation.Engine
	Observer   *observer.Pipeline
	Config     *wmconfig.Watcher
}

func toWMConfig(cfg wmconfig.Config) wm.Config {
	out := wm.Config{
		Gaps:        cfg.Gaps,
		IgnoreRules: cfg.Ignore,
		Presets:     make(map[string]wm.Preset, len(cfg.Presets)),
	}
	for name, p := range cfg.Presets {
		out.Presets[name] = wm.Preset{
			// The config spells percentages as 0..100; wm.Preset takes fractions.
			Name: name, WidthPct: p.WidthPct / 100, HeightPct: p.HeightPct / 100,
			WidthPx: p.WidthPx, HeightPx: p.HeightPx, X: p.X, Y: p.Y, Center: p.Center,
		}
	}
	for _, ws := range cfg.Workspaces {
		variant, _ := model.ParseLayoutVariant(ws.Layout)
		wsRules := make([]rules.Rule, len(ws.Rules))
		for i, r := range ws.Rules {
			wsRules[i] = rules.Rule{AppBundleID: r.AppBundleID, AppName: r.AppName, Title: r.Title}
		}
		out.Workspaces = append(out.Workspaces, wm.WorkspaceConfig{
			Name: ws.Name, ScreenID: ws.ScreenID, LayoutVariant: variant,
			Rules: wsRules, PresetOnOpen: ws.PresetOnOpen,
		})
	}
	return out
}

func toAnimationSettings(cfg wmconfig.AnimationSpec) animation.Settings {
	easing, _ := animation.ParseEasing(cfg.Easing)
	return animation.Settings{
		Enabled:  cfg.Enabled,
		Duration: time.Duration(cfg.DurationMs) * time.Millisecond,
		Easing:   easing,
	}
}

// New constructs every subsystem, wired but not yet running. A window
// backend that reports wininv.ErrPermissionDenied from ListAllWindows puts
// the Actor into degraded mode rather than failing construction outright.
func New(backends Backends, cfg wmconfig.Config) (*Core, error) {
	bus := eventbus.New()

	screenReg, err := screenreg.New(backends.Screen)
	if err != nil {
		return nil, err
	}

	inv := wininv.New(backends.Window)

	degraded := false
	if _, err := inv.ListAll(); errors.Is(err, wininv.ErrPermissionDenied) {
		log.Print("core: accessibility permission denied, running in degraded mode")
		degraded = true
	}

	actor := wm.New(toWMConfig(cfg), screenReg.Screens(), inv, screenReg, bus, degraded)

	maxHz := backends.MaxRefreshHz
	if maxHz == nil {
		maxHz = screenReg.MaxRefreshRate
	}

	obs := observer.New(actor, backends.Observer)
	actor.SetObserver(obs)

	engine := animation.NewEngine(actor.Applier(), obs, maxHz, backends.DisplayTicker)
	engine.SetSettings(toAnimationSettings(cfg.Animation))
	actor.SetAnimationEngine(engine)

	screenReg.Subscribe(func() {
		select {
		case actor.Commands() <- wm.ScreensChanged{}:
		default:
			log.Print("core: actor command queue full, dropped ScreensChanged")
		}
	})

	return &Core{
		Bus:       bus,
		ScreenReg: screenReg,
		Inventory: inv,
		Actor:     actor,
		Animation: engine,
		Observer:  obs,
	}, nil
}

// Run starts the Observer Pipeline and the Actor's run loop, blocks until
// ctx is done, then stops both.
func (c *Core) Run(ctx context.Context) {
	if ok := c.Observer.Start(); !ok {
		log.Print("core: observer backend unavailable, running without live OS events")
	}
	go c.Actor.Run()

	<-ctx.Done()
	c.Stop()
}

// Stop tears down the Observer and Actor. Safe to call once.
func (c *Core) Stop() {
	c.Observer.Stop()
	c.Actor.Stop()
}

// WatchConfig starts hot-reload: on a settled config-file change, reload
// is invoked with the freshly-parsed configuration. Returns false if no
// config directory could be resolved.
func (c *Core) WatchConfig(reload func(wmconfig.Config)) bool {
	w, ok := wmconfig.Watch(func() {
		cfg, err := wmconfig.Load()
		if err != nil {
			log.Printf("core: config reload failed, keeping previous config: %v", err)
			return
		}
		reload(cfg)
	})
	if !ok {
		return false
	}
	c.Config = w
	return true
}
