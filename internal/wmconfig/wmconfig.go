// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/wmconfig/wmconfig.go
// Summary: Loads and hot-reloads the tiling configuration file.
// Usage: Load reads ~/.config/stache/config.json (or the XDG config dir's
// equivalent), filling in defaults for anything missing; Watch arranges for
// onChange to be called, debounced, whenever the file is rewritten.
// Notes: The load-with-defaults flow is carried over from the teacher's
// config/store.go and config/types.go; those files depended on a core map
// type this retrieval pack never included, so the schema here is a fresh,
// typed Config read through struct fields rather than a generic map with
// typed getters. The file is parsed with encoding/json as-is; comments in
// it are not accepted. The fsnotify watch loop is grounded on DimaJoyti-AIOS's
// pkg/mcp/resources/watcher.go (select over Events/Errors/stop channel).

package wmconfig

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marcosmoura/stache/internal/model"
	"github.com/marcosmoura/stache/internal/rules"
)

// debounceDelay coalesces the burst of fsnotify events a single editor save
// produces (typically a RENAME+CREATE pair) into one reload.
const debounceDelay = 200 * time.Millisecond

// WorkspaceSpec is one workspace's declarative configuration.
type WorkspaceSpec struct {
	Name          string         `json:"name"`
	ScreenID      string         `json:"screenId,omitempty"`
	Layout        string         `json:"layout"`
	PresetOnOpen  string         `json:"presetOnOpen,omitempty"`
	Rules         []RuleSpec     `json:"rules,omitempty"`
}

// RuleSpec is the JSON spelling of rules.Rule.
type RuleSpec struct {
	AppBundleID string `json:"appBundleId,omitempty"`
	AppName     string `json:"appName,omitempty"`
	Title       string `json:"title,omitempty"`
}

func (r RuleSpec) toRule() rules.Rule {
	return rules.Rule{AppBundleID: r.AppBundleID, AppName: r.AppName, Title: r.Title}
}

// PresetSpec is the JSON spelling of a named floating-window placement.
type PresetSpec struct {
	WidthPct  float64 `json:"widthPct,omitempty"`
	HeightPct float64 `json:"heightPct,omitempty"`
	WidthPx   int32   `json:"widthPx,omitempty"`
	HeightPx  int32   `json:"heightPx,omitempty"`
	X         int32   `json:"x,omitempty"`
	Y         int32   `json:"y,omitempty"`
	Center    bool    `json:"center,omitempty"`
}

// GapsSpec mirrors model.Gaps in JSON.
type GapsSpec struct {
	InnerH      float64 `json:"innerH"`
	InnerV      float64 `json:"innerV"`
	OuterTop    float64 `json:"outerTop"`
	OuterRight  float64 `json:"outerRight"`
	OuterBottom float64 `json:"outerBottom"`
	OuterLeft   float64 `json:"outerLeft"`
}

func (g GapsSpec) toGaps() model.Gaps {
	return model.Gaps{
		InnerH: g.InnerH, InnerV: g.InnerV,
		OuterTop: g.OuterTop, OuterRight: g.OuterRight,
		OuterBottom: g.OuterBottom, OuterLeft: g.OuterLeft,
	}
}

// AnimationSpec controls the Animation Engine's default settings.
type AnimationSpec struct {
	Enabled    bool   `json:"enabled"`
	DurationMs int    `json:"durationMs"`
	Easing     string `json:"easing"`
}

// MasterSpec controls the master layout's knobs.
type MasterSpec struct {
	Ratio    int    `json:"ratio"`
	Position string `json:"position"`
}

// File is the on-disk JSON schema, deserialised as-is before being resolved
// into a Config (rules compiled, layout variants parsed, gaps converted).
type File struct {
	Gaps       GapsSpec                `json:"gaps"`
	Animation  AnimationSpec           `json:"animation"`
	Master     MasterSpec              `json:"master"`
	Ignore     []RuleSpec              `json:"ignore,omitempty"`
	Workspaces []WorkspaceSpec         `json:"workspaces"`
	Presets    map[string]PresetSpec   `json:"presets,omitempty"`
}

// Config is the resolved, ready-to-wire configuration.
type Config struct {
	Gaps       model.Gaps
	Animation  AnimationSpec
	Master     MasterSpec
	Ignore     []rules.Rule
	Workspaces []WorkspaceSpec
	Presets    map[string]PresetSpec
}

// Default returns a minimal single-workspace configuration, used when no
// config file exists yet and as the base any partial file is merged onto.
func Default() Config {
	return Config{
		Gaps:      model.Gaps{InnerH: 8, InnerV: 8, OuterTop: 8, OuterRight: 8, OuterBottom: 8, OuterLeft: 8},
		Animation: AnimationSpec{Enabled: true, DurationMs: 200, Easing: "ease-in-out"},
		Master:    MasterSpec{Ratio: 60, Position: "auto"},
		Workspaces: []WorkspaceSpec{
			{Name: "main", Layout: "dwindle"},
		},
		Presets: map[string]PresetSpec{
			"center-80": {WidthPct: 80, HeightPct: 80, Center: true},
		},
	}
}

func resolve(f File) Config {
	cfg := Default()
	cfg.Gaps = f.Gaps.toGaps()
	if f.Animation.DurationMs != 0 || f.Animation.Easing != "" {
		cfg.Animation = f.Animation
	}
	if f.Master.Ratio != 0 || f.Master.Position != "" {
		cfg.Master = f.Master
	}
	if len(f.Workspaces) > 0 {
		cfg.Workspaces = f.Workspaces
	}
	if f.Presets != nil {
		cfg.Presets = f.Presets
	}
	cfg.Ignore = make([]rules.Rule, len(f.Ignore))
	for i, r := range f.Ignore {
		cfg.Ignore[i] = r.toRule()
	}
	return cfg
}

// ConfigDir returns ~/.config/stache (or the platform XDG equivalent).
func ConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "stache"), nil
}

// Path returns the full path to the main config file.
func Path() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config file at Path, falling back to Default when the file
// is absent. A malformed file is a hard error: callers should keep whatever
// config they already have rather than wire in a half-parsed one.
func Load() (Config, error) {
	path, err := Path()
	if err != nil {
		log.Printf("wmconfig: no config dir available, using defaults: %v", err)
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("wmconfig: no config file at %s, using defaults", path)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("wmconfig: read %s: %w", path, err)
	}

	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return Config{}, fmt.Errorf("wmconfig: parse %s: %w", path, err)
	}
	log.Printf("wmconfig: loaded from %s", path)
	return resolve(f), nil
}

// Watcher observes the config file and invokes a callback, debounced, after
// it settles. The callback decides what to do with the change (stached calls
// Load() and reports the result); Watcher carries no config state itself.
type Watcher struct {
	fsw  *fsnotify.Watcher
	stop chan struct{}
	once sync.Once
}

// Watch starts observing the config directory (not just the file: editors
// commonly replace-by-rename, which removes the original inode fsnotify was
// watching) and calls onChange after debounceDelay of quiet following the
// last relevant event. Returns nil, false if no config directory is
// resolvable; the caller should proceed without hot-reload.
func Watch(onChange func()) (*Watcher, bool) {
	dir, err := ConfigDir()
	if err != nil {
		log.Printf("wmconfig: cannot watch, no config dir: %v", err)
		return nil, false
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("wmconfig: cannot create config dir %s: %v", dir, err)
		return nil, false
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("wmconfig: cannot start watcher: %v", err)
		return nil, false
	}
	if err := fsw.Add(dir); err != nil {
		log.Printf("wmconfig: cannot watch %s: %v", dir, err)
		_ = fsw.Close()
		return nil, false
	}

	w := &Watcher{fsw: fsw, stop: make(chan struct{})}
	go w.loop(onChange)
	return w, true
}

func (w *Watcher) loop(onChange func()) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != "config.json" {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(debounceDelay)
			timerC = timer.C

		case <-timerC:
			timerC = nil
			if onChange != nil {
				onChange()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("wmconfig: watch error: %v", err)

		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// Close stops the watcher. Safe to call more than once.
func (w *Watcher) Close() {
	if w == nil {
		return
	}
	w.once.Do(func() {
		close(w.stop)
		_ = w.fsw.Close()
	})
}
