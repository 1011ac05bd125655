// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/screenreg/screenreg.go
// Summary: Screen Registry (L1): enumerates physical displays and their
// usable frames, and reports the maximum refresh rate for animation timing.
// Usage: The Actor calls Enumerate at init and whenever Subscribe's callback
// posts a ScreensChanged message; the Animation Engine's fallback loop calls
// MaxRefreshRate to size its sleep interval.
// Notes: Contract grounded on original_source's tiling/screen/info.rs
// (get_all_screens, get_max_refresh_rate); the Core Graphics/NSScreen calls
// there are abstracted behind the Backend interface so this package stays
// platform-agnostic, mirroring the Handle abstraction used by the window
// inventory. Subscribe/notify idiom generalised from texel/dispatcher.go.

package screenreg

import (
	"sync"

	"github.com/google/uuid"

	"github.com/marcosmoura/stache/internal/model"
)

// DefaultRefreshRateHz is used when a display's rate cannot be determined.
const DefaultRefreshRateHz = 120

// Backend is the platform surface this package abstracts: one call to list
// connected displays with their geometry, in arbitrary order. The registry
// assigns stable opaque IDs and sorts main-first.
type Backend interface {
	// ConnectedDisplays returns one entry per connected display.
	ConnectedDisplays() ([]DisplayInfo, error)
	// Subscribe registers a callback invoked on display configuration
	// change (hotplug, resolution change, menu-bar/dock visibility). The
	// callback must not be called synchronously from within Subscribe.
	// Returns false if the backend has no way to observe changes.
	Subscribe(onChange func()) bool
}

// DisplayInfo is what a Backend reports for one physical display, before
// the registry assigns it a stable ID.
type DisplayInfo struct {
	NativeID      string
	Name          string
	IsMain        bool
	Frame         model.Rect
	UsableFrame   model.Rect
	RefreshRateHz uint32
}

// Registry enumerates and caches connected screens. Screen IDs are stable
// for the lifetime of a connected display (re-derived deterministically
// from the backend's native ID via uuid v5, so the same physical display
// keeps its ID across enumerate calls without the registry persisting state).
type Registry struct {
	backend Backend

	mu      sync.RWMutex
	screens []model.Screen
}

var idNamespace = uuid.MustParse("d27b9c1e-6e7c-4a0b-9f34-000000000001")

func deriveScreenID(nativeID string) string {
	return uuid.NewSHA1(idNamespace, []byte(nativeID)).String()
}

// New constructs a Registry backed by backend and performs an initial enumeration.
func New(backend Backend) (*Registry, error) {
	r := &Registry{backend: backend}
	if _, err := r.Enumerate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Enumerate returns all connected screens, main display first. Usable-frame
// reflects system-reserved zones (menu bar, dock) where the backend reports
// them. The result is cached for Screens/MaxRefreshRate until the next call.
func (r *Registry) Enumerate() ([]model.Screen, error) {
	infos, err := r.backend.ConnectedDisplays()
	if err != nil {
		return nil, err
	}

	screens := make([]model.Screen, len(infos))
	for i, info := range infos {
		rate := info.RefreshRateHz
		if rate == 0 {
			rate = DefaultRefreshRateHz
		}
		screens[i] = model.Screen{
			ID:            deriveScreenID(info.NativeID),
			Name:          info.Name,
			IsMain:        info.IsMain,
			Frame:         info.Frame,
			UsableFrame:   info.UsableFrame,
			RefreshRateHz: rate,
		}
	}
	sortMainFirst(screens)

	r.mu.Lock()
	r.screens = screens
	r.mu.Unlock()

	return screens, nil
}

func sortMainFirst(screens []model.Screen) {
	for i := 1; i < len(screens); i++ {
		if screens[i].IsMain {
			main := screens[i]
			copy(screens[1:i+1], screens[:i])
			screens[0] = main
			return
		}
	}
}

// Screens returns the last enumerated screen list without re-querying the backend.
func (r *Registry) Screens() []model.Screen {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Screen, len(r.screens))
	copy(out, r.screens)
	return out
}

// MaxRefreshRate returns the highest refresh rate across all cached screens,
// falling back to DefaultRefreshRateHz when none are known.
func (r *Registry) MaxRefreshRate() uint32 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var max uint32
	for _, s := range r.screens {
		if s.RefreshRateHz > max {
			max = s.RefreshRateHz
		}
	}
	if max == 0 {
		return DefaultRefreshRateHz
	}
	return max
}

// Subscribe arranges for onChange to be invoked whenever the display
// configuration changes. onChange must post a message to the Actor rather
// than mutate state directly; the Registry does not re-enumerate for the
// caller. Subscribe failures are downgraded: the registry keeps serving its
// last static snapshot and returns false so the caller can log it.
func (r *Registry) Subscribe(onChange func()) bool {
	return r.backend.Subscribe(onChange)
}
