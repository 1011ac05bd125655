// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/wininv/wininv.go
// Summary: Window Inventory (L2): enumerates system windows and resolves
// per-window handles for manipulation, behind a short-lived handle cache.
// Usage: internal/core calls ListAll once at startup only to detect a
// permission failure; the Actor does not enumerate existing windows and
// learns of windows only through WindowCreated. SetFrame/Focus/HideApp/
// UnhideApp/Close are called as a direct effect of Actor decisions.
// Notes: Contract and failure taxonomy grounded on original_source's
// tiling/window/ax_cache.rs. The Rust cache retains/releases a CFTypeRef per
// entry; Go has no such ownership model, so Handle here is a plain value
// (platform code is expected to wrap its own native reference inside it)
// and the cache purely tracks TTL/capacity/pid bookkeeping without
// refcounting. When full, it evicts the entries cached longest ago; a cache
// hit does not refresh an entry's position, so eviction is not LRU.

package wininv

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marcosmoura/stache/internal/model"
)

const (
	cacheTTL      = 30 * time.Second
	cacheCapacity = 256
	evictBatch    = cacheCapacity / 4
)

// ErrWindowNotFound is returned when a window id is unknown or its handle
// has gone stale (equivalent of an invalid/stale AX element).
var ErrWindowNotFound = errors.New("wininv: window not found")

// ErrPermissionDenied indicates the inventory has no Accessibility-equivalent
// authorisation; callers should fall back to a read-only degraded mode.
var ErrPermissionDenied = errors.New("wininv: permission denied")

// AxError wraps a numeric failure code from the underlying window API.
type AxError struct {
	Code int
}

func (e *AxError) Error() string { return fmt.Sprintf("wininv: ax error %d", e.Code) }

// Handle is an opaque per-window manipulation capability the Backend
// resolves and the cache stores; its concrete type is backend-specific.
type Handle any

// Backend is the platform surface the inventory drives. It never caches
// anything itself; all caching is the Inventory's job.
type Backend interface {
	ListAllWindows() ([]model.Window, error)
	GetWindow(id model.WindowID) (model.Window, error)
	// ResolveHandle finds the best manipulation handle for id, owned by pid,
	// by (a) getting the app-level handle from pid, (b) enumerating that
	// app's windows, (c) picking the best match by exact title, then
	// title-minus-browser-suffix fuzzy match, then frame Manhattan distance.
	ResolveHandle(id model.WindowID, pid int32) (Handle, error)
	SetFrame(handle Handle, frame model.Rect) error
	Focus(handle Handle) error
	HideApp(pid int32) error
	UnhideApp(pid int32) error
	Close(handle Handle) error
}

type cacheEntry struct {
	handle   Handle
	pid      int32
	cachedAt time.Time
}

func (e cacheEntry) valid() bool { return time.Since(e.cachedAt) < cacheTTL }

// Inventory resolves and caches window handles on top of a Backend.
type Inventory struct {
	backend Backend

	mu      sync.Mutex
	entries map[model.WindowID]cacheEntry
}

// New constructs an Inventory over backend.
func New(backend Backend) *Inventory {
	return &Inventory{backend: backend, entries: make(map[model.WindowID]cacheEntry)}
}

// ListAll returns every manageable window the backend exposes, hidden ones included.
func (inv *Inventory) ListAll() ([]model.Window, error) {
	return inv.backend.ListAllWindows()
}

// Get returns a single window's current attributes.
func (inv *Inventory) Get(id model.WindowID) (model.Window, error) {
	w, err := inv.backend.GetWindow(id)
	if err != nil {
		return model.Window{}, ErrWindowNotFound
	}
	return w, nil
}

// handleFor resolves id's manipulation handle, serving from cache when valid.
func (inv *Inventory) handleFor(id model.WindowID, pid int32) (Handle, error) {
	inv.mu.Lock()
	if entry, ok := inv.entries[id]; ok && entry.valid() {
		inv.mu.Unlock()
		return entry.handle, nil
	}
	inv.mu.Unlock()

	handle, err := inv.backend.ResolveHandle(id, pid)
	if err != nil {
		return nil, ErrWindowNotFound
	}
	inv.insert(id, pid, handle)
	return handle, nil
}

func (inv *Inventory) insert(id model.WindowID, pid int32, handle Handle) {
	inv.mu.Lock()
	defer inv.mu.Unlock()

	if len(inv.entries) >= cacheCapacity {
		inv.cleanupExpiredLocked()
	}
	if len(inv.entries) >= cacheCapacity {
		inv.evictOldestLocked(evictBatch)
	}
	inv.entries[id] = cacheEntry{handle: handle, pid: pid, cachedAt: time.Now()}
}

func (inv *Inventory) cleanupExpiredLocked() {
	for id, e := range inv.entries {
		if !e.valid() {
			delete(inv.entries, id)
		}
	}
}

func (inv *Inventory) evictOldestLocked(count int) {
	if len(inv.entries) == 0 {
		return
	}
	type aged struct {
		id  model.WindowID
		at  time.Time
	}
	all := make([]aged, 0, len(inv.entries))
	for id, e := range inv.entries {
		all = append(all, aged{id: id, at: e.cachedAt})
	}
	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[j].at.Before(all[i].at) {
				all[i], all[j] = all[j], all[i]
			}
		}
	}
	for i := 0; i < count && i < len(all); i++ {
		delete(inv.entries, all[i].id)
	}
}

// PurgePID drops every cached handle belonging to pid, called on app-terminate.
func (inv *Inventory) PurgePID(pid int32) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for id, e := range inv.entries {
		if e.pid == pid {
			delete(inv.entries, id)
		}
	}
}

// SetFrame moves and resizes a window atomically relative to the backend.
func (inv *Inventory) SetFrame(id model.WindowID, pid int32, frame model.Rect) error {
	handle, err := inv.handleFor(id, pid)
	if err != nil {
		return err
	}
	return inv.backend.SetFrame(handle, frame)
}

// Focus raises id and gives it keyboard focus.
func (inv *Inventory) Focus(id model.WindowID, pid int32) error {
	handle, err := inv.handleFor(id, pid)
	if err != nil {
		return err
	}
	return inv.backend.Focus(handle)
}

// HideApp hides every window owned by pid in one call.
func (inv *Inventory) HideApp(pid int32) error {
	return inv.backend.HideApp(pid)
}

// UnhideApp shows every window owned by pid in one call.
func (inv *Inventory) UnhideApp(pid int32) error {
	return inv.backend.UnhideApp(pid)
}

// Close requests id to close, equivalent to its close affordance.
func (inv *Inventory) Close(id model.WindowID, pid int32) error {
	handle, err := inv.handleFor(id, pid)
	if err != nil {
		return err
	}
	return inv.backend.Close(handle)
}
