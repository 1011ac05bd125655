// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/screenreg/screenreg_test.go

package screenreg

import (
	"errors"
	"testing"

	"github.com/marcosmoura/stache/internal/model"
)

type fakeBackend struct {
	displays    []DisplayInfo
	err         error
	subscribeOK bool
	onChange    func()
}

func (f *fakeBackend) ConnectedDisplays() ([]DisplayInfo, error) {
	return f.displays, f.err
}

func (f *fakeBackend) Subscribe(onChange func()) bool {
	f.onChange = onChange
	return f.subscribeOK
}

func twoDisplays() []DisplayInfo {
	return []DisplayInfo{
		{NativeID: "2", Name: "Side", IsMain: false, Frame: model.Rect{W: 1080, H: 1920}, RefreshRateHz: 60},
		{NativeID: "1", Name: "Main", IsMain: true, Frame: model.Rect{W: 1920, H: 1080}, RefreshRateHz: 120},
	}
}

func TestEnumerateSortsMainFirst(t *testing.T) {
	backend := &fakeBackend{displays: twoDisplays()}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	screens := reg.Screens()
	if len(screens) != 2 {
		t.Fatalf("expected 2 screens, got %d", len(screens))
	}
	if !screens[0].IsMain {
		t.Fatalf("expected main display first, got %+v", screens[0])
	}
}

func TestEnumerateFallsBackToDefaultRefreshRate(t *testing.T) {
	backend := &fakeBackend{displays: []DisplayInfo{{NativeID: "1", IsMain: true}}}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := reg.Screens()[0].RefreshRateHz; got != DefaultRefreshRateHz {
		t.Fatalf("expected default refresh rate, got %d", got)
	}
}

func TestMaxRefreshRateAcrossScreens(t *testing.T) {
	backend := &fakeBackend{displays: twoDisplays()}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := reg.MaxRefreshRate(); got != 120 {
		t.Fatalf("expected 120, got %d", got)
	}
}

func TestMaxRefreshRateFallsBackWhenEmpty(t *testing.T) {
	backend := &fakeBackend{displays: nil}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := reg.MaxRefreshRate(); got != DefaultRefreshRateHz {
		t.Fatalf("expected default, got %d", got)
	}
}

func TestEnumerateSurfacesBackendError(t *testing.T) {
	backend := &fakeBackend{err: errors.New("boom")}
	_, err := New(backend)
	if err == nil {
		t.Fatal("expected enumeration failure to surface")
	}
}

func TestScreenIDStableAcrossEnumerations(t *testing.T) {
	backend := &fakeBackend{displays: twoDisplays()}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstID := reg.Screens()[0].ID

	if _, err := reg.Enumerate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	secondID := reg.Screens()[0].ID

	if firstID != secondID {
		t.Fatalf("expected stable screen id, got %s then %s", firstID, secondID)
	}
}

func TestSubscribeForwardsToBackend(t *testing.T) {
	backend := &fakeBackend{displays: twoDisplays(), subscribeOK: true}
	reg, err := New(backend)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	ok := reg.Subscribe(func() { called = true })
	if !ok {
		t.Fatal("expected subscribe to report success")
	}
	backend.onChange()
	if !called {
		t.Fatal("expected onChange to be invoked")
	}
}
