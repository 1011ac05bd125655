// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/eventbus/eventbus_test.go

package eventbus

import "testing"

func TestTopicNamespacing(t *testing.T) {
	if got := Topic("screenreg", "changed"); got != "stache://screenreg/changed" {
		t.Fatalf("unexpected topic: %s", got)
	}
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	b := New()
	var received []any
	b.Subscribe("stache://wm/focus-changed", ListenerFunc(func(e Event) {
		received = append(received, e.Payload)
	}))

	b.Publish("stache://wm/focus-changed", 42)

	if len(received) != 1 || received[0] != 42 {
		t.Fatalf("expected one delivery of 42, got %v", received)
	}
}

func TestPublishIgnoresOtherTopics(t *testing.T) {
	b := New()
	called := false
	b.Subscribe("stache://wm/a", ListenerFunc(func(Event) { called = true }))

	b.Publish("stache://wm/b", nil)

	if called {
		t.Fatal("listener for topic a should not receive topic b's events")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub := b.Subscribe("stache://wm/x", ListenerFunc(func(Event) { count++ }))

	b.Publish("stache://wm/x", nil)
	b.Unsubscribe(sub)
	b.Publish("stache://wm/x", nil)

	if count != 1 {
		t.Fatalf("expected exactly one delivery before unsubscribe, got %d", count)
	}
}

func TestMultipleListenersAllReceive(t *testing.T) {
	b := New()
	var a, c int
	b.Subscribe("stache://wm/y", ListenerFunc(func(Event) { a++ }))
	b.Subscribe("stache://wm/y", ListenerFunc(func(Event) { c++ }))

	b.Publish("stache://wm/y", nil)

	if a != 1 || c != 1 {
		t.Fatalf("expected both listeners invoked once, got a=%d c=%d", a, c)
	}
}
