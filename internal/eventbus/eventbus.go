// Copyright © 2025 Stache contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: internal/eventbus/eventbus.go
// Summary: Named pub/sub bus used by components that must notify observers
// without holding a direct reference to them.
// Usage: Publishers call Publish(topic, payload); subscribers register with
// Subscribe and are invoked synchronously, off whatever goroutine published.
// Notes: Generalised from texel/dispatcher.go's EventDispatcher/Listener,
// replacing its fixed EventType enum with free-form topic strings namespaced
// as "stache://<module>/<event-name>" so any subsystem can mint its own.

package eventbus

import "sync"

// Event is a single published message: a namespaced topic and an arbitrary payload.
type Event struct {
	Topic   string
	Payload any
}

// Topic builds a "stache://<module>/<name>" topic string.
func Topic(module, name string) string {
	return "stache://" + module + "/" + name
}

// Listener receives events for topics it subscribed to.
type Listener interface {
	OnEvent(event Event)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(event Event)

func (f ListenerFunc) OnEvent(event Event) { f(event) }

// Subscription identifies a single Subscribe call so it can be revoked later;
// listeners are not required to be comparable (func values aren't), so the
// bus hands back an opaque token instead of matching by identity.
type Subscription struct {
	topic string
	id    uint64
}

type subEntry struct {
	id       uint64
	listener Listener
}

// Bus dispatches named events to subscribed listeners. Safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]subEntry
	nextID    uint64
}

// New constructs an empty Bus.
func New() *Bus {
	return &Bus{listeners: make(map[string][]subEntry)}
}

// Subscribe registers listener to receive every event published on topic.
func (b *Bus) Subscribe(topic string, listener Listener) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.listeners[topic] = append(b.listeners[topic], subEntry{id: id, listener: listener})
	return Subscription{topic: topic, id: id}
}

// Unsubscribe revokes a prior Subscribe call.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.listeners[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			b.listeners[sub.topic] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// Publish broadcasts payload to every listener subscribed to topic. Listeners
// run synchronously on the publisher's goroutine; a listener that needs to
// mutate Actor state must post a message rather than act directly.
func (b *Bus) Publish(topic string, payload any) {
	b.mu.RLock()
	entries := append([]subEntry(nil), b.listeners[topic]...)
	b.mu.RUnlock()

	event := Event{Topic: topic, Payload: payload}
	for _, e := range entries {
		e.listener.OnEvent(event)
	}
}
