// Package events keeps the program-wide key and pointer listeners of an open
// editor session. Each registration returns a Subscription that deregisters
// exactly once no matter how often it is released.
package events

import (
	"slices"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyHandler returns the command for a key and whether it consumed the key.
type KeyHandler func(tea.KeyMsg) (tea.Cmd, bool)

type PointerHandler func(tea.MouseMsg) tea.Cmd

type kind int

const (
	kindKey kind = iota
	kindMove
	kindUp
)

type listener struct {
	id      uint64
	kind    kind
	key     KeyHandler
	pointer PointerHandler
}

// Bus is safe for use from the program loop and from tests; dispatch works on
// a snapshot so handlers may release their own subscription.
type Bus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners []listener
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscription is the handle of one registration.
type Subscription struct {
	once    sync.Once
	release func()
}

// Release deregisters the listener. Calls after the first are no-ops, as are
// calls on a nil Subscription.
func (s *Subscription) Release() {
	if s == nil {
		return
	}
	s.once.Do(s.release)
}

func (b *Bus) OnKey(h KeyHandler) *Subscription {
	return b.add(listener{kind: kindKey, key: h})
}

func (b *Bus) OnPointerMove(h PointerHandler) *Subscription {
	return b.add(listener{kind: kindMove, pointer: h})
}

func (b *Bus) OnPointerUp(h PointerHandler) *Subscription {
	return b.add(listener{kind: kindUp, pointer: h})
}

func (b *Bus) add(l listener) *Subscription {
	b.mu.Lock()
	b.nextID++
	l.id = b.nextID
	b.listeners = append(b.listeners, l)
	b.mu.Unlock()

	id := l.id
	return &Subscription{release: func() { b.remove(id) }}
}

func (b *Bus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = slices.DeleteFunc(b.listeners, func(l listener) bool { return l.id == id })
}

func (b *Bus) snapshot(k kind) []listener {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]listener, 0, len(b.listeners))
	for _, l := range b.listeners {
		if l.kind == k {
			out = append(out, l)
		}
	}
	return out
}

// DispatchKey offers the key to key listeners in registration order and
// stops at the first that consumes it.
func (b *Bus) DispatchKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	for _, l := range b.snapshot(kindKey) {
		if cmd, ok := l.key(msg); ok {
			return cmd, true
		}
	}
	return nil, false
}

// DispatchPointer routes motion to move listeners and releases to up
// listeners. It reports whether any listener saw the event.
func (b *Bus) DispatchPointer(msg tea.MouseMsg) (tea.Cmd, bool) {
	var k kind
	switch msg.Action {
	case tea.MouseActionMotion:
		k = kindMove
	case tea.MouseActionRelease:
		k = kindUp
	default:
		return nil, false
	}

	ls := b.snapshot(k)
	if len(ls) == 0 {
		return nil, false
	}

	cmds := make([]tea.Cmd, 0, len(ls))
	for _, l := range ls {
		cmds = append(cmds, l.pointer(msg))
	}
	return tea.Batch(cmds...), true
}

// Counts reports live key, pointer-move and pointer-up registrations.
type Counts struct {
	Key         int
	PointerMove int
	PointerUp   int
}

func (c Counts) Total() int {
	return c.Key + c.PointerMove + c.PointerUp
}

func (b *Bus) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	var c Counts
	for _, l := range b.listeners {
		switch l.kind {
		case kindKey:
			c.Key++
		case kindMove:
			c.PointerMove++
		case kindUp:
			c.PointerUp++
		}
	}
	return c
}
