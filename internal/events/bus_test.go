package events

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMsg string

func TestSubscription_ReleaseIsIdempotent(t *testing.T) {
	b := NewBus()
	sub := b.OnKey(func(tea.KeyMsg) (tea.Cmd, bool) { return nil, true })
	other := b.OnKey(func(tea.KeyMsg) (tea.Cmd, bool) { return nil, true })
	require.Equal(t, 2, b.Counts().Key)

	sub.Release()
	sub.Release()
	assert.Equal(t, 1, b.Counts().Key, "second release must not remove another listener")

	other.Release()
	assert.Zero(t, b.Counts().Total())

	var nilSub *Subscription
	assert.NotPanics(t, nilSub.Release)
}

func TestDispatchKey_FirstConsumerWins(t *testing.T) {
	b := NewBus()
	var calls []string

	b.OnKey(func(tea.KeyMsg) (tea.Cmd, bool) {
		calls = append(calls, "first")
		return nil, false
	})
	b.OnKey(func(tea.KeyMsg) (tea.Cmd, bool) {
		calls = append(calls, "second")
		return func() tea.Msg { return testMsg("second") }, true
	})
	b.OnKey(func(tea.KeyMsg) (tea.Cmd, bool) {
		calls = append(calls, "third")
		return nil, true
	})

	cmd, ok := b.DispatchKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, ok)
	require.NotNil(t, cmd)
	assert.Equal(t, testMsg("second"), cmd())
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatchKey_NoListeners(t *testing.T) {
	cmd, ok := NewBus().DispatchKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, ok)
	assert.Nil(t, cmd)
}

func TestDispatchPointer_RoutesByAction(t *testing.T) {
	b := NewBus()
	var moves, ups int

	b.OnPointerMove(func(tea.MouseMsg) tea.Cmd { moves++; return nil })
	var up *Subscription
	up = b.OnPointerUp(func(tea.MouseMsg) tea.Cmd {
		ups++
		up.Release()
		return nil
	})

	_, ok := b.DispatchPointer(tea.MouseMsg{Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	assert.True(t, ok)
	_, ok = b.DispatchPointer(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.True(t, ok)
	_, ok = b.DispatchPointer(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	assert.False(t, ok, "up listener released itself")
	_, ok = b.DispatchPointer(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.False(t, ok, "presses are not routed")

	assert.Equal(t, 1, moves)
	assert.Equal(t, 1, ups)
	assert.Equal(t, Counts{PointerMove: 1}, b.Counts())
}
