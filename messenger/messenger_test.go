package messenger_test

import (
	"testing"

	"github.com/mateusmp/bitengine/messenger"
	"github.com/stretchr/testify/assert"
)

type ping struct{ N int }
type pong struct{ N int }

func TestEmitDeliversByType(t *testing.T) {
	m := messenger.New()
	var pings, pongs []int
	messenger.Subscribe(m, func(p ping) { pings = append(pings, p.N) })
	messenger.Subscribe(m, func(p pong) { pongs = append(pongs, p.N) })

	messenger.Emit(m, ping{1})
	messenger.Emit(m, pong{2})
	messenger.Emit(m, ping{3})

	assert.Equal(t, []int{1, 3}, pings)
	assert.Equal(t, []int{2}, pongs)
	assert.Equal(t, 2, m.Len())
}

func TestEmitOrder(t *testing.T) {
	m := messenger.New()
	var order []string
	messenger.Subscribe(m, func(ping) { order = append(order, "a") })
	messenger.Subscribe(m, func(ping) { order = append(order, "b") })
	messenger.Subscribe(m, func(ping) { order = append(order, "c") })

	messenger.Emit(m, ping{})
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSubscriptionClose(t *testing.T) {
	m := messenger.New()
	calls := 0
	sub := messenger.Subscribe(m, func(ping) { calls++ })
	assert.True(t, sub.Active())
	assert.True(t, messenger.HasSubscribers[ping](m))

	messenger.Emit(m, ping{})
	sub.Close()
	sub.Close()
	messenger.Emit(m, ping{})

	assert.Equal(t, 1, calls)
	assert.False(t, sub.Active())
	assert.False(t, messenger.HasSubscribers[ping](m))
	assert.Equal(t, 0, m.Len())
}

func TestSubscribeDuringEmit(t *testing.T) {
	m := messenger.New()
	late := 0
	messenger.Subscribe(m, func(ping) {
		messenger.Subscribe(m, func(ping) { late++ })
	})

	messenger.Emit(m, ping{})
	assert.Equal(t, 0, late, "handlers added during delivery wait for the next message")

	messenger.Emit(m, ping{})
	assert.Equal(t, 1, late)
}

func TestUnsubscribeDuringEmit(t *testing.T) {
	m := messenger.New()
	var second *messenger.Subscription
	calls := 0
	messenger.Subscribe(m, func(ping) { second.Close() })
	second = messenger.Subscribe(m, func(ping) { calls++ })

	messenger.Emit(m, ping{})
	assert.Equal(t, 0, calls, "handlers removed during delivery are not called")
	assert.False(t, messenger.HasSubscribers[pong](m))
	assert.Equal(t, 1, m.Len())
}

func TestNestedEmit(t *testing.T) {
	m := messenger.New()
	var got []string
	messenger.Subscribe(m, func(p ping) {
		got = append(got, "ping")
		messenger.Emit(m, pong{p.N})
	})
	messenger.Subscribe(m, func(pong) { got = append(got, "pong") })

	messenger.Emit(m, ping{})
	assert.Equal(t, []string{"ping", "pong"}, got)
}

func TestNilMessenger(t *testing.T) {
	assert.NotPanics(t, func() { messenger.Emit[ping](nil, ping{}) })
	assert.False(t, messenger.HasSubscribers[ping](nil))

	var sub *messenger.Subscription
	assert.NotPanics(t, sub.Close)
	assert.False(t, sub.Active())
}

func TestScope(t *testing.T) {
	m := messenger.New()
	var scope messenger.Scope
	calls := 0
	scope.Add(messenger.Subscribe(m, func(ping) { calls++ }))
	scope.Add(messenger.Subscribe(m, func(pong) { calls++ }))
	assert.Equal(t, 2, scope.Len())

	messenger.Emit(m, ping{})
	scope.Close()
	messenger.Emit(m, ping{})
	messenger.Emit(m, pong{})

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, scope.Len())
	assert.Equal(t, 0, m.Len())
}
