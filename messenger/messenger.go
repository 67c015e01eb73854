// Package messenger provides synchronous, same-thread publish/subscribe keyed by message type.
//
// Emit calls every handler subscribed to the message's Go type, in subscription order, before it returns.
// Handlers may subscribe or unsubscribe while a message is being delivered: a handler added during delivery
// first sees the next message, a handler removed during delivery is not called again.
package messenger

import (
	"reflect"

	"github.com/kamstrup/intmap"
)

type handler struct {
	id uint64
	fn any
}

type handlerList struct {
	handlers []handler
	removed  int
}

// Messenger routes messages to subscribers. It is not safe for concurrent use.
type Messenger struct {
	lists    map[reflect.Type]*handlerList
	index    *intmap.Map[uint64, reflect.Type]
	nextID   uint64
	emitting int
}

// New creates an empty Messenger.
func New() *Messenger {
	return &Messenger{
		lists: make(map[reflect.Type]*handlerList),
		index: intmap.New[uint64, reflect.Type](64),
	}
}

// Subscribe registers fn for messages of type T. Close the returned subscription to stop receiving them.
func Subscribe[T any](m *Messenger, fn func(T)) *Subscription {
	t := reflect.TypeFor[T]()
	list, ok := m.lists[t]
	if !ok {
		list = &handlerList{handlers: make([]handler, 0, 4)}
		m.lists[t] = list
	}

	m.nextID++
	id := m.nextID
	list.handlers = append(list.handlers, handler{id: id, fn: fn})
	m.index.Put(id, t)
	return &Subscription{m: m, id: id}
}

// Emit delivers msg synchronously to every handler subscribed to T. A nil Messenger drops the message.
func Emit[T any](m *Messenger, msg T) {
	if m == nil {
		return
	}
	list, ok := m.lists[reflect.TypeFor[T]()]
	if !ok {
		return
	}

	m.emitting++
	n := len(list.handlers)
	for i := 0; i < n; i++ {
		fn := list.handlers[i].fn
		if fn == nil {
			continue
		}
		fn.(func(T))(msg)
	}
	m.emitting--

	if m.emitting == 0 {
		m.compact()
	}
}

// HasSubscribers reports whether any live handler listens for T.
func HasSubscribers[T any](m *Messenger) bool {
	if m == nil {
		return false
	}
	list, ok := m.lists[reflect.TypeFor[T]()]
	return ok && len(list.handlers)-list.removed > 0
}

// Len returns the number of live subscriptions across all message types.
func (m *Messenger) Len() int {
	return m.index.Len()
}

func (m *Messenger) unsubscribe(id uint64) bool {
	t, ok := m.index.Get(id)
	if !ok {
		return false
	}
	m.index.Del(id)

	list := m.lists[t]
	for i := range list.handlers {
		if list.handlers[i].id == id {
			list.handlers[i].fn = nil
			list.removed++
			break
		}
	}
	if m.emitting == 0 {
		m.compact()
	}
	return true
}

func (m *Messenger) compact() {
	for t, list := range m.lists {
		if list.removed == 0 {
			continue
		}
		kept := list.handlers[:0]
		for _, h := range list.handlers {
			if h.fn != nil {
				kept = append(kept, h)
			}
		}
		clear(list.handlers[len(kept):])
		list.handlers = kept
		list.removed = 0
		if len(kept) == 0 {
			delete(m.lists, t)
		}
	}
}
