package messenger

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	m  *Messenger
	id uint64
}

// Close unsubscribes the handler. Closing twice is a no-op.
func (s *Subscription) Close() {
	if s == nil || s.m == nil {
		return
	}
	s.m.unsubscribe(s.id)
	s.m = nil
}

// Active reports whether the subscription still delivers messages.
func (s *Subscription) Active() bool {
	if s == nil || s.m == nil {
		return false
	}
	_, ok := s.m.index.Get(s.id)
	return ok
}

// Scope groups subscriptions that share an owner's lifetime. Closing the scope closes all of them.
type Scope struct {
	subs []*Subscription
}

// Add tracks sub in the scope and returns it.
func (s *Scope) Add(sub *Subscription) *Subscription {
	s.subs = append(s.subs, sub)
	return sub
}

// Len returns the number of tracked subscriptions.
func (s *Scope) Len() int {
	return len(s.subs)
}

// Close closes every tracked subscription in reverse order of addition.
func (s *Scope) Close() {
	for i := len(s.subs) - 1; i >= 0; i-- {
		s.subs[i].Close()
	}
	s.subs = nil
}
