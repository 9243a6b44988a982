package net

import (
	"sync"
)

// Slots is a set of last-write-wins registers keyed by path. Each path holds
// only its most recent value; there is no log. Subscribers receive the
// current value as soon as they subscribe and then every later write, in
// write order, each on its own delivery goroutine so a slow subscriber never
// blocks a writer.
type Slots struct {
	mu     sync.Mutex
	values map[string][]byte
	subs   map[string]map[*subscriber]struct{}
	closed bool
}

// NewSlots returns an empty register set.
func NewSlots() *Slots {
	return &Slots{
		values: map[string][]byte{},
		subs:   map[string]map[*subscriber]struct{}{},
	}
}

// Write replaces the value at path and fans it out to the path's subscribers.
func (s *Slots) Write(path string, value []byte) error {
	v := append([]byte(nil), value...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrHubClosed
	}
	s.values[path] = v
	for sub := range s.subs[path] {
		sub.push(v)
	}
	return nil
}

// Read returns the current value at path.
func (s *Slots) Read(path string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[path]
	return v, ok
}

// Subscribe registers fn for path. fn is called with the current value, if
// any, and then with every subsequent write. The returned cancel function
// stops delivery; it is safe to call more than once. fn must not modify the
// slice it is given; it is shared with other subscribers.
func (s *Slots) Subscribe(path string, fn func([]byte)) (cancel func(), err error) {
	sub := newSubscriber(fn)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrHubClosed
	}
	if s.subs[path] == nil {
		s.subs[path] = map[*subscriber]struct{}{}
	}
	s.subs[path][sub] = struct{}{}
	if v, ok := s.values[path]; ok {
		sub.push(v)
	}
	s.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs[path], sub)
			if len(s.subs[path]) == 0 {
				delete(s.subs, path)
			}
			s.mu.Unlock()
			sub.stop()
		})
	}, nil
}

// Close stops every subscriber and rejects further writes.
func (s *Slots) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for path, set := range s.subs {
		for sub := range set {
			sub.stop()
		}
		delete(s.subs, path)
	}
}

// subscriber is an unbounded, ordered mailbox drained by one goroutine.
type subscriber struct {
	fn      func([]byte)
	mu      sync.Mutex
	cond    *sync.Cond
	pending [][]byte
	stopped bool
}

func newSubscriber(fn func([]byte)) *subscriber {
	sub := &subscriber{fn: fn}
	sub.cond = sync.NewCond(&sub.mu)
	return sub
}

func (sub *subscriber) push(v []byte) {
	sub.mu.Lock()
	sub.pending = append(sub.pending, v)
	sub.mu.Unlock()
	sub.cond.Signal()
}

func (sub *subscriber) stop() {
	sub.mu.Lock()
	sub.stopped = true
	sub.pending = nil
	sub.mu.Unlock()
	sub.cond.Signal()
}

func (sub *subscriber) run() {
	for {
		sub.mu.Lock()
		for len(sub.pending) == 0 && !sub.stopped {
			sub.cond.Wait()
		}
		if sub.stopped {
			sub.mu.Unlock()
			return
		}
		v := sub.pending[0]
		sub.pending[0] = nil
		sub.pending = sub.pending[1:]
		sub.mu.Unlock()

		sub.fn(v)
	}
}
