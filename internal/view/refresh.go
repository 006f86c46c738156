package view

import "sync"

// Refresher requests that data be re-fetched.
type Refresher interface {
	RequestRefresh() uint64
}

// RefreshSignal is a counter incremented on every refresh request.
// Subscribers receive the latest count; a slow subscriber only ever sees
// the newest value.
type RefreshSignal struct {
	mu    sync.Mutex
	count uint64
	subs  map[int]chan uint64
	next  int
}

func NewRefreshSignal() *RefreshSignal {
	return &RefreshSignal{subs: make(map[int]chan uint64)}
}

// RequestRefresh increments the counter, notifies subscribers and
// returns the new count.
func (s *RefreshSignal) RequestRefresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.count++
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s.count
	}
	return s.count
}

func (s *RefreshSignal) Count() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Subscribe returns a channel carrying refresh counts and a func that
// unsubscribes and closes it.
func (s *RefreshSignal) Subscribe() (<-chan uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	ch := make(chan uint64, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}
