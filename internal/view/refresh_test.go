package view

import (
	"sync"
	"testing"
)

func TestRefreshSignal_CountsAndNotifies(t *testing.T) {
	s := NewRefreshSignal()
	ch, cancel := s.Subscribe()
	defer cancel()

	if got := s.RequestRefresh(); got != 1 {
		t.Fatalf("RequestRefresh() = %d, want 1", got)
	}
	if got := <-ch; got != 1 {
		t.Errorf("notified %d, want 1", got)
	}

	// A subscriber that falls behind only sees the latest count.
	s.RequestRefresh()
	s.RequestRefresh()
	if got := <-ch; got != 3 {
		t.Errorf("notified %d, want 3", got)
	}
	if s.Count() != 3 {
		t.Errorf("Count() = %d", s.Count())
	}
}

func TestRefreshSignal_Unsubscribe(t *testing.T) {
	s := NewRefreshSignal()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	s.RequestRefresh()
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after unsubscribe")
	}
}

func TestRefreshSignal_Concurrent(t *testing.T) {
	s := NewRefreshSignal()
	_, cancel := s.Subscribe()
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RequestRefresh()
		}()
	}
	wg.Wait()
	if s.Count() != 50 {
		t.Errorf("Count() = %d, want 50", s.Count())
	}
}
