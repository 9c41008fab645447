package explore

import (
	"sync"
	"sync/atomic"
)

// Signal is a set-once flag. Once fired it never resets.
type Signal struct {
	once  sync.Once
	fired atomic.Bool
	done  chan struct{}
}

// NewSignal returns an unfired signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// Fire sets the signal. It returns true only for the call that set it.
func (s *Signal) Fire() bool {
	first := false
	s.once.Do(func() {
		s.fired.Store(true)
		close(s.done)
		first = true
	})
	return first
}

// Fired reports whether the signal has been set.
func (s *Signal) Fired() bool {
	return s.fired.Load()
}

// Done returns a channel closed when the signal fires.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}
