package enrichment

import "sync"

// CancelSignal asks a run to stop at the next batch boundary. Raising it
// never interrupts a batch in progress. A nil *CancelSignal is never raised.
type CancelSignal struct {
	once sync.Once
	done chan struct{}
}

// NewCancelSignal returns an unraised signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{done: make(chan struct{})}
}

// Raise requests cancellation. Calling it more than once is harmless.
func (s *CancelSignal) Raise() {
	if s == nil {
		return
	}
	s.once.Do(func() { close(s.done) })
}

// Requested reports whether Raise has been called.
func (s *CancelSignal) Requested() bool {
	if s == nil {
		return false
	}
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Done returns a channel that is closed once the signal is raised. For a nil
// signal it returns nil, which blocks forever.
func (s *CancelSignal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.done
}
