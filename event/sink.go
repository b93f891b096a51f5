package event

import "sync"

// Sink is an unbounded FIFO queue of events.
//
// Push never blocks on the consumer and nothing is ever dropped; the queue grows with available memory so that a slow
// consumer cannot lose results. Drain returns every queued event without waiting.
type Sink struct {
	// mu guards queue.
	mu    sync.Mutex
	queue []Event
}

// NewSink returns an empty Sink.
func NewSink() *Sink {
	return &Sink{}
}

// Push appends e to the end of the queue.
func (s *Sink) Push(e Event) {
	s.mu.Lock()
	s.queue = append(s.queue, e)
	s.mu.Unlock()
}

// Drain removes and returns all currently queued events in emission order.
//
// Returns nil if the queue is empty.
func (s *Sink) Drain() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return nil
	}

	// hand the backing array to the caller and start a new one so pushes never alias the drained batch.
	events := s.queue
	s.queue = nil
	return events
}

// Len returns the number of queued events.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Reset drops all queued events.
func (s *Sink) Reset() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}
