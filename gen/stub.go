package gen

import (
	"context"
	"fmt"
	"sync"
)

// Stub is a scripted Generator for tests. Each call consumes the next
// scripted response in order; calls past the script return an error.
type Stub struct {
	mu        sync.Mutex
	responses []StubResponse
	calls     int
}

// StubResponse is one scripted generator reply.
type StubResponse struct {
	// Text is the raw output to return.
	Text string
	// Err, when non-nil, is returned instead of Text.
	Err error
}

// NewStub creates a Stub that replays responses in order.
func NewStub(responses ...StubResponse) *Stub {
	return &Stub{responses: responses}
}

var _ Generator = (*Stub)(nil)

// Generate returns the next scripted response.
func (s *Stub) Generate(_ context.Context, _ string) (string, error) {
	return s.next()
}

// Repair returns the next scripted response.
func (s *Stub) Repair(_ context.Context, _ RepairRequest) (string, error) {
	return s.next()
}

// Calls reports how many responses have been consumed.
func (s *Stub) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Stub) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= len(s.responses) {
		return "", fmt.Errorf("stub exhausted after %d calls", s.calls)
	}
	r := s.responses[s.calls]
	s.calls++
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}
