package querycache

import (
	"context"
	"sync"
)

// Mutation wraps a single write operation and tracks its pending and error state.
type Mutation[In, Out any] struct {
	name    string
	run     func(context.Context, In) (Out, error)
	settled func(op string, err error)

	mu      sync.Mutex
	pending int
	err     error
}

func newMutation[In, Out any](name string, run func(context.Context, In) (Out, error), settled func(string, error)) *Mutation[In, Out] {
	return &Mutation[In, Out]{name: name, run: run, settled: settled}
}

// Do runs the write. The settled hook fires before Do returns, so a read issued
// after Do observes the invalidation.
func (m *Mutation[In, Out]) Do(ctx context.Context, in In) (Out, error) {
	m.mu.Lock()
	m.pending++
	m.mu.Unlock()

	out, err := m.run(ctx, in)

	m.mu.Lock()
	m.pending--
	m.err = err
	m.mu.Unlock()

	if m.settled != nil {
		m.settled(m.name, err)
	}
	return out, err
}

func (m *Mutation[In, Out]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending > 0
}

// Err is the error of the last completed call, nil after a success.
func (m *Mutation[In, Out]) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Reset clears the recorded error.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	m.err = nil
	m.mu.Unlock()
}
