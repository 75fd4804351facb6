package editor

import (
	"context"
	"sync"

	"github.com/ZaguanLabs/livelang"
)

// MockPersister records save requests for testing.
type MockPersister struct {
	mu    sync.Mutex
	saved []livelang.SaveRequest
	Err   error // Returned from every Persist call when set
}

// NewMockPersister creates a persister that accepts everything.
func NewMockPersister() *MockPersister {
	return &MockPersister{}
}

// Persist records req.
func (m *MockPersister) Persist(ctx context.Context, req livelang.SaveRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, req)
	return m.Err
}

// Saved returns a copy of every request received.
func (m *MockPersister) Saved() []livelang.SaveRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]livelang.SaveRequest(nil), m.saved...)
}

// CallCount returns the number of Persist calls.
func (m *MockPersister) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// Reset forgets recorded requests.
func (m *MockPersister) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
}

// Verify MockPersister implements Persister
var _ Persister = (*MockPersister)(nil)
