package dns

import (
	"context"
	"sync"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/store"
	"github.com/jbweber/ailsa/internal/value"
)

// mockExecutor is a mock implementation of the executor interface for testing.
type mockExecutor struct {
	mu sync.Mutex

	// Configurable behavior
	basicFunc    func(id query.ID) (*value.List, error)
	argumentFunc func(id query.ID, args []value.Value) (*value.List, error)
	writeFunc    func(f query.Family, id query.ID, args []value.Value) (int64, error)
	lookupIDFunc func(id query.ID, args []value.Value) (int64, error)

	// Call tracking
	writeCalls    []query.ID
	lookupIDCalls []query.ID
}

// newMockExecutor returns a mock whose lookups find nothing and whose
// writes affect one row.
func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		basicFunc: func(query.ID) (*value.List, error) {
			return value.NewList(), nil
		},
		argumentFunc: func(query.ID, []value.Value) (*value.List, error) {
			return value.NewList(), nil
		},
		writeFunc: func(query.Family, query.ID, []value.Value) (int64, error) {
			return 1, nil
		},
		lookupIDFunc: func(query.ID, []value.Value) (int64, error) {
			return 0, store.ErrNotFound
		},
	}
}

func (m *mockExecutor) Basic(_ context.Context, id query.ID) (*value.List, error) {
	return m.basicFunc(id)
}

func (m *mockExecutor) Argument(_ context.Context, id query.ID, args ...value.Value) (*value.List, error) {
	return m.argumentFunc(id, args)
}

func (m *mockExecutor) Write(_ context.Context, f query.Family, id query.ID, args ...value.Value) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writeCalls = append(m.writeCalls, id)
	return m.writeFunc(f, id, args)
}

func (m *mockExecutor) LookupID(_ context.Context, id query.ID, args ...value.Value) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupIDCalls = append(m.lookupIDCalls, id)
	return m.lookupIDFunc(id, args)
}
