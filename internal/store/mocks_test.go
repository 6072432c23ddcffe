package store

import (
	"context"
	"sync"

	"github.com/jbweber/ailsa/internal/query"
	"github.com/jbweber/ailsa/internal/value"
)

// mockAdapter is a mock implementation of backend.Adapter for testing.
type mockAdapter struct {
	executeBasicFunc    func(ctx context.Context, d *query.Descriptor) (*value.List, error)
	executeArgumentFunc func(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error)
	executeWriteFunc    func(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error)

	// Call tracking
	mu                   sync.Mutex
	executeBasicCalls    []string
	executeArgumentCalls []string
	executeWriteCalls    []string
}

func (m *mockAdapter) Engine() string { return "mock" }

func (m *mockAdapter) ExecuteBasic(ctx context.Context, d *query.Descriptor) (*value.List, error) {
	m.mu.Lock()
	m.executeBasicCalls = append(m.executeBasicCalls, d.Name)
	m.mu.Unlock()
	if m.executeBasicFunc != nil {
		return m.executeBasicFunc(ctx, d)
	}
	return value.NewList(), nil
}

func (m *mockAdapter) ExecuteArgument(ctx context.Context, d *query.Descriptor, args *value.List) (*value.List, error) {
	m.mu.Lock()
	m.executeArgumentCalls = append(m.executeArgumentCalls, d.Name)
	m.mu.Unlock()
	if m.executeArgumentFunc != nil {
		return m.executeArgumentFunc(ctx, d, args)
	}
	return value.NewList(), nil
}

func (m *mockAdapter) ExecuteWrite(ctx context.Context, d *query.Descriptor, args *value.List) (int64, error) {
	m.mu.Lock()
	m.executeWriteCalls = append(m.executeWriteCalls, d.Name)
	m.mu.Unlock()
	if m.executeWriteFunc != nil {
		return m.executeWriteFunc(ctx, d, args)
	}
	return 1, nil
}
