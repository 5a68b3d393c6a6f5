package registrar

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// MockRegistrar mocks the interfaces.Registrar interface
type MockRegistrar struct {
	mock.Mock
}

// Resolve mocks the Resolve method
func (m *MockRegistrar) Resolve(ctx context.Context, name string, recordType string) (interfaces.ResolvedAddress, error) {
	args := m.Called(ctx, name, recordType)
	return args.Get(0).(interfaces.ResolvedAddress), args.Error(1)
}

// ResolveAsync mocks the ResolveAsync method
func (m *MockRegistrar) ResolveAsync(ctx context.Context, name string, recordType string) *interfaces.Pending[interfaces.ResolvedAddress] {
	args := m.Called(ctx, name, recordType)
	return args.Get(0).(*interfaces.Pending[interfaces.ResolvedAddress])
}

// Owner mocks the Owner method
func (m *MockRegistrar) Owner(ctx context.Context, name string) (interfaces.ResolvedAddress, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(interfaces.ResolvedAddress), args.Error(1)
}

// Data mocks the Data method
func (m *MockRegistrar) Data(ctx context.Context, name string, recordType string) (interfaces.ResolvedHash, error) {
	args := m.Called(ctx, name, recordType)
	return args.Get(0).(interfaces.ResolvedHash), args.Error(1)
}

// Reverse mocks the Reverse method
func (m *MockRegistrar) Reverse(ctx context.Context, addr common.Address) (interfaces.ResolvedName, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(interfaces.ResolvedName), args.Error(1)
}

// MockCallTransport mocks the interfaces.CallTransport interface
type MockCallTransport struct {
	mock.Mock
}

// Call mocks the Call method
func (m *MockCallTransport) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	args := m.Called(ctx, to, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// ManualAsyncTransport is an interfaces.AsyncCallTransport whose calls stay
// pending until the test completes them. It records every queued call.
type ManualAsyncTransport struct {
	mu    sync.Mutex
	calls []*ManualCall
}

// ManualCall is one call queued on a ManualAsyncTransport.
type ManualCall struct {
	To      common.Address
	Data    []byte
	Pending *interfaces.Pending[[]byte]
}

// CallAsync queues the call and returns its pending handle.
func (t *ManualAsyncTransport) CallAsync(ctx context.Context, to common.Address, data []byte) *interfaces.Pending[[]byte] {
	call := &ManualCall{
		To:      to,
		Data:    data,
		Pending: interfaces.NewPending[[]byte](),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, call)
	return call.Pending
}

// Calls returns a copy of the queued calls.
func (t *ManualAsyncTransport) Calls() []*ManualCall {
	t.mu.Lock()
	defer t.mu.Unlock()

	calls := make([]*ManualCall, len(t.calls))
	copy(calls, t.calls)
	return calls
}

// CompleteAll completes every queued call with raw and err.
func (t *ManualAsyncTransport) CompleteAll(raw []byte, err error) {
	for _, call := range t.Calls() {
		call.Pending.Complete(raw, err)
	}
}
