package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// CallTransport executes a read-only contract call and blocks until the node
// answers.
type CallTransport interface {
	// Call sends data to the contract at to and returns the raw return data.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// AsyncCallTransport executes a read-only contract call without blocking the
// caller. The returned handle is completed by the transport.
type AsyncCallTransport interface {
	// CallAsync queues data for the contract at to.
	CallAsync(ctx context.Context, to common.Address, data []byte) *Pending[[]byte]
}

// CallTransportFunc adapts a function to CallTransport.
type CallTransportFunc func(ctx context.Context, to common.Address, data []byte) ([]byte, error)

// Call calls f.
func (f CallTransportFunc) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	return f(ctx, to, data)
}
