package transport

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// DefaultMaxInFlight bounds concurrent calls of an AsyncCaller.
const DefaultMaxInFlight = 64

// AsyncCaller turns a blocking transport into an asynchronous one. Each call
// runs on its own goroutine, with at most maxInFlight calls outstanding.
type AsyncCaller struct {
	inner interfaces.CallTransport
	slots chan struct{}
}

// NewAsyncCaller wraps inner. A maxInFlight of zero selects DefaultMaxInFlight.
func NewAsyncCaller(inner interfaces.CallTransport, maxInFlight int) *AsyncCaller {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &AsyncCaller{
		inner: inner,
		slots: make(chan struct{}, maxInFlight),
	}
}

// CallAsync starts the call and returns immediately.
func (a *AsyncCaller) CallAsync(ctx context.Context, to common.Address, data []byte) *interfaces.Pending[[]byte] {
	p := interfaces.NewPending[[]byte]()
	go func() {
		select {
		case a.slots <- struct{}{}:
		case <-ctx.Done():
			p.Complete(nil, ctx.Err())
			return
		}
		defer func() { <-a.slots }()

		p.Complete(a.inner.Call(ctx, to, data))
	}()
	return p
}

var _ interfaces.AsyncCallTransport = (*AsyncCaller)(nil)
