package registrar

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// Mode selects when control returns to the caller of a registry call.
type Mode int

const (
	// ModeBlocking runs the call to completion on the calling goroutine.
	ModeBlocking Mode = iota
	// ModeDeferred returns at once; the transport completes the call later.
	ModeDeferred
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeDeferred:
		return "deferred"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses "blocking" or "deferred".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "blocking", "sync":
		return ModeBlocking, nil
	case "deferred", "async":
		return ModeDeferred, nil
	default:
		return 0, fmt.Errorf("unknown execution mode %q", s)
	}
}

// Strategy dispatches an encoded call to a transport. Transport failures
// complete the handle with a *TransportError, unless the caller's context
// ended first, in which case the handle carries ctx.Err().
type Strategy interface {
	Mode() Mode
	Dispatch(ctx context.Context, to common.Address, payload []byte) *interfaces.Pending[[]byte]
}

// Blocking performs each call on the calling goroutine. Dispatch returns an
// already completed handle.
type Blocking struct {
	transport interfaces.CallTransport
}

// NewBlocking returns a blocking strategy over transport.
func NewBlocking(transport interfaces.CallTransport) *Blocking {
	return &Blocking{transport: transport}
}

func (b *Blocking) Mode() Mode {
	return ModeBlocking
}

func (b *Blocking) Dispatch(ctx context.Context, to common.Address, payload []byte) *interfaces.Pending[[]byte] {
	raw, err := b.transport.Call(ctx, to, payload)
	if err != nil {
		return interfaces.Completed[[]byte](nil, transportFailure(ctx, to, err))
	}
	return interfaces.Completed(raw, nil)
}

// Deferred hands each call to an asynchronous transport and returns
// immediately.
type Deferred struct {
	transport interfaces.AsyncCallTransport
}

// NewDeferred returns a deferred strategy over transport.
func NewDeferred(transport interfaces.AsyncCallTransport) *Deferred {
	return &Deferred{transport: transport}
}

func (d *Deferred) Mode() Mode {
	return ModeDeferred
}

func (d *Deferred) Dispatch(ctx context.Context, to common.Address, payload []byte) *interfaces.Pending[[]byte] {
	out := interfaces.NewPending[[]byte]()
	d.transport.CallAsync(ctx, to, payload).OnComplete(func(raw []byte, err error) {
		if err != nil {
			out.Complete(nil, transportFailure(ctx, to, err))
			return
		}
		out.Complete(raw, nil)
	})
	return out
}

var (
	_ Strategy = (*Blocking)(nil)
	_ Strategy = (*Deferred)(nil)
)
