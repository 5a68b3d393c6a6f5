package transport

import (
	"context"
	"errors"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ruteri/onchain-registrar/interfaces"
)

const (
	// DefaultBatchWindow is how long queued calls wait for company.
	DefaultBatchWindow = 5 * time.Millisecond

	// DefaultMaxBatch caps the number of calls in one JSON-RPC batch.
	DefaultMaxBatch = 100
)

// ErrBatchClosed is returned for calls queued after Close.
var ErrBatchClosed = errors.New("batch caller closed")

// BatchClient is the subset of *rpc.Client used by BatchCaller.
type BatchClient interface {
	BatchCallContext(ctx context.Context, b []rpc.BatchElem) error
}

// BatchCallerOpts configures a BatchCaller.
type BatchCallerOpts struct {
	Window   time.Duration
	MaxBatch int
	Timeout  time.Duration

	// Block pins calls to a block number. Nil queries the latest state.
	Block *big.Int
	Log   *slog.Logger
}

// BatchCaller queues asynchronous calls and sends them to the node as a
// single JSON-RPC batch once the window elapses or the batch is full.
type BatchCaller struct {
	client   BatchClient
	window   time.Duration
	maxBatch int
	timeout  time.Duration
	block    string
	log      *slog.Logger

	mu     sync.Mutex
	queue  []*batchCall
	timer  *time.Timer
	closed bool
}

type batchCall struct {
	ctx     context.Context
	to      common.Address
	data    []byte
	pending *interfaces.Pending[[]byte]
}

// NewBatchCaller creates a batching transport over client.
func NewBatchCaller(client BatchClient, opts BatchCallerOpts) *BatchCaller {
	if opts.Window <= 0 {
		opts.Window = DefaultBatchWindow
	}
	if opts.MaxBatch <= 0 {
		opts.MaxBatch = DefaultMaxBatch
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCallTimeout
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &BatchCaller{
		client:   client,
		window:   opts.Window,
		maxBatch: opts.MaxBatch,
		timeout:  opts.Timeout,
		block:    toBlockArg(opts.Block),
		log:      opts.Log,
	}
}

// CallAsync queues the call for the next batch.
func (b *BatchCaller) CallAsync(ctx context.Context, to common.Address, data []byte) *interfaces.Pending[[]byte] {
	call := &batchCall{
		ctx:     ctx,
		to:      to,
		data:    data,
		pending: interfaces.NewPending[[]byte](),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		call.pending.Complete(nil, ErrBatchClosed)
		return call.pending
	}

	b.queue = append(b.queue, call)
	if len(b.queue) >= b.maxBatch {
		batch := b.takeLocked()
		b.mu.Unlock()
		go b.send(batch)
		return call.pending
	}

	if b.timer == nil {
		b.timer = time.AfterFunc(b.window, b.flush)
	}
	b.mu.Unlock()
	return call.pending
}

// Close sends whatever is queued and rejects further calls.
func (b *BatchCaller) Close() {
	b.mu.Lock()
	b.closed = true
	batch := b.takeLocked()
	b.mu.Unlock()

	b.send(batch)
}

func (b *BatchCaller) flush() {
	b.mu.Lock()
	batch := b.takeLocked()
	b.mu.Unlock()

	b.send(batch)
}

func (b *BatchCaller) takeLocked() []*batchCall {
	batch := b.queue
	b.queue = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return batch
}

func (b *BatchCaller) send(batch []*batchCall) {
	live := batch[:0:0]
	for _, call := range batch {
		if err := call.ctx.Err(); err != nil {
			call.pending.Complete(nil, err)
			continue
		}
		live = append(live, call)
	}
	if len(live) == 0 {
		return
	}

	results := make([]hexutil.Bytes, len(live))
	elems := make([]rpc.BatchElem, len(live))
	for i, call := range live {
		elems[i] = rpc.BatchElem{
			Method: "eth_call",
			Args:   []interface{}{toCallArg(call.to, call.data), b.block},
			Result: &results[i],
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	start := time.Now()
	if err := b.client.BatchCallContext(ctx, elems); err != nil {
		b.log.Debug("eth_call batch failed", slog.Int("size", len(live)), "err", err)
		for _, call := range live {
			call.pending.Complete(nil, err)
		}
		return
	}

	b.log.Debug("eth_call batch sent",
		slog.Int("size", len(live)),
		slog.Duration("duration", time.Since(start)))

	for i, call := range live {
		if elems[i].Error != nil {
			call.pending.Complete(nil, elems[i].Error)
			continue
		}
		call.pending.Complete([]byte(results[i]), nil)
	}
}

func toBlockArg(block *big.Int) string {
	if block == nil {
		return "latest"
	}
	return hexutil.EncodeBig(block)
}

func toCallArg(to common.Address, data []byte) map[string]interface{} {
	arg := map[string]interface{}{
		"to": to,
	}
	if len(data) > 0 {
		arg["input"] = hexutil.Bytes(data)
	}
	return arg
}

var _ interfaces.AsyncCallTransport = (*BatchCaller)(nil)
