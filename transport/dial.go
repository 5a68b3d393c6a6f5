package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ruteri/onchain-registrar/interfaces"
)

var ErrNoRPCAddr = errors.New("no rpc address configured")

// Config describes the transport stack built by Dial.
type Config struct {
	RPCAddrs    []string
	CallTimeout time.Duration

	// Block pins every call to a block number. Nil queries the latest state.
	Block *big.Int

	// CacheTTL enables the result cache when positive.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// BatchWindow enables JSON-RPC batching of asynchronous calls when
	// positive. Batching uses the first RPC address only.
	BatchWindow time.Duration
	MaxBatch    int
	MaxInFlight int

	Log *slog.Logger
}

// Set holds the blocking and asynchronous transports over the same nodes.
type Set struct {
	Blocking interfaces.CallTransport
	Async    interfaces.AsyncCallTransport

	clients []*rpc.Client
	batch   *BatchCaller
	cache   *Cached
}

// Dial connects to every configured node and assembles the transports.
func Dial(ctx context.Context, cfg Config) (*Set, error) {
	if len(cfg.RPCAddrs) == 0 {
		return nil, ErrNoRPCAddr
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	set := &Set{}
	nodes := make([]Node, 0, len(cfg.RPCAddrs))
	for _, addr := range cfg.RPCAddrs {
		rpcClient, err := rpc.DialContext(ctx, addr)
		if err != nil {
			set.Close()
			return nil, fmt.Errorf("could not dial %s: %w", addr, err)
		}
		set.clients = append(set.clients, rpcClient)
		nodes = append(nodes, Node{
			Name:      addr,
			Transport: NewEthCaller(ethclient.NewClient(rpcClient), cfg.CallTimeout, cfg.Log.With("node", addr)).AtBlock(cfg.Block),
		})
	}

	var blocking interfaces.CallTransport
	if len(nodes) == 1 {
		blocking = nodes[0].Transport
	} else {
		blocking = NewMultiNode(nodes, cfg.Log)
	}
	if cfg.CacheTTL > 0 {
		set.cache = NewCached(blocking, cfg.CacheTTL, cfg.CacheMaxEntries)
		set.cache.StartPurging(max(cfg.CacheTTL, time.Second))
		blocking = set.cache
	}
	set.Blocking = blocking

	if cfg.BatchWindow > 0 {
		set.batch = NewBatchCaller(set.clients[0], BatchCallerOpts{
			Window:   cfg.BatchWindow,
			MaxBatch: cfg.MaxBatch,
			Timeout:  cfg.CallTimeout,
			Block:    cfg.Block,
			Log:      cfg.Log,
		})
		set.Async = set.batch
	} else {
		set.Async = NewAsyncCaller(blocking, cfg.MaxInFlight)
	}

	cfg.Log.Info("transport ready",
		slog.Int("nodes", len(nodes)),
		slog.Duration("cacheTTL", cfg.CacheTTL),
		slog.Duration("batchWindow", cfg.BatchWindow))

	return set, nil
}

// Close flushes pending batches, stops cache purging and closes node
// connections.
func (s *Set) Close() {
	if s.batch != nil {
		s.batch.Close()
	}
	if s.cache != nil {
		s.cache.Close()
	}
	for _, c := range s.clients {
		c.Close()
	}
}
