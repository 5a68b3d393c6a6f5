// Package transport provides interfaces.CallTransport and
// interfaces.AsyncCallTransport implementations backed by Ethereum JSON-RPC
// nodes.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// DefaultCallTimeout bounds a single eth_call when no timeout is configured.
const DefaultCallTimeout = 4 * time.Second

// EthCaller executes registry calls with eth_call through a ContractCaller
// such as *ethclient.Client.
type EthCaller struct {
	caller  ethereum.ContractCaller
	timeout time.Duration
	block   *big.Int
	log     *slog.Logger
}

// NewEthCaller creates a blocking transport. A zero timeout selects
// DefaultCallTimeout.
func NewEthCaller(caller ethereum.ContractCaller, timeout time.Duration, log *slog.Logger) *EthCaller {
	if timeout == 0 {
		timeout = DefaultCallTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &EthCaller{
		caller:  caller,
		timeout: timeout,
		log:     log,
	}
}

// AtBlock returns a copy of the caller pinned to block. A nil block queries
// the latest state.
func (c *EthCaller) AtBlock(block *big.Int) *EthCaller {
	pinned := *c
	pinned.block = block
	return &pinned
}

// Call performs eth_call against to with data.
func (c *EthCaller) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.caller.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, c.block)
	if err != nil {
		c.log.Debug("eth_call failed", slog.String("to", to.Hex()), "err", err)
		return nil, fmt.Errorf("eth_call to %s: %w", to.Hex(), err)
	}
	return out, nil
}

var _ interfaces.CallTransport = (*EthCaller)(nil)
