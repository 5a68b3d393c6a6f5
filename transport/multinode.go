package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// ErrNoNodes is returned by a MultiNode without nodes.
var ErrNoNodes = errors.New("no nodes configured")

// Node is a named transport to one RPC endpoint.
type Node struct {
	Name      string
	Transport interfaces.CallTransport
}

// MultiNode sends each call to every node at once and returns the first
// successful answer.
type MultiNode struct {
	nodes []Node
	log   *slog.Logger
}

// NewMultiNode creates a fan-out transport over nodes.
func NewMultiNode(nodes []Node, log *slog.Logger) *MultiNode {
	if log == nil {
		log = slog.Default()
	}
	return &MultiNode{nodes: nodes, log: log}
}

type nodeResult struct {
	data []byte
	err  error
}

// Call returns the first successful result, or all node errors joined.
func (m *MultiNode) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if len(m.nodes) == 0 {
		return nil, ErrNoNodes
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resCh := make(chan nodeResult, len(m.nodes))
	for i := range m.nodes {
		n := m.nodes[i]
		go func() {
			out, err := n.Transport.Call(ctx, to, data)
			if err != nil {
				err = fmt.Errorf("%s: %w", n.Name, err)
			}
			resCh <- nodeResult{data: out, err: err}
		}()
	}

	errs := []error{}
	for i := 0; i < len(m.nodes); i++ {
		result := <-resCh
		if result.err == nil {
			return result.data, nil
		}
		m.log.Debug("node call failed", "err", result.err)
		errs = append(errs, result.err)
	}
	return nil, fmt.Errorf("couldn't read from any nodes: %w", errors.Join(errs...))
}

var _ interfaces.CallTransport = (*MultiNode)(nil)
