// Package registrar resolves names to addresses through an on-chain registry
// contract.
package registrar

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ruteri/onchain-registrar/interfaces"
)

// Client implements interfaces.Registrar for one registry contract. It holds
// no mutable state and may be shared by concurrent callers as long as its
// transport allows concurrent use.
type Client struct {
	registry common.Address
	strategy Strategy
	codec    *Codec
	keys     *KeyDeriver
}

// Option customizes a Client.
type Option func(*Client)

// WithKeyDeriver replaces the default Keccak-256 key deriver.
func WithKeyDeriver(keys *KeyDeriver) Option {
	return func(c *Client) {
		c.keys = keys
	}
}

// WithCodec replaces the codec built from the generated bindings.
func WithCodec(codec *Codec) Option {
	return func(c *Client) {
		c.codec = codec
	}
}

// NewClient creates a client for the registry contract at registry that
// dispatches calls through strategy.
func NewClient(registry common.Address, strategy Strategy, opts ...Option) (*Client, error) {
	if registry == (common.Address{}) {
		return nil, ErrNoRegistryAddress
	}
	if strategy == nil {
		return nil, ErrNoStrategy
	}

	c := &Client{
		registry: registry,
		strategy: strategy,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.keys == nil {
		c.keys = defaultKeyDeriver
	}
	if c.codec == nil {
		codec, err := NewCodec()
		if err != nil {
			return nil, err
		}
		c.codec = codec
	}
	return c, nil
}

// RegistryAddress returns the registry contract the client queries.
func (c *Client) RegistryAddress() common.Address {
	return c.registry
}

// Mode returns the execution mode of the client's strategy.
func (c *Client) Mode() Mode {
	return c.strategy.Mode()
}

// call dispatches payload and attaches decode as a continuation of the raw
// result.
func call[T any](ctx context.Context, c *Client, payload []byte, decode func([]byte) (T, error)) *interfaces.Pending[T] {
	return interfaces.Then(c.strategy.Dispatch(ctx, c.registry, payload), decode)
}

func failed[T any](err error) *interfaces.Pending[T] {
	var zero T
	return interfaces.Completed(zero, err)
}

// Resolve returns the address registered for name under recordType, or the
// absent marker when the registry has no entry.
func (c *Client) Resolve(ctx context.Context, name string, recordType string) (interfaces.ResolvedAddress, error) {
	return c.ResolveAsync(ctx, name, recordType).Wait(ctx)
}

// ResolveAsync starts a lookup and returns a handle completed with the
// decoded address. Whether it returns before the node answers depends on the
// client's strategy: with Blocking the call runs to completion first and the
// handle is already complete, with Deferred it returns at once.
func (c *Client) ResolveAsync(ctx context.Context, name string, recordType string) *interfaces.Pending[interfaces.ResolvedAddress] {
	key := c.keys.Derive(name, recordType)
	payload, err := c.codec.EncodeLookup(key)
	if err != nil {
		return failed[interfaces.ResolvedAddress](err)
	}
	return call(ctx, c, payload, c.codec.DecodeAddress)
}

// Owner returns the account controlling name.
func (c *Client) Owner(ctx context.Context, name string) (interfaces.ResolvedAddress, error) {
	return c.OwnerAsync(ctx, name).Wait(ctx)
}

// OwnerAsync is the non-blocking form of Owner.
func (c *Client) OwnerAsync(ctx context.Context, name string) *interfaces.Pending[interfaces.ResolvedAddress] {
	payload, err := c.codec.EncodeOwner(c.keys.HashName(name))
	if err != nil {
		return failed[interfaces.ResolvedAddress](err)
	}
	return call(ctx, c, payload, c.codec.DecodeOwner)
}

// Data returns the bytes32 record stored for name under recordType.
func (c *Client) Data(ctx context.Context, name string, recordType string) (interfaces.ResolvedHash, error) {
	return c.DataAsync(ctx, name, recordType).Wait(ctx)
}

// DataAsync is the non-blocking form of Data.
func (c *Client) DataAsync(ctx context.Context, name string, recordType string) *interfaces.Pending[interfaces.ResolvedHash] {
	payload, err := c.codec.EncodeData(c.keys.Derive(name, recordType))
	if err != nil {
		return failed[interfaces.ResolvedHash](err)
	}
	return call(ctx, c, payload, c.codec.DecodeData)
}

// Reverse returns the name registered for addr.
func (c *Client) Reverse(ctx context.Context, addr common.Address) (interfaces.ResolvedName, error) {
	return c.ReverseAsync(ctx, addr).Wait(ctx)
}

// ReverseAsync is the non-blocking form of Reverse.
func (c *Client) ReverseAsync(ctx context.Context, addr common.Address) *interfaces.Pending[interfaces.ResolvedName] {
	payload, err := c.codec.EncodeReverse(addr)
	if err != nil {
		return failed[interfaces.ResolvedName](err)
	}
	return call(ctx, c, payload, c.codec.DecodeReverse)
}

var _ interfaces.Registrar = (*Client)(nil)
