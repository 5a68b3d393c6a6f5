package interfaces

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Registrar resolves human-readable names against an on-chain registry contract.
type Registrar interface {
	// Resolve returns the address stored for name under recordType.
	// An empty recordType selects the default address record.
	Resolve(ctx context.Context, name string, recordType string) (ResolvedAddress, error)

	// ResolveAsync is the non-blocking form of Resolve.
	ResolveAsync(ctx context.Context, name string, recordType string) *Pending[ResolvedAddress]

	// Owner returns the account that controls name.
	Owner(ctx context.Context, name string) (ResolvedAddress, error)

	// Data returns the bytes32 record stored for name under recordType.
	Data(ctx context.Context, name string, recordType string) (ResolvedHash, error)

	// Reverse returns the name registered for addr.
	Reverse(ctx context.Context, addr common.Address) (ResolvedName, error)
}
