package registrar

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrNoRegistryAddress is returned when a client is built without a registry contract address.
	ErrNoRegistryAddress = errors.New("registry contract address is not set")

	// ErrNoStrategy is returned when a client is built without an execution strategy.
	ErrNoStrategy = errors.New("no execution strategy configured")

	// ErrMissingMethod is returned when the registry ABI lacks a method the codec needs.
	ErrMissingMethod = errors.New("method missing from registry ABI")

	// ErrInvalidLength is returned when return data has the wrong size.
	ErrInvalidLength = errors.New("unexpected return data length")

	// ErrDirtyPadding is returned when the unused bytes of an address word are not zero.
	ErrDirtyPadding = errors.New("non-zero padding in address word")
)

// EncodingError means a call could not be ABI-encoded. It points at a broken
// ABI description or argument shape and is not worth retrying.
type EncodingError struct {
	Method string
	Err    error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoding %s call: %v", e.Method, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// TransportError means the call never produced return data: the node was
// unreachable, timed out or rejected the request.
type TransportError struct {
	To  common.Address
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("calling registry %s: %v", e.To.Hex(), e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DecodingError means the node answered with data that does not match the
// method's declared return type.
type DecodingError struct {
	Method string
	Len    int
	Err    error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("decoding %s result (%d bytes): %v", e.Method, e.Len, e.Err)
}

func (e *DecodingError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err came from the transport. Encoding and
// decoding failures are permanent for the same input.
func IsRetryable(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// transportFailure classifies a failed call. When the caller's context has
// ended the context error is returned as is, the same way Pending.Wait
// reports it, so both execution modes agree.
func transportFailure(ctx context.Context, to common.Address, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return wrapTransport(to, err)
}

func wrapTransport(to common.Address, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return &TransportError{To: to, Err: err}
}
