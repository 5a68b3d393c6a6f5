// Package interfaces defines the capability set shared by the registry
// client, its transports and its front-ends.
//
// # Values
//
// Resolved[T] is a lookup answer that may be absent. The registry encodes
// "no entry" as the zero value, so Present(zero) is absent too.
//
// Pending[T] is a value available later. It is completed exactly once, by
// whoever owns the work, and can be waited on, polled, or chained with Then.
//
// # Transports
//
// CallTransport performs a read-only contract call and blocks.
// AsyncCallTransport returns a Pending handle immediately and completes it
// later.
//
// # Registrar
//
// Registrar is implemented by registrar.Client and mocked by
// registrar.MockRegistrar.
package interfaces
