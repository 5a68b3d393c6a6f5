// Package main (cmd/httpserver) serves registry lookups over HTTP and,
// optionally, DNS.
//
// The server dials every --rpc-addr, builds a registrar client in the
// configured --mode and exposes it through the lookup API. When --dns-zone
// is set, TXT queries under that zone are answered from the same client.
//
// The server implements graceful shutdown on SIGINT/SIGTERM and supports
// health checks, metrics collection, and optional profiling endpoints.
//
// Example usage:
//
//	registrar-server --rpc-addr=http://localhost:8545 \
//	    --rpc-addr=http://backup:8545 \
//	    --registry-contract=0x5f3dba5e45909d1bf126aa0af0601b1a369dbfd7 \
//	    --listen-addr=0.0.0.0:8080 \
//	    --mode=deferred --batch-window=5ms \
//	    --dns-zone=reg.example. --dns-listen-addr=0.0.0.0:5353
package main
