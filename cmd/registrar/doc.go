/*
Registrar looks up names in an on-chain registry from the command line.

Usage:

	registrar --registry-contract 0x... [--rpc-addr URL ...] resolve [--record A] [--async] <name>
	registrar --registry-contract 0x... owner <name>
	registrar --registry-contract 0x... data [--record A] <name>
	registrar --registry-contract 0x... reverse <address>

Found entries are printed on stdout. An unregistered name exits with status 1.
Every flag can also be set through its REGISTRAR_* environment variable.
*/
package main
