// Package common holds process-wide helpers shared by the commands.
package common

// Version is set at build time with
// -ldflags "-X github.com/ruteri/onchain-registrar/common.Version=..."
var Version = "dev"

const PackageName = "github.com/ruteri/onchain-registrar"
