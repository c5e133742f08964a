// Package utils holds small helpers shared by the clusterlens commands: build
// metadata for `clusterlens version` and certainty rounding.
package utils

// Build metadata, stamped by the release build through -ldflags -X. Version is
// also reported by the MCP server and as the source of feedback events.
var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
