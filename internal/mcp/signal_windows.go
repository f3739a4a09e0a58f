//go:build windows

package mcp

import "os"

// shutdownSignals stop the stdio server. SIGTERM does not exist on Windows.
var shutdownSignals = []os.Signal{os.Interrupt}
