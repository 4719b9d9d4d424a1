//go:build !windows

package main

import (
	"os"
	"syscall"
)

// shutdownSignals stop `serve` and `render -watch`. SIGTERM is what process
// managers and container runtimes send.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
