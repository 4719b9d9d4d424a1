//go:build windows

package main

import "os"

// shutdownSignals stop `serve` and `render -watch`. Windows has no SIGTERM;
// the runtime maps CTRL_BREAK and console close to os.Interrupt.
var shutdownSignals = []os.Signal{os.Interrupt}
